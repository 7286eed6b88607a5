package dataset

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

//go:embed data/iris.csv
var irisCSV []byte

// Iris loads the bundled iris measurements: 150 samples, 4 features,
// 3 balanced classes.
func Iris() (*Dataset, error) {
	return FromCSV("iris", bytes.NewReader(irisCSV))
}

// FromCSV reads a dataset with a header row. The last column holds the
// class label; every other column is parsed as a float feature. Class
// indices follow first appearance order.
func FromCSV(name string, r io.Reader) (*Dataset, error) {
	rec := csv.NewReader(r)
	header, err := rec.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header: %v", ErrBadDataset, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: need at least one feature and a label column", ErrBadDataset)
	}
	nf := len(header) - 1

	ds := &Dataset{Name: name, FeatureNames: header[:nf]}
	classIdx := map[string]int{}
	for line := 2; ; line++ {
		row, err := rec.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadDataset, line, err)
		}
		sample := make([]float64, nf)
		for i := 0; i < nf; i++ {
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %v", ErrBadDataset, line, i+1, err)
			}
			sample[i] = v
		}
		label := row[nf]
		idx, ok := classIdx[label]
		if !ok {
			idx = len(ds.ClassNames)
			classIdx[label] = idx
			ds.ClassNames = append(ds.ClassNames, label)
		}
		ds.X = append(ds.X, sample)
		ds.Y = append(ds.Y, idx)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
