package dataset

import (
	"errors"
	"strings"
	"testing"
)

func TestIris(t *testing.T) {
	ds, err := Iris()
	if err != nil {
		t.Fatalf("Iris: %v", err)
	}
	if ds.NumSamples() != 150 {
		t.Errorf("samples = %d, want 150", ds.NumSamples())
	}
	if ds.NumFeatures() != 4 {
		t.Errorf("features = %d, want 4", ds.NumFeatures())
	}
	if ds.NumClasses() != 3 {
		t.Fatalf("classes = %d, want 3", ds.NumClasses())
	}
	for i, want := range []int{50, 50, 50} {
		if got := ds.ClassCounts()[i]; got != want {
			t.Errorf("class %d count = %d, want %d", i, got, want)
		}
	}
	if ds.ClassNames[0] != "setosa" {
		t.Errorf("first class = %q, want setosa", ds.ClassNames[0])
	}
	if err := ds.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	// Setosa petal lengths sit entirely below the other two classes,
	// which is what makes iris a good first-split demo.
	petal, err := ds.Column(2)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	for i, v := range petal {
		if ds.Y[i] == 0 && v >= 2.5 {
			t.Errorf("setosa row %d petal length %v", i, v)
		}
		if ds.Y[i] != 0 && v <= 2.5 {
			t.Errorf("non-setosa row %d petal length %v", i, v)
		}
	}
}

func TestFromCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"header only column", "x\n1\n"},
		{"bad float", "x,label\noops,a\n"},
		{"ragged row", "x,y,label\n1,2,a\n1,b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromCSV("t", strings.NewReader(tt.in)); !errors.Is(err, ErrBadDataset) {
				t.Errorf("err = %v, want ErrBadDataset", err)
			}
		})
	}
}

func TestSubsetSharesRows(t *testing.T) {
	ds, _ := Iris()
	sub := ds.Subset([]int{0, 149})
	if sub.NumSamples() != 2 {
		t.Fatalf("subset size = %d", sub.NumSamples())
	}
	if &sub.X[0][0] != &ds.X[0][0] {
		t.Errorf("subset copied rows")
	}
	if sub.Y[1] != ds.Y[149] {
		t.Errorf("labels misaligned")
	}
}

func TestSelectFeatures(t *testing.T) {
	ds, _ := Iris()
	proj, err := ds.SelectFeatures(2, 3)
	if err != nil {
		t.Fatalf("SelectFeatures: %v", err)
	}
	if proj.NumFeatures() != 2 {
		t.Fatalf("features = %d", proj.NumFeatures())
	}
	if proj.FeatureNames[0] != ds.FeatureNames[2] {
		t.Errorf("name order wrong: %v", proj.FeatureNames)
	}
	if proj.X[0][0] != ds.X[0][2] || proj.X[0][1] != ds.X[0][3] {
		t.Errorf("values misprojected: %v", proj.X[0])
	}
	if _, err := ds.SelectFeatures(9); !errors.Is(err, ErrBadFeature) {
		t.Errorf("out of range err = %v", err)
	}
}

func TestSplitDeterministic(t *testing.T) {
	ds, _ := Iris()
	train1, test1 := ds.Split(0.2, 42)
	train2, test2 := ds.Split(0.2, 42)

	if test1.NumSamples() != 30 || train1.NumSamples() != 120 {
		t.Fatalf("split sizes = %d/%d", train1.NumSamples(), test1.NumSamples())
	}
	for i := range test1.Y {
		if test1.Y[i] != test2.Y[i] {
			t.Fatalf("same seed produced different splits")
		}
	}
	_ = train2

	trainAll, testNone := ds.Split(0, 1)
	if trainAll.NumSamples() != 150 || testNone.NumSamples() != 0 {
		t.Errorf("zero test fraction: %d/%d", trainAll.NumSamples(), testNone.NumSamples())
	}
}

func TestSynthGenerators(t *testing.T) {
	blobs := Blobs(180, 3, 0.9, 7)
	if blobs.NumSamples() != 180 || blobs.NumClasses() != 3 {
		t.Errorf("blobs shape: %d samples %d classes", blobs.NumSamples(), blobs.NumClasses())
	}
	if err := blobs.Validate(); err != nil {
		t.Errorf("blobs invalid: %v", err)
	}

	moons := Moons(200, 0.12, 11)
	if moons.NumSamples() != 200 || moons.NumClasses() != 2 {
		t.Errorf("moons shape: %d samples %d classes", moons.NumSamples(), moons.NumClasses())
	}
	if err := moons.Validate(); err != nil {
		t.Errorf("moons invalid: %v", err)
	}

	again := Blobs(180, 3, 0.9, 7)
	if again.X[0][0] != blobs.X[0][0] {
		t.Errorf("same seed produced different blobs")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	names := r.Names()
	if len(names) < 3 {
		t.Fatalf("registry names = %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i] < names[i-1] {
			t.Errorf("names not sorted: %v", names)
		}
	}
	ds, err := r.Load("iris")
	if err != nil || ds.Name != "iris" {
		t.Errorf("Load(iris) = %v, %v", ds, err)
	}
	if _, err := r.Load("digits-3d"); !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("unknown dataset err = %v", err)
	}
}
