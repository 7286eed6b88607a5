package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// Blobs draws n samples around k gaussian cluster centers placed on a
// circle, one class per center. Deterministic for a given seed.
func Blobs(n, k int, spread float64, seed int64) *Dataset {
	if k < 1 {
		k = 1
	}
	rng := rand.New(rand.NewSource(seed))

	centers := make([][2]float64, k)
	for i := range centers {
		angle := 2 * math.Pi * float64(i) / float64(k)
		centers[i] = [2]float64{4 * math.Cos(angle), 4 * math.Sin(angle)}
	}

	ds := &Dataset{
		Name:         "blobs",
		FeatureNames: []string{"x", "y"},
		ClassNames:   make([]string, k),
	}
	for i := range ds.ClassNames {
		ds.ClassNames[i] = fmt.Sprintf("cluster %d", i)
	}
	for i := 0; i < n; i++ {
		c := i % k
		ds.X = append(ds.X, []float64{
			centers[c][0] + rng.NormFloat64()*spread,
			centers[c][1] + rng.NormFloat64()*spread,
		})
		ds.Y = append(ds.Y, c)
	}
	return ds
}

// Moons draws two interleaved half circles with gaussian noise, the
// classic nonlinearly separable pair.
func Moons(n int, noise float64, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))
	half := n / 2

	ds := &Dataset{
		Name:         "moons",
		FeatureNames: []string{"x", "y"},
		ClassNames:   []string{"outer", "inner"},
	}
	for i := 0; i < half; i++ {
		t := math.Pi * float64(i) / float64(half)
		ds.X = append(ds.X, []float64{
			math.Cos(t) + rng.NormFloat64()*noise,
			math.Sin(t) + rng.NormFloat64()*noise,
		})
		ds.Y = append(ds.Y, 0)
	}
	for i := 0; i < n-half; i++ {
		t := math.Pi * float64(i) / float64(n-half)
		ds.X = append(ds.X, []float64{
			1 - math.Cos(t) + rng.NormFloat64()*noise,
			0.5 - math.Sin(t) + rng.NormFloat64()*noise,
		})
		ds.Y = append(ds.Y, 1)
	}
	return ds
}
