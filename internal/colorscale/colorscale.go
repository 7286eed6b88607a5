// Package colorscale builds the color mappings plots draw with:
// categorical assignments for class labels and continuous ramps for
// numeric values. All colors are [colorful.Color] values; callers
// convert to terminal styles or SVG fills at the edge.
package colorscale

import (
	"errors"
	"fmt"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	ErrUnknownScheme  = errors.New("colorscale: unknown scheme")
	ErrBadDomain      = errors.New("colorscale: malformed domain")
	ErrDiscreteScheme = errors.New("colorscale: scheme has no continuous ramp")
)

// fallback is returned for values outside a categorical domain.
var fallback = mustHex("#7f7f7f")

// Categorical maps each domain value to a fixed color, assigned in
// first-occurrence order. Discrete schemes cycle their palette when the
// domain outgrows it; continuous schemes are sampled at evenly spaced
// ramp positions. Values outside the domain map to a neutral gray.
func Categorical(domain []string, scheme Scheme) (func(string) colorful.Color, error) {
	if len(domain) == 0 {
		return nil, fmt.Errorf("%w: empty domain", ErrBadDomain)
	}
	uniq := make([]string, 0, len(domain))
	seen := make(map[string]struct{}, len(domain))
	for _, v := range domain {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		uniq = append(uniq, v)
	}

	colors, err := Indexed(len(uniq), scheme)
	if err != nil {
		return nil, err
	}
	byValue := make(map[string]colorful.Color, len(uniq))
	for i, v := range uniq {
		byValue[v] = colors[i]
	}
	return func(v string) colorful.Color {
		if c, ok := byValue[v]; ok {
			return c
		}
		return fallback
	}, nil
}

// Indexed returns n colors for class indices 0..n-1 under a scheme.
func Indexed(n int, scheme Scheme) ([]colorful.Color, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d colors requested", ErrBadDomain, n)
	}
	out := make([]colorful.Color, n)
	if pal := scheme.palette(); pal != nil {
		for i := range out {
			out[i] = pal[i%len(pal)]
		}
		return out, nil
	}
	r := scheme.stops()
	if r == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownScheme, scheme)
	}
	if n == 1 {
		return []colorful.Color{r.at(0.5)}, nil
	}
	for i := range out {
		out[i] = r.at(float64(i) / float64(n-1))
	}
	return out, nil
}

// Continuous maps [min, max] onto a scheme's ramp. Inputs outside the
// domain clamp to the nearest end. A collapsed domain (min == max)
// yields the ramp midpoint for every input.
func Continuous(min, max float64, scheme Scheme) (func(float64) colorful.Color, error) {
	if min > max {
		return nil, fmt.Errorf("%w: min %v > max %v", ErrBadDomain, min, max)
	}
	r := scheme.stops()
	if r == nil {
		if scheme.palette() != nil {
			return nil, fmt.Errorf("%w: %v", ErrDiscreteScheme, scheme)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnknownScheme, scheme)
	}
	if min == max {
		mid := r.at(0.5)
		return func(float64) colorful.Color { return mid }, nil
	}
	span := max - min
	return func(v float64) colorful.Color {
		return r.at((v - min) / span)
	}, nil
}

// stop anchors a ramp color at an offset in [0,1].
type stop struct {
	offset float64
	color  colorful.Color
}

type ramp []stop

// at interpolates the ramp color at t, blending neighbouring stops in
// Lab space. Offsets outside the stop range clamp to the end colors.
func (r ramp) at(t float64) colorful.Color {
	if t <= r[0].offset {
		return r[0].color
	}
	last := r[len(r)-1]
	if t >= last.offset {
		return last.color
	}
	hi := sort.Search(len(r), func(i int) bool { return r[i].offset >= t })
	lo := hi - 1
	span := r[hi].offset - r[lo].offset
	frac := (t - r[lo].offset) / span
	return r[lo].color.BlendLab(r[hi].color, frac).Clamped()
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("colorscale: bad palette literal " + s)
	}
	return c
}
