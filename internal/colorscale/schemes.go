package colorscale

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Scheme names a built-in palette or ramp. The set is closed; parsing
// is the only way unknown names enter, and it rejects them.
type Scheme int

const (
	// SchemeCategory10 is the classic 10-color qualitative palette.
	SchemeCategory10 Scheme = iota
	// SchemeViridis is a perceptually uniform dark-to-bright ramp.
	SchemeViridis
	// SchemePlasma is a purple-to-yellow ramp.
	SchemePlasma
	// SchemeCoolWarm is a blue-white-red diverging ramp.
	SchemeCoolWarm
)

func (s Scheme) String() string {
	switch s {
	case SchemeCategory10:
		return "category10"
	case SchemeViridis:
		return "viridis"
	case SchemePlasma:
		return "plasma"
	case SchemeCoolWarm:
		return "coolwarm"
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// ParseScheme resolves a scheme by name.
func ParseScheme(name string) (Scheme, error) {
	switch name {
	case "category10", "":
		return SchemeCategory10, nil
	case "viridis":
		return SchemeViridis, nil
	case "plasma":
		return SchemePlasma, nil
	case "coolwarm":
		return SchemeCoolWarm, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// SchemeNames lists the parseable scheme names.
func SchemeNames() []string {
	return []string{"category10", "viridis", "plasma", "coolwarm"}
}

var category10 = []colorful.Color{
	mustHex("#1f77b4"), mustHex("#ff7f0e"), mustHex("#2ca02c"), mustHex("#d62728"),
	mustHex("#9467bd"), mustHex("#8c564b"), mustHex("#e377c2"), mustHex("#7f7f7f"),
	mustHex("#bcbd22"), mustHex("#17becf"),
}

var viridis = ramp{
	{0.00, mustHex("#440154")},
	{0.25, mustHex("#3b528b")},
	{0.50, mustHex("#21918c")},
	{0.75, mustHex("#5ec962")},
	{1.00, mustHex("#fde725")},
}

var plasma = ramp{
	{0.00, mustHex("#0d0887")},
	{0.25, mustHex("#7e03a8")},
	{0.50, mustHex("#cc4778")},
	{0.75, mustHex("#f89540")},
	{1.00, mustHex("#f0f921")},
}

var coolwarm = ramp{
	{0.0, mustHex("#3b4cc0")},
	{0.5, mustHex("#dddddd")},
	{1.0, mustHex("#b40426")},
}

// palette returns the discrete colors for qualitative schemes, nil for
// ramp schemes.
func (s Scheme) palette() []colorful.Color {
	if s == SchemeCategory10 {
		return category10
	}
	return nil
}

// stops returns the interpolation ramp for continuous schemes, nil for
// discrete ones.
func (s Scheme) stops() ramp {
	switch s {
	case SchemeViridis:
		return viridis
	case SchemePlasma:
		return plasma
	case SchemeCoolWarm:
		return coolwarm
	}
	return nil
}
