package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mlviz/internal/colorscale"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// classPalette lays out the canvas color slots for a dataset with n
// classes: bright class colors for samples, faint copies for boundary
// regions, then a white query marker and a yellow highlight.
func classPalette(n int) []lipgloss.Style {
	if n < 1 {
		n = 1
	}
	colors, _ := colorscale.Indexed(n, colorscale.SchemeCategory10)
	styles := make([]lipgloss.Style, 0, 2*n+2)
	for _, c := range colors {
		styles = append(styles, lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())))
	}
	for _, c := range colors {
		styles = append(styles, lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Faint(true))
	}
	return append(styles, white, yellow)
}

// boundarySlot maps a predicted class into the faint half of the palette.
func boundarySlot(n int) func(int) int {
	return func(class int) int { return n + class }
}

func querySlot(n int) int     { return 2 * n }
func highlightSlot(n int) int { return 2*n + 1 }

// seriesColors picks terminal colors for asciigraph series, cycling a
// fixed order roughly aligned with the class palette hues.
func seriesColors(n int) []asciigraph.AnsiColor {
	base := []asciigraph.AnsiColor{
		asciigraph.SteelBlue, asciigraph.Orange, asciigraph.Green,
		asciigraph.Red, asciigraph.Orchid, asciigraph.Gold,
	}
	out := make([]asciigraph.AnsiColor, n)
	for i := range out {
		out[i] = base[i%len(base)]
	}
	return out
}

// legend renders one colored swatch per class name.
func legend(names []string, palette []lipgloss.Style) string {
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("   ")
		}
		if i < len(palette) {
			b.WriteString(palette[i].Render("●") + " ")
		}
		b.WriteString(dim.Render(name))
	}
	return b.String()
}

// indent writes s into b with a two-column left margin on every line.
func indent(b *strings.Builder, s string) {
	for _, line := range strings.Split(s, "\n") {
		b.WriteString("  " + line + "\n")
	}
}
