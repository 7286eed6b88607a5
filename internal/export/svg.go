// Package export renders plots to standalone SVG files.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/mlviz/internal/plot"
	"github.com/san-kum/mlviz/internal/viz"
)

const (
	background  = "#0a0a0a"
	defaultFill = "#c8c8c8"
	textFill    = "#8a8a8a"
)

// Braille dot-to-bit mapping
var pixelMap = [4][2]int{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot.
// Dots take their cell's palette color; palette entries are SVG fill
// colors such as "#ff7f0e". scale is the dot pitch in SVG units.
func CanvasToSVG(canvas *viz.Canvas, scale float64, palette []string) string {
	if canvas == nil {
		return ""
	}
	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	// Bucket circles by color so each fill is written once. Bucket 0
	// holds uncolored cells.
	groups := make([][]string, len(palette)+1)
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			bucket := 0
			if ci := canvas.Colors[row][col]; ci >= 0 && ci < len(palette) {
				bucket = ci + 1
			}

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					groups[bucket] = append(groups[bucket],
						fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>`, cx, cy, dotRadius))
				}
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))

	for bucket, circles := range groups {
		if len(circles) == 0 {
			continue
		}
		fill := defaultFill
		if bucket > 0 {
			fill = palette[bucket-1]
		}
		sb.WriteString(fmt.Sprintf("<g fill=%q>\n", fill))
		for _, c := range circles {
			sb.WriteString(c)
			sb.WriteByte('\n')
		}
		sb.WriteString("</g>\n")
	}

	writeTextOverlay(&sb, canvas, scale)

	sb.WriteString("</svg>")
	return sb.String()
}

// writeTextOverlay emits the canvas text layer as monospace text runs.
func writeTextOverlay(sb *strings.Builder, canvas *viz.Canvas, scale float64) {
	var texts []string
	for row := 0; row < canvas.Height; row++ {
		col := 0
		for col < canvas.Width {
			if canvas.Text[row][col] == 0 {
				col++
				continue
			}
			start := col
			var run []rune
			for col < canvas.Width && canvas.Text[row][col] != 0 {
				run = append(run, canvas.Text[row][col])
				col++
			}
			x := float64(start) * scale * 2
			y := float64(row)*scale*4 + scale*3
			texts = append(texts, fmt.Sprintf(`<text x="%.1f" y="%.1f">%s</text>`,
				x, y, textEscaper.Replace(string(run))))
		}
	}
	if len(texts) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("<g fill=%q font-family=\"monospace\" font-size=\"%.1f\">\n", textFill, scale*3.2))
	for _, t := range texts {
		sb.WriteString(t)
		sb.WriteByte('\n')
	}
	sb.WriteString("</g>\n")
}

// ScatterToSVG renders a scene as vector shapes instead of braille
// dots: boundary mesh cells become translucent squares behind sample
// circles. Only the first two axes are drawn. Class indices pick from
// palette and fall back to a neutral fill past its end.
func ScatterToSVG(scene plot.Scene, width, height int, palette []string) (string, error) {
	if len(scene.Points) == 0 {
		return "", plot.ErrNoData
	}
	var mesh [][]float64
	if scene.Boundary != nil {
		if err := scene.Boundary.Validate(); err != nil {
			return "", err
		}
		mesh = scene.Boundary.Mesh
	}
	bounds, err := plot.CalculateBounds(plot.Coords(scene.Points), mesh, 0.1)
	if err != nil {
		return "", err
	}
	if bounds.Dims() < 2 {
		return "", fmt.Errorf("%w: bounds cover %d axes, want 2", plot.ErrDimensionMismatch, bounds.Dims())
	}

	px := func(v float64) float64 { return (v - bounds.Min(0)) / bounds.Range(0) * float64(width) }
	py := func(v float64) float64 { return float64(height) - (v-bounds.Min(1))/bounds.Range(1)*float64(height) }
	fill := func(class int) string {
		if class >= 0 && class < len(palette) {
			return palette[class]
		}
		return defaultFill
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))

	if scene.Boundary != nil {
		// The mesh is a square grid; size cells to its spacing so the
		// regions tile without gaps.
		res := int(math.Round(math.Sqrt(float64(len(mesh)))))
		if res < 2 {
			res = 2
		}
		cw := float64(width) / float64(res-1)
		ch := float64(height) / float64(res-1)
		sb.WriteString("<g fill-opacity=\"0.3\">\n")
		for i, row := range mesh {
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill=%q/>`,
				px(row[0])-cw/2, py(row[1])-ch/2, cw, ch, fill(scene.Boundary.Classes[i])))
			sb.WriteByte('\n')
		}
		sb.WriteString("</g>\n")
	}

	for _, p := range scene.Points {
		class := -1
		if p.Kind == plot.KindClassification {
			class = p.Class
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill=%q/>`,
			px(p.Coords[0]), py(p.Coords[1]), fill(class)))
		sb.WriteByte('\n')
	}

	if scene.Query != nil {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="6" fill="none" stroke="#ffffff" stroke-width="1.5"/>`,
			px(scene.Query[0]), py(scene.Query[1])))
		sb.WriteByte('\n')
	}

	sb.WriteString("</svg>")
	return sb.String(), nil
}
