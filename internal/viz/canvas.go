package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// NoColor marks cells that render in the default style.
const NoColor = -1

// Canvas is a Braille pixel canvas with an optional palette index per
// cell and a text overlay for axis labels. Dots give (Width*2) x
// (Height*4) addressable sub-pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Colors        [][]int
	Text          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Colors: make([][]int, h),
		Text:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Colors[i] = make([]int, w)
		c.Text[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
			c.Colors[i][j] = NoColor
		}
	}
	return c
}

// Set turns on the pixel at (x, y) in sub-pixel coordinates without
// touching the cell's color.
func (c *Canvas) Set(x, y int) {
	c.SetColored(x, y, NoColor)
}

// SetColored turns on a pixel and tags its cell with a palette index.
// When pixels of different colors share a cell the last write wins.
func (c *Canvas) SetColored(x, y, color int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if color != NoColor {
		c.Colors[row][col] = color
	}
}

// Unset clears a pixel
func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	mask := ^rune(pixelMap[y%4][x%2])
	c.Grid[row][col] &= mask
	if c.Grid[row][col] < 0x2800 {
		c.Grid[row][col] = 0x2800
	}
	if c.Grid[row][col] == 0x2800 {
		c.Colors[row][col] = NoColor
	}
}

// SetText writes a label into the overlay starting at cell (col, row).
// Overlay runes replace braille cells when rendering.
func (c *Canvas) SetText(col, row int, s string) {
	if row < 0 || row >= c.Height {
		return
	}
	for i, r := range []rune(s) {
		x := col + i
		if x < 0 {
			continue
		}
		if x >= c.Width {
			break
		}
		c.Text[row][x] = r
	}
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
			c.Colors[i][j] = NoColor
			c.Text[i][j] = 0
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	c.DrawLineColored(x0, y0, x1, y1, NoColor)
}

// DrawLineColored draws a Bresenham line tagged with a palette index.
func (c *Canvas) DrawLineColored(x0, y0, x1, y1, color int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.SetColored(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// String renders the canvas without styling, overlay text included.
func (c *Canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			if t := c.Text[row][col]; t != 0 {
				b.WriteRune(t)
			} else {
				b.WriteRune(c.Grid[row][col])
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Render colorizes the canvas, styling each cell by its palette index.
// Indices outside the palette fall back to the plain rune.
func (c *Canvas) Render(palette []lipgloss.Style) string {
	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			if t := c.Text[row][col]; t != 0 {
				b.WriteRune(t)
				continue
			}
			r := c.Grid[row][col]
			ci := c.Colors[row][col]
			if ci >= 0 && ci < len(palette) {
				b.WriteString(palette[ci].Render(string(r)))
			} else {
				b.WriteRune(r)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
