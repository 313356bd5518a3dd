package engine

import (
	"strings"
)

// Color is a foreground color for a frame cell. The TUI maps colors to
// ANSI 256-color styles.
type Color uint8

// Colors available to simulations.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorOrange
	ColorGray
)

// Cell is one character of a frame.
type Cell struct {
	Rune  rune
	Color Color
}

var blank = Cell{Rune: ' '}

// Frame is a 2D character buffer a simulation draws its view into.
// It keeps simulations independent of the terminal.
type Frame struct {
	width  int
	height int
	cells  []Cell
}

// NewFrame creates a blank frame with the given dimensions.
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	f := &Frame{width: width, height: height, cells: make([]Cell, width*height)}
	f.Clear()
	return f
}

// Width returns the frame width in characters.
func (f *Frame) Width() int {
	return f.width
}

// Height returns the frame height in characters.
func (f *Frame) Height() int {
	return f.height
}

// Clear fills the frame with blank cells.
func (f *Frame) Clear() {
	for i := range f.cells {
		f.cells[i] = blank
	}
}

// Set places a rune at (x, y). Out-of-bounds coordinates are ignored.
func (f *Frame) Set(x, y int, r rune, c Color) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	f.cells[y*f.width+x] = Cell{Rune: r, Color: c}
}

// Cell returns the cell at (x, y), or a blank cell out of bounds.
func (f *Frame) Cell(x, y int) Cell {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return blank
	}
	return f.cells[y*f.width+x]
}

// DrawText writes text horizontally starting at (x, y), clipped to the frame.
func (f *Frame) DrawText(x, y int, text string, c Color) {
	i := 0
	for _, r := range text {
		f.Set(x+i, y, r, c)
		i++
	}
}

// DrawTextCentered draws text centered horizontally on row y.
func (f *Frame) DrawTextCentered(y int, text string, c Color) {
	f.DrawText((f.width-len([]rune(text)))/2, y, text, c)
}

// DrawHLine draws a horizontal line of length cells from (x, y).
func (f *Frame) DrawHLine(x, y, length int, r rune, c Color) {
	for i := 0; i < length; i++ {
		f.Set(x+i, y, r, c)
	}
}

// Row returns row y as plain text.
func (f *Frame) Row(y int) string {
	if y < 0 || y >= f.height {
		return strings.Repeat(" ", f.width)
	}
	var sb strings.Builder
	for _, cell := range f.cells[y*f.width : (y+1)*f.width] {
		sb.WriteRune(cell.Rune)
	}
	return sb.String()
}

// String returns the frame as plain text, one line per row.
func (f *Frame) String() string {
	rows := make([]string, f.height)
	for y := range rows {
		rows[y] = f.Row(y)
	}
	return strings.Join(rows, "\n")
}
