package ptui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Rect is a screen area in cells. X and Y are zero-based.
type Rect struct {
	X, Y          int
	Width, Height int
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Cell is one terminal cell. Symbol may hold a whole escape sequence; Skip
// marks a cell covered by an image that must not be redrawn.
type Cell struct {
	Symbol string
	Skip   bool
}

// Buffer is a grid of cells over Area.
type Buffer struct {
	Area  Rect
	cells []Cell
}

// NewBuffer returns a buffer over area filled with spaces
func NewBuffer(area Rect) *Buffer {
	b := &Buffer{Area: area, cells: make([]Cell, max(area.Width, 0)*max(area.Height, 0))}
	for i := range b.cells {
		b.cells[i].Symbol = " "
	}
	return b
}

// Cell returns the cell at absolute position (x, y), or nil outside Area.
func (b *Buffer) Cell(x, y int) *Cell {
	if !b.Area.Contains(x, y) {
		return nil
	}
	return &b.cells[(y-b.Area.Y)*b.Area.Width+(x-b.Area.X)]
}

// SetString writes s starting at (x, y), clipped to the row. Wide runes take
// two cells; the second one is left empty. Returns the columns used.
func (b *Buffer) SetString(x, y int, s string) int {
	col := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > b.Area.X+b.Area.Width {
			break
		}
		if c := b.Cell(col, y); c != nil {
			c.Symbol = string(r)
			c.Skip = false
		}
		if w == 2 {
			if c := b.Cell(col+1, y); c != nil {
				c.Symbol = ""
				c.Skip = false
			}
		}
		col += w
	}
	return col - x
}

// Lines renders each row, leaving out skipped cells.
func (b *Buffer) Lines() []string {
	lines := make([]string, b.Area.Height)
	var sb strings.Builder
	for row := 0; row < b.Area.Height; row++ {
		sb.Reset()
		for col := 0; col < b.Area.Width; col++ {
			c := b.cells[row*b.Area.Width+col]
			if c.Skip {
				continue
			}
			sb.WriteString(c.Symbol)
		}
		lines[row] = sb.String()
	}
	return lines
}

// String joins Lines with newlines
func (b *Buffer) String() string {
	return strings.Join(b.Lines(), "\n")
}
