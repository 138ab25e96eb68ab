package ptui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Overlay encodes p for area when needed and returns a self-contained
// escape string that clears area, draws the image at its top-left cell and
// puts the cursor back. Screen coordinates are zero-based. An image that has
// not been encoded yet yields "".
func Overlay(p Protocol, area Rect) (string, error) {
	if p == nil || area.Empty() {
		return "", nil
	}
	if p.NeedsResize(area) {
		if err := p.ResizeEncode(area); err != nil {
			return "", err
		}
	}

	var clear strings.Builder
	buf := NewBuffer(area)
	if err := p.Render(area, buf, &clear); err != nil {
		return "", err
	}
	anchor := buf.Cell(area.X, area.Y)
	if anchor == nil || len(anchor.Symbol) <= 1 {
		return "", nil
	}

	var sb strings.Builder
	sb.Grow(clear.Len() + len(anchor.Symbol) + 32)
	sb.WriteString(ansi.SaveCursor)
	sb.WriteString(clear.String())
	fmt.Fprintf(&sb, "\x1b[%d;%dH", area.Y+1, area.X+1)
	sb.WriteString(anchor.Symbol)
	sb.WriteString(ansi.RestoreCursor)
	return sb.String(), nil
}
