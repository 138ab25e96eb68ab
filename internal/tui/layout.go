package tui

import "github.com/narbs/ptui"

const (
	wideScreenPercent   = 10
	narrowScreenPercent = 15
	narrowScreenCutoff  = 120
	dividerStep         = 2
)

// Layout splits the screen into the file list, the preview and the message
// pane. BrowserPercent is the share of the width given to the file list.
type Layout struct {
	BrowserPercent int
	minPercent     int
}

// Panes are the screen areas of one layout pass. Preview is the inner area
// of the preview frame.
type Panes struct {
	Files    ptui.Rect
	Frame    ptui.Rect
	Preview  ptui.Rect
	Messages ptui.Rect
}

// Calculate lays out a width x height screen. The file list starts at its
// minimum share: 10% on screens wider than 120 columns, 15% otherwise.
func (l *Layout) Calculate(width, height int) Panes {
	l.minPercent = narrowScreenPercent
	if width > narrowScreenCutoff {
		l.minPercent = wideScreenPercent
	}
	if l.BrowserPercent == 0 {
		l.BrowserPercent = l.minPercent
	}
	l.BrowserPercent = min(max(l.BrowserPercent, l.minPercent), 100-l.minPercent)

	msgH := 1
	if height > 10 {
		msgH = 3
	}
	mainH := max(height-msgH, 0)
	filesW := width * l.BrowserPercent / 100

	frame := ptui.Rect{X: filesW, Y: 0, Width: width - filesW, Height: mainH}
	return Panes{
		Files: ptui.Rect{X: 0, Y: 0, Width: filesW, Height: mainH},
		Frame: frame,
		Preview: ptui.Rect{
			X:      frame.X + 1,
			Y:      frame.Y + 1,
			Width:  max(frame.Width-2, 0),
			Height: max(frame.Height-2, 0),
		},
		Messages: ptui.Rect{X: 0, Y: mainH, Width: width, Height: msgH},
	}
}

// Shrink moves the divider left. It reports false at the limit.
func (l *Layout) Shrink() bool {
	if l.BrowserPercent <= l.minPercent {
		return false
	}
	l.BrowserPercent = max(l.BrowserPercent-dividerStep, l.minPercent)
	return true
}

// Grow moves the divider right. It reports false at the limit.
func (l *Layout) Grow() bool {
	if l.BrowserPercent >= 100-l.minPercent {
		return false
	}
	l.BrowserPercent = min(l.BrowserPercent+dividerStep, 100-l.minPercent)
	return true
}
