package ptui

import "strings"

// GraphicsCapability is the pixel graphics protocol a terminal understands
type GraphicsCapability int

const (
	// None means text mode only
	None GraphicsCapability = iota
	Kitty
	ITerm2
	// Sixel is recognised but never selected; there is no Sixel encoder.
	Sixel
)

func (g GraphicsCapability) String() string {
	switch g {
	case Kitty:
		return "kitty"
	case ITerm2:
		return "iterm2"
	case Sixel:
		return "sixel"
	default:
		return "none"
	}
}

// Graphical reports whether the capability has a working encoder
func (g GraphicsCapability) Graphical() bool {
	return g == Kitty || g == ITerm2
}

// FontSize is the pixel size of one terminal cell
type FontSize struct {
	Width  int
	Height int
}

// DefaultFontSize is used whenever the terminal cannot report its cell size
var DefaultFontSize = FontSize{Width: 14, Height: 28}

// CharAspect is the cell height/width ratio, 2.0 when unknown
func (f FontSize) CharAspect() float64 {
	if f.Width <= 0 || f.Height <= 0 {
		return 2.0
	}
	return float64(f.Height) / float64(f.Width)
}

// capabilityFromEnv applies the TERM / TERM_PROGRAM precedence rules.
func capabilityFromEnv(termName, termProgram string) GraphicsCapability {
	switch {
	case strings.Contains(termName, "kitty"),
		strings.Contains(termProgram, "ghostty"),
		strings.Contains(termProgram, "WezTerm"):
		return Kitty
	case strings.Contains(termProgram, "iTerm"):
		return ITerm2
	default:
		return None
	}
}
