package ptui

import (
	"errors"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/mattn/go-isatty"

	"github.com/narbs/ptui/pkg/csi"
)

// Capability is the result of the one-shot terminal probe
type Capability struct {
	Graphics     GraphicsCapability
	Font         FontSize
	FontDetected bool
}

// DetectOptions lets callers replace the pieces of the probe that touch the
// real terminal. Zero values use the process stdin, os.Getenv and a CSI 16t query.
type DetectOptions struct {
	IsTerminal func() bool
	Getenv     func(string) string
	QueryFont  func() (width, height int, err error)
}

func (o DetectOptions) withDefaults() DetectOptions {
	if o.IsTerminal == nil {
		o.IsTerminal = stdinIsTerminal
	}
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	if o.QueryFont == nil {
		o.QueryFont = csi.CellSize
	}
	return o
}

// Detect probes the terminal once. Non-interactive stdin skips the query
// entirely so a missing terminal can never block startup.
func Detect(opts DetectOptions) Capability {
	opts = opts.withDefaults()

	capability := Capability{Graphics: None, Font: DefaultFontSize}

	if !opts.IsTerminal() {
		log.Debug("stdin is not a terminal, graphics disabled")
		return capability
	}

	termName := opts.Getenv("TERM")
	termProgram := opts.Getenv("TERM_PROGRAM")

	w, h, err := opts.QueryFont()
	switch {
	case err == nil:
		capability.Font = FontSize{Width: w, Height: h}
		capability.FontDetected = true
	case errors.Is(err, csi.ErrNoResponse):
		log.WithError(err).Debug("font size query unanswered, using default")
	default:
		log.WithError(err).Warn("terminal query failed, falling back to text mode")
		return capability
	}

	capability.Graphics = capabilityFromEnv(termName, termProgram)
	if capability.Graphics == None && strings.Contains(termName, "xterm") && capability.FontDetected {
		log.Debug("possible sixel support, using text mode")
	}

	log.WithFields(log.Fields{
		"term":         termName,
		"term_program": termProgram,
		"graphics":     capability.Graphics,
		"font":         capability.Font,
	}).Debug("terminal graphics detected")

	return capability
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
