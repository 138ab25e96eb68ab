package ptui

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/apex/log"

	"github.com/narbs/ptui/internal/config"
)

// Converter turns an image file into terminal text. The set of converters is
// closed: Chafa, Jp2a, Graphical and Halfblocks.
type Converter interface {
	Convert(path string, width, height int) (string, error)
	Name() string
	SupportsTransitions() bool
	IsGraphical() bool

	converter()
}

// CommandResult is the captured outcome of an external process that ran.
type CommandResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandRunner runs external tools. Run returns an error only when the
// process could not be started; a non-zero exit is reported in the result.
type CommandRunner interface {
	Run(name string, args ...string) (CommandResult, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

func (ExecRunner) Run(name string, args ...string) (CommandResult, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := CommandResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

// ConverterOptions carries the collaborators converters need. Zero values
// mean ExecRunner, os.Getenv and NewLoader().
type ConverterOptions struct {
	Runner CommandRunner
	Getenv func(string) string
	Loader *Loader
}

func (o ConverterOptions) withDefaults() ConverterOptions {
	if o.Runner == nil {
		o.Runner = ExecRunner{}
	}
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	if o.Loader == nil {
		o.Loader = NewLoader()
	}
	return o
}

// runTool runs name and returns stdout, mapping failures to ToolUnavailable.
func runTool(runner CommandRunner, name, label string, args []string) (string, error) {
	res, err := runner.Run(name, args...)
	if err != nil {
		return "", newError(ToolUnavailable, name, "Failed to execute "+name, err)
	}
	if res.ExitCode != 0 {
		msg := fmt.Sprintf("%s error: %s", label, strings.ToValidUTF8(string(res.Stderr), "�"))
		return "", newError(ToolUnavailable, name, msg, nil)
	}
	return strings.ToValidUTF8(string(res.Stdout), "�"), nil
}

// Chafa renders with the chafa tool. Its output mixes colour and cursor
// codes, so it never animates.
type Chafa struct {
	Format string
	Colors string

	runner CommandRunner
}

// NewChafa builds a Chafa converter. Terminal.app cannot show 24-bit colour,
// so "full" is lowered to "256" there.
func NewChafa(cfg config.ChafaConfig, opts ConverterOptions) *Chafa {
	opts = opts.withDefaults()
	colors := cfg.Colors
	if strings.Contains(opts.Getenv("TERM_PROGRAM"), "Apple_Terminal") && colors == "full" {
		log.Debug("Terminal.app detected, using 256 colors for chafa")
		colors = "256"
	}
	return &Chafa{Format: cfg.Format, Colors: colors, runner: opts.Runner}
}

// Args returns the chafa command line for a conversion
func (c *Chafa) Args(path string, width, height int) []string {
	return []string{
		"-f", c.Format,
		"-c", c.Colors,
		"--size", fmt.Sprintf("%dx%d", width, height),
		path,
	}
}

func (c *Chafa) Convert(path string, width, height int) (string, error) {
	return runTool(c.runner, "chafa", "Chafa", c.Args(path, width, height))
}

func (c *Chafa) Name() string              { return config.ConverterChafa }
func (c *Chafa) SupportsTransitions() bool { return false }
func (c *Chafa) IsGraphical() bool         { return false }
func (c *Chafa) converter()                {}

// Jp2a renders with the jp2a tool. Its plain character output animates well.
type Jp2a struct {
	Colors bool
	Invert bool
	Chars  string

	runner CommandRunner
}

func NewJp2a(cfg config.Jp2aConfig, opts ConverterOptions) *Jp2a {
	opts = opts.withDefaults()
	return &Jp2a{Colors: cfg.Colors, Invert: cfg.Invert, Chars: cfg.Chars, runner: opts.Runner}
}

// Args returns the jp2a command line for a conversion
func (j *Jp2a) Args(path string, width, height int) []string {
	args := []string{fmt.Sprintf("--size=%dx%d", width, height)}
	if j.Colors {
		args = append(args, "--colors")
	}
	if j.Invert {
		args = append(args, "--invert")
	}
	if j.Chars != "" {
		args = append(args, "--chars="+j.Chars)
	}
	return append(args, path)
}

func (j *Jp2a) Convert(path string, width, height int) (string, error) {
	return runTool(j.runner, "jp2a", "jp2a", j.Args(path, width, height))
}

func (j *Jp2a) Name() string              { return config.ConverterJp2a }
func (j *Jp2a) SupportsTransitions() bool { return true }
func (j *Jp2a) IsGraphical() bool         { return false }
func (j *Jp2a) converter()                {}

// Graphical draws pixels through a terminal graphics protocol. Convert is
// only the text fallback and goes through chafa.
type Graphical struct {
	Fallback *Chafa
}

func NewGraphical(fallback config.ChafaConfig, opts ConverterOptions) *Graphical {
	return &Graphical{Fallback: NewChafa(fallback, opts)}
}

func (g *Graphical) Convert(path string, width, height int) (string, error) {
	return g.Fallback.Convert(path, width, height)
}

func (g *Graphical) Name() string              { return config.ConverterGraphical }
func (g *Graphical) SupportsTransitions() bool { return false }
func (g *Graphical) IsGraphical() bool         { return true }
func (g *Graphical) converter()                {}

// NewConverter builds the converter named by cfg.Converter.Selected.
// Unknown names get chafa.
func NewConverter(cfg *config.Config, opts ConverterOptions) Converter {
	switch cfg.Converter.Selected {
	case config.ConverterJp2a:
		return NewJp2a(cfg.Converter.Jp2a, opts)
	case config.ConverterGraphical:
		return NewGraphical(cfg.Converter.Chafa, opts)
	case config.ConverterHalfblocks:
		return NewHalfblocks(cfg.Converter.Halfblocks, opts)
	case config.ConverterChafa:
		return NewChafa(cfg.Converter.Chafa, opts)
	default:
		log.WithField("converter", cfg.Converter.Selected).Warn("unknown converter, using chafa")
		return NewChafa(cfg.Converter.Chafa, opts)
	}
}

// NextConverter returns the converter after name in Tab order.
func NextConverter(name string) string {
	for i, n := range config.ConverterNames {
		if n == name {
			return config.ConverterNames[(i+1)%len(config.ConverterNames)]
		}
	}
	return config.ConverterChafa
}

// CheckConverterAvailability verifies that the tool behind name can run.
func CheckConverterAvailability(runner CommandRunner, name string) error {
	if runner == nil {
		runner = ExecRunner{}
	}
	switch name {
	case config.ConverterChafa, config.ConverterJp2a:
	case config.ConverterGraphical, config.ConverterHalfblocks:
		return nil
	default:
		return newError(Unknown, "check", "Unknown converter: "+name, nil)
	}

	res, err := runner.Run(name, "--version")
	if err != nil {
		return newError(ToolUnavailable, "check", name+" not found in PATH", err)
	}
	if res.ExitCode != 0 {
		return newError(ToolUnavailable, "check", name+" command failed", nil)
	}
	return nil
}
