package ptui

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narbs/ptui/internal/config"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and answers from a per-tool table.
type fakeRunner struct {
	calls   []call
	results map[string]CommandResult
	errs    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{results: map[string]CommandResult{}, errs: map[string]error{}}
}

func (f *fakeRunner) Run(name string, args ...string) (CommandResult, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if err, ok := f.errs[name]; ok {
		return CommandResult{}, err
	}
	if res, ok := f.results[name]; ok {
		return res, nil
	}
	return CommandResult{}, errors.New("exec: \"" + name + "\": executable file not found in $PATH")
}

func (f *fakeRunner) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func noEnv(string) string { return "" }

func TestChafaArgs(t *testing.T) {
	c := NewChafa(config.ChafaConfig{Format: "ansi", Colors: "full"}, ConverterOptions{Getenv: noEnv})
	assert.Equal(t,
		[]string{"-f", "ansi", "-c", "full", "--size", "80x24", "img.png"},
		c.Args("img.png", 80, 24))
	assert.Equal(t, "chafa", c.Name())
	assert.False(t, c.SupportsTransitions())
	assert.False(t, c.IsGraphical())
}

func TestChafaAppleTerminalDowngrade(t *testing.T) {
	env := envFrom(map[string]string{"TERM_PROGRAM": "Apple_Terminal"})

	c := NewChafa(config.ChafaConfig{Format: "ansi", Colors: "full"}, ConverterOptions{Getenv: env})
	assert.Equal(t, "256", c.Colors)

	c = NewChafa(config.ChafaConfig{Format: "ansi", Colors: "16"}, ConverterOptions{Getenv: env})
	assert.Equal(t, "16", c.Colors)
}

func TestJp2aArgs(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Jp2aConfig
		want []string
	}{
		{"plain", config.Jp2aConfig{}, []string{"--size=40x20", "a.jpg"}},
		{"colors", config.Jp2aConfig{Colors: true}, []string{"--size=40x20", "--colors", "a.jpg"}},
		{"all", config.Jp2aConfig{Colors: true, Invert: true, Chars: "@%#*"},
			[]string{"--size=40x20", "--colors", "--invert", "--chars=@%#*", "a.jpg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewJp2a(tt.cfg, ConverterOptions{})
			assert.Equal(t, tt.want, j.Args("a.jpg", 40, 20))
		})
	}
}

func TestConvertSuccessAndErrors(t *testing.T) {
	runner := newFakeRunner()
	runner.results["chafa"] = CommandResult{Stdout: []byte("\x1b[31m@@\x1b[0m\n")}
	c := NewChafa(config.ChafaConfig{Format: "ansi", Colors: "full"}, ConverterOptions{Runner: runner, Getenv: noEnv})

	out, err := c.Convert("img.png", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[31m@@\x1b[0m\n", out)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "chafa", runner.calls[0].name)

	runner.results["chafa"] = CommandResult{Stderr: []byte("bad image"), ExitCode: 2}
	_, err = c.Convert("img.png", 10, 5)
	require.Error(t, err)
	assert.True(t, IsToolUnavailable(err))
	assert.Equal(t, "Chafa error: bad image", err.Error())

	j := NewJp2a(config.Jp2aConfig{}, ConverterOptions{Runner: runner})
	_, err = j.Convert("img.png", 10, 5)
	require.Error(t, err)
	assert.True(t, IsToolUnavailable(err))
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to execute jp2a: "))

	runner.results["jp2a"] = CommandResult{Stderr: []byte("not a jpeg"), ExitCode: 1}
	_, err = j.Convert("img.png", 10, 5)
	assert.Equal(t, "jp2a error: not a jpeg", err.Error())
}

func TestGraphicalDelegatesToChafa(t *testing.T) {
	runner := newFakeRunner()
	runner.results["chafa"] = CommandResult{Stdout: []byte("fallback")}

	g := NewGraphical(config.ChafaConfig{Format: "ansi", Colors: "256"}, ConverterOptions{Runner: runner, Getenv: noEnv})
	out, err := g.Convert("img.png", 8, 4)
	require.NoError(t, err)
	assert.Equal(t, "fallback", out)
	assert.True(t, g.IsGraphical())
	assert.False(t, g.SupportsTransitions())
	assert.Equal(t, "graphical", g.Name())
}

func TestNewConverter(t *testing.T) {
	tests := []struct {
		selected string
		want     string
	}{
		{"chafa", "chafa"},
		{"jp2a", "jp2a"},
		{"graphical", "graphical"},
		{"halfblocks", "halfblocks"},
		{"unknown", "chafa"},
		{"", "chafa"},
	}
	for _, tt := range tests {
		t.Run(tt.selected, func(t *testing.T) {
			cfg := config.Default()
			cfg.Converter.Selected = tt.selected
			assert.Equal(t, tt.want, NewConverter(cfg, ConverterOptions{Getenv: noEnv}).Name())
		})
	}
}

func TestNextConverter(t *testing.T) {
	assert.Equal(t, "jp2a", NextConverter("chafa"))
	assert.Equal(t, "graphical", NextConverter("jp2a"))
	assert.Equal(t, "halfblocks", NextConverter("graphical"))
	assert.Equal(t, "chafa", NextConverter("halfblocks"))
	assert.Equal(t, "chafa", NextConverter("bogus"))
}

func TestCheckConverterAvailability(t *testing.T) {
	runner := newFakeRunner()
	runner.results["chafa"] = CommandResult{Stdout: []byte("chafa 1.14")}
	runner.results["jp2a"] = CommandResult{ExitCode: 1}

	assert.NoError(t, CheckConverterAvailability(runner, "chafa"))
	assert.Equal(t, []string{"--version"}, runner.calls[0].args)

	err := CheckConverterAvailability(runner, "jp2a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jp2a command failed")

	delete(runner.results, "chafa")
	err = CheckConverterAvailability(runner, "chafa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chafa not found in PATH")

	assert.NoError(t, CheckConverterAvailability(runner, "graphical"))
	assert.NoError(t, CheckConverterAvailability(runner, "halfblocks"))

	err = CheckConverterAvailability(runner, "unknown_converter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown converter")
}

func TestHalfblocksConvert(t *testing.T) {
	path := writePNG(t, t.TempDir(), "grad.png", 64, 32)

	h := NewHalfblocks(config.HalfblocksConfig{}, ConverterOptions{})
	out, err := h.Convert(path, 20, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	h = NewHalfblocks(config.HalfblocksConfig{PaletteSize: 8, Dither: true}, ConverterOptions{})
	out, err = h.Convert(path, 20, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = h.Convert(path+".missing", 20, 10)
	assert.True(t, IsDecodeFailure(err))
}

func TestHalfblockFit(t *testing.T) {
	cols, rows := halfblockFit(gradient(100, 100).Bounds(), 40, 40)
	assert.Equal(t, 40, cols)
	assert.Equal(t, 20, rows)

	cols, rows = halfblockFit(gradient(200, 50).Bounds(), 40, 40)
	assert.Equal(t, 40, cols)
	assert.Equal(t, 5, rows)
}
