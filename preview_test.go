package ptui

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narbs/ptui/internal/config"
	"github.com/narbs/ptui/internal/files"
	"github.com/narbs/ptui/internal/i18n"
)

func fixedTermSize() (int, int) { return 80, 24 }

func newTestManager(t *testing.T, cfg *config.Config, runner *fakeRunner, capability Capability) *PreviewManager {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	return NewPreviewManager(cfg, ManagerOptions{
		Capability: capability,
		Runner:     runner,
		Getenv:     noEnv,
		Messages:   i18n.New("en"),
		TermSize:   fixedTermSize,
	})
}

func itemFor(t *testing.T, path string) files.FileItem {
	t.Helper()
	item, err := files.NewFileItem(path)
	require.NoError(t, err)
	return item
}

func chafaRunner() *fakeRunner {
	r := newFakeRunner()
	r.results["identify"] = CommandResult{Stdout: []byte("100 100")}
	r.results["chafa"] = CommandResult{Stdout: []byte("\x1b[31m##\x1b[0m")}
	return r
}

func TestPreviewManagerTextModeImage(t *testing.T) {
	path := writePNG(t, t.TempDir(), "cat.png", 100, 100)
	runner := chafaRunner()
	m := newTestManager(t, nil, runner, Capability{})

	content := m.Render(PreviewRequest{Item: itemFor(t, path), Width: 80, Height: 24})
	assert.False(t, content.IsGraphical())
	assert.Equal(t, "\x1b[31m##\x1b[0m", content.Text)
	assert.Equal(t, "Image: cat.png", m.Status())

	i := slices.IndexFunc(runner.calls, func(c call) bool { return c.name == "chafa" })
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, []string{"-f", "ansi", "-c", "full", "--size", "72x24", path}, runner.calls[i].args)
}

func TestPreviewManagerCachesImages(t *testing.T) {
	path := writePNG(t, t.TempDir(), "cat.png", 100, 100)
	runner := chafaRunner()
	m := newTestManager(t, nil, runner, Capability{})
	item := itemFor(t, path)

	first := m.Render(PreviewRequest{Item: item, Width: 80, Height: 24})
	second := m.Render(PreviewRequest{Item: item, Width: 80, Height: 24})
	assert.Equal(t, first, second)
	assert.Equal(t, 1, runner.count("chafa"))

	_, ok := m.Cached(path, 80, 24)
	assert.True(t, ok)

	m.Render(PreviewRequest{Item: item, Width: 60, Height: 20})
	assert.Equal(t, 2, runner.count("chafa"), "a new pane size is a new cache key")

	m.Invalidate(item, 80, 24)
	m.Render(PreviewRequest{Item: item, Width: 80, Height: 24})
	assert.Equal(t, 3, runner.count("chafa"))
}

func TestPreviewManagerFallbackDimensions(t *testing.T) {
	path := writePNG(t, t.TempDir(), "cat.png", 100, 100)
	runner := newFakeRunner()
	runner.results["chafa"] = CommandResult{Stdout: []byte("art")}
	m := newTestManager(t, nil, runner, Capability{})

	content := m.Render(PreviewRequest{Item: itemFor(t, path), Width: 80, Height: 24})
	assert.Equal(t, "art", content.Text)
	assert.Equal(t, "Image: cat.png | Using fallback dimensions", m.Status())
}

func TestPreviewManagerConverterFailure(t *testing.T) {
	path := writePNG(t, t.TempDir(), "cat.png", 100, 100)
	runner := newFakeRunner()
	runner.results["identify"] = CommandResult{Stdout: []byte("100 100")}
	m := newTestManager(t, nil, runner, Capability{})

	content := m.Render(PreviewRequest{Item: itemFor(t, path), Width: 80, Height: 24})
	assert.Contains(t, content.Text, "Failed to execute chafa: ")
	assert.Contains(t, m.Status(), "chafa error: ")
}

func TestPreviewManagerGraphical(t *testing.T) {
	cfg := config.Default()
	cfg.Converter.Selected = config.ConverterGraphical
	path := writePNG(t, t.TempDir(), "cat.png", 100, 100)

	tests := []struct {
		name     string
		graphics GraphicsCapability
	}{
		{"kitty", Kitty},
		{"iterm2", ITerm2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := chafaRunner()
			m := newTestManager(t, cfg, runner, Capability{Graphics: tt.graphics, Font: FontSize{Width: 10, Height: 20}})
			assert.Equal(t, 512, m.MaxDimension())

			content := m.Render(PreviewRequest{Item: itemFor(t, path), Width: 80, Height: 24})
			require.True(t, content.IsGraphical())
			assert.Equal(t, tt.graphics, content.Capability)
			assert.Equal(t, tt.graphics, content.Protocol.Capability())
			assert.Equal(t, 100, content.ImageWidth)
			assert.Equal(t, 100, content.ImageHeight)
			assert.Zero(t, runner.count("chafa"))
		})
	}
}

func TestPreviewManagerEvictsOldestGraphicalPreview(t *testing.T) {
	cfg := config.Default()
	cfg.Converter.Selected = config.ConverterGraphical
	dir := t.TempDir()
	m := newTestManager(t, cfg, chafaRunner(), Capability{Graphics: Kitty, Font: FontSize{Width: 10, Height: 20}})

	var items []files.FileItem
	for _, name := range []string{"1.png", "2.png", "3.png", "4.png", "5.png", "6.png"} {
		item := itemFor(t, writePNG(t, dir, name, 16, 16))
		items = append(items, item)
		content := m.Render(PreviewRequest{Item: item, Width: 40, Height: 20})
		require.True(t, content.IsGraphical())
		assert.IsType(t, &KittyProtocol{}, content.Protocol)
	}

	assert.Equal(t, DefaultCacheCapacity, m.Cache().Len())
	_, ok := m.Cached(items[0].Path, 40, 20)
	assert.False(t, ok, "first preview is evicted")
	for _, item := range items[1:] {
		_, ok := m.Cached(item.Path, 40, 20)
		assert.True(t, ok, item.Name)
	}
	assert.Equal(t, CacheKey(items[1].Path, 40, 20), m.Cache().Keys()[0])
}

func TestPreviewManagerGraphicalWithoutProtocol(t *testing.T) {
	cfg := config.Default()
	cfg.Converter.Selected = config.ConverterGraphical
	path := writePNG(t, t.TempDir(), "cat.png", 100, 100)
	runner := chafaRunner()
	m := newTestManager(t, cfg, runner, Capability{Graphics: None})

	content := m.Render(PreviewRequest{Item: itemFor(t, path), Width: 80, Height: 24})
	assert.False(t, content.IsGraphical())
	assert.Equal(t, 1, runner.count("chafa"), "graphical falls back to chafa text")
}

func TestPreviewManagerGraphicalLoadFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Converter.Selected = config.ConverterGraphical
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x00garbage"), 0o644))

	m := newTestManager(t, cfg, chafaRunner(), Capability{Graphics: Kitty})
	content := m.Render(PreviewRequest{Item: itemFor(t, path), Width: 80, Height: 24})
	assert.False(t, content.IsGraphical())
	assert.Contains(t, content.Text, "Failed to load image: ")
	assert.Equal(t, content.Text, m.Status())
}

func TestPreviewManagerRouting(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	art := filepath.Join(dir, "cat.ascii")
	require.NoError(t, os.WriteFile(art, []byte("one\ntwo\nthree"), 0o644))
	notes := writeLines(t, dir, "notes.txt", 30)
	bin := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(bin, []byte{0x01, 0x00, 0x02, 0x03, 0x00}, 0o644))

	m := newTestManager(t, nil, chafaRunner(), Capability{})

	tests := []struct {
		name   string
		req    PreviewRequest
		text   string
		status string
	}{
		{"directory", PreviewRequest{Item: itemFor(t, sub)}, "Directory selected", "Directory selected"},
		{"ascii", PreviewRequest{Item: itemFor(t, art), ScrollOffset: 1}, "two\nthree", "ASCII file: cat.ascii"},
		{"text", PreviewRequest{Item: itemFor(t, notes), Height: 2, ScrollOffset: 4}, "line4\nline5", "Text file: notes.txt"},
		{"text past end", PreviewRequest{Item: itemFor(t, notes), Height: 2, ScrollOffset: 40}, "(End of file)", "Text file: notes.txt"},
		{"other", PreviewRequest{Item: itemFor(t, bin)}, "This file type cannot be previewed", "File type not supported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := m.Render(tt.req)
			assert.Equal(t, tt.text, content.Text)
			assert.Equal(t, tt.status, m.Status())
		})
	}
	assert.Zero(t, m.Cache().Len(), "only images are cached")
}

func TestPreviewManagerCustomASCIIPatterns(t *testing.T) {
	cfg := config.Default()
	cfg.ASCIIPatterns = []string{"*.ANS"}
	path := filepath.Join(t.TempDir(), "logo.ans")
	require.NoError(t, os.WriteFile(path, []byte("art"), 0o644))

	m := newTestManager(t, cfg, chafaRunner(), Capability{})
	m.Render(PreviewRequest{Item: itemFor(t, path)})
	assert.Equal(t, "ASCII file: logo.ans", m.Status())
}

func TestPreviewManagerConverterSwitching(t *testing.T) {
	path := writePNG(t, t.TempDir(), "cat.png", 100, 100)
	m := newTestManager(t, nil, chafaRunner(), Capability{})
	m.Render(PreviewRequest{Item: itemFor(t, path), Width: 80, Height: 24})
	require.Equal(t, 1, m.Cache().Len())

	assert.Equal(t, config.ConverterJp2a, m.CycleConverter())
	assert.Equal(t, "Converter switched to: jp2a", m.Status())
	assert.Zero(t, m.Cache().Len())

	assert.Equal(t, config.ConverterGraphical, m.CycleConverter())
	assert.Equal(t, config.ConverterHalfblocks, m.CycleConverter())
	assert.Equal(t, config.ConverterChafa, m.CycleConverter())

	m.SetConverter(config.ConverterHalfblocks)
	assert.Equal(t, config.ConverterHalfblocks, m.Converter().Name())
	assert.Equal(t, config.ConverterHalfblocks, m.Config().Converter.Selected)
}

func TestPreviewManagerUpdateConfig(t *testing.T) {
	path := writePNG(t, t.TempDir(), "cat.png", 100, 100)
	m := newTestManager(t, nil, chafaRunner(), Capability{})
	m.Render(PreviewRequest{Item: itemFor(t, path), Width: 80, Height: 24})
	require.Equal(t, 1, m.Cache().Len())

	cfg := config.Default()
	cfg.Converter.Selected = config.ConverterJp2a
	cfg.Converter.Graphical.AutoResize = false
	cfg.Converter.Graphical.MaxDimension = 300
	m.UpdateConfig(cfg)

	assert.Zero(t, m.Cache().Len())
	assert.Equal(t, config.ConverterJp2a, m.Converter().Name())
	assert.Equal(t, 300, m.MaxDimension())

	cfg.Converter.Selected = config.ConverterChafa
	assert.Equal(t, config.ConverterJp2a, m.Config().Converter.Selected, "config is copied")
}

func TestPreviewManagerSaveASCII(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "cat.png", 100, 100)
	m := newTestManager(t, nil, chafaRunner(), Capability{})
	item := itemFor(t, path)

	msg, err := m.SaveASCII(item, 80, 24)
	require.NoError(t, err)
	out := filepath.Join(dir, "cat.ascii")
	assert.Equal(t, "Saved to "+out, msg)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[31m##\x1b[0m", string(data))

	_, err = m.SaveASCII(item, 80, 24)
	require.Error(t, err)
	assert.Equal(t, "File already exists: "+out, err.Error())

	notes := writeLines(t, dir, "notes.txt", 3)
	_, err = m.SaveASCII(itemFor(t, notes), 80, 24)
	require.Error(t, err)
	assert.Equal(t, "Selected file is not an image", err.Error())
}

func TestPreviewManagerSaveASCIIConverterError(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "cat.png", 100, 100)
	runner := newFakeRunner()
	m := newTestManager(t, nil, runner, Capability{})

	_, err := m.SaveASCII(itemFor(t, path), 80, 24)
	require.Error(t, err)
	assert.True(t, IsToolUnavailable(err))
	assert.NoFileExists(t, filepath.Join(dir, "cat.ascii"))
}

func TestPreviewManagerStatus(t *testing.T) {
	m := newTestManager(t, nil, chafaRunner(), Capability{})
	m.SetStatus("")
	m.AppendStatus("a")
	m.AppendStatus("b")
	assert.Equal(t, "a | b", m.Status())
}
