package ptui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"github.com/narbs/ptui/internal/config"
	"github.com/narbs/ptui/internal/files"
	"github.com/narbs/ptui/internal/i18n"
)

// PreviewContent is what the preview pane shows: ANSI text, or a pixel
// image bound to a terminal graphics protocol.
type PreviewContent struct {
	Text string

	Protocol    Protocol
	ImageWidth  int
	ImageHeight int
	Capability  GraphicsCapability
}

// TextContent wraps ANSI text.
func TextContent(s string) PreviewContent {
	return PreviewContent{Text: s}
}

func (p PreviewContent) IsGraphical() bool {
	return p.Protocol != nil
}

// PreviewRequest asks for the preview of Item in a Width x Height pane.
type PreviewRequest struct {
	Item         files.FileItem
	Width        int
	Height       int
	ScrollOffset int
}

// Messages resolves user-facing strings. *i18n.Localizer implements it.
type Messages interface {
	Get(key string) string
	Getf(key string, args ...any) string
}

// ManagerOptions injects the collaborators of a PreviewManager. Zero values
// select the real implementations.
type ManagerOptions struct {
	Capability Capability
	Runner     CommandRunner
	Getenv     func(string) string
	Loader     *Loader
	Messages   Messages
	// TermSize reports the terminal size in cells for auto-resize.
	TermSize func() (cols, rows int)
}

// PreviewManager turns file entries into preview content. It owns the cache
// and the active converter and is driven from a single goroutine.
type PreviewManager struct {
	cfg        *config.Config
	opts       ConverterOptions
	capability Capability
	msgs       Messages
	termSize   func() (int, int)

	converter  Converter
	classifier *files.Classifier
	cache      *PreviewCache
	maxDim     int
	status     string
}

// NewPreviewManager builds a manager for cfg. cfg is copied.
func NewPreviewManager(cfg *config.Config, opts ManagerOptions) *PreviewManager {
	if cfg == nil {
		cfg = config.Default()
	}
	m := &PreviewManager{
		cfg: cfg.Clone(),
		opts: ConverterOptions{
			Runner: opts.Runner,
			Getenv: opts.Getenv,
			Loader: opts.Loader,
		}.withDefaults(),
		capability: opts.Capability,
		msgs:       opts.Messages,
		termSize:   opts.TermSize,
		cache:      NewPreviewCache(DefaultCacheCapacity),
	}
	if m.msgs == nil {
		m.msgs = i18n.New(m.cfg.EffectiveLocale())
	}
	if m.termSize == nil {
		m.termSize = TerminalSize
	}
	if m.capability.Font.Width == 0 {
		m.capability.Font = DefaultFontSize
	}
	m.rebuild()
	return m
}

func (m *PreviewManager) rebuild() {
	cols, rows := m.termSize()
	m.maxDim = OptimalMaxDimension(m.cfg.Converter.Graphical, cols, rows)
	m.converter = NewConverter(m.cfg, m.opts)
	m.classifier = files.ClassifierOrDefault(m.cfg.ASCIIPatterns)
}

func (m *PreviewManager) Converter() Converter          { return m.converter }
func (m *PreviewManager) Capability() Capability        { return m.capability }
func (m *PreviewManager) Config() *config.Config        { return m.cfg }
func (m *PreviewManager) Cache() *PreviewCache          { return m.cache }
func (m *PreviewManager) Classifier() *files.Classifier { return m.classifier }
func (m *PreviewManager) MaxDimension() int             { return m.maxDim }

// Status is the one-line description of the last preview, shown in the
// message pane.
func (m *PreviewManager) Status() string { return m.status }

func (m *PreviewManager) SetStatus(s string) { m.status = s }

// SetMessages swaps the string source after a locale change.
func (m *PreviewManager) SetMessages(msgs Messages) {
	if msgs != nil {
		m.msgs = msgs
	}
}

// AppendStatus adds s to the current status line.
func (m *PreviewManager) AppendStatus(s string) {
	if m.status == "" {
		m.status = s
		return
	}
	m.status += " | " + s
}

// Render produces the preview for req, routing on the entry kind. Image
// previews go through the cache.
func (m *PreviewManager) Render(req PreviewRequest) PreviewContent {
	item := req.Item
	switch m.classifier.Classify(item) {
	case files.KindDirectory:
		m.status = m.msgs.Get("directory_selected")
		return TextContent(m.msgs.Get("directory_selected"))
	case files.KindImage:
		key := CacheKey(item.Path, req.Width, req.Height)
		return m.cache.GetOrCompute(key, func() PreviewContent {
			res := m.ImageJob(item.Path, req.Width, req.Height, 0).Run()
			m.status = res.Status
			return res.Content
		})
	case files.KindASCII:
		m.status = m.msgs.Get("ascii_file_prefix") + item.Name
		return TextContent(ASCIIPreview(item.Path, req.ScrollOffset))
	case files.KindText:
		m.status = m.msgs.Get("text_file_prefix") + item.Name
		return TextContent(TextPreview(item.Path, req.ScrollOffset, req.Height, m.cfg.TextHighlight))
	default:
		m.status = m.msgs.Get("file_type_not_supported")
		return TextContent(m.msgs.Get("not_supported_file_type"))
	}
}

// Cached returns the cached image preview for path at the given size.
func (m *PreviewManager) Cached(path string, width, height int) (PreviewContent, bool) {
	return m.cache.Get(CacheKey(path, width, height))
}

// ImageJob captures everything needed to render path at width x height so
// the work can run off the UI goroutine. The job never touches the cache.
func (m *PreviewManager) ImageJob(path string, width, height int, generation uint64) PreviewJob {
	r := imageRenderer{
		converter:  m.converter,
		loader:     m.opts.Loader,
		runner:     m.opts.Runner,
		capability: m.capability,
		maxDim:     m.maxDim,
		filter:     m.cfg.Converter.Graphical.FilterType,
		msgs:       m.msgs,
	}
	return PreviewJob{
		Key:        CacheKey(path, width, height),
		Generation: generation,
		compute: func() (PreviewContent, string) {
			return r.render(path, width, height)
		},
	}
}

// Accept stores a finished image preview and takes its status line.
func (m *PreviewManager) Accept(res PreviewResult) {
	m.cache.Put(res.Key, res.Content)
	m.status = res.Status
}

// Invalidate drops the cached preview of item at the given size so the next
// Render recomputes it.
func (m *PreviewManager) Invalidate(item files.FileItem, width, height int) {
	m.cache.Invalidate(CacheKey(item.Path, width, height))
}

// UpdateConfig applies a reloaded configuration. The cache is cleared since
// every converter setting affects the output.
func (m *PreviewManager) UpdateConfig(cfg *config.Config) {
	m.cfg = cfg.Clone()
	m.rebuild()
	m.cache.InvalidateAll()
	log.WithFields(log.Fields{
		"converter":     m.converter.Name(),
		"max_dimension": m.maxDim,
	}).Debug("preview config updated")
}

// SetConverter switches to the named converter for this session.
func (m *PreviewManager) SetConverter(name string) {
	m.cfg.Converter.Selected = name
	m.converter = NewConverter(m.cfg, m.opts)
	m.cache.InvalidateAll()
	m.status = m.msgs.Getf("converter_switched", m.converter.Name())
}

// CycleConverter moves to the next converter and returns its name.
func (m *PreviewManager) CycleConverter() string {
	m.SetConverter(NextConverter(m.converter.Name()))
	return m.converter.Name()
}

// SaveASCII writes the text rendering of an image next to it as
// <stem>.ascii. Existing files are never overwritten.
func (m *PreviewManager) SaveASCII(item files.FileItem, width, height int) (string, error) {
	if item.IsDir || !item.IsImage() {
		return "", errors.New(m.msgs.Get("selected_file_not_image"))
	}

	stem := strings.TrimSuffix(filepath.Base(item.Path), filepath.Ext(item.Path))
	if stem == "" {
		return "", errors.New("Could not determine output filename")
	}
	out := filepath.Join(filepath.Dir(item.Path), stem+".ascii")
	if _, err := os.Stat(out); err == nil {
		return "", fmt.Errorf("File already exists: %s", out)
	}

	imgW, imgH, _ := ProbeDimensions(m.opts.Runner, item.Path)
	w, h := ConverterDimensions(imgW, imgH, width, height)
	text, err := m.converter.Convert(item.Path, w, h)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("Failed to write file: %w", err)
	}
	log.WithField("path", out).Info("saved ascii")
	return m.msgs.Get("saved_to") + " " + out, nil
}

// imageRenderer is a snapshot of the manager state an image preview needs.
type imageRenderer struct {
	converter  Converter
	loader     *Loader
	runner     CommandRunner
	capability Capability
	maxDim     int
	filter     string
	msgs       Messages
}

func (r imageRenderer) render(path string, width, height int) (PreviewContent, string) {
	status := r.msgs.Get("image_file_prefix") + filepath.Base(path)

	imgW, imgH, err := ProbeDimensions(r.runner, path)
	if err != nil {
		log.WithError(err).WithField("path", path).Debug("dimension probe failed")
		status += " | Using fallback dimensions"
	}
	cw, ch := ConverterDimensions(imgW, imgH, width, height)

	if r.converter.IsGraphical() && r.capability.Graphics.Graphical() {
		img, err := r.loader.Load(path, r.maxDim)
		if err != nil {
			msg := fmt.Sprintf("Failed to load image: %v", err)
			return TextContent(msg), msg
		}
		b := img.Bounds()
		content := PreviewContent{Capability: r.capability.Graphics}
		switch r.capability.Graphics {
		case Kitty:
			k := NewKittyProtocol(img, ImageID(path), r.maxDim, r.capability.Font.CharAspect())
			content.Protocol = k
			content.ImageWidth, content.ImageHeight = k.Bounds().Dx(), k.Bounds().Dy()
		case ITerm2:
			content.Protocol = NewITerm2Protocol(img, r.maxDim, r.capability.Font, r.filter)
			content.ImageWidth, content.ImageHeight = b.Dx(), b.Dy()
		}
		log.WithFields(log.Fields{
			"path":     path,
			"protocol": r.capability.Graphics,
			"size":     fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		}).Debug("graphical preview")
		return content, status
	}

	out, err := r.converter.Convert(path, cw, ch)
	if err != nil {
		name := r.converter.Name()
		return TextContent(fmt.Sprintf("Failed to execute %s: %v", name, err)),
			fmt.Sprintf("%s error: %v", name, err)
	}
	return TextContent(out), status
}
