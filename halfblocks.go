package ptui

import (
	"image"

	"github.com/charmbracelet/x/mosaic"
	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/soniakeys/quant/median"
	"golang.org/x/image/draw"

	"github.com/narbs/ptui/internal/config"
)

// Halfblocks renders in-process with upper/lower half block characters, two
// pixel rows per cell. Needs no external tool.
type Halfblocks struct {
	PaletteSize int
	Dither      bool

	loader *Loader
}

func NewHalfblocks(cfg config.HalfblocksConfig, opts ConverterOptions) *Halfblocks {
	opts = opts.withDefaults()
	return &Halfblocks{PaletteSize: cfg.PaletteSize, Dither: cfg.Dither, loader: opts.Loader}
}

func (h *Halfblocks) Convert(path string, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", nil
	}
	img, err := h.loader.Load(path, max(width, height*2))
	if err != nil {
		return "", err
	}
	return h.Render(img, width, height), nil
}

// Render draws img into at most width x height cells, keeping its aspect.
func (h *Halfblocks) Render(img image.Image, width, height int) string {
	cols, rows := halfblockFit(img.Bounds(), width, height)
	img = h.reducePalette(img)

	m := mosaic.New().Width(cols).Height(rows)
	if h.PaletteSize <= 0 {
		m = m.Dither(h.Dither)
	}
	return m.Render(img)
}

// halfblockFit scales src into width columns and height*2 pixel rows, then
// converts the rows back to cells.
func halfblockFit(src image.Rectangle, width, height int) (cols, rows int) {
	srcW, srcH := float64(src.Dx()), float64(src.Dy())
	if srcW == 0 || srcH == 0 {
		return width, height
	}
	ratio := min(float64(width)/srcW, float64(height)*2/srcH)
	cols = max(int(srcW*ratio), 1)
	rows = max(int(srcH*ratio/2), 1)
	return cols, rows
}

// reducePalette quantises to PaletteSize colours with median cut, optionally
// with Floyd-Steinberg error diffusion.
func (h *Halfblocks) reducePalette(img image.Image) image.Image {
	if h.PaletteSize <= 0 {
		return img
	}
	palette := median.Quantizer(h.PaletteSize).Palette(img).ColorPalette()
	if len(palette) == 0 {
		return img
	}

	if h.Dither {
		d := dither.NewDitherer(palette)
		d.Matrix = dither.FloydSteinberg
		return d.Dither(img)
	}

	b := img.Bounds()
	dst := image.NewPaletted(b, palette)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

func (h *Halfblocks) Name() string              { return config.ConverterHalfblocks }
func (h *Halfblocks) SupportsTransitions() bool { return false }
func (h *Halfblocks) IsGraphical() bool         { return false }
func (h *Halfblocks) converter()                {}
