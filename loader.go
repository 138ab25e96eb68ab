package ptui

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ScaleFactor picks the JPEG subsampling denominator (1, 2, 4 or 8) for an
// image whose longest side is native pixels when the display needs target.
// The thresholds are 7.5x, 3.7x and 1.9x, compared in integer tenths.
func ScaleFactor(native, target int) int {
	if target <= 0 {
		return 1
	}
	switch {
	case native*10 >= target*75:
		return 8
	case native*10 >= target*37:
		return 4
	case native*10 >= target*19:
		return 2
	default:
		return 1
	}
}

// Loader decodes image files for display, trading resolution for speed on
// large JPEGs.
type Loader struct {
	// fastJPEG decodes data already subsampled by factor.
	fastJPEG func(data []byte, factor int) (image.Image, error)
	// fullJPEG decodes data at full resolution.
	fullJPEG func(data []byte) (image.Image, error)
	// generic decodes any registered format, or rasterises SVG.
	generic func(data []byte, targetMax int) (image.Image, error)
}

// NewLoader returns a Loader using the built-in decoders
func NewLoader() *Loader {
	return &Loader{
		fastJPEG: decodeJPEGSubsampled,
		fullJPEG: decodeJPEG,
		generic:  decodeGeneric,
	}
}

// IsJPEGPath reports whether path has a .jpg or .jpeg extension
func IsJPEGPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// Load decodes path. JPEGs go through fast subsampled decode, then a full
// resolution decode, then the generic decoder; everything else goes straight
// to the generic decoder. Only total failure is returned as an error.
func (l *Loader) Load(path string, targetMax int) (image.Image, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(DecodeFailure, "load", "failed to open file", err)
	}

	ctx := log.WithField("path", path)

	if IsJPEGPath(path) {
		img, err := l.loadJPEG(ctx, data, targetMax)
		if err == nil {
			ctx.WithField("elapsed", time.Since(start)).Debug("jpeg decoded")
			return img, nil
		}
		ctx.WithError(err).Warn("jpeg decoders failed, trying generic decoder")
	}

	img, err := l.generic(data, targetMax)
	if err != nil {
		return nil, newError(DecodeFailure, "load", "failed to decode image", err)
	}
	ctx.WithField("elapsed", time.Since(start)).Debug("image decoded")
	return img, nil
}

func (l *Loader) loadJPEG(ctx log.Interface, data []byte, targetMax int) (image.Image, error) {
	factor := 1
	if cfg, err := jpeg.DecodeConfig(bytes.NewReader(data)); err == nil {
		factor = ScaleFactor(max(cfg.Width, cfg.Height), targetMax)
		ctx.WithFields(log.Fields{
			"native": fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
			"target": targetMax,
			"scale":  fmt.Sprintf("1/%d", factor),
		}).Debug("jpeg scale selected")
	} else {
		ctx.WithError(err).Debug("jpeg header unreadable, decoding at full size")
	}

	img, err := l.fastJPEG(data, factor)
	if err == nil {
		return img, nil
	}
	ctx.WithError(err).Debug("fast jpeg decode failed, retrying at full resolution")

	img, err = l.fullJPEG(data)
	if err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("jpeg decode: %w", err)
}

func decodeJPEG(data []byte) (image.Image, error) {
	return jpeg.Decode(bytes.NewReader(data))
}

// decodeJPEGSubsampled keeps every factor-th sample. image/jpeg has no
// DCT-domain scaling, so the decode is full size and the saving is in colour
// conversion only: for YCbCr sources only the kept samples are converted.
func decodeJPEGSubsampled(data []byte, factor int) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if factor <= 1 {
		return img, nil
	}
	if ycc, ok := img.(*image.YCbCr); ok {
		return subsampleYCbCr(ycc, factor), nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, ceilDiv(b.Dx(), factor), ceilDiv(b.Dy(), factor)))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}

func subsampleYCbCr(src *image.YCbCr, factor int) *image.RGBA {
	b := src.Bounds()
	w, h := ceilDiv(b.Dx(), factor), ceilDiv(b.Dy(), factor)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*factor
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*factor
			yi := src.YOffset(sx, sy)
			ci := src.COffset(sx, sy)
			r, g, bl := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
			o := dst.PixOffset(x, y)
			dst.Pix[o] = r
			dst.Pix[o+1] = g
			dst.Pix[o+2] = bl
			dst.Pix[o+3] = 0xff
		}
	}
	return dst
}

func decodeGeneric(data []byte, targetMax int) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if mimetype.Detect(data).Is("image/svg+xml") {
		return rasterizeSVG(data, targetMax)
	}
	return nil, err
}

func rasterizeSVG(data []byte, targetMax int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	width, height := icon.ViewBox.W, icon.ViewBox.H
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("SVG has an empty viewBox")
	}
	if limit := float64(targetMax); targetMax > 0 && (width > limit || height > limit) {
		scale := min(limit/width, limit/height)
		width *= scale
		height *= scale
	}

	w, h := max(int(width), 1), max(int(height), 1)
	icon.SetTarget(0, 0, float64(w), float64(h))

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return rgba, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
