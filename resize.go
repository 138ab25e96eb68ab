package ptui

import (
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// DownscaleNearest shrinks img so its longest side is maxDim, using the
// nearest-neighbour filter. Images already within maxDim, or maxDim <= 0,
// are returned unchanged.
func DownscaleNearest(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if maxDim <= 0 || longest <= maxDim {
		return img
	}
	w := max(b.Dx()*maxDim/longest, 1)
	h := max(b.Dy()*maxDim/longest, 1)
	return resize.Resize(uint(w), uint(h), img, resize.NearestNeighbor)
}

// ResampleFilter maps a graphical.filter_type name to an imaging filter.
// Unknown names get Lanczos.
func ResampleFilter(name string) imaging.ResampleFilter {
	switch strings.ToLower(name) {
	case "nearest", "nearestneighbor":
		return imaging.NearestNeighbor
	case "triangle", "linear":
		return imaging.Linear
	case "catmullrom":
		return imaging.CatmullRom
	case "gaussian":
		return imaging.Gaussian
	case "box":
		return imaging.Box
	default:
		return imaging.Lanczos
	}
}

// ResizeExact resamples img to exactly w x h with the named filter
func ResizeExact(img image.Image, w, h int, filter string) image.Image {
	b := img.Bounds()
	if w <= 0 || h <= 0 || (b.Dx() == w && b.Dy() == h) {
		return img
	}
	return imaging.Resize(img, w, h, ResampleFilter(filter))
}

// toRGBA returns img as a tightly packed RGBA image starting at (0, 0).
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
