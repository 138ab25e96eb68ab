package ptui

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/apex/log"
)

// EncodeITerm2 wraps PNG bytes in an inline-image OSC 1337 sequence sized
// in cells.
func EncodeITerm2(data []byte, cols, rows int) string {
	return fmt.Sprintf("\x1b]1337;File=inline=1;size=%d;width=%d;height=%d;preserveAspectRatio=1:%s\a",
		len(data), cols, rows, base64.StdEncoding.EncodeToString(data))
}

// ITerm2Protocol renders through the iTerm2 inline image protocol. The
// image is resampled to the pixel size of the target cells before PNG
// encoding.
type ITerm2Protocol struct {
	img    image.Image
	font   FontSize
	filter string

	sequence        string
	rect            Rect
	lastArea        Rect
	needsRetransmit bool
}

var _ Protocol = (*ITerm2Protocol)(nil)

// NewITerm2Protocol downscales img to maxDimension and keeps it for
// encoding. filter names an imaging resample filter, lanczos when empty.
func NewITerm2Protocol(img image.Image, maxDimension int, font FontSize, filter string) *ITerm2Protocol {
	if font.Width <= 0 || font.Height <= 0 {
		font = DefaultFontSize
	}
	return &ITerm2Protocol{
		img:             DownscaleNearest(img, maxDimension),
		font:            font,
		filter:          filter,
		needsRetransmit: true,
	}
}

func (p *ITerm2Protocol) Capability() GraphicsCapability { return ITerm2 }

func (p *ITerm2Protocol) Sequence() string { return p.sequence }

func (p *ITerm2Protocol) Rect() Rect { return p.rect }

func (p *ITerm2Protocol) NeedsResize(area Rect) bool {
	return p.needsRetransmit || area != p.lastArea
}

func (p *ITerm2Protocol) ResizeEncode(area Rect) error {
	if area.Empty() {
		return nil
	}
	b := p.img.Bounds()
	cols, rows := cellsFor(b.Dx(), b.Dy(), area, p.font.CharAspect())
	tw, th := FitPixels(b.Dx(), b.Dy(), cols*p.font.Width, rows*p.font.Height)
	resized := ResizeExact(p.img, tw, th, p.filter)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	log.WithFields(log.Fields{
		"cols":  cols,
		"rows":  rows,
		"px":    fmt.Sprintf("%dx%d", tw, th),
		"bytes": buf.Len(),
	}).Debug("encoded iterm2 image")

	p.sequence = EncodeITerm2(buf.Bytes(), cols, rows)
	p.rect = Rect{X: area.X, Y: area.Y, Width: cols, Height: rows}
	p.lastArea = area
	p.needsRetransmit = false
	return nil
}

func (p *ITerm2Protocol) Render(area Rect, buf *Buffer, w io.Writer) error {
	if p.sequence == "" || area.Empty() {
		return nil
	}
	if err := writeClear(w, area); err != nil {
		return err
	}
	placeImage(area, p.rect, buf, p.sequence)
	return nil
}

func (p *ITerm2Protocol) Invalidate() {
	p.needsRetransmit = true
}
