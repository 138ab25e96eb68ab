package ptui

import (
	"fmt"
	"hash/fnv"
	"image"
	"io"
	"strings"
)

// DeleteAllImages removes every Kitty image placement from the screen.
const DeleteAllImages = "\x1b_Ga=d,d=a\x1b\\"

// Protocol is a stateful pixel image bound to one preview pane. The owner
// calls ResizeEncode when NeedsResize reports a change, then Render each
// frame.
type Protocol interface {
	Capability() GraphicsCapability
	NeedsResize(area Rect) bool
	ResizeEncode(area Rect) error
	Render(area Rect, buf *Buffer, w io.Writer) error
	Invalidate()
}

// ImageID derives a stable image id from the file path.
func ImageID(path string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(path))
	return h.Sum32() % 255
}

// EncodeKitty builds the transmit-and-display sequence for raw 32-bit RGBA
// pixels of a w x h image placed over cols x rows cells.
func EncodeKitty(rgba []byte, w, h, cols, rows int) string {
	chunks := EncodeChunks(rgba, KittyChunkSize)
	if len(chunks) == 0 {
		chunks = []string{""}
	}

	var sb strings.Builder
	sb.Grow(len(chunks) * (len(chunks[0]) + 64))
	for i, chunk := range chunks {
		more := 0
		if i < len(chunks)-1 {
			more = 1
		}
		if i == 0 {
			fmt.Fprintf(&sb, "\x1b_Gf=32,a=T,t=d,s=%d,v=%d,c=%d,r=%d,m=%d;", w, h, cols, rows, more)
		} else {
			fmt.Fprintf(&sb, "\x1b_Gm=%d;", more)
		}
		sb.WriteString(chunk)
		sb.WriteString("\x1b\\")
	}
	return sb.String()
}

// cellsFor fits an imgW x imgH picture into area, treating a cell as
// aspect units tall, and returns the covered columns and rows.
func cellsFor(imgW, imgH int, area Rect, aspect float64) (cols, rows int) {
	if area.Empty() {
		return 0, 0
	}
	if imgW <= 0 || imgH <= 0 {
		return area.Width, area.Height
	}
	if aspect <= 0 {
		aspect = 2.0
	}

	availW := float64(area.Width)
	availH := float64(area.Height) * aspect
	scale := min(availW/float64(imgW), availH/float64(imgH))

	cols = max(int(float64(imgW)*scale), 1)
	rows = max(int(float64(imgH)*scale/aspect), 1)
	return min(cols, area.Width), min(rows, area.Height)
}

// writeClear blanks area on the terminal with absolute cursor moves.
func writeClear(w io.Writer, area Rect) error {
	if w == nil {
		return nil
	}
	blank := strings.Repeat(" ", area.Width)
	var sb strings.Builder
	for row := 0; row < area.Height; row++ {
		fmt.Fprintf(&sb, "\x1b[%d;%dH%s", area.Y+row+1, area.X+1, blank)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// placeImage blanks area in buf, puts seq in the anchor cell and marks the
// rest of the image rectangle as skipped.
func placeImage(area, rect Rect, buf *Buffer, seq string) {
	for y := area.Y; y < area.Y+area.Height; y++ {
		for x := area.X; x < area.X+area.Width; x++ {
			if c := buf.Cell(x, y); c != nil {
				c.Symbol = " "
				c.Skip = false
			}
		}
	}

	cover := Rect{
		X:      area.X,
		Y:      area.Y,
		Width:  min(area.Width, rect.Width),
		Height: min(area.Height, rect.Height),
	}
	for y := cover.Y; y < cover.Y+cover.Height; y++ {
		for x := cover.X; x < cover.X+cover.Width; x++ {
			c := buf.Cell(x, y)
			if c == nil {
				continue
			}
			if x == area.X && y == area.Y {
				c.Symbol = seq
				continue
			}
			c.Skip = true
		}
	}
}

// KittyProtocol keeps a decoded image and its last transmitted sequence.
type KittyProtocol struct {
	img          image.Image
	id           uint32
	maxDimension int
	charAspect   float64

	sequence        string
	rect            Rect
	lastArea        Rect
	needsRetransmit bool
}

var _ Protocol = (*KittyProtocol)(nil)

// NewKittyProtocol wraps img, shrinking it first when its longest side is
// above maxDimension.
func NewKittyProtocol(img image.Image, id uint32, maxDimension int, charAspect float64) *KittyProtocol {
	return &KittyProtocol{
		img:             DownscaleNearest(img, maxDimension),
		id:              id,
		maxDimension:    maxDimension,
		charAspect:      charAspect,
		needsRetransmit: true,
	}
}

func (k *KittyProtocol) Capability() GraphicsCapability { return Kitty }

// ID is reserved for placement management and is not sent to the terminal.
func (k *KittyProtocol) ID() uint32 { return k.id }

// Bounds returns the size of the image that gets transmitted
func (k *KittyProtocol) Bounds() image.Rectangle { return k.img.Bounds() }

// Sequence returns the last encoded escape sequence
func (k *KittyProtocol) Sequence() string { return k.sequence }

// Rect returns the cells covered by the last encode
func (k *KittyProtocol) Rect() Rect { return k.rect }

// CellsFor returns how many cells the image occupies inside area.
func (k *KittyProtocol) CellsFor(area Rect) (cols, rows int) {
	b := k.img.Bounds()
	return cellsFor(b.Dx(), b.Dy(), area, k.charAspect)
}

func (k *KittyProtocol) NeedsResize(area Rect) bool {
	return k.needsRetransmit || area != k.lastArea
}

func (k *KittyProtocol) ResizeEncode(area Rect) error {
	if area.Empty() {
		return nil
	}
	cols, rows := k.CellsFor(area)
	rgba := toRGBA(k.img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()

	k.sequence = EncodeKitty(rgba.Pix, w, h, cols, rows)
	k.rect = Rect{X: area.X, Y: area.Y, Width: cols, Height: rows}
	k.lastArea = area
	k.needsRetransmit = false
	return nil
}

// Render clears area on w and anchors the sequence in buf. Nothing happens
// before the first encode.
func (k *KittyProtocol) Render(area Rect, buf *Buffer, w io.Writer) error {
	if k.sequence == "" || area.Empty() {
		return nil
	}
	if err := writeClear(w, area); err != nil {
		return err
	}
	placeImage(area, k.rect, buf, DeleteAllImages+k.sequence)
	return nil
}

// Invalidate forces the next ResizeEncode to retransmit.
func (k *KittyProtocol) Invalidate() {
	k.needsRetransmit = true
}
