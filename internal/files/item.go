// Package files lists directories and classifies their entries for preview.
package files

import (
	"bytes"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
	_ "golang.org/x/image/bmp"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// sampleSize matches the read limit mimetype uses for its own detection.
const sampleSize = 3072

// DefaultASCIIPatterns identifies pre-rendered ASCII art.
var DefaultASCIIPatterns = []string{"*.ascii"}

// ContentType is the coarse encoding of a file sample.
type ContentType int

const (
	Binary ContentType = iota
	UTF8
	UTF8BOM
	UTF16LE
	UTF16BE
	UTF32LE
	UTF32BE
)

func (c ContentType) String() string {
	switch c {
	case UTF8:
		return "utf-8"
	case UTF8BOM:
		return "utf-8-bom"
	case UTF16LE:
		return "utf-16le"
	case UTF16BE:
		return "utf-16be"
	case UTF32LE:
		return "utf-32le"
	case UTF32BE:
		return "utf-32be"
	default:
		return "binary"
	}
}

// IsText reports whether the sample decodes as text.
func (c ContentType) IsText() bool {
	return c != Binary
}

// Encoding returns the decoder for c. UTF-8 without BOM and binary content
// get the no-op encoding.
func (c ContentType) Encoding() encoding.Encoding {
	switch c {
	case UTF8BOM:
		return unicode.UTF8BOM
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM)
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM)
	default:
		return encoding.Nop
	}
}

// Inspect classifies sample. A byte order mark picks the Unicode form,
// otherwise the sample is UTF-8 when its detected MIME type is textual.
func Inspect(sample []byte) ContentType {
	switch {
	case bytes.HasPrefix(sample, []byte{0xFF, 0xFE, 0x00, 0x00}):
		return UTF32LE
	case bytes.HasPrefix(sample, []byte{0x00, 0x00, 0xFE, 0xFF}):
		return UTF32BE
	case bytes.HasPrefix(sample, []byte{0xEF, 0xBB, 0xBF}):
		return UTF8BOM
	case bytes.HasPrefix(sample, []byte{0xFF, 0xFE}):
		return UTF16LE
	case bytes.HasPrefix(sample, []byte{0xFE, 0xFF}):
		return UTF16BE
	case len(sample) == 0 || isTextual(mimetype.Detect(sample)):
		return UTF8
	default:
		return Binary
	}
}

// readSample returns up to sampleSize bytes from the head of path.
func readSample(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, sampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// imageTypes are the formats the image loader decodes.
var imageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
	"image/svg+xml",
}

func isTextual(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") || strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}

// isImage matches sample against imageTypes, walking up the MIME tree so
// subtypes such as APNG count as their parent format.
func isImage(sample []byte) bool {
	for m := mimetype.Detect(sample); m != nil; m = m.Parent() {
		for _, t := range imageTypes {
			if !m.Is(t) {
				continue
			}
			if t == "image/bmp" {
				// "BM" alone is too weak; the header must parse.
				_, _, err := image.DecodeConfig(bytes.NewReader(sample))
				return err == nil
			}
			return true
		}
	}
	return false
}

// FileItem is one directory entry.
type FileItem struct {
	Name     string
	Path     string
	IsDir    bool
	Modified time.Time
}

// NewFileItem stats path and builds its entry. Symlinks to directories count
// as directories.
func NewFileItem(path string) (FileItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileItem{}, err
	}
	return FileItem{
		Name:     filepath.Base(path),
		Path:     path,
		IsDir:    info.IsDir(),
		Modified: info.ModTime(),
	}, nil
}

// IsImage reports whether the file head is detected as a raster format the
// loader decodes, or as an SVG document.
func (f FileItem) IsImage() bool {
	if f.IsDir {
		return false
	}
	sample, err := readSample(f.Path)
	if err != nil {
		return false
	}
	return isImage(sample)
}

// IsASCIIFile reports whether the name matches DefaultASCIIPatterns.
func (f FileItem) IsASCIIFile() bool {
	return defaultClassifier.IsASCII(f)
}

// IsTextFile reports whether the file holds Unicode text and is not ASCII
// art. Callers check IsImage first.
func (f FileItem) IsTextFile() bool {
	return defaultClassifier.IsText(f)
}

// ContentType sniffs the file head. Unreadable files are Binary.
func (f FileItem) ContentType() ContentType {
	if f.IsDir {
		return Binary
	}
	sample, err := readSample(f.Path)
	if err != nil {
		return Binary
	}
	return Inspect(sample)
}

// CanPreview reports whether any preview path accepts the file.
func (f FileItem) CanPreview() bool {
	return f.IsImage() || f.IsTextFile() || f.IsASCIIFile()
}

// Kind is the preview route for an entry.
type Kind int

const (
	KindOther Kind = iota
	KindDirectory
	KindImage
	KindASCII
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindImage:
		return "image"
	case KindASCII:
		return "ascii"
	case KindText:
		return "text"
	default:
		return "other"
	}
}

// Classifier decides the preview route with a configurable set of ASCII art
// glob patterns. Matching is case-insensitive on the base name.
type Classifier struct {
	ascii []glob.Glob
}

var defaultClassifier = MustClassifier(DefaultASCIIPatterns)

// NewClassifier compiles patterns. An empty list means DefaultASCIIPatterns.
func NewClassifier(patterns []string) (*Classifier, error) {
	if len(patterns) == 0 {
		patterns = DefaultASCIIPatterns
	}
	c := &Classifier{ascii: make([]glob.Glob, 0, len(patterns))}
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, err
		}
		c.ascii = append(c.ascii, g)
	}
	return c, nil
}

// MustClassifier is NewClassifier for known-good patterns.
func MustClassifier(patterns []string) *Classifier {
	c, err := NewClassifier(patterns)
	if err != nil {
		panic(err)
	}
	return c
}

// ClassifierOrDefault compiles patterns, logging and falling back to the
// defaults on a bad pattern.
func ClassifierOrDefault(patterns []string) *Classifier {
	c, err := NewClassifier(patterns)
	if err != nil {
		log.WithError(err).WithField("patterns", patterns).Warn("invalid ascii_patterns, using defaults")
		return defaultClassifier
	}
	return c
}

func (c *Classifier) IsASCII(f FileItem) bool {
	if f.IsDir {
		return false
	}
	name := strings.ToLower(filepath.Base(f.Path))
	if f.Name != "" {
		name = strings.ToLower(f.Name)
	}
	for _, g := range c.ascii {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (c *Classifier) IsText(f FileItem) bool {
	if f.IsDir || c.IsASCII(f) {
		return false
	}
	return f.ContentType().IsText()
}

// Classify returns the preview route for f, checking image before ASCII art
// before text.
func (c *Classifier) Classify(f FileItem) Kind {
	switch {
	case f.IsDir:
		return KindDirectory
	case f.IsImage():
		return KindImage
	case c.IsASCII(f):
		return KindASCII
	case c.IsText(f):
		return KindText
	default:
		return KindOther
	}
}
