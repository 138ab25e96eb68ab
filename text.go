package ptui

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/apex/log"
	"golang.org/x/text/transform"

	"github.com/narbs/ptui/internal/files"
)

// MaxTextLines caps how much of a text file is kept for scrolling.
const MaxTextLines = 10000

const (
	textTooLarge   = "... (file too large for scrolling, showing first 10000 lines)"
	textEndOfFile  = "(End of file)"
	textOpenError  = "Error: Could not open file"
	textReadError  = "Error reading file"
	asciiReadError = "Error: Could not read ASCII file"
	sniffSize      = 512
	maxLineBytes   = 1 << 20
)

// ReadTextLines decodes path by its byte order mark and returns at most
// MaxTextLines lines, followed by a marker line when the file is longer.
func ReadTextLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, _ := br.Peek(sniffSize)
	enc := files.Inspect(head).Encoding()

	sc := bufio.NewScanner(transform.NewReader(br, enc.NewDecoder()))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []string
	for sc.Scan() {
		if len(lines) == MaxTextLines {
			lines = append(lines, textTooLarge)
			return lines, nil
		}
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		log.WithError(err).WithField("path", path).Debug("text read stopped early")
		lines = append(lines, textReadError)
	}
	return lines, nil
}

// TextPreview returns the height lines of path starting at offset. A
// height of zero or less shows everything after offset.
func TextPreview(path string, offset, height int, highlight bool) string {
	lines, err := ReadTextLines(path)
	if err != nil {
		return textOpenError
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(lines) {
		return textEndOfFile
	}
	end := len(lines)
	if height > 0 {
		end = min(offset+height, end)
	}
	text := strings.Join(lines[offset:end], "\n")
	if highlight {
		return Highlight(filepath.Base(path), text)
	}
	return text
}

// ASCIIPreview returns the pre-rendered ANSI art in path, dropping the first
// offset lines while some remain.
func ASCIIPreview(path string, offset int) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return asciiReadError
	}
	content := string(data)
	lines := strings.Split(content, "\n")
	if offset > 0 && offset < len(lines) {
		return strings.Join(lines[offset:], "\n")
	}
	return content
}

// Highlight colours text for a 256-colour terminal, picking the lexer by
// file name and then by content. On any error text is returned unchanged.
func Highlight(name, text string) string {
	lexer := lexers.Match(name)
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return text
	}
	return buf.String()
}
