package ptui

import (
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
	"golang.org/x/term"

	"github.com/narbs/ptui/internal/config"
	"github.com/narbs/ptui/pkg/csi"
)

// Assumed image size when neither identify nor file can tell.
const (
	DefaultImageWidth  = 800
	DefaultImageHeight = 600
)

// textCellAspect corrects for text-mode cells being much taller than wide.
const textCellAspect = 3.0

// Terminal size used when the real one cannot be read.
const (
	fallbackCols = 80
	fallbackRows = 24
)

// ProbeDimensions asks identify, then file, for the pixel size of path.
// When both fail it returns 800x600 together with a DimensionProbeFailure
// error, which callers only log.
func ProbeDimensions(runner CommandRunner, path string) (width, height int, err error) {
	if runner == nil {
		runner = ExecRunner{}
	}

	if res, err := runner.Run("identify", "-format", "%w %h", path); err == nil && res.ExitCode == 0 {
		fields := strings.Fields(string(res.Stdout))
		if len(fields) >= 2 {
			w, errW := strconv.Atoi(fields[0])
			h, errH := strconv.Atoi(fields[1])
			if errW == nil && errH == nil && w >= 0 && h >= 0 {
				return w, h, nil
			}
		}
	}

	if res, err := runner.Run("file", path); err == nil && res.ExitCode == 0 {
		if w, h, ok := ParseFileDimensions(string(res.Stdout)); ok {
			return w, h, nil
		}
	}

	return DefaultImageWidth, DefaultImageHeight,
		newError(DimensionProbeFailure, "probe", "could not determine image dimensions of "+path, nil)
}

// ParseFileDimensions extracts a size from file(1) output. It first looks
// for three words "W x H" (or "W × H"), then for a single "WxH" or "W×H" word.
func ParseFileDimensions(output string) (width, height int, ok bool) {
	words := strings.Fields(output)

	for i := 0; i+2 < len(words); i++ {
		if words[i+1] != "x" && words[i+1] != "×" {
			continue
		}
		w, errW := parseDim(words[i])
		h, errH := parseDim(words[i+2])
		if errW == nil && errH == nil {
			return w, h, true
		}
	}

	for _, word := range words {
		for _, sep := range []string{"x", "×"} {
			ws, hs, found := strings.Cut(word, sep)
			if !found {
				continue
			}
			w, errW := parseDim(ws)
			h, errH := parseDim(hs)
			if errW == nil && errH == nil {
				return w, h, true
			}
		}
	}

	return 0, 0, false
}

func parseDim(s string) (int, error) {
	n, err := strconv.ParseUint(s, 10, 31)
	return int(n), err
}

// ConverterDimensions fits an imgW x imgH image into maxW x maxH text cells.
// The width-constrained fit wins when its height fits; otherwise the height
// is pinned and the width is capped at maxW. Results never exceed the bounds.
func ConverterDimensions(imgW, imgH, maxW, maxH int) (width, height int) {
	if imgW <= 0 || imgH <= 0 {
		return maxW, maxH
	}

	aspect := float64(imgW) / float64(imgH)

	widthFitH := int(float64(maxW) / aspect)
	if widthFitH <= maxH {
		return maxW, widthFitH
	}

	heightFitW := int(float64(maxH) * aspect * textCellAspect)
	return min(heightFitW, maxW), maxH
}

// FitPixels scales imgW x imgH to fill targetW x targetH pixels without
// changing its aspect: fit to width when the image is relatively wider,
// to height otherwise.
func FitPixels(imgW, imgH, targetW, targetH int) (width, height int) {
	if imgW <= 0 || imgH <= 0 || targetW <= 0 || targetH <= 0 {
		return max(targetW, 0), max(targetH, 0)
	}

	imgAspect := float64(imgW) / float64(imgH)
	targetAspect := float64(targetW) / float64(targetH)

	if imgAspect > targetAspect {
		return targetW, min(int(float64(targetW)/imgAspect), targetH)
	}
	return min(int(float64(targetH)*imgAspect), targetW), targetH
}

// TerminalSize returns the stdout terminal size in cells. When stdout is not
// a terminal the controlling terminal is asked over CSI, then 80x24 is used.
func TerminalSize() (cols, rows int) {
	return terminalSize(func() (int, int, error) {
		return term.GetSize(int(os.Stdout.Fd()))
	}, csi.WindowSize)
}

func terminalSize(getSize, query func() (int, int, error)) (cols, rows int) {
	cols, rows, err := getSize()
	if err == nil && cols > 0 && rows > 0 {
		return cols, rows
	}
	cols, rows, err = query()
	if err == nil && cols > 0 && rows > 0 {
		return cols, rows
	}
	log.WithError(err).Debug("terminal size unknown, using 80x24")
	return fallbackCols, fallbackRows
}

// OptimalMaxDimension picks the longest pixel side images are decoded to in
// graphical mode. Without auto_resize the configured max_dimension is used.
// Otherwise the preview pane (75% x 85% of the terminal, at a conservative
// 8x16 px per cell) is scaled by 0.9 and clamped to [512, 1024].
func OptimalMaxDimension(cfg config.GraphicalConfig, cols, rows int) int {
	if !cfg.AutoResize {
		return cfg.MaxDimension
	}

	previewCols := int(float64(cols) * 0.75)
	previewRows := int(float64(rows) * 0.85)
	displayW := previewCols * 8
	displayH := previewRows * 16

	optimal := int(float64(max(displayW, displayH)) * 0.9)
	capped := min(max(optimal, 512), 1024)

	log.WithFields(log.Fields{
		"terminal": strconv.Itoa(cols) + "x" + strconv.Itoa(rows),
		"display":  strconv.Itoa(displayW) + "x" + strconv.Itoa(displayH),
		"optimal":  optimal,
		"capped":   capped,
	}).Debug("auto-resize max dimension")

	return capped
}
