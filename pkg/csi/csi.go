/*
Package csi provides CSI (Control Sequence Introducer) query functions for terminal capabilities
*/
package csi

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

// QueryTimeout is the default timeout for CSI queries
const QueryTimeout = 100 * time.Millisecond

const (
	cellSizeQuery   = "\x1b[16t"
	textAreaQuery   = "\x1b[14t"
	windowSizeQuery = "\x1b[18t"
)

// ErrNoResponse is returned when the terminal did not answer a query in time
var ErrNoResponse = errors.New("csi: no response from terminal")

// CellSize queries the character cell size in pixels using CSI 16t.
// A terminal that cannot be opened yields a wrapped open/raw-mode error,
// one that stays silent yields ErrNoResponse.
func CellSize() (width, height int, err error) {
	var ok bool
	if err := withRawTTY(func(tty io.ReadWriter) {
		width, height, ok = QueryCellSize(tty, QueryTimeout)
	}); err != nil {
		return 0, 0, fmt.Errorf("failed to open terminal: %w", err)
	}
	if !ok {
		return 0, 0, ErrNoResponse
	}
	return width, height, nil
}

// WindowSize asks the controlling terminal for its size in cells. It is the
// fallback for when the ioctl on stdout fails, e.g. with output redirected.
func WindowSize() (cols, rows int, err error) {
	var ok bool
	if err := withRawTTY(func(tty io.ReadWriter) {
		cols, rows, ok = QueryWindowSize(tty, QueryTimeout)
	}); err != nil {
		return 0, 0, fmt.Errorf("failed to open terminal: %w", err)
	}
	if !ok {
		return 0, 0, ErrNoResponse
	}
	return cols, rows, nil
}

// QueryWindowSize sends CSI 18t for the size in cells. Terminals that only
// report pixels are asked for the text area (CSI 14t) and the cell size
// (CSI 16t) and the two are divided.
func QueryWindowSize(rw io.ReadWriter, timeout time.Duration) (cols, rows int, ok bool) {
	if resp, got := query(rw, windowSizeQuery, timeout); got {
		if rows, cols, ok = parseReport(resp, "[8;"); ok {
			return cols, rows, true
		}
	}

	resp, got := query(rw, textAreaQuery, timeout)
	if !got {
		return 0, 0, false
	}
	areaH, areaW, ok := parseReport(resp, "[4;")
	if !ok {
		return 0, 0, false
	}
	cellW, cellH, ok := QueryCellSize(rw, timeout)
	if !ok {
		return 0, 0, false
	}
	cols, rows = areaW/cellW, areaH/cellH
	if cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	return cols, rows, true
}

// QueryCellSize writes the CSI 16t query to rw and waits up to timeout for the
// `CSI 6 ; height ; width t` report.
func QueryCellSize(rw io.ReadWriter, timeout time.Duration) (width, height int, ok bool) {
	resp, got := query(rw, cellSizeQuery, timeout)
	if !got {
		return 0, 0, false
	}
	return ParseCellSizeResponse(resp)
}

// ParseCellSizeResponse extracts the cell size from a CSI 16t report
func ParseCellSizeResponse(response string) (width, height int, ok bool) {
	height, width, ok = parseReport(response, "[6;")
	return width, height, ok
}

// parseReport reads `<prefix>a;bt` and returns a, b.
func parseReport(response, prefix string) (a, b int, ok bool) {
	start := strings.Index(response, prefix)
	if start == -1 {
		return 0, 0, false
	}
	remaining := response[start+len(prefix):]
	end := strings.IndexByte(remaining, 't')
	if end == -1 {
		return 0, 0, false
	}
	parts := strings.Split(remaining[:end], ";")
	if len(parts) < 2 {
		return 0, 0, false
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil || a <= 0 || b <= 0 {
		return 0, 0, false
	}
	return a, b, true
}

func query(rw io.ReadWriter, seq string, timeout time.Duration) (string, bool) {
	if _, err := io.WriteString(rw, seq); err != nil {
		return "", false
	}

	responseChan := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, err := rw.Read(buf)
		if err != nil || n == 0 {
			responseChan <- ""
			return
		}
		responseChan <- string(buf[:n])
	}()

	select {
	case resp := <-responseChan:
		return resp, resp != ""
	case <-time.After(timeout):
		return "", false
	}
}

func withRawTTY(fn func(tty io.ReadWriter)) error {
	// Open controlling terminal
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer tty.Close()

	oldState, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		return err
	}
	defer term.Restore(int(tty.Fd()), oldState)

	fn(tty)
	return nil
}
