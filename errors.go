package ptui

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the recoverable failures of the preview pipeline
type ErrorKind int

const (
	Unknown ErrorKind = iota
	// ToolUnavailable: the external converter is missing or exited non-zero
	ToolUnavailable
	// DecodeFailure: every decoder in the fallback chain failed
	DecodeFailure
	// ProtocolUnsupported: no graphics protocol, render as text
	ProtocolUnsupported
	// DimensionProbeFailure: identify and file both failed, 800x600 assumed
	DimensionProbeFailure
	// CacheMiss: not an error for callers; the preview gets recomputed
	CacheMiss
)

func (k ErrorKind) String() string {
	switch k {
	case ToolUnavailable:
		return "tool unavailable"
	case DecodeFailure:
		return "decode failure"
	case ProtocolUnsupported:
		return "protocol unsupported"
	case DimensionProbeFailure:
		return "dimension probe failure"
	case CacheMiss:
		return "cache miss"
	default:
		return "unknown"
	}
}

// PreviewError is the error type returned by loaders, converters and probes
type PreviewError struct {
	Kind ErrorKind
	Op   string
	Msg  string
	Err  error
}

func (e *PreviewError) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *PreviewError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, msg string, err error) *PreviewError {
	return &PreviewError{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of the first PreviewError in err's chain
func KindOf(err error) ErrorKind {
	var pe *PreviewError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return Unknown
}

// IsToolUnavailable reports whether err came from a missing or failing converter
func IsToolUnavailable(err error) bool {
	return KindOf(err) == ToolUnavailable
}

// IsDecodeFailure reports whether err came from an exhausted decode chain
func IsDecodeFailure(err error) bool {
	return KindOf(err) == DecodeFailure
}
