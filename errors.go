package trellis

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by New when the supplied Config is malformed.
// Configuration problems fail fast, before any parsing starts.
var ErrInvalidConfig = errors.New("trellis: invalid config")

// ParseError reports a file that could not be read or parsed. With
// ContinueOnError set, parse errors are logged and the file skipped;
// otherwise they fail the enclosing slice.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SliceError reports a failed scheduling unit. When ContinueOnError is
// false, Analyze aborts with a SliceError and the Analyzer lands in
// StateError; nothing from the failing point onward is merged.
type SliceError struct {
	Start int // index of the unit's first file within the run
	Files int // number of files in the unit
	Err   error
}

func (e *SliceError) Error() string {
	return fmt.Sprintf("slice at file %d (%d files): %v", e.Start, e.Files, e.Err)
}

func (e *SliceError) Unwrap() error { return e.Err }
