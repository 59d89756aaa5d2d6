// Package apperrors defines the failure taxonomy shared by the readers and
// transformers. Each concrete type matches one sentinel through errors.Is so
// callers can branch on the class of failure without caring about details.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrStructural indicates that a whole file could not be processed.
var ErrStructural = errors.New("structural error")

// ErrRow indicates that a single source row was rejected.
var ErrRow = errors.New("row error")

// ErrParseWarning indicates that an amount was defaulted after a failed parse.
var ErrParseWarning = errors.New("parse warning")

// ErrDateFormat indicates that no supported date layout matched the input.
var ErrDateFormat = errors.New("date format error")

// ErrSortFailure indicates that a batch could not be ordered by date.
var ErrSortFailure = errors.New("sort failure")

// StructuralError aborts an entire file: the source cannot be opened, is
// empty, lacks a required column or carries no usable file date.
type StructuralError struct {
	File   string
	Reason string
	Err    error
}

// NewStructural builds a StructuralError with a formatted reason.
func NewStructural(file string, format string, args ...interface{}) *StructuralError {
	return &StructuralError{File: file, Reason: fmt.Sprintf(format, args...)}
}

func (e *StructuralError) Error() string {
	msg := e.Reason
	if e.File != "" {
		msg = fmt.Sprintf("%s: %s", e.File, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

func (e *StructuralError) Unwrap() error { return e.Err }

// RowError rejects one source row. Row is the 1-based position in the source.
type RowError struct {
	Row    int
	Field  string
	Value  string
	Reason string
	Err    error
}

// NewRowError builds a RowError with a formatted reason.
func NewRowError(row int, format string, args ...interface{}) *RowError {
	return &RowError{Row: row, Reason: fmt.Sprintf(format, args...)}
}

func (e *RowError) Error() string {
	msg := fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	if e.Field != "" {
		msg = fmt.Sprintf("row %d, field %q: %s", e.Row, e.Field, e.Reason)
	}
	if e.Value != "" {
		msg = fmt.Sprintf("%s (value: %q)", msg, e.Value)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RowError) Is(target error) bool { return target == ErrRow }

func (e *RowError) Unwrap() error { return e.Err }

// ParseWarning records an amount that was replaced by its default value.
// It never stops processing.
type ParseWarning struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *ParseWarning) Error() string {
	msg := fmt.Sprintf("unparsable amount %q defaulted", e.Value)
	if e.Field != "" {
		msg = fmt.Sprintf("field %q: %s", e.Field, msg)
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d, %s", e.Row, msg)
	}
	return msg
}

func (e *ParseWarning) Is(target error) bool { return target == ErrParseWarning }

func (e *ParseWarning) Unwrap() error { return e.Err }

// DateFormatError is returned when a date cannot be parsed. Empty is set when
// the input was blank, which lets diagnostics tell "missing" from "malformed".
type DateFormatError struct {
	Value string
	Empty bool
}

func (e *DateFormatError) Error() string {
	if e.Empty {
		return "empty date"
	}
	return fmt.Sprintf("unrecognised date format %q", e.Value)
}

func (e *DateFormatError) Is(target error) bool { return target == ErrDateFormat }
