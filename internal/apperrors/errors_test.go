package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"structural", NewStructural("a.xlsx", "sheet %q not found", "X"), ErrStructural},
		{"row", NewRowError(3, "amount <= 0"), ErrRow},
		{"warning", &ParseWarning{Value: "abc"}, ErrParseWarning},
		{"date", &DateFormatError{Value: "32/13/2024"}, ErrDateFormat},
		{"wrapped structural", fmt.Errorf("clorian: %w", NewStructural("", "empty")), ErrStructural},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestStructuralErrorUnwrap(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := &StructuralError{File: "clorian_01-03-2024.xlsx", Reason: "cannot open workbook", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "clorian_01-03-2024.xlsx: cannot open workbook: zip: not a valid zip file", err.Error())
}

func TestRowErrorMessage(t *testing.T) {
	err := &RowError{Row: 4, Field: "Date", Value: "n/a", Reason: "invalid date"}
	assert.Equal(t, `row 4, field "Date": invalid date (value: "n/a")`, err.Error())

	var rowErr *RowError
	assert.True(t, errors.As(fmt.Errorf("wrap: %w", err), &rowErr))
	assert.Equal(t, 4, rowErr.Row)
}

func TestDateFormatErrorEmpty(t *testing.T) {
	assert.Equal(t, "empty date", (&DateFormatError{Empty: true}).Error())
	assert.Contains(t, (&DateFormatError{Value: "x"}).Error(), `"x"`)
}
