// =============================================================================
// Sales Journal Converter - Number Normalizer
// =============================================================================
//
// Locale-tolerant parsing of monetary amounts. Exports arrive from several
// uncontrolled systems, so the same figure may be written "1234.50",
// "1 234,50", "1.234,50" or "1,234.50 €".
//
// FAILURE POLICY:
//   A malformed amount is replaced by the caller's default and reported as a
//   *apperrors.ParseWarning. It never aborts the row.
//
// =============================================================================

package normalize

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-journal-converter/internal/apperrors"
)

// ParseAmount converts a raw cell value into a decimal amount.
//
// PARAMETERS:
//   - raw: The cell text. Spaces (including non-breaking and thin spaces used
//     as French thousands separators) and a currency sign are ignored.
//   - def: The value returned for blank or unparsable input.
//
// RETURNS:
//   - The parsed amount, or def.
//   - A *apperrors.ParseWarning when the input was not blank but could not be
//     parsed. Blank input returns def without a warning.
//
// SEPARATORS:
//   A lone comma is a decimal separator. When both ',' and '.' appear, the
//   right-most one is the decimal separator and the other one groups digits.
func ParseAmount(raw string, def decimal.Decimal) (decimal.Decimal, error) {
	cleaned := cleanAmount(raw)
	if cleaned == "" {
		return def, nil
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return def, &apperrors.ParseWarning{Value: raw, Err: err}
	}

	return amount, nil
}

// cleanAmount strips decoration and rewrites the separators so the result can
// be handed to decimal.NewFromString.
func cleanAmount(raw string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '€' {
			return -1
		}
		return r
	}, raw)

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	return s
}
