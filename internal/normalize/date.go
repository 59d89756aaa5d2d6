package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-journal-converter/internal/apperrors"
)

// DisplayLayout is the journal's DD/MM/YYYY date form.
const DisplayLayout = "02/01/2006"

// dateLayouts are tried in order. Month-first slash dates are tried before
// day-first ones, so "03/04/2024" reads as the 4th of March.
var dateLayouts = []string{
	"2006-1-2 15:04:05",
	"2006-1-2",
	"2-1-2006",
	"1-2-2006",
	"1/2/2006",
	"2/1/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-1-2 15:04:05 -0700",
	"2006-1-2 15:04",
}

// Excel serial numbers outside this range are not treated as dates. The upper
// bound is 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// ParseTime parses a raw date value. Workbook cells read as raw values carry
// dates as Excel serial numbers, which are converted first; anything else is
// tried against the ordered layout list.
func ParseTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, &apperrors.DateFormatError{Empty: true}
	}

	if t, ok := parseExcelSerial(value); ok {
		return t, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &apperrors.DateFormatError{Value: raw}
}

// ParseDate parses a raw date value and returns it in DD/MM/YYYY form.
// It fails with *apperrors.DateFormatError rather than guessing a default.
func ParseDate(raw string) (string, error) {
	t, err := ParseTime(raw)
	if err != nil {
		return "", err
	}
	return FormatDate(t), nil
}

// FormatDate renders a time in DD/MM/YYYY form.
func FormatDate(t time.Time) string {
	return t.Format(DisplayLayout)
}

// ParseDisplayDate parses a DD/MM/YYYY string produced by FormatDate.
func ParseDisplayDate(value string) (time.Time, error) {
	t, err := time.Parse(DisplayLayout, value)
	if err != nil {
		return time.Time{}, &apperrors.DateFormatError{Value: value, Empty: value == ""}
	}
	return t, nil
}

func parseExcelSerial(value string) (time.Time, bool) {
	if strings.ContainsAny(value, "-/:T ") {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial < minExcelSerial || serial > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
