// =============================================================================
// Sales Journal Converter - XLSX Parser Module
// =============================================================================
//
// This module reads one worksheet of a workbook held in memory. Cells are
// read as raw values: numbers keep their stored precision and dates arrive
// as Excel serial numbers, which the date normalizer converts. Legacy binary
// .xls workbooks are recognised by their compound-document signature and
// read with a BIFF8 reader instead.
//
// LIBRARIES:
//   Office Open XML: github.com/xuri/excelize/v2 (https://xuri.me/excelize/)
//   Legacy .xls:     github.com/extrame/xls
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// oleSignature starts every legacy compound-document (.xls) file.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ErrLegacyFormat wraps every failure to read a binary .xls workbook.
var ErrLegacyFormat = errors.New("cannot read legacy .xls workbook")

// ErrSheetNotFound is returned when the requested worksheet does not exist.
var ErrSheetNotFound = errors.New("worksheet not found")

// =============================================================================
// SHEET DATA STRUCTURE
// =============================================================================

// Sheet holds the content of one worksheet.
type Sheet struct {
	// Name is the worksheet name.
	Name string

	// Headers contains the first row when Options.Header is set.
	Headers []string

	// Rows contains the non-blank data rows with trimmed cells.
	Rows [][]string

	// RowNumbers holds the 1-based worksheet row of each entry in Rows.
	RowNumbers []int
}

// Options selects the worksheet and the header handling.
type Options struct {
	// SheetName is the worksheet to read. Empty selects the first sheet.
	SheetName string

	// Header treats the first non-blank row as column headers.
	Header bool
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a worksheet from an in-memory workbook.
//
// PARAMETERS:
//   - data: The raw workbook bytes.
//   - opts: Worksheet selection and header handling.
//
// RETURNS:
//   - A pointer to the Sheet.
//   - ErrLegacyFormat, ErrSheetNotFound or an excelize error when the
//     workbook cannot be read.
func Parse(data []byte, opts Options) (*Sheet, error) {
	if IsLegacyFormat(data) {
		return parseLegacy(data, opts)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := opts.SheetName
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, ErrSheetNotFound
	}
	if index, err := f.GetSheetIndex(sheetName); err != nil || index < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetName)
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheetName, err)
	}

	sheet := &Sheet{Name: sheetName}
	headerPending := opts.Header

	for i, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		cells := trimCells(row)
		if headerPending {
			sheet.Headers = cleanHeaders(cells)
			headerPending = false
			continue
		}
		sheet.Rows = append(sheet.Rows, cells)
		sheet.RowNumbers = append(sheet.RowNumbers, i+1)
	}

	return sheet, nil
}

// SheetNames lists the worksheets of an in-memory workbook.
func SheetNames(data []byte) ([]string, error) {
	if IsLegacyFormat(data) {
		return legacySheetNames(data)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// IsLegacyFormat reports whether data is a binary compound-document workbook.
func IsLegacyFormat(data []byte) bool {
	return bytes.HasPrefix(data, oleSignature)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// cleanHeaders trims headers and names empty ones after their position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

func trimCells(row []string) []string {
	trimmed := make([]string, len(row))
	for i, cell := range row {
		trimmed[i] = strings.TrimSpace(cell)
	}
	return trimmed
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
