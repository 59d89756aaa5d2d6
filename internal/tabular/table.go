// =============================================================================
// Sales Journal Converter - Tabular Source Reader
// =============================================================================
//
// This module loads an export file held in memory into a table whose rows can
// be addressed by column name or by position. It hides whether the data came
// from a workbook or from delimited text, and it reports every structural
// problem as a *apperrors.StructuralError so a whole file is either loaded or
// rejected, never partially loaded.
//
// =============================================================================

package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/sales-journal-converter/internal/apperrors"
	"github.com/ginjaninja78/sales-journal-converter/internal/config"
	"github.com/ginjaninja78/sales-journal-converter/internal/csvparser"
	"github.com/ginjaninja78/sales-journal-converter/internal/xlsxparser"
)

// Format identifies the container of an export file.
type Format int

const (
	// FormatAuto picks the format from the file extension.
	FormatAuto Format = iota
	FormatCSV
	// FormatXLSX covers every workbook. Legacy .xls content is recognised
	// by the workbook parser.
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	default:
		return "auto"
	}
}

// Spec describes how a file must be loaded.
type Spec struct {
	// Format of the file. FormatAuto infers it from the extension.
	Format Format

	// Sheet is the worksheet to read. Empty selects the first sheet.
	Sheet string

	// Header reads the first row as column names. Headerless tables are
	// addressed by position only.
	Header bool

	// CSV holds the delimited-text settings. HeaderRows is derived from
	// Header when left at zero.
	CSV config.CSVSettings

	// Required lists the column names that must be present.
	Required []string
}

// =============================================================================
// TABLE
// =============================================================================

// Table is a loaded export file.
type Table struct {
	Source  string
	Format  Format
	Headers []string
	Rows    []Row

	// Width is the widest of the header and data rows. Every row is padded
	// to it, so a trailing blank cell reads as "" like any other blank.
	Width int

	index map[string]int
}

// Row is one record of a table. Number is the 1-based row in the source.
type Row struct {
	Number int
	cells  []string
	table  *Table
}

// Load reads data as a table.
//
// PARAMETERS:
//   - data: The raw file bytes.
//   - fileName: The original file name, used for format inference and
//     diagnostics only.
//   - spec: Format, worksheet, header and required columns.
//
// RETURNS:
//   - The loaded table.
//   - A *apperrors.StructuralError when the source cannot be opened, the
//     worksheet is missing, the table has no data row or a required column
//     is absent.
func Load(data []byte, fileName string, spec Spec) (*Table, error) {
	name := filepath.Base(fileName)

	format := spec.Format
	if format == FormatAuto {
		detected, err := FormatFromName(fileName)
		if err != nil {
			return nil, &apperrors.StructuralError{File: name, Reason: "unsupported file type", Err: err}
		}
		format = detected
	}

	if len(data) == 0 {
		return nil, apperrors.NewStructural(name, "file is empty")
	}

	var (
		headers []string
		rows    [][]string
		numbers []int
	)

	switch format {
	case FormatXLSX:
		sheet, err := xlsxparser.Parse(data, xlsxparser.Options{SheetName: spec.Sheet, Header: spec.Header})
		if errors.Is(err, xlsxparser.ErrSheetNotFound) {
			available, _ := xlsxparser.SheetNames(data)
			return nil, &apperrors.StructuralError{
				File:   name,
				Reason: fmt.Sprintf("sheet %q not found (available: %s)", spec.Sheet, strings.Join(available, ", ")),
				Err:    err,
			}
		}
		if err != nil {
			return nil, &apperrors.StructuralError{File: name, Reason: "cannot read workbook", Err: err}
		}
		headers, rows, numbers = sheet.Headers, sheet.Rows, sheet.RowNumbers

	case FormatCSV:
		settings := spec.CSV
		if spec.Header && settings.HeaderRows == 0 {
			settings.HeaderRows = 1
		}
		if !spec.Header {
			settings.HeaderRows = 0
		}
		parsed, err := csvparser.Parse(data, settings)
		if errors.Is(err, csvparser.ErrEmpty) {
			return nil, apperrors.NewStructural(name, "file is empty")
		}
		if err != nil {
			return nil, &apperrors.StructuralError{File: name, Reason: "cannot read delimited text", Err: err}
		}
		headers, rows, numbers = parsed.Headers, parsed.Records, parsed.RowNumbers

	default:
		return nil, apperrors.NewStructural(name, "unknown format %s", format)
	}

	if len(rows) == 0 {
		return nil, apperrors.NewStructural(name, "no data rows")
	}

	table := &Table{
		Source:  name,
		Format:  format,
		Headers: headers,
		index:   make(map[string]int, len(headers)),
	}
	for i, header := range headers {
		if _, exists := table.index[header]; !exists {
			table.index[header] = i
		}
	}

	if missing := table.Missing(spec.Required...); len(missing) > 0 {
		return nil, apperrors.NewStructural(name, "missing required columns: %s", strings.Join(missing, ", "))
	}

	table.Width = len(headers)
	for _, cells := range rows {
		if len(cells) > table.Width {
			table.Width = len(cells)
		}
	}

	table.Rows = make([]Row, len(rows))
	for i, cells := range rows {
		if len(cells) < table.Width {
			padded := make([]string, table.Width)
			copy(padded, cells)
			cells = padded
		}
		table.Rows[i] = Row{Number: numbers[i], cells: cells, table: table}
	}

	return table, nil
}

// FormatFromName infers the format from a file extension.
func FormatFromName(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm", ".xls":
		return FormatXLSX, nil
	default:
		return FormatAuto, fmt.Errorf("unrecognised extension %q", filepath.Ext(fileName))
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the table has the named column.
func (t *Table) Has(column string) bool {
	_, ok := t.column(column)
	return ok
}

// Missing returns the columns from names that the table lacks.
func (t *Table) Missing(names ...string) []string {
	var missing []string
	for _, name := range names {
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Find returns the first row whose value in column equals value.
func (t *Table) Find(column, value string) (Row, bool) {
	for _, row := range t.Rows {
		if got, ok := row.Lookup(column); ok && got == value {
			return row, true
		}
	}
	return Row{}, false
}

// column resolves a header exactly, then case-insensitively.
func (t *Table) column(name string) (int, bool) {
	if i, ok := t.index[name]; ok {
		return i, true
	}
	for i, header := range t.Headers {
		if strings.EqualFold(header, name) {
			return i, true
		}
	}
	return 0, false
}

// =============================================================================
// ROW ACCESS
// =============================================================================

// Lookup returns the value of a named column and whether the column exists.
// Cells past the end of a short row read as empty.
func (r Row) Lookup(column string) (string, bool) {
	if r.table == nil {
		return "", false
	}
	i, ok := r.table.column(column)
	if !ok {
		return "", false
	}
	return r.At(i), true
}

// Get returns the value of a named column, or "" if it does not exist.
func (r Row) Get(column string) string {
	value, _ := r.Lookup(column)
	return value
}

// At returns the value at a 0-based position, or "" past the end of the row.
func (r Row) At(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// Len returns the number of cells in the row, which is the table width.
func (r Row) Len() int {
	return len(r.cells)
}
