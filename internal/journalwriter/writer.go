// =============================================================================
// Sales Journal Converter - Journal Writer Module
// =============================================================================
//
// This module persists journal lines in the flat ledger import format. A
// journal file starts with the header row and receives the lines of every
// processed export appended after it.
//
// OUTPUT FORMATS:
//   - csv:  delimited text, UTF-8, one record of 21 fields per line
//   - xlsx: one worksheet, amounts written as numbers
//
// An existing file is appended to, never truncated, so several runs can feed
// the same journal. The header is only written when the file is created.
//
// =============================================================================

package journalwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-journal-converter/internal/types"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// SheetName is the worksheet written by the xlsx format.
const SheetName = "Journal"

// ErrClosed is returned when lines are appended to a closed journal.
var ErrClosed = errors.New("journal is closed")

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a journal file.
type Options struct {
	// Format is FormatCSV or FormatXLSX.
	// Default: inferred from the file extension, csv otherwise
	Format string

	// Delimiter separates the csv fields.
	// Default: ','
	Delimiter rune

	// Header is the column header row written when the file is created.
	// Default: types.DefaultHeader
	Header []string
}

func (o Options) withDefaults(path string) Options {
	if o.Format == "" {
		o.Format = FormatCSV
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			o.Format = FormatXLSX
		}
	}
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if len(o.Header) == 0 {
		o.Header = types.DefaultHeader
	}
	return o
}

// =============================================================================
// JOURNAL
// =============================================================================

// Journal is an open journal file.
type Journal struct {
	path    string
	options Options
	written int
	closed  bool

	// csv format
	file *os.File
	csv  *csv.Writer

	// xlsx format
	book    *excelize.File
	nextRow int
}

// Open opens the journal at path for appending, creating it with the header
// row when it does not exist or is empty.
func Open(path string, options Options) (*Journal, error) {
	options = options.withDefaults(path)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	j := &Journal{path: path, options: options}

	switch options.Format {
	case FormatCSV:
		if err := j.openCSV(); err != nil {
			return nil, err
		}
	case FormatXLSX:
		if err := j.openXLSX(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported output format %q", options.Format)
	}

	return j, nil
}

func (j *Journal) openCSV() error {
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat journal: %w", err)
	}

	j.file = file
	j.csv = newCSVWriter(file, j.options.Delimiter)

	if info.Size() == 0 {
		if err := j.csv.Write(j.options.Header); err != nil {
			file.Close()
			return fmt.Errorf("failed to write header: %w", err)
		}
		j.csv.Flush()
		if err := j.csv.Error(); err != nil {
			file.Close()
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	return nil
}

func (j *Journal) openXLSX() error {
	if info, err := os.Stat(j.path); err == nil && info.Size() > 0 {
		book, err := excelize.OpenFile(j.path)
		if err != nil {
			return fmt.Errorf("failed to open journal workbook: %w", err)
		}
		if idx, err := book.GetSheetIndex(SheetName); err != nil || idx < 0 {
			book.Close()
			return fmt.Errorf("journal workbook has no %q sheet", SheetName)
		}
		rows, err := book.GetRows(SheetName)
		if err != nil {
			book.Close()
			return fmt.Errorf("failed to read journal workbook: %w", err)
		}
		j.book = book
		j.nextRow = len(rows) + 1
		return nil
	}

	book := excelize.NewFile()
	if err := book.SetSheetName("Sheet1", SheetName); err != nil {
		book.Close()
		return fmt.Errorf("failed to create journal workbook: %w", err)
	}
	header := make([]interface{}, len(j.options.Header))
	for i, h := range j.options.Header {
		header[i] = h
	}
	if err := book.SetSheetRow(SheetName, "A1", &header); err != nil {
		book.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}

	j.book = book
	j.nextRow = 2
	return nil
}

// Append writes lines after the existing content.
func (j *Journal) Append(lines []types.JournalLine) error {
	if j.closed {
		return ErrClosed
	}

	switch j.options.Format {
	case FormatXLSX:
		for _, line := range lines {
			cell, err := excelize.CoordinatesToCellName(1, j.nextRow)
			if err != nil {
				return err
			}
			row := xlsxRow(line)
			if err := j.book.SetSheetRow(SheetName, cell, &row); err != nil {
				return fmt.Errorf("failed to write line %d: %w", j.written+1, err)
			}
			j.nextRow++
			j.written++
		}
		return nil

	default:
		for _, line := range lines {
			if err := j.csv.Write(line.Record()); err != nil {
				return fmt.Errorf("failed to write line %d: %w", j.written+1, err)
			}
			j.written++
		}
		j.csv.Flush()
		return j.csv.Error()
	}
}

// Written returns the number of lines appended since Open.
func (j *Journal) Written() int {
	return j.written
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Close flushes and closes the journal. Workbooks are saved here.
func (j *Journal) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true

	if j.book != nil {
		saveErr := j.book.SaveAs(j.path)
		closeErr := j.book.Close()
		if saveErr != nil {
			return fmt.Errorf("failed to save journal workbook: %w", saveErr)
		}
		return closeErr
	}

	j.csv.Flush()
	if err := j.csv.Error(); err != nil {
		j.file.Close()
		return err
	}
	return j.file.Close()
}

// =============================================================================
// HELPERS
// =============================================================================

// WriteCSV writes a header row and lines to w. It is used for previews.
func WriteCSV(w io.Writer, header []string, lines []types.JournalLine, delimiter rune) error {
	if delimiter == 0 {
		delimiter = ','
	}
	writer := newCSVWriter(w, delimiter)
	if len(header) > 0 {
		if err := writer.Write(header); err != nil {
			return err
		}
	}
	for _, line := range lines {
		if err := writer.Write(line.Record()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func newCSVWriter(w io.Writer, delimiter rune) *csv.Writer {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter
	return writer
}

// xlsxRow converts a line to cell values, keeping amounts numeric.
func xlsxRow(line types.JournalLine) []interface{} {
	record := line.Record()
	row := make([]interface{}, len(record))
	for i, value := range record {
		row[i] = value
	}
	if line.Debit.Valid {
		row[7] = line.Debit.Decimal.InexactFloat64()
	}
	if line.Credit.Valid {
		row[8] = line.Credit.Decimal.InexactFloat64()
	}
	return row
}
