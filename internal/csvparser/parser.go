// =============================================================================
// Sales Journal Converter - CSV Parser Module
// =============================================================================
//
// This module parses delimited text exports held in memory. It handles the
// irregularities seen in the payment and parking exports:
//   - Different delimiters, with optional auto-detection
//   - A UTF-8 byte order mark
//   - Latin-1 / Windows-1252 encoded files
//   - Headerless files, single and multi-line headers
//   - Blank rows and ragged rows
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/sales-journal-converter/internal/config"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// candidateDelimiters are tried in order when auto-detection is enabled.
var candidateDelimiters = []rune{';', ',', '\t', '|'}

// ErrEmpty is returned when the input holds no non-blank row.
var ErrEmpty = errors.New("CSV file is empty")

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed delimited file.
type CSVData struct {
	// Headers contains the column headers. It is nil for headerless files.
	Headers []string

	// Records contains the non-blank data rows with trimmed cells.
	Records [][]string

	// RowNumbers holds the 1-based source line of each entry in Records.
	RowNumbers []int

	// Delimiter is the separator actually used to split the file.
	Delimiter rune

	// Encoding is the encoding the input was decoded from.
	Encoding string

	// RowCount is the number of data rows (excluding headers).
	RowCount int

	// ColumnCount is the widest row or header width.
	ColumnCount int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads delimited text from a byte buffer.
//
// PARAMETERS:
//   - data: The raw file content.
//   - settings: The CSV settings of the source.
//
// RETURNS:
//   - A pointer to the CSVData struct containing the parsed data.
//   - ErrEmpty if the file holds no row, or another error if it cannot be
//     decoded or split.
//
// PARSING PROCESS:
//   1. Strip the byte order mark and decode to UTF-8
//   2. Split with the configured delimiter
//   3. If auto-detection is enabled and the first row is too narrow, retry
//      with the other candidate delimiters
//   4. Merge header rows and collect the data rows
func Parse(data []byte, settings config.CSVSettings) (*CSVData, error) {
	text, encoding, err := Decode(data, settings.Encoding)
	if err != nil {
		return nil, err
	}

	delimiter := DelimiterRune(settings.Delimiter)
	allRows, lines, readErr := readAll(text, delimiter)

	if settings.AutoDetect && (readErr != nil || firstWidth(allRows) < settings.MinColumns) {
		if rows, rowLines, alt, ok := detect(text, delimiter, settings.MinColumns); ok {
			allRows, lines, delimiter, readErr = rows, rowLines, alt, nil
		}
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", readErr)
	}

	// Drop blank rows but remember where each surviving row came from.
	var rows [][]string
	var numbers []int
	for i, row := range allRows {
		if isRowEmpty(row) {
			continue
		}
		rows = append(rows, trimCells(row))
		numbers = append(numbers, lines[i])
	}

	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	csvData := &CSVData{
		Delimiter: delimiter,
		Encoding:  encoding,
	}

	start := 0
	if settings.HeaderRows > 0 {
		headers, err := extractHeaders(rows, settings.HeaderRows)
		if err != nil {
			return nil, fmt.Errorf("failed to extract headers: %w", err)
		}
		csvData.Headers = headers
		start = settings.HeaderRows
	}

	csvData.Records = rows[start:]
	csvData.RowNumbers = numbers[start:]
	csvData.RowCount = len(csvData.Records)
	csvData.ColumnCount = len(csvData.Headers)
	for _, row := range csvData.Records {
		if len(row) > csvData.ColumnCount {
			csvData.ColumnCount = len(row)
		}
	}

	return csvData, nil
}

// Decode strips a UTF-8 byte order mark and converts the content to UTF-8.
//
// SUPPORTED ENCODINGS:
//   - "utf-8": the input must already be valid UTF-8
//   - "latin-1" / "iso-8859-1"
//   - "windows-1252" / "cp1252"
//   - "auto" or empty: valid UTF-8 is kept, anything else is read as
//     Windows-1252 (a superset of Latin-1 for printable characters)
//
// RETURNS:
//   - The UTF-8 content and the name of the encoding actually used.
func Decode(data []byte, encoding string) ([]byte, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	switch strings.ToLower(strings.ReplaceAll(encoding, "_", "-")) {
	case "utf-8", "utf8":
		if !utf8.Valid(data) {
			return nil, "", fmt.Errorf("input is not valid UTF-8")
		}
		return data, "utf-8", nil
	case "latin-1", "latin1", "iso-8859-1":
		return decodeWith(data, charmap.ISO8859_1, "latin-1")
	case "windows-1252", "cp1252":
		return decodeWith(data, charmap.Windows1252, "windows-1252")
	case "", "auto":
		if utf8.Valid(data) {
			return data, "utf-8", nil
		}
		return decodeWith(data, charmap.Windows1252, "windows-1252")
	default:
		return nil, "", fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func decodeWith(data []byte, cm *charmap.Charmap, name string) ([]byte, string, error) {
	decoded, _, err := transform.Bytes(cm.NewDecoder(), data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return decoded, name, nil
}

// DelimiterRune maps a configured delimiter name to its rune.
func DelimiterRune(delimiter string) rune {
	switch delimiter {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	default:
		if r, _ := utf8.DecodeRuneInString(delimiter); r != utf8.RuneError {
			return r
		}
		return ','
	}
}

// configureReader configures the CSV reader for loosely formatted exports.
func configureReader(reader *csv.Reader, delimiter rune) {
	reader.Comma = delimiter

	// Rows may have different widths.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// readAll splits the text and returns each record with the source line it
// starts on.
func readAll(text []byte, delimiter rune) ([][]string, []int, error) {
	reader := csv.NewReader(bytes.NewReader(text))
	configureReader(reader, delimiter)

	var rows [][]string
	var lines []int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return rows, lines, nil
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}
}

// detect tries the candidate delimiters other than the one that failed and
// keeps the first that splits the first row into at least minColumns fields.
func detect(text []byte, failed rune, minColumns int) ([][]string, []int, rune, bool) {
	if minColumns < 2 {
		minColumns = 2
	}
	for _, candidate := range candidateDelimiters {
		if candidate == failed {
			continue
		}
		rows, lines, err := readAll(text, candidate)
		if err != nil {
			continue
		}
		if firstWidth(rows) >= minColumns {
			return rows, lines, candidate, true
		}
	}
	return nil, nil, 0, false
}

// firstWidth returns the field count of the first non-blank row.
func firstWidth(rows [][]string) int {
	for _, row := range rows {
		if !isRowEmpty(row) {
			return len(row)
		}
	}
	return 0
}

// extractHeaders extracts and merges header rows.
//
// MULTI-LINE HEADER HANDLING:
//   Non-empty values of each column are joined with a space.
//
//   Row 1: "Montant", "",    "Montant"
//   Row 2: "TTC",     "TVA", "HT"
//   Result: "Montant TTC", "TVA", "Montant HT"
func extractHeaders(rows [][]string, headerRows int) ([]string, error) {
	if len(rows) < headerRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	if headerRows == 1 {
		return cleanHeaders(rows[0]), nil
	}

	maxCols := 0
	for i := 0; i < headerRows; i++ {
		if len(rows[i]) > maxCols {
			maxCols = len(rows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for row := 0; row < headerRows; row++ {
			if col < len(rows[row]) && rows[row][col] != "" {
				parts = append(parts, rows[row][col])
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	return cleanHeaders(headers), nil
}

// cleanHeaders trims headers and names empty ones after their position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
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
