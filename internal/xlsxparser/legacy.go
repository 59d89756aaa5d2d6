package xlsxparser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/extrame/xls"
)

// legacyMaxColumns is the BIFF8 column limit.
const legacyMaxColumns = 256

// openLegacy opens a BIFF8 workbook. The xls reader panics on some malformed
// streams, so every call into it goes through a recover.
func openLegacy(data []byte) (wb *xls.WorkBook, err error) {
	defer func() {
		if r := recover(); r != nil {
			wb, err = nil, fmt.Errorf("%w: %v", ErrLegacyFormat, r)
		}
	}()

	wb, err = xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLegacyFormat, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook stream", ErrLegacyFormat)
	}
	return wb, nil
}

func legacySheetNames(data []byte) (names []string, err error) {
	wb, err := openLegacy(data)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			names, err = nil, fmt.Errorf("%w: %v", ErrLegacyFormat, r)
		}
	}()

	for i := 0; i < wb.NumSheets(); i++ {
		if ws := wb.GetSheet(i); ws != nil {
			names = append(names, ws.Name)
		}
	}
	return names, nil
}

// parseLegacy is the .xls counterpart of Parse.
func parseLegacy(data []byte, opts Options) (sheet *Sheet, err error) {
	wb, err := openLegacy(data)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			sheet, err = nil, fmt.Errorf("%w: %v", ErrLegacyFormat, r)
		}
	}()

	ws := findLegacySheet(wb, opts.SheetName)
	if ws == nil {
		if opts.SheetName == "" {
			return nil, ErrSheetNotFound
		}
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, opts.SheetName)
	}

	sheet = &Sheet{Name: ws.Name}
	headerPending := opts.Header

	for i := 0; i <= int(ws.MaxRow); i++ {
		row := legacyRow(ws, i)
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

func findLegacySheet(wb *xls.WorkBook, name string) *xls.WorkSheet {
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		if name == "" || strings.EqualFold(strings.TrimSpace(ws.Name), name) {
			return ws
		}
	}
	return nil
}

// legacyRow returns the cells of row i up to the last non-blank one.
// Rows the sheet does not store come back empty.
func legacyRow(ws *xls.WorkSheet, i int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()

	row := ws.Row(i)
	if row == nil {
		return nil
	}

	last := -1
	values := make([]string, legacyMaxColumns)
	for c := 0; c < legacyMaxColumns; c++ {
		values[c] = row.Col(c)
		if strings.TrimSpace(values[c]) != "" {
			last = c
		}
	}
	return values[:last+1]
}
