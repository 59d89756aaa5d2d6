// Package testutil builds in-memory export fixtures for package tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Workbook returns the bytes of an .xlsx file holding one worksheet named
// sheet, filled row by row from rows starting at A1.
func Workbook(t testing.TB, sheet string, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" && sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	} else {
		sheet = "Sheet1"
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// LegacyWorkbook returns a BIFF8 .xls report with one worksheet named
// "Rapport" holding these rows:
//
//	Secteur  Paiement  TTC   TVA
//	11       3         50    5
//	41       3         30.5
//	1        1         20    2
func LegacyWorkbook(t testing.TB) []byte {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)

	data, err := os.ReadFile(filepath.Join(filepath.Dir(file), "testdata", "rapport_jour_20240301.xls"))
	require.NoError(t, err)
	return data
}
