package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-journal-converter/internal/apperrors"
)

// prefixMatcher recognises files by name prefix.
type prefixMatcher map[string]string

func (m prefixMatcher) MatchSource(baseName string) (string, bool) {
	for prefix, source := range m {
		if strings.HasPrefix(baseName, prefix) {
			return source, true
		}
	}
	return "", false
}

var digits = regexp.MustCompile(`(\d{8})`)

func yyyymmdd(name string) (time.Time, bool) {
	m := digits.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", m[1])
	return t, err == nil
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
}

func TestDiscoverInputFilesOrdersByDate(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"rapport_jour_20240301.csv",
		"export_caisses.xlsx",
		"rapport_jour_20240315.csv",
		"notes.txt",
		"rapport_jour_20240310.csv",
	} {
		touch(t, dir, name)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "rapport_jour_20240401.csv"), 0755))

	fm := NewFileManager(dir, t.TempDir(), t.TempDir())
	files, err := fm.DiscoverInputFiles(prefixMatcher{"rapport_jour_": "skidata", "export_caisses": "shopify"}, yyyymmdd)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f.Path))
	}
	assert.Equal(t, []string{
		"rapport_jour_20240315.csv",
		"rapport_jour_20240310.csv",
		"rapport_jour_20240301.csv",
		"export_caisses.xlsx",
	}, names)

	assert.Equal(t, "skidata", files[0].Source)
	assert.True(t, files[0].Dated)
	assert.False(t, files[3].Dated)
}

func TestDiscoverInputFilesMissingDir(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "absent"), "", "")
	_, err := fm.DiscoverInputFiles(prefixMatcher{}, nil)
	assert.Error(t, err)
}

func TestArchiveInputFile(t *testing.T) {
	in := t.TempDir()
	archive := filepath.Join(t.TempDir(), "archive")
	touch(t, in, "stripe01032024.csv")

	fm := NewFileManager(in, t.TempDir(), archive)
	path, err := fm.ArchiveInputFile(filepath.Join(in, "stripe01032024.csv"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(archive, "stripe01032024.csv"), path)
	assert.True(t, FileExists(path))
	assert.False(t, FileExists(filepath.Join(in, "stripe01032024.csv")))

	fm.ArchiveOnSuccess = false
	touch(t, in, "stripe02032024.csv")
	path, err = fm.ArchiveInputFile(filepath.Join(in, "stripe02032024.csv"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(in, "stripe02032024.csv"), path)
}

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("journal_{date}_{uuid}", "csv", nil)
	assert.Regexp(t, `^journal_\d{8}_[0-9a-f-]{36}\.csv$`, name)

	assert.Equal(t, "ventes.xlsx", GenerateOutputFileName("ventes.xlsx", ".xlsx", nil))
	assert.Equal(t, "run_42.csv", GenerateOutputFileName("run_{id}", "csv", map[string]string{"id": "42"}))
}

func TestEntriesFromErrors(t *testing.T) {
	errs := []error{
		&apperrors.RowError{Row: 4, Field: "Date", Value: "x", Reason: "invalid date"},
		fmt.Errorf("stripe: %w", &apperrors.ParseWarning{Row: 2, Field: "Tax", Value: "abc"}),
		apperrors.NewStructural("a.xlsx", "file is empty"),
		fmt.Errorf("%w: line 3", apperrors.ErrSortFailure),
		errors.New("other"),
		nil,
	}

	entries := EntriesFromErrors("/in/a.xlsx", "shopify", errs)
	require.Len(t, entries, 5)

	assert.Equal(t, "row", entries[0].ErrorType)
	assert.Equal(t, 4, entries[0].RowNumber)
	assert.Equal(t, "Date", entries[0].FieldName)
	assert.Equal(t, "parse_warning", entries[1].ErrorType)
	assert.Equal(t, "Tax", entries[1].FieldName)
	assert.Equal(t, "structural", entries[2].ErrorType)
	assert.Equal(t, "sort_failure", entries[3].ErrorType)
	assert.Equal(t, "error", entries[4].ErrorType)
	assert.Equal(t, "a.xlsx", entries[4].FileName)
}

func TestWriteLogs(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir, "run1")
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog(EntriesFromErrors("a.csv", "stripe", []error{
		&apperrors.RowError{Row: 3, Field: "customer_email", Reason: "email is blank"},
	}), dir, "run1")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Run ID: run1")
	assert.Contains(t, string(data), "Row Number: 3")

	var summary ProcessingSummary
	summary.RunID = "run1"
	summary.Add(ProcessedFileInfo{InputFile: "a.csv", Source: "stripe", Rows: 3, Skipped: 1, Lines: 10})
	summary.Fail(FailedFileInfo{InputFile: "b.xlsx", ErrorMessage: "file is empty"})

	assert.Equal(t, 2, summary.TotalFiles)
	assert.Equal(t, 10, summary.LinesWritten)

	path, err = WriteSummaryLog(summary, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "processing_summary_run1.txt"), path)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Lines Written:  10")
	assert.Contains(t, string(data), "Error:  file is empty")
}
