// =============================================================================
// Sales Journal Converter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the converter, including:
//   - Discovery of export files by source naming convention
//   - Ordering of discovered files by the date in their name
//   - File archival (moving processed exports)
//   - Error and summary log generation
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after successful processing
//   - Failed files remain in their original location
//   - Error logs and summaries are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/sales-journal-converter/internal/apperrors"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// InputDir is the directory where export files are dropped.
	InputDir string

	// OutputDir is the directory where journals and logs are written.
	OutputDir string

	// InputArchiveDir is the directory for archived export files.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2024/01/15/stripe15012024.csv
	UseTimestampSubdirs bool

	// ArchiveOnSuccess moves an export to the archive once it was converted.
	ArchiveOnSuccess bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		ArchiveOnSuccess: true,
	}
}

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.InputDir, fm.OutputDir}
	if fm.ArchiveOnSuccess {
		dirs = append(dirs, fm.InputArchiveDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// SourceMatcher recognises the source of an export from its base name.
type SourceMatcher interface {
	MatchSource(baseName string) (string, bool)
}

// DateFunc extracts the date carried by an export file name.
type DateFunc func(fileName string) (time.Time, bool)

// InputFile is a discovered export file.
type InputFile struct {
	Path   string
	Source string

	// Date is the date read from the file name. Dated is false when the
	// name carries none.
	Date  time.Time
	Dated bool
}

// DiscoverInputFiles scans the input directory for export files any source
// recognises. Subdirectories are not visited.
//
// PARAMETERS:
//   - matcher: Recognises the source of a file from its base name.
//   - date: Reads the date in a file name. May be nil.
//
// RETURNS:
//   - The recognised files, most recent first. Undated files come last and
//     ties are broken by name so the order is stable across runs.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles(matcher SourceMatcher, date DateFunc) ([]InputFile, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []InputFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		source, ok := matcher.MatchSource(entry.Name())
		if !ok {
			continue
		}

		file := InputFile{Path: filepath.Join(fm.InputDir, entry.Name()), Source: source}
		if date != nil {
			file.Date, file.Dated = date(entry.Name())
		}
		files = append(files, file)
	}

	SortByDate(files)
	return files, nil
}

// SortByDate orders files most recent first, undated files last.
func SortByDate(files []InputFile) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch {
		case a.Dated != b.Dated:
			return a.Dated
		case a.Dated && !a.Date.Equal(b.Date):
			return a.Date.After(b.Date)
		default:
			return filepath.Base(a.Path) < filepath.Base(b.Path)
		}
	})
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(fm.InputArchiveDir, filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices, fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := time.Now()
		return filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(archiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//   - extension: The extension appended when the name lacks it, such as
//     "csv" or "xlsx".
//   - params: Additional placeholder values, keyed without braces.
//
// EXAMPLE:
//
//	format: "journal_{date}_{uuid}", extension: "csv"
//	output: "journal_20240115_a1b2c3d4-e5f6-7890-abcd-ef1234567890.csv"
func GenerateOutputFileName(format, extension string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	ext := "." + strings.TrimPrefix(strings.ToLower(extension), ".")
	if ext != "." && !strings.HasSuffix(strings.ToLower(result), ext) {
		result += ext
	}

	return result
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	Source       string
	ErrorType    string
	ErrorMessage string
	RowNumber    int
	FieldName    string
	FieldValue   string
}

// EntriesFromErrors turns the failure and issues of one file into log
// entries, classified by error type.
func EntriesFromErrors(fileName, source string, errs []error) []ErrorLogEntry {
	now := time.Now()
	entries := make([]ErrorLogEntry, 0, len(errs))

	for _, err := range errs {
		if err == nil {
			continue
		}

		entry := ErrorLogEntry{
			Timestamp:    now,
			FileName:     filepath.Base(fileName),
			Source:       source,
			ErrorType:    "error",
			ErrorMessage: err.Error(),
		}

		var (
			rowErr  *apperrors.RowError
			warning *apperrors.ParseWarning
		)
		switch {
		case errors.As(err, &rowErr):
			entry.ErrorType = "row"
			entry.RowNumber = rowErr.Row
			entry.FieldName = rowErr.Field
			entry.FieldValue = rowErr.Value
		case errors.As(err, &warning):
			entry.ErrorType = "parse_warning"
			entry.RowNumber = warning.Row
			entry.FieldName = warning.Field
			entry.FieldValue = warning.Value
		case errors.Is(err, apperrors.ErrStructural):
			entry.ErrorType = "structural"
		case errors.Is(err, apperrors.ErrSortFailure):
			entry.ErrorType = "sort_failure"
		}

		entries = append(entries, entry)
	}

	return entries
}

// WriteErrorLog writes error entries to a log file named after the run.
//
// RETURNS:
//   - The path to the error log file, empty when there was nothing to log.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir, runID string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", runID))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Sales Journal Converter - Error Log\n"+
		"Run ID: %s\n"+
		"Generated: %s\n"+
		"Total Entries: %d\n"+
		"================================================================================\n\n",
		runID,
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Entry #%d\n"+
			"  Timestamp:  %s\n"+
			"  File:       %s\n"+
			"  Source:     %s\n"+
			"  Type:       %s\n"+
			"  Message:    %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.Source,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number: %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:      %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:      %s\n", entry.FieldValue)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID           string
	StartTime       time.Time
	EndTime         time.Time
	OutputFile      string
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalRows       int
	SkippedRows     int
	LinesWritten    int
	Warnings        int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	Source      string
	ArchivePath string
	Rows        int
	Skipped     int
	Lines       int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	Source       string
	ErrorMessage string
}

// Add records the outcome of one file in the summary.
func (s *ProcessingSummary) Add(info ProcessedFileInfo) {
	s.TotalFiles++
	s.SuccessfulFiles++
	s.TotalRows += info.Rows
	s.SkippedRows += info.Skipped
	s.LinesWritten += info.Lines
	s.ProcessedFiles = append(s.ProcessedFiles, info)
}

// Fail records a file that produced no lines.
func (s *ProcessingSummary) Fail(info FailedFileInfo) {
	s.TotalFiles++
	s.FailedFiles++
	s.FailedFilesList = append(s.FailedFilesList, info)
}

// WriteSummaryLog writes a processing summary to a file named after the run.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("processing_summary_%s.txt", summary.RunID))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "Sales Journal Converter - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Journal:        %s\n\n"+
		"Statistics:\n"+
		"  Total Files:    %d\n"+
		"  Successful:     %d\n"+
		"  Failed:         %d\n"+
		"  Rows Read:      %d\n"+
		"  Rows Skipped:   %d\n"+
		"  Lines Written:  %d\n"+
		"  Warnings:       %d\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.OutputFile,
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalRows,
		summary.SkippedRows,
		summary.LinesWritten,
		summary.Warnings)

	if len(summary.ProcessedFiles) > 0 {
		writer.WriteString("Successful Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(writer, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(writer, "  Source:       %s\n", pf.Source)
			if pf.ArchivePath != "" {
				fmt.Fprintf(writer, "  Archived To:  %s\n", pf.ArchivePath)
			}
			fmt.Fprintf(writer, "  Rows:         %d (%d skipped)\n", pf.Rows, pf.Skipped)
			fmt.Fprintf(writer, "  Lines:        %d\n", pf.Lines)
			fmt.Fprintf(writer, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.FailedFilesList) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(writer, "  File:   %s\n", ff.InputFile)
			if ff.Source != "" {
				fmt.Fprintf(writer, "  Source: %s\n", ff.Source)
			}
			fmt.Fprintf(writer, "  Error:  %s\n\n", ff.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
