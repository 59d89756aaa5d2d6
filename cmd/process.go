// =============================================================================
// Sales Journal Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which is the main command for
// converting sales exports into journal lines.
//
// COMMAND USAGE:
//   journalconv process [flags]
//
// FLAGS:
//   --input-dir : Directory scanned for exports (overrides input_dir)
//   --output    : Journal file to append to (overrides output_file)
//   --format    : Journal format, csv or xlsx (overrides output_format)
//   --file      : Convert a single export instead of scanning
//   --source    : Only convert exports of one source
//   --dry-run   : Print the lines instead of writing the journal
//   --archive   : Move converted exports to the archive directory
//
// PROCESSING PIPELINE:
//   1. Load configuration and set up logging
//   2. Discover exports, most recent file date first
//   3. For each file, one after the other:
//      a. Detect the source from the file name
//      b. Transform the rows into journal lines
//      c. Validate the lines
//      d. Append them to the journal
//      e. Archive the export
//   4. Write the error log and the run summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-journal-converter/internal/config"
	"github.com/ginjaninja78/sales-journal-converter/internal/converter"
	"github.com/ginjaninja78/sales-journal-converter/internal/csvparser"
	"github.com/ginjaninja78/sales-journal-converter/internal/journalwriter"
	"github.com/ginjaninja78/sales-journal-converter/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// processFlags holds the flags of the process command.
var processFlags struct {
	inputDir string
	output   string
	format   string
	file     string
	source   string
	dryRun   bool
	archive  bool
}

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert sales exports into journal lines",
	Long: `The process command scans the input directory for the exports of every
enabled source, converts them one after the other and appends the resulting
journal lines to a single journal file.

Files are processed most recent first, based on the date in their name.
A file that cannot be converted produces no lines and does not stop the
others (unless continue_on_error is false).

On success:
  - The lines are appended to the journal, after its header row
  - The export is moved to the input archive when --archive is set

On error:
  - An error log is created in the output directory
  - The export remains in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	flags := processCmd.Flags()
	flags.StringVar(&processFlags.inputDir, "input-dir", "", "Directory scanned for exports")
	flags.StringVarP(&processFlags.output, "output", "o", "", "Journal file to append to")
	flags.StringVar(&processFlags.format, "format", "", "Journal format: csv or xlsx")
	flags.StringVar(&processFlags.file, "file", "", "Convert a single export file")
	flags.StringVar(&processFlags.source, "source", "", "Only convert exports of this source")
	flags.BoolVar(&processFlags.dryRun, "dry-run", false, "Print the journal lines instead of writing them")
	flags.BoolVar(&processFlags.archive, "archive", false, "Move converted exports to the archive directory")
}

// applyProcessFlags merges command line flags into the configuration.
func applyProcessFlags(cfg *config.MainConfig) error {
	if processFlags.inputDir != "" {
		cfg.InputDir = processFlags.inputDir
	}
	if processFlags.output != "" {
		cfg.OutputFile = processFlags.output
	}
	if processFlags.format != "" {
		format := strings.ToLower(processFlags.format)
		if format != journalwriter.FormatCSV && format != journalwriter.FormatXLSX {
			return fmt.Errorf("--format must be csv or xlsx, got %q", processFlags.format)
		}
		cfg.OutputFormat = format
	}
	if processFlags.archive {
		cfg.ArchiveInputs = true
	}
	if processFlags.source != "" && !cfg.SourceEnabled(processFlags.source) {
		return fmt.Errorf("source %q is unknown or disabled", processFlags.source)
	}
	return nil
}

func runProcess(cmd *cobra.Command) error {
	startTime := time.Now()
	stdout := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyProcessFlags(cfg); err != nil {
		return err
	}

	log, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	runID := uuid.New().String()
	log = log.With().Str("run_id", runID).Logger()

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	fm.ArchiveOnSuccess = cfg.ArchiveInputs && !processFlags.dryRun
	fm.UseTimestampSubdirs = cfg.ArchiveByDate

	if !processFlags.dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	conv := converter.New(cfg, log)

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files, err := discover(fm, cfg, conv)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(stdout, "No export files found in the input directory.")
		return nil
	}

	fmt.Fprintf(stdout, "Found %d file(s) to process\n", len(files))

	// =========================================================================
	// STEP 3: OPEN THE JOURNAL
	// =========================================================================

	var journal *journalwriter.Journal
	options := journalwriter.Options{
		Format:    cfg.OutputFormat,
		Delimiter: csvparser.DelimiterRune(cfg.OutputDelimiter),
		Header:    cfg.OutputHeader,
	}

	if !processFlags.dryRun {
		journal, err = journalwriter.Open(journalPath(cfg), options)
		if err != nil {
			return err
		}
		defer journal.Close()
		log.Info().Str("journal", journal.Path()).Msg("journal opened")
	} else if err := journalwriter.WriteCSV(stdout, options.Header, nil, options.Delimiter); err != nil {
		return fmt.Errorf("failed to print journal header: %w", err)
	}

	// =========================================================================
	// STEP 4: PROCESS FILES SEQUENTIALLY
	// =========================================================================

	summary := utils.ProcessingSummary{RunID: runID, StartTime: startTime}
	if journal != nil {
		summary.OutputFile = journal.Path()
	}
	var errorEntries []utils.ErrorLogEntry

	for i, file := range files {
		result := processFile(conv, file)
		name := filepath.Base(file.Path)

		errs := append([]error(nil), result.Issues...)
		if result.Error != nil {
			errs = append([]error{result.Error}, errs...)
		}
		errorEntries = append(errorEntries, utils.EntriesFromErrors(file.Path, string(result.Source), errs)...)
		summary.Warnings += len(result.Issues)

		if result.Success && len(result.Lines) > 0 {
			err = writeLines(stdout, journal, options, result)
			if err != nil {
				result.Success = false
				result.Error = err
				errorEntries = append(errorEntries, utils.EntriesFromErrors(file.Path, string(result.Source), []error{err})...)
			}
		}

		if !result.Success {
			summary.Fail(utils.FailedFileInfo{InputFile: name, Source: string(result.Source), ErrorMessage: result.Error.Error()})
			fmt.Fprintf(stdout, "  ✗ %s: %v\n", name, result.Error)

			if !cfg.ShouldContinueOnError() {
				log.Warn().Int("remaining", len(files)-i-1).Msg("stopping after failure")
				break
			}
			continue
		}

		info := utils.ProcessedFileInfo{
			InputFile:   name,
			Source:      string(result.Source),
			Rows:        result.Stats.RowsRead,
			Skipped:     result.Stats.RowsSkipped,
			Lines:       len(result.Lines),
			ProcessTime: result.ProcessingTime,
		}

		if fm.ArchiveOnSuccess {
			archived, err := fm.ArchiveInputFile(file.Path)
			if err != nil {
				log.Error().Err(err).Str("file", name).Msg("archive failed")
			} else {
				info.ArchivePath = archived
			}
		}

		summary.Add(info)
		fmt.Fprintf(stdout, "  ✓ %s [%s] -> %d line(s)\n", name, result.Source, len(result.Lines))
	}

	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 5: WRITE LOGS AND PRINT SUMMARY
	// =========================================================================

	if !processFlags.dryRun {
		if err := journal.Close(); err != nil {
			return fmt.Errorf("failed to close journal: %w", err)
		}
		log.Info().Int("lines", journal.Written()).Str("journal", journal.Path()).Msg("journal closed")
		writeRunLogs(log, cfg, summary, errorEntries)
	}

	fmt.Fprintln(stdout, "\n=== Processing Complete ===")
	fmt.Fprintf(stdout, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(stdout, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(stdout, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(stdout, "Lines:           %d\n", summary.LinesWritten)
	if summary.OutputFile != "" {
		fmt.Fprintf(stdout, "Journal:         %s\n", summary.OutputFile)
	}
	fmt.Fprintf(stdout, "Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// discover returns the files of this run, most recent first.
func discover(fm *utils.FileManager, cfg *config.MainConfig, conv *converter.Converter) ([]utils.InputFile, error) {
	var files []utils.InputFile

	if processFlags.file != "" {
		file := utils.InputFile{Path: processFlags.file}
		if src, ok := conv.Detect(processFlags.file); ok {
			file.Source = string(src)
		}
		file.Date, file.Dated = converter.FileDate(processFlags.file)
		files = append(files, file)
	} else {
		found, err := fm.DiscoverInputFiles(cfg, converter.FileDate)
		if err != nil {
			return nil, err
		}
		files = found
	}

	if processFlags.source == "" {
		return files, nil
	}

	filtered := files[:0]
	for _, file := range files {
		if file.Source == processFlags.source {
			filtered = append(filtered, file)
		}
	}
	return filtered, nil
}

// processFile reads one export and converts it.
func processFile(conv *converter.Converter, file utils.InputFile) converter.Result {
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return converter.Result{
			FilePath: file.Path,
			Source:   converter.Source(file.Source),
			Error:    fmt.Errorf("failed to read file: %w", err),
		}
	}
	return conv.Convert(converter.Input{FileName: file.Path, Data: data})
}

// writeLines appends the lines of a result to the journal, or prints them
// when the journal is nil. Dry runs print the header once before the first
// file.
func writeLines(stdout io.Writer, journal *journalwriter.Journal, options journalwriter.Options, result converter.Result) error {
	if journal == nil {
		return journalwriter.WriteCSV(stdout, nil, result.Lines, options.Delimiter)
	}
	if err := journal.Append(result.Lines); err != nil {
		return fmt.Errorf("failed to append to journal: %w", err)
	}
	return nil
}

// journalPath returns the configured journal file, or a new unique name in
// the output directory.
func journalPath(cfg *config.MainConfig) string {
	if cfg.OutputFile != "" {
		return cfg.OutputFile
	}
	return filepath.Join(cfg.OutputDir, utils.GenerateOutputFileName(cfg.OutputNameFormat, cfg.OutputFormat, nil))
}

func writeRunLogs(log zerolog.Logger, cfg *config.MainConfig, summary utils.ProcessingSummary, entries []utils.ErrorLogEntry) {
	if path, err := utils.WriteErrorLog(entries, cfg.OutputDir, summary.RunID); err != nil {
		log.Error().Err(err).Msg("cannot write error log")
	} else if path != "" {
		log.Info().Str("path", path).Int("entries", len(entries)).Msg("error log written")
	}

	if path, err := utils.WriteSummaryLog(summary, cfg.OutputDir); err != nil {
		log.Error().Err(err).Msg("cannot write summary")
	} else {
		log.Info().Str("path", path).Msg("summary written")
	}
}
