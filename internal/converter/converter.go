// =============================================================================
// Sales Journal Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It recognises the source of
// an export file, runs the matching transformer and checks the journal lines
// it produced.
//
// CONVERSION PIPELINE (per file):
//   1. Detect the source from the file name
//   2. Load the table (inside the transformer)
//   3. Transform rows into journal lines
//   4. Validate the lines (double-entry discipline, dates, accounts)
//   5. Return a Result; the caller persists the lines
//
// FAILURE POLICY:
//   A file-level failure yields a Result with no lines and a non-nil Error.
//   It never stops the caller from processing the next file.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-journal-converter/internal/apperrors"
	"github.com/ginjaninja78/sales-journal-converter/internal/config"
	"github.com/ginjaninja78/sales-journal-converter/internal/logger"
	"github.com/ginjaninja78/sales-journal-converter/internal/normalize"
	"github.com/ginjaninja78/sales-journal-converter/internal/tabular"
	"github.com/ginjaninja78/sales-journal-converter/internal/types"
	"github.com/ginjaninja78/sales-journal-converter/internal/validation"
)

// Source identifies the system an export file comes from.
type Source string

const (
	SourceClorian Source = config.SourceClorian
	SourceShopify Source = config.SourceShopify
	SourceStripe  Source = config.SourceStripe
	SourceSkidata Source = config.SourceSkidata
)

// ErrUnknownSource is returned for files no enabled source recognises.
var ErrUnknownSource = errors.New("no source matches the file name")

// =============================================================================
// TRANSFORMER CONTRACT
// =============================================================================

// Input is an export file held in memory. FileName is only used to infer
// the format and the file date.
type Input struct {
	FileName string
	Data     []byte
}

// Transformer turns one export file into journal lines.
//
// On a file-level failure Transform returns a nil Output and an error
// matching apperrors.ErrStructural or apperrors.ErrSortFailure. Row-level
// problems never surface as an error: they are counted in Output.Stats and
// listed in Output.Issues.
type Transformer interface {
	Source() Source
	Transform(in Input) (*Output, error)
}

// Output is the result of a successful transformation.
type Output struct {
	Source Source
	File   string
	Lines  []types.JournalLine
	Stats  Stats

	// Issues holds the row errors and parse warnings met along the way.
	Issues []error
}

// Stats summarises the rows of one file.
type Stats struct {
	RowsRead      int
	RowsProcessed int
	RowsSkipped   int
	Errors        int
	Warnings      int

	// Categories counts processed rows per business category.
	Categories map[string]int

	// Totals holds named running totals, such as TTC or VAT.
	Totals map[string]decimal.Decimal
}

func newOutput(src Source, fileName string) *Output {
	return &Output{
		Source: src,
		File:   filepath.Base(fileName),
		Stats: Stats{
			Categories: make(map[string]int),
			Totals:     make(map[string]decimal.Decimal),
		},
	}
}

func (o *Output) add(lines ...types.JournalLine) {
	o.Lines = append(o.Lines, lines...)
}

// skip rejects a row that is not usable as a transaction.
func (o *Output) skip(err error) {
	o.Stats.RowsSkipped++
	o.Issues = append(o.Issues, err)
}

// fail rejects a row whose content is malformed.
func (o *Output) fail(err error) {
	o.Stats.Errors++
	o.skip(err)
}

// warn records a non-fatal problem on a row that is still processed.
func (o *Output) warn(err error) {
	o.Stats.Warnings++
	o.Issues = append(o.Issues, err)
}

// amount parses a cell as an amount, defaulting to zero. An unparsable cell
// is recorded as a warning against the row.
func (o *Output) amount(row tabular.Row, column string) decimal.Decimal {
	return o.parseAmount(row.Number, column, row.Get(column))
}

// amountAt is amount for headerless tables, where field only names the
// position in the issue.
func (o *Output) amountAt(row tabular.Row, index int, field string) decimal.Decimal {
	return o.parseAmount(row.Number, field, row.At(index))
}

func (o *Output) parseAmount(rowNumber int, field, raw string) decimal.Decimal {
	amount, err := normalize.ParseAmount(raw, decimal.Zero)
	var warning *apperrors.ParseWarning
	if errors.As(err, &warning) {
		warning.Row = rowNumber
		warning.Field = field
		o.warn(warning)
	}
	return amount
}

func (o *Output) addTotal(name string, amount decimal.Decimal) {
	o.Stats.Totals[name] = o.Stats.Totals[name].Add(amount)
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// Source is the detected source, empty if none matched.
	Source Source

	// Lines holds the journal lines. It is empty when Success is false.
	Lines []types.JournalLine

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains row statistics of the transformation.
	Stats Stats

	// Issues holds row errors, parse warnings and validation warnings.
	Issues []error

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter dispatches export files to their transformer.
type Converter struct {
	cfg          *config.MainConfig
	log          zerolog.Logger
	transformers map[Source]Transformer
	validator    *validation.Validator
}

// New creates a Converter with one transformer per enabled source.
//
// PARAMETERS:
//   - cfg: The main configuration (source patterns, CSV settings, account
//     overrides).
//   - log: The logger handed to every transformer.
func New(cfg *config.MainConfig, log zerolog.Logger) *Converter {
	c := &Converter{
		cfg:          cfg,
		log:          log,
		transformers: make(map[Source]Transformer),
		validator:    validation.NewValidator(),
	}

	all := []Transformer{
		NewClorianTransformer(cfg.ClorianAccounts, log),
		NewShopifyTransformer(log),
		NewStripeTransformer(cfg.CSV(config.SourceStripe), log),
		NewSkidataTransformer(cfg.CSV(config.SourceSkidata), log),
	}
	for _, t := range all {
		if cfg.SourceEnabled(string(t.Source())) {
			c.transformers[t.Source()] = t
		}
	}

	return c
}

// Detect returns the source whose filename pattern matches fileName.
func (c *Converter) Detect(fileName string) (Source, bool) {
	name, ok := c.cfg.MatchSource(filepath.Base(fileName))
	if !ok {
		return "", false
	}
	_, registered := c.transformers[Source(name)]
	return Source(name), registered
}

// Transformer returns the transformer registered for a source.
func (c *Converter) Transformer(src Source) (Transformer, bool) {
	t, ok := c.transformers[src]
	return t, ok
}

// Convert processes one export file.
//
// PROCESSING STEPS:
//   1. Detect the source
//   2. Run the transformer
//   3. Validate the produced lines
func (c *Converter) Convert(in Input) Result {
	startTime := time.Now()
	result := Result{FilePath: in.FileName}
	log := logger.WithFields(c.log, map[string]interface{}{"file": filepath.Base(in.FileName)})

	// =========================================================================
	// STEP 1: DETECT SOURCE
	// =========================================================================

	src, ok := c.Detect(in.FileName)
	if !ok {
		result.Error = ErrUnknownSource
		result.ProcessingTime = time.Since(startTime)
		log.Warn().Msg("file does not match any enabled source")
		return result
	}
	result.Source = src
	log = log.With().Str("source", string(src)).Logger()

	// =========================================================================
	// STEP 2: TRANSFORM
	// =========================================================================

	out, err := c.transformers[src].Transform(in)
	if err != nil {
		result.Error = fmt.Errorf("%s: %w", src, err)
		result.ProcessingTime = time.Since(startTime)
		log.Error().Err(err).Msg("file produced no journal lines")
		return result
	}
	result.Stats = out.Stats
	result.Issues = append(result.Issues, out.Issues...)

	// =========================================================================
	// STEP 3: VALIDATE
	// =========================================================================

	check := c.validator.ValidateAll(out.Lines, balancedSources[src])
	for _, ve := range check.Errors {
		if ve.Severity == validation.SeverityWarning {
			result.Issues = append(result.Issues, ve)
			log.Warn().Str("rule", ve.Rule).Msg(ve.Message)
		}
	}
	if !check.IsValid {
		result.Error = fmt.Errorf("%s: %w", src, &apperrors.StructuralError{
			File:   out.File,
			Reason: fmt.Sprintf("generated lines failed validation with %d error(s)", check.ErrorCount),
		})
		result.ProcessingTime = time.Since(startTime)
		log.Error().Str("errors", validation.FormatErrors(check.Errors)).Msg("validation failed")
		return result
	}

	result.Lines = out.Lines
	result.Success = true
	result.ProcessingTime = time.Since(startTime)

	log.Info().
		Int("lines", len(result.Lines)).
		Int("rows_read", out.Stats.RowsRead).
		Int("rows_processed", out.Stats.RowsProcessed).
		Int("rows_skipped", out.Stats.RowsSkipped).
		Dur("elapsed", result.ProcessingTime).
		Msg("file converted")

	return result
}

// balancedSources lists the sources whose lines must balance debit against
// credit. Skidata summary lines carry TTC debits against a VAT-only credit.
var balancedSources = map[Source]bool{
	SourceClorian: true,
	SourceShopify: true,
	SourceStripe:  true,
}
