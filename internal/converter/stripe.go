// =============================================================================
// Sales Journal Converter - Stripe Transformer
// =============================================================================
//
// Stripe exports one delimited row per settled card payment. Each payment is
// booked as two linked entries:
//   - settlement (B5): clearing account to bank
//   - sales (VE): clearing account against revenue and VAT
//
// The export only carries the TTC amount, so HT and VAT are derived from the
// fixed 10% rate. Lines of the whole file are returned in entry-date order.
//
// =============================================================================

package converter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-journal-converter/internal/apperrors"
	"github.com/ginjaninja78/sales-journal-converter/internal/config"
	"github.com/ginjaninja78/sales-journal-converter/internal/normalize"
	"github.com/ginjaninja78/sales-journal-converter/internal/tabular"
	"github.com/ginjaninja78/sales-journal-converter/internal/types"
)

// StripeTransformer converts Stripe payment exports.
type StripeTransformer struct {
	csv config.CSVSettings
	log zerolog.Logger
}

// NewStripeTransformer creates a Stripe transformer reading delimited text
// with the given settings.
func NewStripeTransformer(csv config.CSVSettings, log zerolog.Logger) *StripeTransformer {
	return &StripeTransformer{
		csv: csv,
		log: log.With().Str("transformer", string(SourceStripe)).Logger(),
	}
}

// Source implements Transformer.
func (t *StripeTransformer) Source() Source {
	return SourceStripe
}

// Transform implements Transformer.
func (t *StripeTransformer) Transform(in Input) (*Output, error) {
	table, err := tabular.Load(in.Data, in.FileName, tabular.Spec{
		Format:   tabular.FormatCSV,
		Header:   true,
		CSV:      t.csv,
		Required: []string{stripeDate, stripeEmail, stripeAmount},
	})
	if err != nil {
		t.log.Error().Err(err).Msg("cannot load payments")
		return nil, err
	}

	out := newOutput(SourceStripe, in.FileName)
	out.Stats.RowsRead = table.Len()

	for _, row := range table.Rows {
		if err := t.transformRow(out, row); err != nil {
			t.log.Warn().Err(err).Msg("payment skipped")
		}
	}

	sorted, err := SortByEntryDate(out.Lines)
	if err != nil {
		t.log.Error().Err(err).Str("file", out.File).Msg("cannot order lines, file dropped")
		return nil, err
	}
	out.Lines = sorted

	t.log.Info().
		Str("file", out.File).
		Int("payments", out.Stats.RowsProcessed).
		Int("skipped", out.Stats.RowsSkipped).
		Int("errors", out.Stats.Errors).
		Str("ttc", out.Stats.Totals["ttc"].StringFixed(2)).
		Str("ht", out.Stats.Totals["ht"].StringFixed(2)).
		Str("tva", out.Stats.Totals["tva"].StringFixed(2)).
		Msg("payments booked")

	return out, nil
}

func (t *StripeTransformer) transformRow(out *Output, row tabular.Row) error {
	rawDate := strings.TrimSpace(row.Get(stripeDate))
	email := strings.TrimSpace(row.Get(stripeEmail))

	if rawDate == "" {
		rowErr := &apperrors.RowError{Row: row.Number, Field: stripeDate, Reason: "date is blank"}
		out.skip(rowErr)
		return rowErr
	}

	date, err := normalize.ParseDate(rawDate)
	if err != nil {
		rowErr := &apperrors.RowError{Row: row.Number, Field: stripeDate, Value: rawDate, Reason: "invalid date", Err: err}
		out.fail(rowErr)
		return rowErr
	}

	if email == "" {
		rowErr := &apperrors.RowError{Row: row.Number, Field: stripeEmail, Reason: "email is blank"}
		out.skip(rowErr)
		return rowErr
	}

	amount := out.amount(row, stripeAmount)
	if !amount.IsPositive() {
		rowErr := &apperrors.RowError{Row: row.Number, Field: stripeAmount, Value: row.Get(stripeAmount), Reason: "amount is not positive"}
		out.skip(rowErr)
		return rowErr
	}

	ht, vat := SplitVAT(amount)

	out.add(
		types.NewDebit(JournalStripeBank, date, stripeClearing, email, amount),
		types.NewCredit(JournalStripeBank, date, stripeBank, email, amount),
		types.NewDebit(JournalStripeSales, date, stripeClearing, email, amount),
		types.NewCredit(JournalStripeSales, date, stripeRevenue, email, ht).WithAnalytic(stripeRevenueTag),
		types.NewCredit(JournalStripeSales, date, stripeVAT, email, vat),
	)

	out.Stats.RowsProcessed++
	out.addTotal("ttc", amount)
	out.addTotal("ht", ht)
	out.addTotal("tva", vat)
	return nil
}

// SplitVAT derives HT and VAT from a TTC amount at the 10% rate. Both are
// rounded to cents and always add up to the rounded TTC amount.
func SplitVAT(ttc decimal.Decimal) (ht, vat decimal.Decimal) {
	ttc = ttc.Round(2)
	ht = ttc.DivRound(stripeVATDivisor, 2)
	vat = ttc.Sub(ht).Round(2)
	return ht, vat
}

// SortByEntryDate returns the lines ordered by entry date, keeping the
// original order of lines sharing a date. A line whose date cannot be read
// fails the whole batch with apperrors.ErrSortFailure.
func SortByEntryDate(lines []types.JournalLine) ([]types.JournalLine, error) {
	type keyed struct {
		at   time.Time
		line types.JournalLine
	}

	entries := make([]keyed, len(lines))
	for i, line := range lines {
		at, err := normalize.ParseDisplayDate(line.EntryDate)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", apperrors.ErrSortFailure, i+1, err)
		}
		entries[i] = keyed{at: at, line: line}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].at.Before(entries[j].at)
	})

	sorted := make([]types.JournalLine, len(entries))
	for i, e := range entries {
		sorted[i] = e.line
	}
	return sorted, nil
}
