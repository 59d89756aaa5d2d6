// =============================================================================
// Sales Journal Converter - Clorian Transformer
// =============================================================================
//
// Clorian exports one summary workbook per day: one row per payment method
// and a "Total" row carrying the day's HT and VAT. The transformer books one
// debit per payment method, the revenue and VAT credits of the Total row and,
// when cash was taken, the transfer of cash from the clearing account into
// the cash account.
//
// =============================================================================

package converter

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-journal-converter/internal/apperrors"
	"github.com/ginjaninja78/sales-journal-converter/internal/tabular"
	"github.com/ginjaninja78/sales-journal-converter/internal/types"
)

// ClorianTransformer converts Clorian ticketing summaries.
type ClorianTransformer struct {
	methods []PaymentMethod
	log     zerolog.Logger
}

// NewClorianTransformer creates a Clorian transformer. overrides maps a
// payment method name to the account it is debited on, replacing the
// built-in account for that method.
func NewClorianTransformer(overrides map[string]string, log zerolog.Logger) *ClorianTransformer {
	methods := make([]PaymentMethod, len(clorianMethods))
	copy(methods, clorianMethods)
	for i, m := range methods {
		if account, ok := overrides[m.Name]; ok && account != "" {
			methods[i].Account = account
		}
	}

	return &ClorianTransformer{
		methods: methods,
		log:     log.With().Str("transformer", string(SourceClorian)).Logger(),
	}
}

// Source implements Transformer.
func (t *ClorianTransformer) Source() Source {
	return SourceClorian
}

// Transform implements Transformer.
func (t *ClorianTransformer) Transform(in Input) (*Output, error) {
	table, err := tabular.Load(in.Data, in.FileName, tabular.Spec{
		Format:   tabular.FormatXLSX,
		Sheet:    clorianSheet,
		Header:   true,
		Required: []string{clorianMethodColumn},
	})
	if err != nil {
		t.log.Error().Err(err).Msg("cannot load summary")
		return nil, err
	}

	out := newOutput(SourceClorian, in.FileName)
	out.Stats.RowsRead = table.Len()

	date := ClorianFileDate(in.FileName)
	if date == types.UnknownDate {
		t.log.Warn().Str("file", out.File).Msg("file date unknown, lines need manual review")
	}

	// =========================================================================
	// PAYMENT METHODS
	// =========================================================================

	var cash decimal.Decimal
	for _, m := range t.methods {
		row, ok := table.Find(clorianMethodColumn, m.Name)
		if !ok {
			continue
		}

		amount, ok := t.amount(out, row, clorianAmountColumn)
		if !ok {
			continue
		}

		out.add(types.NewDebit(JournalClorian, date, m.Account, m.Label, amount))
		out.Stats.RowsProcessed++
		out.Stats.Categories[m.Name]++
		out.addTotal("ttc", amount)

		if m.Name == clorianCashMethod {
			cash = amount
		}
	}

	// =========================================================================
	// TOTAL BLOCK
	// =========================================================================

	total, ok := table.Find(clorianMethodColumn, clorianTotalRow)
	if !ok {
		t.log.Warn().Str("file", out.File).Msg("no Total row, revenue and VAT not booked")
	} else {
		out.Stats.RowsProcessed++

		if ht, ok := t.amount(out, total, clorianHTColumn); ok {
			out.add(types.NewCredit(JournalClorian, date, clorianRevenue, clorianLabel, ht).WithAnalytic(clorianRevenueTag))
			out.addTotal("ht", ht)
		}
		if vat, ok := t.amount(out, total, clorianVATColumn); ok {
			out.add(types.NewCredit(JournalClorian, date, clorianVAT, clorianLabel, vat))
			out.addTotal("tva", vat)
		}

		if cash.IsPositive() {
			out.add(
				types.NewDebit(JournalClorian, date, clorianCashClearing, clorianLabel, cash),
				types.NewCredit(JournalClorian, date, clorianCashAccount, clorianLabel, cash),
			)
		}
	}

	out.Stats.RowsSkipped = out.Stats.RowsRead - out.Stats.RowsProcessed

	t.log.Info().
		Str("file", out.File).
		Str("date", date).
		Int("lines", len(out.Lines)).
		Str("ttc", out.Stats.Totals["ttc"].StringFixed(2)).
		Str("ht", out.Stats.Totals["ht"].StringFixed(2)).
		Str("tva", out.Stats.Totals["tva"].StringFixed(2)).
		Msg("summary booked")

	return out, nil
}

// amount reads a positive amount from a summary row. A missing column, a
// blank cell or a zero or negative figure yields no line.
func (t *ClorianTransformer) amount(out *Output, row tabular.Row, column string) (decimal.Decimal, bool) {
	raw, exists := row.Lookup(column)
	if !exists {
		t.log.Warn().Str("column", column).Int("row", row.Number).Msg("amount column missing, line skipped")
		out.Issues = append(out.Issues, &apperrors.RowError{Row: row.Number, Field: column, Reason: "column missing"})
		return decimal.Zero, false
	}

	amount := out.amount(row, column)
	if !amount.IsPositive() {
		t.log.Debug().Str("column", column).Int("row", row.Number).Str("value", raw).Msg("no positive amount, line skipped")
		return decimal.Zero, false
	}

	return amount, true
}
