// =============================================================================
// Sales Journal Converter - Skidata Transformer
// =============================================================================
//
// Skidata parking reports list one headerless row per terminal event:
//   device/sector code, payment type code, TTC amount, VAT amount
//
// Rows are classified into three payment channels whose TTC amounts are
// summed across the file, together with the VAT of every classified row.
// The report is booked as four summary lines dated from the file name.
//
// =============================================================================

package converter

import (
	"fmt"
	"path/filepath"
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

// SkidataTransformer converts Skidata daily parking reports.
type SkidataTransformer struct {
	csv config.CSVSettings
	log zerolog.Logger
}

// NewSkidataTransformer creates a Skidata transformer. csv applies to
// delimited reports; workbooks ignore it.
func NewSkidataTransformer(csv config.CSVSettings, log zerolog.Logger) *SkidataTransformer {
	if csv.MinColumns < skidataMinColumns {
		csv.MinColumns = skidataMinColumns
	}
	return &SkidataTransformer{
		csv: csv,
		log: log.With().Str("transformer", string(SourceSkidata)).Logger(),
	}
}

// Source implements Transformer.
func (t *SkidataTransformer) Source() Source {
	return SourceSkidata
}

// accumulator holds the running totals of one report.
type accumulator struct {
	auto decimal.Decimal
	exit decimal.Decimal
	cash decimal.Decimal
	vat  decimal.Decimal
}

func (a *accumulator) add(channel skidataChannel, ttc, vat decimal.Decimal) {
	switch channel {
	case channelAutoCard:
		a.auto = a.auto.Add(ttc)
	case channelExitCard:
		a.exit = a.exit.Add(ttc)
	case channelCash:
		a.cash = a.cash.Add(ttc)
	default:
		return
	}
	a.vat = a.vat.Add(vat)
}

// Transform implements Transformer.
func (t *SkidataTransformer) Transform(in Input) (*Output, error) {
	base := filepath.Base(in.FileName)

	day, ok := skidataDatePattern.match(base)
	if !ok {
		err := apperrors.NewStructural(base, "file name does not carry a rapport_jour_YYYYMMDD date")
		t.log.Error().Err(err).Msg("report rejected")
		return nil, err
	}

	table, err := tabular.Load(in.Data, in.FileName, tabular.Spec{CSV: t.csv})
	if err != nil {
		t.log.Error().Err(err).Msg("cannot load report")
		return nil, err
	}

	out := newOutput(SourceSkidata, in.FileName)
	out.Stats.RowsRead = table.Len()

	var acc accumulator
	for _, row := range table.Rows {
		channel, ttc, vat, err := t.classifyRow(out, row)
		if err != nil {
			out.skip(err)
			t.log.Debug().Err(err).Msg("event skipped")
			continue
		}
		if channel == channelNone {
			continue
		}

		acc.add(channel, ttc, vat)
		out.Stats.RowsProcessed++
		out.Stats.Categories[channel.String()]++
	}

	date := normalize.FormatDate(day)
	label := ParkingLabel(day)
	out.add(
		types.NewDebit(JournalSkidata, date, skidataAutoAccount, label, acc.auto),
		types.NewDebit(JournalSkidata, date, skidataExitAccount, label, acc.exit),
		types.NewDebit(JournalSkidata, date, skidataCashAccount, label, acc.cash),
		types.NewCredit(JournalSkidata, date, skidataVATAccount, label, acc.vat),
	)

	out.addTotal(channelAutoCard.String(), acc.auto)
	out.addTotal(channelExitCard.String(), acc.exit)
	out.addTotal(channelCash.String(), acc.cash)
	out.addTotal("tva", acc.vat)

	t.log.Info().
		Str("file", out.File).
		Str("date", date).
		Int("events", out.Stats.RowsRead).
		Int("classified", out.Stats.RowsProcessed).
		Int("skipped", out.Stats.RowsSkipped).
		Str("cb_caisse_auto", acc.auto.StringFixed(2)).
		Str("cb_borne_sortie", acc.exit.StringFixed(2)).
		Str("especes", acc.cash.StringFixed(2)).
		Str("tva", acc.vat.StringFixed(2)).
		Msg("report booked")

	return out, nil
}

// classifyRow reads one event. Header rows embedded in the data return
// channelNone with a nil error and only count as skipped.
func (t *SkidataTransformer) classifyRow(out *Output, row tabular.Row) (skidataChannel, decimal.Decimal, decimal.Decimal, error) {
	if row.Len() < skidataMinColumns {
		return channelNone, decimal.Zero, decimal.Zero,
			apperrors.NewRowError(row.Number, "expected %d columns, got %d", skidataMinColumns, row.Len())
	}

	code := NormalizeCode(row.At(0))
	payment := NormalizeCode(row.At(1))

	if isHeaderRow(code, payment) {
		out.Stats.RowsSkipped++
		return channelNone, decimal.Zero, decimal.Zero, nil
	}

	ttc := out.amountAt(row, 2, "ttc")
	if !ttc.IsPositive() {
		return channelNone, decimal.Zero, decimal.Zero,
			&apperrors.RowError{Row: row.Number, Field: "ttc", Value: row.At(2), Reason: "amount is not positive"}
	}

	channel := classify(code, payment)
	if channel == channelNone {
		return channelNone, decimal.Zero, decimal.Zero,
			apperrors.NewRowError(row.Number, "no rule for code %q with payment type %q", code, payment)
	}

	vat := out.amountAt(row, 3, "tva")
	if vat.IsNegative() {
		return channelNone, decimal.Zero, decimal.Zero,
			&apperrors.RowError{Row: row.Number, Field: "tva", Value: row.At(3), Reason: "amount is negative"}
	}

	return channel, ttc, vat, nil
}

// classify maps a device code and a payment type code to a channel.
func classify(code, payment string) skidataChannel {
	switch {
	case payment == skidataCashPayment:
		return channelCash
	case payment == skidataCardPayment && skidataAutoCodes[code]:
		return channelAutoCard
	case payment == skidataCardPayment && skidataExitCodes[code]:
		return channelExitCard
	default:
		return channelNone
	}
}

// NormalizeCode trims a code cell and drops a zero fractional part, so a
// spreadsheet's "11.0" reads as "11".
func NormalizeCode(raw string) string {
	code := strings.TrimSpace(raw)
	if d, err := decimal.NewFromString(code); err == nil && d.IsInteger() {
		return d.String()
	}
	return code
}

func isHeaderRow(code, payment string) bool {
	return skidataHeaderCodes[strings.ToLower(code)] || skidataHeaderPayments[strings.ToLower(payment)]
}

// ParkingLabel returns the line label of a report dated day.
func ParkingLabel(day time.Time) string {
	return fmt.Sprintf("Caisse Parking %s", day.Format("01/2006"))
}
