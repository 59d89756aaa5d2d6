// =============================================================================
// Sales Journal Converter - Shopify Transformer
// =============================================================================
//
// Shopify exports one row per order. Each order is classified by shipping
// country into one of four tax categories, each with its own revenue
// accounts, and booked against the Shopify customer clearing account.
//
// The last row of the export is a file total and is never booked.
//
// =============================================================================

package converter

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-journal-converter/internal/apperrors"
	"github.com/ginjaninja78/sales-journal-converter/internal/normalize"
	"github.com/ginjaninja78/sales-journal-converter/internal/tabular"
	"github.com/ginjaninja78/sales-journal-converter/internal/types"
)

// ShopifyTransformer converts Shopify order exports.
type ShopifyTransformer struct {
	log zerolog.Logger
}

// NewShopifyTransformer creates a Shopify transformer.
func NewShopifyTransformer(log zerolog.Logger) *ShopifyTransformer {
	return &ShopifyTransformer{
		log: log.With().Str("transformer", string(SourceShopify)).Logger(),
	}
}

// Source implements Transformer.
func (t *ShopifyTransformer) Source() Source {
	return SourceShopify
}

// Transform implements Transformer.
func (t *ShopifyTransformer) Transform(in Input) (*Output, error) {
	table, err := tabular.Load(in.Data, in.FileName, tabular.Spec{
		Format: tabular.FormatXLSX,
		Header: true,
		Required: []string{
			shopifyDate, shopifyTotal, shopifyCountry,
			shopifyNetSales, shopifyShipping, shopifyTax, shopifyOrderName,
		},
	})
	if err != nil {
		t.log.Error().Err(err).Msg("cannot load orders")
		return nil, err
	}

	out := newOutput(SourceShopify, in.FileName)
	out.Stats.RowsRead = table.Len()

	orders := table.Rows[:table.Len()-1]
	for _, row := range orders {
		if err := t.transformRow(out, row); err != nil {
			t.log.Warn().Err(err).Msg("order skipped")
		}
	}

	t.log.Info().
		Str("file", out.File).
		Int("orders", len(orders)).
		Int("processed", out.Stats.RowsProcessed).
		Int("skipped", out.Stats.RowsSkipped).
		Int("errors", out.Stats.Errors).
		Interface("categories", out.Stats.Categories).
		Str("ttc", out.Stats.Totals["ttc"].StringFixed(2)).
		Msg("orders booked")

	return out, nil
}

// transformRow books one order. The returned error explains why the order
// was skipped; it has already been recorded on out.
func (t *ShopifyTransformer) transformRow(out *Output, row tabular.Row) error {
	rawDate := row.Get(shopifyDate)
	date, err := normalize.ParseDate(rawDate)
	if err != nil {
		rowErr := &apperrors.RowError{Row: row.Number, Field: shopifyDate, Value: rawDate, Reason: "invalid date", Err: err}
		out.fail(rowErr)
		return rowErr
	}

	total := out.amount(row, shopifyTotal)
	net := out.amount(row, shopifyNetSales)
	shipping := out.amount(row, shopifyShipping)
	tax := out.amount(row, shopifyTax)
	country := strings.TrimSpace(row.Get(shopifyCountry))
	reference := strings.TrimSpace(row.Get(shopifyOrderName))

	if !total.IsPositive() {
		rowErr := &apperrors.RowError{Row: row.Number, Field: shopifyTotal, Value: row.Get(shopifyTotal), Reason: "total is not positive"}
		out.skip(rowErr)
		return rowErr
	}
	if country == "" {
		rowErr := &apperrors.RowError{Row: row.Number, Field: shopifyCountry, Reason: "country is blank"}
		out.skip(rowErr)
		return rowErr
	}

	// A negative component would produce a negative journal line.
	for _, component := range []struct {
		field  string
		amount decimal.Decimal
	}{{shopifyNetSales, net}, {shopifyShipping, shipping}, {shopifyTax, tax}} {
		if component.amount.IsNegative() {
			rowErr := &apperrors.RowError{Row: row.Number, Field: component.field, Value: row.Get(component.field), Reason: "amount is negative"}
			out.fail(rowErr)
			return rowErr
		}
	}

	category := ClassifyOrder(country, taxFlag(row.Get(shopifyNote)))
	accounts := shopifyAccounts[category]

	credit := func(account string, amount decimal.Decimal) types.JournalLine {
		return types.NewCredit(JournalShopify, date, account, shopifyLabel, amount).WithReference(reference)
	}

	out.add(
		credit(accounts.NetSales, net).WithAnalytic(shopifyRevenueTag),
		credit(accounts.Shipping, shipping).WithAnalytic(shopifyRevenueTag),
	)
	if accounts.VAT != "" {
		out.add(credit(accounts.VAT, tax))
	}
	out.add(types.NewDebit(JournalShopify, date, shopifyCustomerAccount, shopifyLabel, total).WithReference(reference))

	out.Stats.RowsProcessed++
	out.Stats.Categories[category.String()]++
	out.addTotal("ttc", total)

	t.log.Debug().Int("row", row.Number).Str("order", reference).Stringer("category", category).Msg("order booked")
	return nil
}

// ClassifyOrder returns the tax category of an order shipped to country.
// taxed reports whether the order carries the tax-presence flag, which only
// matters inside the regional list.
func ClassifyOrder(country string, taxed bool) ShopifyCategory {
	switch {
	case country == domesticCountry:
		return CategoryDomestic
	case regionalCountries[country] && taxed:
		return CategoryRegionalTaxed
	case regionalCountries[country]:
		return CategoryRegionalUntaxed
	default:
		return CategoryRestOfWorld
	}
}

// taxFlag reads the Note column. Any non-blank value other than an explicit
// negative sets the flag.
func taxFlag(note string) bool {
	switch strings.ToLower(strings.TrimSpace(note)) {
	case "", "0", "false", "no", "non":
		return false
	default:
		return true
	}
}
