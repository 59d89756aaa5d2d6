package converter

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-journal-converter/internal/apperrors"
	"github.com/ginjaninja78/sales-journal-converter/internal/testutil"
	"github.com/ginjaninja78/sales-journal-converter/internal/types"
)

var shopifyHeader = []interface{}{
	"Date", "Order Name", "Shipping Country", "Total Sales", "Net Sales", "Shipping", "Tax", "Note",
}

// shopifyExport builds an export with the given orders followed by the
// trailing file total row.
func shopifyExport(t *testing.T, orders ...[]interface{}) []byte {
	rows := [][]interface{}{shopifyHeader}
	rows = append(rows, orders...)
	rows = append(rows, []interface{}{"", "", "", "999.99", "", "", "", ""})
	return testutil.Workbook(t, "Sheet1", rows)
}

func TestShopifyDomesticOrder(t *testing.T) {
	data := shopifyExport(t,
		[]interface{}{"2024-03-01 14:22:05", "#1001", "France", "120.00", "100.00", "0", "20.00", ""},
	)

	out, err := NewShopifyTransformer(zerolog.Nop()).Transform(Input{FileName: "export_caisses.xlsx", Data: data})
	require.NoError(t, err)
	require.Len(t, out.Lines, 4)

	assertLine(t, out.Lines[0], false, "707101", "100")
	assertLine(t, out.Lines[1], false, "708502", "0")
	assertLine(t, out.Lines[2], false, "445713", "20")
	assertLine(t, out.Lines[3], true, "411SHOPI", "120")

	assert.Equal(t, "REVOFFPBOOK", out.Lines[0].AnalyticCode)
	assert.Equal(t, "REVOFFPBOOK", out.Lines[1].AnalyticCode)
	assert.Empty(t, out.Lines[2].AnalyticCode)
	assert.Empty(t, out.Lines[3].AnalyticCode)

	for _, line := range out.Lines {
		assert.Equal(t, "VES", line.JournalCode)
		assert.Equal(t, "01/03/2024", line.EntryDate)
		assert.Equal(t, "Shopify", line.Label)
		assert.Equal(t, "#1001", line.Reference)
	}

	debit, credit := types.Totals(out.Lines)
	assert.True(t, credit.Equal(dec("120")))
	assert.True(t, debit.Equal(credit))

	assert.Equal(t, 2, out.Stats.RowsRead)
	assert.Equal(t, 1, out.Stats.RowsProcessed)
	assert.Equal(t, 1, out.Stats.Categories["france"])
}

func TestShopifyCategories(t *testing.T) {
	data := shopifyExport(t,
		[]interface{}{"2024-03-01", "#1", "Germany", "110", "100", "10", "0", "TVA"},
		[]interface{}{"2024-03-01", "#2", "Italy", "130", "100", "10", "20", ""},
		[]interface{}{"2024-03-01", "#3", "Japan", "115", "100", "15", "0", ""},
	)

	out, err := NewShopifyTransformer(zerolog.Nop()).Transform(Input{FileName: "export_caisses.xlsx", Data: data})
	require.NoError(t, err)
	require.Len(t, out.Lines, 3+4+3)

	// Regional with tax flag: two revenue lines and the counterpart.
	assertLine(t, out.Lines[0], false, "707400", "100")
	assertLine(t, out.Lines[1], false, "708500", "10")
	assertLine(t, out.Lines[2], true, "411SHOPI", "110")

	// Regional without tax flag.
	assertLine(t, out.Lines[3], false, "707500", "100")
	assertLine(t, out.Lines[4], false, "708503", "10")
	assertLine(t, out.Lines[5], false, "445713", "20")
	assertLine(t, out.Lines[6], true, "411SHOPI", "130")

	// Rest of world.
	assertLine(t, out.Lines[7], false, "707300", "100")
	assertLine(t, out.Lines[8], false, "708500", "15")
	assertLine(t, out.Lines[9], true, "411SHOPI", "115")

	assert.Equal(t, map[string]int{"ue_avec_tva": 1, "ue_sans_tva": 1, "hors_ue": 1}, out.Stats.Categories)

	debit, credit := types.Totals(out.Lines)
	assert.True(t, debit.Equal(credit))
}

func TestShopifyRejectedOrders(t *testing.T) {
	data := shopifyExport(t,
		[]interface{}{"not a date", "#1", "France", "120", "100", "0", "20", ""},
		[]interface{}{"2024-03-01", "#2", "France", "0", "0", "0", "0", ""},
		[]interface{}{"2024-03-01", "#3", "France", "-12", "-10", "0", "-2", ""},
		[]interface{}{"2024-03-01", "#4", "  ", "120", "100", "0", "20", ""},
		[]interface{}{"2024-03-02", "#5", "Spain", "abc", "100", "0", "20", ""},
		[]interface{}{"2024-03-02", "#6", "Spain", "12", "10", "0", "2", ""},
	)

	out, err := NewShopifyTransformer(zerolog.Nop()).Transform(Input{FileName: "export_caisses.xlsx", Data: data})
	require.NoError(t, err)

	require.Len(t, out.Lines, 4)
	assert.Equal(t, "#6", out.Lines[0].Reference)

	assert.Equal(t, 1, out.Stats.RowsProcessed)
	assert.Equal(t, 5, out.Stats.RowsSkipped)
	assert.Equal(t, 1, out.Stats.Errors)
	assert.Equal(t, 1, out.Stats.Warnings)

	var rowErr *apperrors.RowError
	require.True(t, errors.As(out.Issues[0], &rowErr))
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, "Date", rowErr.Field)
	assert.True(t, errors.Is(rowErr, apperrors.ErrDateFormat))
}

func TestShopifyNegativeComponentRejectsOrder(t *testing.T) {
	data := shopifyExport(t,
		[]interface{}{"2024-03-01", "#1", "France", "120.00", "100.00", "0", "20.00", ""},
		[]interface{}{"2024-03-01", "#2", "France", "95.00", "100.00", "0", "-5.00", ""},
		[]interface{}{"2024-03-01", "#3", "Japan", "115", "100", "15", "0", ""},
		[]interface{}{"2024-03-02", "#4", "Spain", "12", "10", "0", "2", ""},
	)

	result := newTestConverter(t).Convert(Input{FileName: "export_caisses.xlsx", Data: data})
	require.NoError(t, result.Error)
	require.True(t, result.Success)

	require.Len(t, result.Lines, 4+3+4)
	for _, line := range result.Lines {
		assert.NotEqual(t, "#2", line.Reference)
		assert.False(t, line.Amount().IsNegative())
	}

	assert.Equal(t, 3, result.Stats.RowsProcessed)
	assert.Equal(t, 1, result.Stats.RowsSkipped)
	assert.Equal(t, 1, result.Stats.Errors)

	require.Len(t, result.Issues, 1)
	var rowErr *apperrors.RowError
	require.True(t, errors.As(result.Issues[0], &rowErr))
	assert.Equal(t, 3, rowErr.Row)
	assert.Equal(t, "Tax", rowErr.Field)
	assert.Equal(t, "-5.00", rowErr.Value)
}

func TestShopifyExcludesTrailingRow(t *testing.T) {
	data := testutil.Workbook(t, "Sheet1", [][]interface{}{
		shopifyHeader,
		{"2024-03-01", "#1", "France", "120", "100", "0", "20", ""},
	})

	out, err := NewShopifyTransformer(zerolog.Nop()).Transform(Input{FileName: "export_caisses.xlsx", Data: data})
	require.NoError(t, err)
	assert.Empty(t, out.Lines)
}

func TestShopifyMissingColumns(t *testing.T) {
	data := testutil.Workbook(t, "Sheet1", [][]interface{}{
		{"Date", "Total Sales", "Shipping Country"},
		{"2024-03-01", "120", "France"},
	})

	out, err := NewShopifyTransformer(zerolog.Nop()).Transform(Input{FileName: "export_caisses.xlsx", Data: data})
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStructural))
	assert.Contains(t, err.Error(), "Net Sales, Shipping, Tax, Order Name")
}

func TestClassifyOrder(t *testing.T) {
	tests := []struct {
		country string
		taxed   bool
		want    ShopifyCategory
	}{
		{"France", false, CategoryDomestic},
		{"France", true, CategoryDomestic},
		{"Belgium", true, CategoryRegionalTaxed},
		{"Belgium", false, CategoryRegionalUntaxed},
		{"Switzerland", true, CategoryRestOfWorld},
		{"United States", false, CategoryRestOfWorld},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyOrder(tt.country, tt.taxed), tt.country)
	}

	assert.Len(t, regionalCountries, 26)
	assert.False(t, regionalCountries["France"])
}

func TestTaxFlag(t *testing.T) {
	for _, note := range []string{"", " ", "0", "false", "NON", "no"} {
		assert.False(t, taxFlag(note), note)
	}
	for _, note := range []string{"1", "TVA", "yes", "oui"} {
		assert.True(t, taxFlag(note), note)
	}
}
