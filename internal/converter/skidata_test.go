package converter

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-journal-converter/internal/apperrors"
	"github.com/ginjaninja78/sales-journal-converter/internal/config"
	"github.com/ginjaninja78/sales-journal-converter/internal/testutil"
)

var skidataCSV = config.CSVSettings{Delimiter: ";", Encoding: "auto", AutoDetect: true, MinColumns: 4}

func transformSkidata(t *testing.T, fileName string, data []byte) (*Output, error) {
	t.Helper()
	return NewSkidataTransformer(skidataCSV, zerolog.Nop()).Transform(Input{FileName: fileName, Data: data})
}

func TestSkidataSummary(t *testing.T) {
	out, err := transformSkidata(t, "rapport_jour_20240301.csv", []byte("11;3;50.00;5.00\n1;1;20.00;2.00\n"))
	require.NoError(t, err)
	require.Len(t, out.Lines, 4)

	assertLine(t, out.Lines[0], true, "511311", "50")
	assertLine(t, out.Lines[1], true, "511312", "0")
	assertLine(t, out.Lines[2], true, "539002", "20")
	assertLine(t, out.Lines[3], false, "445711", "7")

	for _, line := range out.Lines {
		assert.Equal(t, "CAIS", line.JournalCode)
		assert.Equal(t, "01/03/2024", line.EntryDate)
		assert.Equal(t, "Caisse Parking 03/2024", line.Label)
	}
}

func TestSkidataClassificationAndSkips(t *testing.T) {
	text := "Code;Type;TTC;TVA\n" +
		"12;3;10,50;1,05\n" +
		"41.0;3;8;0,80\n" +
		"43;3;1 200,00;120,00\n" +
		"42;3\n" +
		"99;3;10;1\n" +
		"41;3;0;0\n" +
		"11;2;15;1,5\n" +
		"5;1;4;0,4\n"

	out, err := transformSkidata(t, "RAPPORT_JOUR_20240302.CSV", []byte(text))
	require.NoError(t, err)
	require.Len(t, out.Lines, 4)

	assertLine(t, out.Lines[0], true, "511311", "10.5")
	assertLine(t, out.Lines[1], true, "511312", "1208")
	assertLine(t, out.Lines[2], true, "539002", "4")
	assertLine(t, out.Lines[3], false, "445711", "122.25")

	assert.Equal(t, 9, out.Stats.RowsRead)
	assert.Equal(t, 4, out.Stats.RowsProcessed)
	assert.Equal(t, 5, out.Stats.RowsSkipped)
	assert.Equal(t, map[string]int{"cb_caisse_auto": 1, "cb_borne_sortie": 2, "especes": 1}, out.Stats.Categories)

	// Matched TTC equals the sum of the three channel totals.
	matched := dec("10.50").Add(dec("8")).Add(dec("1200")).Add(dec("4"))
	channels := decimal.Zero
	for _, line := range out.Lines[:3] {
		channels = channels.Add(line.Amount())
	}
	assert.True(t, matched.Equal(channels))
}

func TestSkidataWorkbook(t *testing.T) {
	data := testutil.Workbook(t, "Sheet1", [][]interface{}{
		{11, 3, 50, 5},
		{42, 3, 30.5, 3.05},
		{"Secteur", "Paiement", "TTC", "TVA"},
		{1, 1, 20, 2},
	})

	out, err := transformSkidata(t, "rapport_jour_20240303.xlsx", data)
	require.NoError(t, err)
	require.Len(t, out.Lines, 4)

	assertLine(t, out.Lines[0], true, "511311", "50")
	assertLine(t, out.Lines[1], true, "511312", "30.5")
	assertLine(t, out.Lines[2], true, "539002", "20")
	assertLine(t, out.Lines[3], false, "445711", "10.05")
}

func TestSkidataWorkbookBlankVAT(t *testing.T) {
	data := testutil.Workbook(t, "Sheet1", [][]interface{}{
		{11, 3, 50, 5},
		{41, 3, 30},
	})

	out, err := transformSkidata(t, "rapport_jour_20240301.xlsx", data)
	require.NoError(t, err)
	require.Len(t, out.Lines, 4)

	assertLine(t, out.Lines[0], true, "511311", "50")
	assertLine(t, out.Lines[1], true, "511312", "30")
	assertLine(t, out.Lines[3], false, "445711", "5")
	assert.Equal(t, 2, out.Stats.RowsProcessed)
	assert.Zero(t, out.Stats.RowsSkipped)
	assert.Empty(t, out.Issues)
}

func TestSkidataLegacyWorkbook(t *testing.T) {
	out, err := transformSkidata(t, "rapport_jour_20240301.xls", testutil.LegacyWorkbook(t))
	require.NoError(t, err)
	require.Len(t, out.Lines, 4)

	assertLine(t, out.Lines[0], true, "511311", "50")
	assertLine(t, out.Lines[1], true, "511312", "30.5")
	assertLine(t, out.Lines[2], true, "539002", "20")
	assertLine(t, out.Lines[3], false, "445711", "7")

	assert.Equal(t, 3, out.Stats.RowsProcessed)
	assert.Equal(t, 1, out.Stats.RowsSkipped)
}

func TestSkidataUnparsableVATKeepsCause(t *testing.T) {
	out, err := transformSkidata(t, "rapport_jour_20240301.csv", []byte("11;3;50.00;abc\n"))
	require.NoError(t, err)
	require.Len(t, out.Issues, 1)

	issue := out.Issues[0]
	assert.True(t, errors.Is(issue, apperrors.ErrParseWarning))

	var warning *apperrors.ParseWarning
	require.True(t, errors.As(issue, &warning))
	assert.Equal(t, "tva", warning.Field)
	assert.Equal(t, 1, warning.Row)
	assert.Equal(t, "abc", warning.Value)
	assert.Error(t, warning.Err)

	// The event is still booked with a zero VAT.
	assertLine(t, out.Lines[0], true, "511311", "50")
	assertLine(t, out.Lines[3], false, "445711", "0")
}

func TestSkidataDelimiterFallback(t *testing.T) {
	out, err := transformSkidata(t, "rapport_jour_20240301.csv", []byte("11,3,50.00,5.00\n1,1,20.00,2.00\n"))
	require.NoError(t, err)
	require.Len(t, out.Lines, 4)
	assertLine(t, out.Lines[0], true, "511311", "50")
	assertLine(t, out.Lines[3], false, "445711", "7")
}

func TestSkidataNoMatchedRows(t *testing.T) {
	out, err := transformSkidata(t, "rapport_jour_20240301.csv", []byte("99;3;10;1\n11;3;-5;0\n"))
	require.NoError(t, err)
	require.Len(t, out.Lines, 4)
	for _, line := range out.Lines {
		assert.True(t, line.Amount().IsZero())
	}
}

func TestSkidataStructuralFailures(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
	}{
		{"no date in name", "parking.csv", []byte("11;3;50;5\n")},
		{"invalid date", "rapport_jour_20241301.csv", []byte("11;3;50;5\n")},
		{"truncated legacy workbook", "rapport_jour_20240301.xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}},
		{"empty file", "rapport_jour_20240301.csv", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := transformSkidata(t, tt.fileName, tt.data)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, apperrors.ErrStructural), err)
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "11", NormalizeCode("11.0"))
	assert.Equal(t, "3", NormalizeCode(" 3 "))
	assert.Equal(t, "1.5", NormalizeCode("1.5"))
	assert.Equal(t, "Code", NormalizeCode("Code"))
}

func TestParkingLabel(t *testing.T) {
	assert.Equal(t, "Caisse Parking 12/2023", ParkingLabel(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
}
