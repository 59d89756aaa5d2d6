package csvparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-journal-converter/internal/config"
)

func TestParseWithHeader(t *testing.T) {
	input := "created_date,customer_email,amount_decimal\n" +
		"2024-03-01 10:00:00, a@example.com ,110.00\n" +
		"\n" +
		"2024-03-02 11:00:00,b@example.com,55.00\n"

	data, err := Parse([]byte(input), config.CSVSettings{Delimiter: ",", HeaderRows: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"created_date", "customer_email", "amount_decimal"}, data.Headers)
	require.Equal(t, 2, data.RowCount)
	assert.Equal(t, "a@example.com", data.Records[0][1])
	assert.Equal(t, []int{2, 4}, data.RowNumbers)
	assert.Equal(t, 3, data.ColumnCount)
	assert.Equal(t, ',', data.Delimiter)
}

func TestParseHeaderless(t *testing.T) {
	input := "11;3;50,00;5,00\n1;1;20,00;2,00\n"

	data, err := Parse([]byte(input), config.CSVSettings{Delimiter: ";"})
	require.NoError(t, err)

	assert.Nil(t, data.Headers)
	require.Len(t, data.Records, 2)
	assert.Equal(t, []string{"11", "3", "50,00", "5,00"}, data.Records[0])
	assert.Equal(t, []int{1, 2}, data.RowNumbers)
}

func TestParseAutoDetectDelimiter(t *testing.T) {
	input := "11,3,50.00,5.00\n41,3,30.00,3.00\n"

	data, err := Parse([]byte(input), config.CSVSettings{
		Delimiter:  ";",
		AutoDetect: true,
		MinColumns: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, ',', data.Delimiter)
	assert.Len(t, data.Records[0], 4)
}

func TestParseAutoDetectKeepsWorkingDelimiter(t *testing.T) {
	input := "11;3;50,00;5,00\n"

	data, err := Parse([]byte(input), config.CSVSettings{Delimiter: ";", AutoDetect: true, MinColumns: 4})
	require.NoError(t, err)
	assert.Equal(t, ';', data.Delimiter)
}

func TestParseStripsBOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("created_date,amount\n2024-03-01,1\n")...)

	data, err := Parse(input, config.CSVSettings{HeaderRows: 1})
	require.NoError(t, err)
	assert.Equal(t, "created_date", data.Headers[0])
}

func TestParseLatin1Fallback(t *testing.T) {
	// "Espèces" with è encoded as a single Latin-1 byte.
	input := []byte("method,amount\nEsp\xe8ces,10\n")

	data, err := Parse(input, config.CSVSettings{HeaderRows: 1, Encoding: "auto"})
	require.NoError(t, err)

	assert.Equal(t, "windows-1252", data.Encoding)
	assert.Equal(t, "Espèces", data.Records[0][0])
}

func TestParseStrictUTF8Rejects(t *testing.T) {
	_, err := Parse([]byte("a\n\xe8\n"), config.CSVSettings{Encoding: "utf-8"})
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse([]byte("\n , \n"), config.CSVSettings{HeaderRows: 1})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParseMultiLineHeader(t *testing.T) {
	input := "Montant,,Montant\nTTC,TVA,HT\n10,1,9\n"

	data, err := Parse([]byte(input), config.CSVSettings{HeaderRows: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"Montant TTC", "TVA", "Montant HT"}, data.Headers)
	assert.Equal(t, 1, data.RowCount)
}

func TestCleanHeadersNamesBlankColumns(t *testing.T) {
	assert.Equal(t, []string{"Date", "Column_2"}, cleanHeaders([]string{" Date ", " "}))
}

func TestDelimiterRune(t *testing.T) {
	tests := map[string]rune{
		"":          ',',
		",":         ',',
		";":         ';',
		"semicolon": ';',
		"tab":       '\t',
		"\\t":       '\t',
		"pipe":      '|',
	}
	for in, want := range tests {
		assert.Equal(t, want, DelimiterRune(in), in)
	}
}
