package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-journal-converter/internal/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMainConfigDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(writeConfig(t, "input_dir: ./in\n"))
	require.NoError(t, err)

	assert.Equal(t, "./in", cfg.InputDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "csv", cfg.OutputFormat)
	assert.Equal(t, ",", cfg.OutputDelimiter)
	assert.Equal(t, types.DefaultHeader, cfg.OutputHeader)
	assert.True(t, cfg.ShouldContinueOnError())
	assert.Equal(t, []string{"clorian", "shopify", "skidata", "stripe"}, cfg.EnabledSources())

	skidata := cfg.CSV(SourceSkidata)
	assert.Equal(t, ";", skidata.Delimiter)
	assert.True(t, skidata.AutoDetect)
	assert.Equal(t, 4, skidata.MinColumns)
}

func TestMatchSource(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	tests := []struct {
		file string
		want string
		ok   bool
	}{
		{"clorian_01-03-2024.xlsx", SourceClorian, true},
		{"CLORIAN_01-03-2024.XLSX", SourceClorian, true},
		{"export_caisses.xlsx", SourceShopify, true},
		{"stripe01032024.csv", SourceStripe, true},
		{"rapport_jour_20240301.csv", SourceSkidata, true},
		{"rapport_jour_20240301.xls", SourceSkidata, true},
		{"clorian_2024-03-01.xlsx", "", false},
		{"notes.txt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, ok := cfg.MatchSource(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceOverridesAndDisable(t *testing.T) {
	body := `
sources:
  stripe:
    enabled: false
  skidata:
    pattern: '^parking_\d{8}\.csv$'
clorian_accounts:
  Voucher: "445712"
continue_on_error: false
`
	cfg, err := LoadMainConfig(writeConfig(t, body))
	require.NoError(t, err)

	assert.False(t, cfg.SourceEnabled(SourceStripe))
	assert.False(t, cfg.ShouldContinueOnError())
	assert.Equal(t, "445712", cfg.ClorianAccounts["Voucher"])

	name, ok := cfg.MatchSource("parking_20240301.csv")
	assert.True(t, ok)
	assert.Equal(t, SourceSkidata, name)
	assert.Equal(t, ";", cfg.CSV(SourceSkidata).Delimiter)

	_, ok = cfg.MatchSource("stripe01032024.csv")
	assert.False(t, ok)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvOutputFile, "/tmp/journal.csv")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadMainConfig(writeConfig(t, "output_file: ./ignored.csv\n"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/journal.csv", cfg.OutputFile)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad format", "output_format: xml\n"},
		{"bad level", "log_level: loud\n"},
		{"bad delimiter", "output_delimiter: ';;'\n"},
		{"bad pattern", "sources:\n  stripe:\n    pattern: '('\n"},
		{"unknown source", "sources:\n  paypal:\n    pattern: '.*'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMainConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMainConfigMissingFile(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
