// =============================================================================
// Sales Journal Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration. Settings come from three layers, later layers winning:
//   1. Built-in defaults (applyMainConfigDefaults)
//   2. The main YAML file (config.yaml)
//   3. Environment variables, optionally read from a .env file
//
// SOURCES:
//   Each export source (clorian, shopify, stripe, skidata) has an entry under
//   "sources" with the filename pattern used to recognise its files and the
//   delimited-text settings used to read them.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sales-journal-converter/internal/types"
)

// Source names used as keys of MainConfig.Sources.
const (
	SourceClorian = "clorian"
	SourceShopify = "shopify"
	SourceStripe  = "stripe"
	SourceSkidata = "skidata"
)

// Environment variables that override the YAML settings.
const (
	EnvInputDir   = "JOURNALCONV_INPUT_DIR"
	EnvOutputDir  = "JOURNALCONV_OUTPUT_DIR"
	EnvOutputFile = "JOURNALCONV_OUTPUT_FILE"
	EnvLogLevel   = "JOURNALCONV_LOG_LEVEL"
	EnvLogFormat  = "JOURNALCONV_LOG_FORMAT"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for export files to process.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the journal file, the summary and the error log.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after a successful run when
	// ArchiveInputs is set.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// ArchiveInputs moves processed input files to InputArchiveDir.
	ArchiveInputs bool `yaml:"archive_inputs"`

	// ArchiveByDate files archived inputs under a YYYY/MM/DD subdirectory.
	ArchiveByDate bool `yaml:"archive_by_date"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFile is the journal file lines are appended to. When empty a new
	// file is named after OutputNameFormat inside OutputDir.
	OutputFile string `yaml:"output_file"`

	// OutputNameFormat names generated journal files. Placeholders are
	// {uuid}, {date}, {time} and {timestamp}.
	// Default: "journal_{timestamp}_{uuid}"
	OutputNameFormat string `yaml:"output_name_format"`

	// OutputFormat is "csv" or "xlsx".
	// Default: "csv"
	OutputFormat string `yaml:"output_format"`

	// OutputDelimiter separates fields of CSV output.
	// Default: ","
	OutputDelimiter string `yaml:"output_delimiter"`

	// OutputHeader is written once when the journal file is created.
	// Default: the 21 ledger import column names.
	OutputHeader []string `yaml:"output_header"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile receives a copy of the log output when set.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of: trace, debug, info, warn, error.
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// ContinueOnError keeps processing the remaining files after one fails.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// Sources configures the recognised export sources, keyed by name.
	Sources map[string]SourceConfig `yaml:"sources"`

	// ClorianAccounts overrides the account attached to a Clorian payment
	// method, keyed by the method name as it appears in the export.
	ClorianAccounts map[string]string `yaml:"clorian_accounts"`

	patterns map[string]*regexp.Regexp
}

// SourceConfig holds the settings of one export source.
type SourceConfig struct {
	// Enabled toggles the source. Default: true
	Enabled *bool `yaml:"enabled"`

	// Pattern is a regular expression matched against the file base name.
	Pattern string `yaml:"pattern"`

	// CSVSettings applies when the source delivers delimited text.
	CSVSettings CSVSettings `yaml:"csv_settings"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings defines how to read delimited text exports.
type CSVSettings struct {
	// Delimiter is the expected field separator. Common values:
	//   - "," (comma)
	//   - ";" (semicolon)
	//   - "\t" or "tab"
	//   - "|" or "pipe"
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows at the top of the file.
	// Zero means the file has no header and columns are positional.
	HeaderRows int `yaml:"header_rows"`

	// Encoding is "auto", "utf-8", "latin-1" or "windows-1252".
	// "auto" keeps valid UTF-8 and decodes anything else as Windows-1252.
	Encoding string `yaml:"encoding"`

	// AutoDetect tries other delimiters when the expected one splits the
	// first row into fewer than MinColumns fields.
	AutoDetect bool `yaml:"auto_detect"`

	// MinColumns is the column count a correctly split row must reach.
	MinColumns int `yaml:"min_columns"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// defaultSources mirrors the file naming of each export system.
func defaultSources() map[string]SourceConfig {
	return map[string]SourceConfig{
		SourceClorian: {
			Pattern: `(?i)^clorian_\d{2}-\d{2}-\d{4}\.xlsx$`,
		},
		SourceShopify: {
			Pattern: `(?i)^export_caisses\.xlsx$`,
		},
		SourceStripe: {
			Pattern:     `(?i)^stripe\d{8}\.csv$`,
			CSVSettings: CSVSettings{Delimiter: ",", HeaderRows: 1, Encoding: "auto"},
		},
		SourceSkidata: {
			Pattern: `(?i)^rapport_jour_\d{8}\.(xlsx|xls|csv)$`,
			CSVSettings: CSVSettings{
				Delimiter:  ";",
				Encoding:   "auto",
				AutoDetect: true,
				MinColumns: 4,
			},
		},
	}
}

// Default returns a configuration made of built-in defaults and environment
// overrides only.
func Default() (*MainConfig, error) {
	var config MainConfig
	return finalize(&config)
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct with defaults applied, environment
//     overrides merged and patterns compiled.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	// Read the configuration file.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse the YAML.
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finalize(&config)
}

func finalize(config *MainConfig) (*MainConfig, error) {
	applyEnvOverrides(config)
	applyMainConfigDefaults(config)

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides merges environment variables into the configuration.
// A .env file in the working directory is loaded first when present.
func applyEnvOverrides(config *MainConfig) {
	_ = godotenv.Load()

	overrides := map[string]*string{
		EnvInputDir:   &config.InputDir,
		EnvOutputDir:  &config.OutputDir,
		EnvOutputFile: &config.OutputFile,
		EnvLogLevel:   &config.LogLevel,
		EnvLogFormat:  &config.LogFormat,
	}

	for key, target := range overrides {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			*target = value
		}
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "journal_{timestamp}_{uuid}"
	}
	if config.OutputFormat == "" {
		config.OutputFormat = "csv"
	}
	if config.OutputDelimiter == "" {
		config.OutputDelimiter = ","
	}
	if len(config.OutputHeader) == 0 {
		config.OutputHeader = append([]string(nil), types.DefaultHeader...)
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
	if config.ContinueOnError == nil {
		enabled := true
		config.ContinueOnError = &enabled
	}

	// Source defaults are merged field by field so a YAML entry may override
	// only the pattern or only the CSV settings.
	if config.Sources == nil {
		config.Sources = make(map[string]SourceConfig)
	}
	for name, def := range defaultSources() {
		src, ok := config.Sources[name]
		if !ok {
			config.Sources[name] = def
			continue
		}
		if src.Pattern == "" {
			src.Pattern = def.Pattern
		}
		if src.CSVSettings.Delimiter == "" {
			src.CSVSettings.Delimiter = def.CSVSettings.Delimiter
		}
		if src.CSVSettings.HeaderRows == 0 {
			src.CSVSettings.HeaderRows = def.CSVSettings.HeaderRows
		}
		if src.CSVSettings.Encoding == "" {
			src.CSVSettings.Encoding = def.CSVSettings.Encoding
		}
		if src.CSVSettings.MinColumns == 0 {
			src.CSVSettings.MinColumns = def.CSVSettings.MinColumns
		}
		if !src.CSVSettings.AutoDetect {
			src.CSVSettings.AutoDetect = def.CSVSettings.AutoDetect
		}
		config.Sources[name] = src
	}
}

// validateMainConfig validates the main configuration and compiles the
// source patterns.
func validateMainConfig(config *MainConfig) error {
	switch config.OutputFormat {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("output_format must be csv or xlsx, got %q", config.OutputFormat)
	}

	switch strings.ToLower(config.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	if len([]rune(config.OutputDelimiter)) != 1 {
		return fmt.Errorf("output_delimiter must be a single character, got %q", config.OutputDelimiter)
	}

	config.patterns = make(map[string]*regexp.Regexp, len(config.Sources))
	for name, src := range config.Sources {
		if _, known := defaultSources()[name]; !known {
			return fmt.Errorf("unknown source %q", name)
		}
		re, err := regexp.Compile(src.Pattern)
		if err != nil {
			return fmt.Errorf("source %s: invalid pattern: %w", name, err)
		}
		config.patterns[name] = re
	}

	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// SourceEnabled reports whether the named source is configured and enabled.
func (c *MainConfig) SourceEnabled(name string) bool {
	src, ok := c.Sources[name]
	if !ok {
		return false
	}
	return src.Enabled == nil || *src.Enabled
}

// EnabledSources returns the enabled source names in alphabetical order.
func (c *MainConfig) EnabledSources() []string {
	var names []string
	for name := range c.Sources {
		if c.SourceEnabled(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// MatchSource returns the enabled source whose pattern matches the file base
// name.
func (c *MainConfig) MatchSource(baseName string) (string, bool) {
	for _, name := range c.EnabledSources() {
		if re := c.patterns[name]; re != nil && re.MatchString(baseName) {
			return name, true
		}
	}
	return "", false
}

// CSV returns the delimited-text settings of a source.
func (c *MainConfig) CSV(name string) CSVSettings {
	return c.Sources[name].CSVSettings
}

// ShouldContinueOnError reports whether a failed file lets the run go on.
func (c *MainConfig) ShouldContinueOnError() bool {
	return c.ContinueOnError == nil || *c.ContinueOnError
}
