// =============================================================================
// Sales Journal Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (journalconv)
//   ├── processCmd (journalconv process)
//   ├── validateCmd (journalconv validate)
//   └── versionCmd (journalconv version)
//
// The root command owns the global flags and the shared setup of every
// subcommand: configuration loading and logger construction.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-journal-converter/internal/config"
	"github.com/ginjaninja78/sales-journal-converter/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is used when --config is not given. It may be absent, in
// which case built-in defaults apply.
const defaultConfigFile = "config.yaml"

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "journalconv",
	Short: "Sales Journal Converter - Turn sales exports into ledger journal lines",
	Long: `Sales Journal Converter reads the daily exports of the ticketing, shop,
card payment and parking systems and turns them into double-entry journal
lines ready for import into the accounting ledger.

Supported sources:
  - clorian  ticketing summaries      clorian_DD-MM-YYYY.xlsx
  - shopify  shop order exports       export_caisses.xlsx
  - stripe   card payment exports     stripeDDMMYYYY.csv
  - skidata  parking daily reports    rapport_jour_YYYYMMDD.{xlsx,csv}

Example Usage:
  journalconv process                         # Convert every export in the input directory
  journalconv process --file ./stripe01032024.csv --dry-run
  journalconv validate --config ./prod.yaml   # Check configuration without processing`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig loads the configuration file. A missing default file falls back
// to built-in defaults; a missing file named with --config is an error.
func loadConfig() (*config.MainConfig, error) {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err == nil {
		return cfg, nil
	}

	if cfgFile == defaultConfigFile && errors.Is(err, fs.ErrNotExist) {
		return config.Default()
	}

	return nil, fmt.Errorf("failed to load main config: %w", err)
}

// newLogger builds the application logger. --verbose forces debug level.
func newLogger(cfg *config.MainConfig) (zerolog.Logger, io.Closer, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logger.Setup(logger.Options{
		Level:  level,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
}
