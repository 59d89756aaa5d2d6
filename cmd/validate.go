// =============================================================================
// Sales Journal Converter - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   journalconv validate [--config path]
//
// Loads and validates the configuration, then lists the sources with their
// filename patterns and the exports currently waiting in the input directory.
// Nothing is converted or written.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-journal-converter/internal/converter"
	"github.com/ginjaninja78/sales-journal-converter/pkg/utils"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without processing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Configuration is valid.")
	fmt.Fprintf(out, "Input directory:  %s\n", cfg.InputDir)
	fmt.Fprintf(out, "Output directory: %s\n", cfg.OutputDir)
	fmt.Fprintf(out, "Journal format:   %s (delimiter %q, %d header columns)\n",
		cfg.OutputFormat, cfg.OutputDelimiter, len(cfg.OutputHeader))

	fmt.Fprintln(out, "\nSources:")
	for _, name := range []string{
		string(converter.SourceClorian),
		string(converter.SourceShopify),
		string(converter.SourceStripe),
		string(converter.SourceSkidata),
	} {
		status := "disabled"
		if cfg.SourceEnabled(name) {
			status = "enabled"
		}
		fmt.Fprintf(out, "  %-8s %-9s %s\n", name, status, cfg.Sources[name].Pattern)
	}

	if len(cfg.ClorianAccounts) > 0 {
		methods := make([]string, 0, len(cfg.ClorianAccounts))
		for method := range cfg.ClorianAccounts {
			methods = append(methods, method)
		}
		sort.Strings(methods)

		fmt.Fprintln(out, "\nClorian account overrides:")
		for _, method := range methods {
			fmt.Fprintf(out, "  %-30s %s\n", method, cfg.ClorianAccounts[method])
		}
	}

	if !utils.FileExists(cfg.InputDir) {
		fmt.Fprintf(out, "\nInput directory not found, no exports listed.\n")
		return nil
	}

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	files, err := fm.DiscoverInputFiles(cfg, converter.FileDate)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nPending exports: %d\n", len(files))
	for _, file := range files {
		date := "undated"
		if file.Dated {
			date = file.Date.Format("2006-01-02")
		}
		fmt.Fprintf(out, "  %-8s %-10s %s\n", file.Source, date, filepath.Base(file.Path))
	}

	return nil
}
