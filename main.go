// =============================================================================
// Sales Journal Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   journalconv process       - Convert every export in the input directory
//   journalconv validate      - Validate the configuration without processing
//   journalconv version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/                   : CLI command definitions (Cobra)
//   - internal/converter     : source detection and the four transformers
//   - internal/tabular       : workbook and delimited text loading
//   - internal/normalize     : amount and date parsing
//   - internal/journalwriter : journal file output
//   - pkg/utils              : discovery, archival and run logs
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sales-journal-converter/cmd"
)

func main() {
	cmd.Execute()
}
