// =============================================================================
// Invoice Splitter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the freight invoice splitter CLI. It
// initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   splitter process        - Reconcile parsed invoices and build the import file
//   splitter repack         - Re-run failed invoices from a repack allocation sheet
//   splitter validate       - Validate configuration and reference data
//   splitter version        - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : core business logic (not for external import)
//   - pkg/           : shared utilities
//   - data/          : reference workbooks (consignment, maps, consignees)
//
// =============================================================================

package main

import (
	"github.com/bussy7598/3PL-test/cmd"
)

// main simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
