// =============================================================================
// Invoice Splitter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that the others ('process', 'repack', 'validate',
// 'version') are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (splitter)
//   ├── processCmd  (splitter process)
//   ├── repackCmd   (splitter repack)
//   ├── validateCmd (splitter validate)
//   └── versionCmd  (splitter version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables verbose logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "splitter",

	Short: "Invoice Splitter - Reconcile freight invoices and build MYOB import files",

	Long: `Invoice Splitter reconciles freight/logistics invoices against a
consignment summary and produces a tab-delimited general-ledger import file.

For each parsed invoice it resolves the per-grower tray split from the
consignment summary, runs the jurisdiction compliance gate, cross-checks
tray counts, splits each charge across growers in proportion to trays, and
resolves the ledger account per grower and charge type. Invoices that fail
any check are reported with a stable reason and can be corrected through
the repack workflow.

Example Usage:
  splitter process                     # Reconcile all invoices in the input directory
  splitter process --config ./my.yaml  # Use a custom configuration file
  splitter repack --file repacks.yaml  # Re-run failed invoices with manual allocations
  splitter validate                    # Validate configuration and reference data`,

	// If no subcommand is provided, print the help message.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// Persistent flags are available to this command and all subcommands.

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (default is config.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
