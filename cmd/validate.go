// =============================================================================
// Invoice Splitter - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the configuration
// and the three reference workbooks without processing any invoices. It
// surfaces the fatal, run-aborting class of problems (missing columns,
// unreadable workbooks) ahead of a real run.
//
// COMMAND USAGE:
//   splitter validate
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bussy7598/3PL-test/internal/config"
	"github.com/bussy7598/3PL-test/internal/consignment"
	"github.com/bussy7598/3PL-test/internal/jurisdiction"
	"github.com/bussy7598/3PL-test/internal/mapping"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and reference data without processing",
	Long: `The validate command loads the configuration and each reference workbook
(consignee regions, account maps, consignment summary) and reports schema
problems. No invoices are processed and nothing is written.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

// init registers the validate command.
func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate checks each input in turn, reporting all problems rather
// than stopping at the first.
func runValidate() error {
	fmt.Println("=== Invoice Splitter - Validate ===")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  ✗ configuration: %v\n", err)
		return fmt.Errorf("validation failed")
	}
	applyPathOverrides(cfg)
	fmt.Printf("  ✓ configuration (%d company(ies))\n", len(cfg.Companies))

	problems := 0

	jur, err := jurisdiction.Load(cfg.ConsigneesFile, jurisdiction.Columns{
		Sheet:  cfg.Jurisdiction.Sheet,
		Name:   cfg.Jurisdiction.NameColumn,
		Region: cfg.Jurisdiction.RegionColumn,
	})
	if err != nil {
		fmt.Printf("  ✗ consignee reference: %v\n", err)
		problems++
	} else {
		fmt.Printf("  ✓ consignee reference (%d region entries)\n", jur.Len())
	}

	table, err := mapping.Load(cfg.AccountMapsFile, cfg.MappingColumns)
	if err != nil {
		fmt.Printf("  ✗ account maps: %v\n", err)
		problems++
	} else {
		repack := "with repack accounts"
		if !table.HasRepackAccounts() {
			repack = "no repack accounts"
		}
		fmt.Printf("  ✓ account maps (%d supplier(s), %s)\n", table.Len(), repack)
	}

	rows, err := consignment.Load(cfg.ConsignmentFile, cfg.ConsignmentColumns)
	if err != nil {
		fmt.Printf("  ✗ consignment summary: %v\n", err)
		problems++
	} else {
		fmt.Printf("  ✓ consignment summary (%d row(s))\n", len(rows))
	}

	if problems > 0 {
		return fmt.Errorf("validation failed with %d problem(s)", problems)
	}

	fmt.Println("All reference data validated.")
	return nil
}
