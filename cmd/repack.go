// =============================================================================
// Invoice Splitter - Repack Command
// =============================================================================
//
// This file defines the 'repack' command, the correction workflow for
// invoices that failed automated matching. The operator records the manual
// grower tray allocation in a YAML sheet (see internal/repack); this
// command re-runs allocation from those entries and writes a separate
// import file.
//
// COMMAND USAGE:
//   splitter repack --file repacks.yaml
//
// The original invoice files are looked up by composite key in the input
// directory and the input archive. Allocation bypasses split resolution
// and the tray reconciliation check - the operator's entered trays are
// authoritative - but still enforces mapping completeness and repack
// account columns.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bussy7598/3PL-test/internal/allocator"
	"github.com/bussy7598/3PL-test/internal/config"
	"github.com/bussy7598/3PL-test/internal/exporter"
	"github.com/bussy7598/3PL-test/internal/invoice"
	"github.com/bussy7598/3PL-test/internal/mapping"
	"github.com/bussy7598/3PL-test/internal/repack"
	"github.com/bussy7598/3PL-test/internal/types"
	"github.com/bussy7598/3PL-test/pkg/utils"
)

// repackFile is the path to the repack allocation sheet.
var repackFile string

// repackCmd represents the 'repack' command.
var repackCmd = &cobra.Command{
	Use:   "repack",
	Short: "Re-run failed invoices from a repack allocation sheet",
	Long: `The repack command processes invoices that failed the automated run,
using operator-entered grower tray allocations instead of the consignment
summary. Percentages are calculated as trays / total trays entered for each
invoice; growers flagged 'repack' bill to their repack accounts.

The allocation sheet is YAML, keyed by the composite invoice key printed in
the failed-invoice table (company|invoice|po):

  "FG|INV-10021|PO-123":
    - grower: Bellfield Orchard
      trays: 960
      repack: true
    - grower: Harlow Berries
      trays: 490

Rows with an empty grower or zero trays are ignored. Successful repacks are
written to their own import file in the output directory.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepack()
	},
}

// init registers the repack command and its flags.
func init() {
	rootCmd.AddCommand(repackCmd)

	repackCmd.Flags().StringVar(
		&repackFile,
		"file",
		"",
		"Path to the repack allocation sheet (YAML)",
	)
	repackCmd.MarkFlagRequired("file")
}

// runRepack executes the correction workflow.
func runRepack() error {
	startTime := time.Now()

	fmt.Println("=== Invoice Splitter - Repack ===")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyPathOverrides(cfg)

	if err := utils.EnsureDir(cfg.OutputDir); err != nil {
		return err
	}

	table, err := mapping.Load(cfg.AccountMapsFile, cfg.MappingColumns)
	if err != nil {
		return fmt.Errorf("failed to load account maps: %w", err)
	}

	sheet, err := repack.LoadSheet(repackFile)
	if err != nil {
		return err
	}
	if len(sheet) == 0 {
		fmt.Println("Allocation sheet is empty; nothing to do.")
		return nil
	}

	// Index invoice records by composite key from the input directory and
	// the archive (a failed invoice may sit in either).
	index, err := indexInvoices(cfg.InputDir, cfg.InputArchiveDir)
	if err != nil {
		return err
	}

	opts := pipelineSettings(cfg).Allocator

	var allRows []types.LedgerRow
	processed, skipped := 0, 0
	seen := make(map[string]bool)

	for _, key := range sheet.Keys() {
		// Don't double-add rows if a key repeats across sheet edits.
		dedupeKey := "REPACK|" + key
		if seen[dedupeKey] {
			skipped++
			continue
		}
		seen[dedupeKey] = true

		inv, ok := index[key]
		if !ok {
			fmt.Printf("  ✗ %s: no invoice file found for this key\n", key)
			skipped++
			continue
		}
		if inv.PurchaseOrder == "" {
			fmt.Printf("  ✗ %s: invoice has no purchase order\n", key)
			skipped++
			continue
		}

		shares, repackGrowers, totalTrays := repack.BuildSplit(sheet[key])
		if shares == nil {
			fmt.Printf("  ✗ %s: no usable allocation rows\n", key)
			skipped++
			continue
		}
		if verbose {
			fmt.Printf("  - %s: %d grower(s), %.0f tray(s), %d flagged repack\n",
				key, len(shares), totalTrays, len(repackGrowers))
		}

		rows, failure := allocator.Allocate(allocator.Request{
			InvoiceNo:     inv.InvoiceNo,
			PurchaseOrder: inv.PurchaseOrder,
			InvoiceDate:   inv.InvoiceDate,
			Company:       inv.Company,
			Charges:       inv.Charges,
			Split:         shares,
			RepackGrowers: repackGrowers,
		}, table, opts)

		if failure != nil {
			fmt.Printf("  ✗ %s: %s\n", key, failure.Reason)
			skipped++
			continue
		}

		allRows = append(allRows, rows...)
		processed++
		fmt.Printf("  ✓ %s (%d row(s))\n", key, len(rows))
	}

	var outputFile string
	if len(allRows) > 0 {
		outputFile, err = exporter.Write(cfg.OutputDir, cfg.ExportNameFormat, "repack", allRows)
		if err != nil {
			return err
		}
	}

	fmt.Println("\n=== Repack Complete ===")
	fmt.Printf("Processed:       %d\n", processed)
	fmt.Printf("Skipped:         %d\n", skipped)
	if outputFile != "" {
		fmt.Printf("Import file:     %s\n", outputFile)
	}
	fmt.Printf("Time elapsed:    %s\n", time.Since(startTime))

	return nil
}

// indexInvoices loads every invoice record under the given directories,
// keyed by composite key. Later directories do not override earlier ones.
func indexInvoices(dirs ...string) (map[string]types.InvoiceRecord, error) {
	index := make(map[string]types.InvoiceRecord)

	for _, dir := range dirs {
		files, err := invoice.Discover(dir)
		if err != nil {
			// A missing archive directory just means nothing to index.
			continue
		}
		for _, file := range files {
			rec, err := invoice.Load(file)
			if err != nil {
				continue
			}
			if _, exists := index[rec.Key()]; !exists {
				index[rec.Key()] = rec
			}
		}
	}

	return index, nil
}
