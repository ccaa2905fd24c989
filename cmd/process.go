// =============================================================================
// Invoice Splitter - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main batch run. It
// orchestrates the reconciliation pipeline end to end.
//
// COMMAND USAGE:
//   splitter process [flags]
//
// FLAGS:
//   --dry-run       : Reconcile without writing the import file or archiving
//   --consignment   : Override the consignment summary workbook path
//   --maps          : Override the account maps workbook path
//   --consignees    : Override the consignee reference workbook path
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Load the shared reference tables (jurisdictions, account maps,
//      consignment summary) - any schema problem aborts the run here,
//      before any invoice is touched
//   3. Discover parsed-invoice JSON files in the input directory
//   4. Reconcile each invoice concurrently (split resolution, compliance
//      gate, tray check, allocation)
//   5. Deduplicate by composite key, write the import file, archive the
//      processed invoice files
//   6. Print the failed-invoice table and a summary
//
// Per-invoice failures never abort the batch; unrelated invoices in the
// same run are still processed.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/bussy7598/3PL-test/internal/allocator"
	"github.com/bussy7598/3PL-test/internal/config"
	"github.com/bussy7598/3PL-test/internal/consignment"
	"github.com/bussy7598/3PL-test/internal/exporter"
	"github.com/bussy7598/3PL-test/internal/invoice"
	"github.com/bussy7598/3PL-test/internal/jurisdiction"
	"github.com/bussy7598/3PL-test/internal/mapping"
	"github.com/bussy7598/3PL-test/internal/pipeline"
	"github.com/bussy7598/3PL-test/internal/types"
	"github.com/bussy7598/3PL-test/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun reconciles without writing the import file or archiving inputs.
var dryRun bool

// consignmentPath overrides the configured consignment summary workbook.
var consignmentPath string

// mapsPath overrides the configured account maps workbook.
var mapsPath string

// consigneesPath overrides the configured consignee reference workbook.
var consigneesPath string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Reconcile parsed invoices and build the ledger import file",
	Long: `The process command scans the input directory for parsed-invoice JSON
files, reconciles each against the consignment summary, and writes a
tab-delimited general-ledger import file for the invoices that pass.

Invoices are processed concurrently; each one is independent. An invoice
that fails a check (unreadable PO, no matching growers, jurisdiction block,
tray mismatch, unmapped growers) is listed with its reason and left in the
input directory for correction - typically via 'splitter repack'.

On success:
  - The import file is written to the output directory
  - Processed invoice files are moved to the input archive`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

// init registers the process command and its flags.
func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Reconcile without writing the import file or archiving inputs",
	)

	processCmd.Flags().StringVar(
		&consignmentPath,
		"consignment",
		"",
		"Path to the consignment summary workbook (overrides config)",
	)

	processCmd.Flags().StringVar(
		&mapsPath,
		"maps",
		"",
		"Path to the account maps workbook (overrides config)",
	)

	processCmd.Flags().StringVar(
		&consigneesPath,
		"consignees",
		"",
		"Path to the consignee reference workbook (overrides config)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates the full batch run.
func runProcess() error {
	startTime := time.Now()

	fmt.Println("=== Invoice Splitter ===")
	fmt.Println("Loading configuration...")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyPathOverrides(cfg)

	if err := utils.EnsureDir(cfg.OutputDir); err != nil {
		return err
	}
	if err := utils.EnsureDir(cfg.InputArchiveDir); err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: LOAD SHARED REFERENCE TABLES
	// =========================================================================
	// Malformed reference data is fatal and aborts the run before any
	// invoice is processed.

	fmt.Println("Loading reference data...")

	ctx, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d consignee region(s), %d account mapping(s), %d consignment row(s)\n",
		ctx.Jurisdictions.Len(), ctx.Mapping.Len(), len(ctx.Consignment))

	// =========================================================================
	// STEP 2: DISCOVER AND LOAD INVOICES
	// =========================================================================

	fmt.Println("Discovering invoices...")

	files, err := invoice.Discover(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("failed to discover invoices: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No invoice files found in the input directory.")
		return nil
	}

	fmt.Printf("Found %d invoice file(s)\n", len(files))

	var invoices []types.InvoiceRecord
	var loadErrors []string
	for _, file := range files {
		rec, err := invoice.Load(file)
		if err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", filepath.Base(file), err))
			continue
		}
		invoices = append(invoices, rec)
	}

	// =========================================================================
	// STEP 3: RECONCILE CONCURRENTLY
	// =========================================================================
	// One goroutine per invoice over the read-only shared tables, capped
	// by max_concurrency. Results are collected through a buffered channel.

	fmt.Println("Processing invoices...")

	var wg sync.WaitGroup
	results := make(chan pipeline.Result, len(invoices))
	sem := make(chan struct{}, cfg.MaxConcurrency)

	for _, inv := range invoices {
		wg.Add(1)

		go func(inv types.InvoiceRecord) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// First pass carries no repack directive; corrections go
			// through the repack command.
			results <- ctx.Process(inv, nil)
		}(inv)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]pipeline.Result, 0, len(invoices))
	for res := range results {
		collected = append(collected, res)
	}

	// Deterministic reporting and export order regardless of goroutine
	// scheduling.
	sort.Slice(collected, func(i, j int) bool {
		if collected[i].Key != collected[j].Key {
			return collected[i].Key < collected[j].Key
		}
		return collected[i].Invoice.SourceFile < collected[j].Invoice.SourceFile
	})

	// =========================================================================
	// STEP 4: COLLECT, DEDUPLICATE, EXPORT
	// =========================================================================

	var allRows []types.LedgerRow
	var failed []types.FailedInvoice
	var processedFiles []string
	seen := make(map[string]bool)

	for _, res := range collected {
		if seen[res.Key] {
			if verbose {
				fmt.Printf("  - duplicate key skipped: %s\n", res.Key)
			}
			continue
		}
		seen[res.Key] = true

		if res.Failed() {
			failed = append(failed, res.FailedInvoice())
			fmt.Printf("  ✗ %s: %s\n", res.Key, res.Failure.Reason)
			continue
		}

		allRows = append(allRows, res.Rows...)
		processedFiles = append(processedFiles, res.Invoice.SourceFile)
		fmt.Printf("  ✓ %s (%d row(s))\n", res.Key, len(res.Rows))
	}

	var outputFile string
	if len(allRows) > 0 && !dryRun {
		outputFile, err = exporter.Write(cfg.OutputDir, cfg.ExportNameFormat, "batch", allRows)
		if err != nil {
			return err
		}

		for _, file := range processedFiles {
			if err := utils.MoveFile(file, cfg.InputArchiveDir); err != nil {
				return fmt.Errorf("failed to archive %s: %w", file, err)
			}
		}
	}

	// =========================================================================
	// STEP 5: REPORT
	// =========================================================================

	if len(failed) > 0 {
		fmt.Println("\nFailed Invoices (With Reasons)")
		for _, f := range failed {
			fmt.Printf("  %-8s %-14s %-14s %s\n", f.Company, f.InvoiceNo, f.PurchaseOrder, f.Reason)
		}
	}

	for _, e := range loadErrors {
		fmt.Printf("  ✗ unreadable invoice file: %s\n", e)
	}

	elapsed := time.Since(startTime)
	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total invoices:  %d\n", len(invoices))
	fmt.Printf("Successful:      %d\n", len(processedFiles))
	fmt.Printf("Failed:          %d\n", len(failed))
	fmt.Printf("Unreadable:      %d\n", len(loadErrors))
	if outputFile != "" {
		fmt.Printf("Import file:     %s\n", outputFile)
	}
	if dryRun {
		fmt.Println("Dry run:         no files written or archived")
	}
	fmt.Printf("Time elapsed:    %s\n", elapsed)

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// applyPathOverrides applies the workbook path flags over the config.
func applyPathOverrides(cfg *config.Config) {
	if consignmentPath != "" {
		cfg.ConsignmentFile = consignmentPath
	}
	if mapsPath != "" {
		cfg.AccountMapsFile = mapsPath
	}
	if consigneesPath != "" {
		cfg.ConsigneesFile = consigneesPath
	}
}

// buildPipeline loads the three reference tables and assembles the
// processing context. Shared by the process and repack commands.
func buildPipeline(cfg *config.Config) (*pipeline.Context, error) {
	jur, err := jurisdiction.Load(cfg.ConsigneesFile, jurisdiction.Columns{
		Sheet:  cfg.Jurisdiction.Sheet,
		Name:   cfg.Jurisdiction.NameColumn,
		Region: cfg.Jurisdiction.RegionColumn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load consignee reference: %w", err)
	}

	table, err := mapping.Load(cfg.AccountMapsFile, cfg.MappingColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to load account maps: %w", err)
	}

	rows, err := consignment.Load(cfg.ConsignmentFile, cfg.ConsignmentColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to load consignment summary: %w", err)
	}

	return pipeline.New(pipelineSettings(cfg), table, jur, rows), nil
}

// pipelineSettings maps configuration onto pipeline settings.
func pipelineSettings(cfg *config.Config) pipeline.Settings {
	return pipeline.Settings{
		Consignors:     cfg.Consignors(),
		CropKeyword:    cfg.CropKeyword,
		ReservedGrower: cfg.Compliance.Grower,
		ReservedLabel:  cfg.Compliance.Label,
		RequiredRegion: cfg.Compliance.RequiredRegion,
		Allocator: allocator.Options{
			CardNames:       cfg.CardNames(),
			TaxCode:         cfg.TaxCode,
			CropLabel:       cfg.CropKeyword,
			TrayRate:        cfg.LogisticsTrayRate,
			FoldRepackNames: cfg.RepackCaseInsensitive,
		},
	}
}
