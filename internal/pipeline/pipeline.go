// =============================================================================
// Invoice Splitter - Reconciliation Pipeline
// =============================================================================
//
// This module runs the per-invoice control flow:
//
//   parse -> split resolution -> compliance gate -> tray reconciliation
//         -> allocation -> ledger rows
//
// short-circuiting to a tagged failure at the first unmet precondition.
// Failure ordering matches the legacy tooling exactly:
//
//   1. Missing purchase order
//   2. Empty grower split
//   3. Compliance gate (reserved grower vs consignee region)
//   4. Invoice tray count missing/non-positive
//   5. Consignment tray count non-positive
//   6. Tray mismatch (rounded half-even)
//   then the allocation engine's own preconditions.
//
// CONCURRENCY:
//   A Context is safe for concurrent Process calls: the shared tables are
//   loaded before any worker starts and never mutated afterwards. Dedupe by
//   composite key is the caller's job at collection time.
//
// =============================================================================

package pipeline

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bussy7598/3PL-test/internal/allocator"
	"github.com/bussy7598/3PL-test/internal/consignment"
	"github.com/bussy7598/3PL-test/internal/jurisdiction"
	"github.com/bussy7598/3PL-test/internal/mapping"
	"github.com/bussy7598/3PL-test/internal/types"
)

// =============================================================================
// FROZEN REASON TEXT
// =============================================================================

const (
	reasonMissingPO        = "Could not read PO"
	reasonNoGrowers        = "No Growers Found in FT"
	reasonConsigneeMissing = "Consignee not in FT"
	reasonConsigneeUnknown = "Consignee not in list"
	reasonInvoiceTrayError = "Invoice Tray Error"
	reasonZeroTrays        = "0 FT Trays"
)

// =============================================================================
// SETTINGS AND CONTEXT
// =============================================================================

// Settings carries the run-level configuration the pipeline needs.
type Settings struct {
	// Consignors maps company identifier to its consignor aliases in the
	// consignment summary.
	Consignors map[string][]string

	// CropKeyword scopes consignment rows by crop ("Blueberry").
	CropKeyword string

	// ReservedGrower is the grower whose shipments are jurisdiction
	// restricted. Empty disables the compliance gate.
	ReservedGrower string

	// ReservedLabel is the short label used in the gate's failure text
	// ("KING").
	ReservedLabel string

	// RequiredRegion is the region the consignee must resolve to when the
	// reserved grower participates ("VIC").
	RequiredRegion string

	// Allocator holds the allocation engine options.
	Allocator allocator.Options
}

// Context is the explicit processing context for one run: the shared
// read-only tables plus settings. It replaces what the legacy tooling kept
// in ambient session state.
type Context struct {
	Settings      Settings
	Mapping       *mapping.Table
	Jurisdictions *jurisdiction.Table
	Consignment   []consignment.Row
}

// New builds a processing context over already-loaded reference data.
func New(settings Settings, table *mapping.Table, jur *jurisdiction.Table, rows []consignment.Row) *Context {
	return &Context{
		Settings:      settings,
		Mapping:       table,
		Jurisdictions: jur,
		Consignment:   rows,
	}
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of processing a single invoice. Exactly one of
// Rows / Failure is set.
type Result struct {
	// Invoice is the processed record.
	Invoice types.InvoiceRecord

	// Key is the composite tracking key (company|invoice|po).
	Key string

	// Split is the resolved grower split, when resolution got that far.
	// Retained even on failure so the repack workflow can show the
	// growers and consignment trays on record.
	Split types.Split

	// Rows are the generated ledger rows. Empty on failure.
	Rows []types.LedgerRow

	// Failure is the tagged failure, nil on success.
	Failure *types.Failure
}

// Failed reports whether the invoice failed.
func (r Result) Failed() bool {
	return r.Failure != nil
}

// FailedInvoice converts a failed result into the reporting shape.
func (r Result) FailedInvoice() types.FailedInvoice {
	return types.FailedInvoice{
		Company:       r.Invoice.Company,
		InvoiceNo:     r.Invoice.InvoiceNo,
		PurchaseOrder: r.Invoice.PurchaseOrder,
		Reason:        r.Failure.Reason,
		Kind:          r.Failure.Kind,
		Key:           r.Key,
	}
}

// =============================================================================
// PROCESSING
// =============================================================================

// Process runs the reconciliation sequence for one invoice.
//
// PARAMETERS:
//   - inv: the parsed invoice record.
//   - repackGrowers: growers to route to repack accounts (usually empty on
//     a first pass; the repack workflow supplies them on corrections).
//
// RETURNS:
//   - A Result carrying either ledger rows or a tagged failure.
func (c *Context) Process(inv types.InvoiceRecord, repackGrowers []string) Result {
	res := Result{Invoice: inv, Key: inv.Key()}

	// Fail 1: missing purchase order.
	if strings.TrimSpace(inv.PurchaseOrder) == "" {
		res.Failure = &types.Failure{Kind: types.FailMissingPurchaseOrder, Reason: reasonMissingPO}
		return res
	}

	// Resolve the grower split from the consignment summary.
	res.Split = consignment.ResolveSplit(
		c.Consignment,
		inv.PurchaseOrder,
		c.Settings.Consignors[inv.Company],
		c.Settings.CropKeyword,
	)

	// Fail 2: no growers.
	if res.Split.Empty() {
		res.Failure = &types.Failure{Kind: types.FailNoGrowersFound, Reason: reasonNoGrowers}
		return res
	}

	// Fail 3: compliance gate.
	if f := c.complianceFailure(res.Split); f != nil {
		res.Failure = f
		return res
	}

	// Fail 4: invoice trays missing or non-positive.
	if inv.TrayCount == nil || *inv.TrayCount <= 0 {
		res.Failure = &types.Failure{Kind: types.FailInvoiceTrayError, Reason: reasonInvoiceTrayError}
		return res
	}

	// Fail 5: consignment trays non-positive.
	if res.Split.TotalTrays <= 0 {
		res.Failure = &types.Failure{Kind: types.FailZeroConsignmentTrays, Reason: reasonZeroTrays}
		return res
	}

	// Fail 6: tray mismatch after half-even rounding to whole trays.
	invTrays := roundTrays(*inv.TrayCount)
	ftTrays := roundTrays(res.Split.TotalTrays)
	if invTrays != ftTrays {
		res.Failure = &types.Failure{
			Kind:   types.FailTrayMismatch,
			Reason: fmt.Sprintf("Mismatch, %d v %d", invTrays, ftTrays),
		}
		return res
	}

	// Allocation.
	rows, failure := allocator.Allocate(allocator.Request{
		InvoiceNo:     inv.InvoiceNo,
		PurchaseOrder: inv.PurchaseOrder,
		InvoiceDate:   inv.InvoiceDate,
		Company:       inv.Company,
		Charges:       inv.Charges,
		Split:         res.Split.Shares,
		RepackGrowers: repackGrowers,
	}, c.Mapping, c.Settings.Allocator)

	if failure != nil {
		res.Failure = failure
		return res
	}

	res.Rows = rows
	return res
}

// =============================================================================
// COMPLIANCE GATE
// =============================================================================

// complianceFailure applies the reserved-grower jurisdiction check. When
// the reserved grower participates in the split, the consignee on record
// must exist, be known to the jurisdiction table, and resolve to the
// required region. Each violation has its own frozen reason.
func (c *Context) complianceFailure(split types.Split) *types.Failure {
	reserved := strings.ToLower(strings.TrimSpace(c.Settings.ReservedGrower))
	if reserved == "" {
		return nil
	}

	participates := false
	for _, g := range split.Growers() {
		if strings.ToLower(strings.TrimSpace(g)) == reserved {
			participates = true
			break
		}
	}
	if !participates {
		return nil
	}

	if strings.TrimSpace(split.Consignee) == "" {
		return &types.Failure{Kind: types.FailConsigneeMissing, Reason: reasonConsigneeMissing}
	}

	region, known := c.Jurisdictions.Lookup(split.Consignee)
	if !known {
		return &types.Failure{Kind: types.FailConsigneeUnknown, Reason: reasonConsigneeUnknown}
	}

	if region != c.Settings.RequiredRegion {
		return &types.Failure{
			Kind:   types.FailRegionMismatch,
			Reason: fmt.Sprintf("%s Outside of %s", c.Settings.ReservedLabel, c.Settings.RequiredRegion),
		}
	}

	return nil
}

// =============================================================================
// TRAY RECONCILIATION
// =============================================================================

// roundTrays rounds a tray count to the nearest whole tray, half-even.
// 100.4 and 99.6 both round to 100; 100.5 rounds to 100, 101.5 to 102.
func roundTrays(v float64) int64 {
	return decimal.NewFromFloat(v).RoundBank(0).IntPart()
}
