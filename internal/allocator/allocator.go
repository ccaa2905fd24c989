// =============================================================================
// Invoice Splitter - Allocation Engine
// =============================================================================
//
// The allocation engine turns one reconciled invoice into general-ledger
// rows: one row per (grower, charge type) pair, with the charge amount
// split across growers in proportion to their tray shares and billed to the
// grower's logistics or freight account. Growers flagged for repack are
// routed to their repack accounts instead.
//
// FAILURE POLICY:
//   Failures are reported, not thrown, and the engine never partially
//   commits: the first unmet precondition returns zero rows and a Failure
//   whose reason text is frozen (downstream tooling matches on it).
//   Preconditions, in order:
//     1. Every grower in the split resolves in the mapping table
//        (all missing growers are named, not just the first).
//     2. If repack is requested and any charge type is repack-applicable,
//        the mapping table must carry both repack account columns.
//   And after row generation:
//     3. Zero rows (empty charges or empty split) is a failure.
//
// ROUNDING:
//   All rounding is banker's (half-even) via shopspring/decimal, matching
//   the legacy tooling. Row amounts round to 2 decimal places. Shares are
//   not re-normalized here; the caller guarantees they sum to ~1.
//
// =============================================================================

package allocator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bussy7598/3PL-test/internal/mapping"
	"github.com/bussy7598/3PL-test/internal/types"
)

// =============================================================================
// FROZEN REASON TEXT
// =============================================================================

// reasonEmptyAllocation is returned when no rows could be generated.
const reasonEmptyAllocation = "No Logistics or Freight"

// =============================================================================
// REQUEST AND OPTIONS
// =============================================================================

// Request carries everything the engine needs for one invoice.
type Request struct {
	// InvoiceNo is the supplier invoice number.
	InvoiceNo string

	// PurchaseOrder is carried into each row's comment field.
	PurchaseOrder string

	// InvoiceDate is carried into each row verbatim.
	InvoiceDate string

	// Company is the internal company identifier; it resolves to a card
	// name via Options.CardNames.
	Company string

	// Charges maps charge type to invoiced amount.
	Charges map[types.ChargeType]float64

	// Split maps grower name to fractional share. The caller guarantees
	// shares sum to ~1 when non-empty.
	Split map[string]float64

	// RepackGrowers names the growers that must bill to repack accounts.
	// Growers not present in the split are ignored.
	RepackGrowers []string
}

// Options carries run-level settings shared by every invoice.
type Options struct {
	// CardNames maps company identifiers to ledger card names. Unmapped
	// companies fall back to the raw identifier.
	CardNames map[string]string

	// TaxCode is stamped on every row (GST).
	TaxCode string

	// CropLabel names the crop in row descriptions ("Blueberry").
	CropLabel string

	// TrayRate is the fixed dollars-per-tray divisor used for the
	// display-only tray estimate in Logistics descriptions (0.85).
	TrayRate float64

	// RepackChargeTypes limits repack routing to specific charge types.
	// Nil means repack applies to every charge type on the invoice.
	RepackChargeTypes []types.ChargeType

	// FoldRepackNames selects case-insensitive repack membership. The
	// legacy behavior (false) compares exact trimmed names, while mapping
	// lookups have always folded case; both are kept until the product
	// owner rules on which is intended.
	FoldRepackNames bool
}

// =============================================================================
// ALLOCATION
// =============================================================================

// Allocate produces the ledger rows for one invoice, or a Failure.
//
// Row generation is deterministic: growers and charge types are visited in
// sorted order, so identical inputs yield byte-identical row sets.
func Allocate(req Request, table *mapping.Table, opts Options) ([]types.LedgerRow, *types.Failure) {
	// Precondition 1: every grower in the split must be mapped.
	growers := sortedKeys(req.Split)
	var missing []string
	for _, g := range growers {
		if _, ok := table.Resolve(g); !ok {
			missing = append(missing, g)
		}
	}
	if len(missing) > 0 {
		return nil, &types.Failure{
			Kind:   types.FailUnmappedGrowers,
			Reason: fmt.Sprintf("%s not in mapping", strings.Join(missing, ", ")),
		}
	}

	repackSet := buildRepackSet(req.RepackGrowers, opts.FoldRepackNames)
	repackApplies := repackChargeSet(req.Charges, opts.RepackChargeTypes)

	// Precondition 2: repack routing needs both repack account columns.
	if len(repackSet) > 0 && len(repackApplies) > 0 {
		if cols := table.MissingRepackColumns(); len(cols) > 0 {
			return nil, &types.Failure{
				Kind:   types.FailMissingRepackColumns,
				Reason: fmt.Sprintf("Missing repack columns in mapping: %s", strings.Join(cols, ", ")),
			}
		}
	}

	cardName := req.Company
	if name, ok := opts.CardNames[req.Company]; ok && name != "" {
		cardName = name
	}

	chargeTypes := sortedChargeTypes(req.Charges)

	var rows []types.LedgerRow
	for _, grower := range growers {
		share := req.Split[grower]
		entry, _ := table.Resolve(grower)
		isRepackGrower := inRepackSet(repackSet, grower, opts.FoldRepackNames)

		for _, chargeType := range chargeTypes {
			amount := req.Charges[chargeType]
			useRepack := isRepackGrower && repackApplies[chargeType]

			var accountNo, description string
			switch chargeType.Class() {
			case types.ClassLogistics:
				accountNo = entry.LogisticsAccount
				if useRepack && entry.RepackLogisticsAccount != "" {
					accountNo = entry.RepackLogisticsAccount
				}
				description = fmt.Sprintf("%d x %s Logistics %s",
					trayEstimate(amount, opts.TrayRate), opts.CropLabel, entry.JobCode)
			default:
				accountNo = entry.FreightAccount
				if useRepack && entry.RepackFreightAccount != "" {
					accountNo = entry.RepackFreightAccount
				}
				description = fmt.Sprintf("%s Freight %s", opts.CropLabel, entry.JobCode)
			}

			rows = append(rows, types.LedgerRow{
				CardName:    cardName,
				Date:        req.InvoiceDate,
				InvoiceNo:   req.InvoiceNo,
				Description: description,
				AccountNo:   accountNo,
				Amount:      roundAmount(amount, share),
				JobCode:     entry.JobCode,
				TaxCode:     opts.TaxCode,
				Comment:     req.PurchaseOrder,
			})
		}
	}

	// Precondition 3: something must have been allocated.
	if len(rows) == 0 {
		return nil, &types.Failure{
			Kind:   types.FailEmptyAllocation,
			Reason: reasonEmptyAllocation,
		}
	}

	return rows, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// roundAmount computes amount x share rounded half-even to 2 decimals.
func roundAmount(amount, share float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(share)).
		RoundBank(2)
}

// trayEstimate converts a Logistics charge into an approximate tray count
// for the row description. Display only; never fed back into computation.
func trayEstimate(amount, trayRate float64) int64 {
	if trayRate == 0 {
		return 0
	}
	return decimal.NewFromFloat(amount).
		Div(decimal.NewFromFloat(trayRate)).
		RoundBank(0).
		IntPart()
}

// buildRepackSet normalizes the repack directive into a membership set.
func buildRepackSet(growers []string, fold bool) map[string]bool {
	set := make(map[string]bool, len(growers))
	for _, g := range growers {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if fold {
			g = strings.ToLower(g)
		}
		set[g] = true
	}
	return set
}

// inRepackSet tests repack membership under the configured folding rule.
func inRepackSet(set map[string]bool, grower string, fold bool) bool {
	g := strings.TrimSpace(grower)
	if fold {
		g = strings.ToLower(g)
	}
	return set[g]
}

// repackChargeSet resolves which charge types repack routing applies to.
// A nil override means every charge type present on the invoice.
func repackChargeSet(charges map[types.ChargeType]float64, override []types.ChargeType) map[types.ChargeType]bool {
	set := make(map[types.ChargeType]bool)
	if override == nil {
		for ct := range charges {
			set[ct] = true
		}
		return set
	}
	for _, ct := range override {
		set[ct] = true
	}
	return set
}

// sortedKeys returns a split's grower names in sorted order.
func sortedKeys(split map[string]float64) []string {
	out := make([]string, 0, len(split))
	for g := range split {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// sortedChargeTypes returns the charge types in sorted order.
func sortedChargeTypes(charges map[types.ChargeType]float64) []types.ChargeType {
	out := make([]types.ChargeType, 0, len(charges))
	for ct := range charges {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
