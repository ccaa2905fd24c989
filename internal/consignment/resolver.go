// =============================================================================
// Invoice Splitter - Grower-Split Resolver
// =============================================================================
//
// Given the consignment summary, a purchase order and a company's consignor
// aliases, the resolver derives the per-grower tray split for one invoice:
//
//   1. Keep rows whose consignor is one of the company's aliases.
//   2. Keep rows whose crop contains the crop keyword (case-insensitive).
//   3. Keep rows whose PO matches the invoice PO: exact-normalized, or
//      digits-only when the invoice PO has any digits at all.
//   4. Consignee = first matched row with a non-empty consignee.
//   5. Total trays = sum over matched rows; non-positive totals terminate.
//   6. Shares = per-grower trays / total trays, accumulated additively.
//
// An empty split at any stage is a valid terminal result ("no matching
// consignment data"), not an error.
//
// =============================================================================

package consignment

import (
	"strings"

	"github.com/bussy7598/3PL-test/internal/normalize"
	"github.com/bussy7598/3PL-test/internal/types"
)

// ResolveSplit derives the grower split for one purchase order.
//
// PARAMETERS:
//   - rows: the loaded consignment summary.
//   - purchaseOrder: the invoice's PO identifier.
//   - consignors: the company's consignor aliases (exact, trimmed match).
//   - cropKeyword: substring the crop field must contain (case-insensitive).
//
// RETURNS:
//   - A Split whose shares sum to 1.0 (floating tolerance) when non-empty.
func ResolveSplit(rows []Row, purchaseOrder string, consignors []string, cropKeyword string) types.Split {
	// Step 1: scope to the company's consignors.
	scoped := rows[:0:0]
	for _, r := range rows {
		if matchesConsignor(r.Consignor, consignors) {
			scoped = append(scoped, r)
		}
	}
	if len(scoped) == 0 {
		return types.Split{}
	}

	// Step 2: crop filter.
	keyword := strings.ToLower(cropKeyword)
	cropped := scoped[:0:0]
	for _, r := range scoped {
		if strings.Contains(strings.ToLower(r.Crop), keyword) {
			cropped = append(cropped, r)
		}
	}
	if len(cropped) == 0 {
		return types.Split{}
	}

	// Step 3: purchase-order match. The digits-only fallback applies only
	// when the invoice PO actually contains digits; an all-non-digit PO
	// must match exactly.
	poExact := normalize.Exact(purchaseOrder)
	poDigits := normalize.Digits(purchaseOrder)

	matched := cropped[:0:0]
	for _, r := range cropped {
		if normalize.Exact(r.PurchaseOrder) == poExact {
			matched = append(matched, r)
			continue
		}
		if poDigits != "" && normalize.Digits(r.PurchaseOrder) == poDigits {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return types.Split{}
	}

	// Step 4: consignee from the first matched row that has one.
	consignee := ""
	for _, r := range matched {
		if c := strings.TrimSpace(r.Consignee); c != "" {
			consignee = c
			break
		}
	}

	// Step 5: total trays.
	total := 0.0
	for _, r := range matched {
		total += r.Trays
	}
	if total <= 0 {
		return types.Split{Consignee: consignee}
	}

	// Step 6: per-grower shares. Multiple rows for one grower accumulate.
	shares := make(map[string]float64)
	for _, r := range matched {
		grower := strings.TrimSpace(r.Supplier)
		if grower == "" || r.Trays <= 0 {
			continue
		}
		shares[grower] += r.Trays / total
	}

	return types.Split{
		Shares:     shares,
		TotalTrays: total,
		Consignee:  consignee,
	}
}

// matchesConsignor reports whether a consignor cell equals any configured
// alias after trimming.
func matchesConsignor(consignor string, aliases []string) bool {
	c := strings.TrimSpace(consignor)
	for _, a := range aliases {
		if c == strings.TrimSpace(a) {
			return true
		}
	}
	return false
}
