// =============================================================================
// Invoice Splitter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - consignment (grower splits)
//   - allocator (ledger rows, failures)
//   - pipeline
//   - exporter
//
// =============================================================================

package types

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CHARGE TYPES
// =============================================================================

// ChargeType is the category of an invoiced cost (e.g. Logistics, Freight).
// Each charge type maps to a specific ledger account per grower.
type ChargeType string

const (
	// ChargeLogistics is billed to a grower's logistics account.
	ChargeLogistics ChargeType = "Logistics"

	// ChargeFreight is billed to a grower's freight account.
	ChargeFreight ChargeType = "Freight"
)

// AccountClass is the ledger account family a charge type is billed to.
// There are exactly two: logistics and freight.
type AccountClass int

const (
	// ClassLogistics routes to the (repack) logistics account.
	ClassLogistics AccountClass = iota

	// ClassFreight routes to the (repack) freight account.
	ClassFreight
)

// Class returns the account family for this charge type.
//
// Anything that is not "Logistics" bills as freight. This mirrors the
// upstream accounting convention: new charge types fall through to the
// freight account rather than erroring.
func (c ChargeType) Class() AccountClass {
	if c == ChargeLogistics {
		return ClassLogistics
	}
	return ClassFreight
}

// =============================================================================
// INVOICE RECORD
// =============================================================================

// InvoiceRecord is the structured output of the external invoice parser.
// It is immutable once produced.
type InvoiceRecord struct {
	// Company is the internal company identifier the invoice was issued to.
	Company string `json:"company"`

	// InvoiceNo is the supplier invoice number.
	InvoiceNo string `json:"invoice_no"`

	// PurchaseOrder links the invoice to a consignment summary entry.
	// Empty when the parser could not read a PO from the document.
	PurchaseOrder string `json:"purchase_order"`

	// InvoiceDate is the invoice date, already formatted by the parser.
	InvoiceDate string `json:"invoice_date"`

	// Charges maps charge type to the invoiced monetary amount.
	Charges map[ChargeType]float64 `json:"charges"`

	// TrayCount is the tray count stated on the invoice.
	// Nil when the parser could not read one.
	TrayCount *float64 `json:"tray_count"`

	// SourceFile is the file this record was loaded from. Not part of the
	// parser contract; used for reporting and archival only.
	SourceFile string `json:"-"`
}

// Key returns the composite tracking key for this invoice.
func (r *InvoiceRecord) Key() string {
	return MakeKey(r.Company, r.InvoiceNo, r.PurchaseOrder)
}

// MakeKey builds the stable composite key used to track and deduplicate an
// invoice: company + invoice number + purchase order (empty if missing).
func MakeKey(company, invoiceNo, purchaseOrder string) string {
	return strings.TrimSpace(company) + "|" +
		strings.TrimSpace(invoiceNo) + "|" +
		strings.TrimSpace(purchaseOrder)
}

// ChargeTypes returns the charge types present on the invoice, sorted.
func (r *InvoiceRecord) ChargeTypes() []ChargeType {
	out := make([]ChargeType, 0, len(r.Charges))
	for ct := range r.Charges {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// =============================================================================
// GROWER SPLIT
// =============================================================================

// Split is the per-grower fractional allocation derived from the consignment
// summary for one purchase order. Shares sum to 1.0 (floating tolerance)
// whenever the split is non-empty. A Split is never mutated after the
// resolver returns it; correction workflows build a new one.
type Split struct {
	// Shares maps trimmed grower name to its fractional share in [0,1].
	Shares map[string]float64

	// TotalTrays is the consignment-derived tray count across matched rows.
	TotalTrays float64

	// Consignee is the receiving party on record for the matched rows.
	// Empty when no matched row carried one.
	Consignee string
}

// Empty reports whether the split carries no grower shares. An empty split
// is a valid terminal state meaning "no matching consignment data".
func (s Split) Empty() bool {
	return len(s.Shares) == 0
}

// Growers returns the grower names in the split, sorted for deterministic
// iteration.
func (s Split) Growers() []string {
	out := make([]string, 0, len(s.Shares))
	for g := range s.Shares {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// LEDGER ROW
// =============================================================================

// LedgerRow is one line of the general-ledger import file: one per
// (grower, charge type) pair with a defined amount. Created exactly once by
// the allocation engine and never mutated.
type LedgerRow struct {
	// CardName is the counterparty display name ("Co./Last Name").
	CardName string

	// Date is the invoice date.
	Date string

	// InvoiceNo is the supplier invoice number ("Supplier Invoice No.").
	InvoiceNo string

	// Description is the free-text line description.
	Description string

	// AccountNo is the resolved ledger account number.
	AccountNo string

	// Amount is the proportional monetary amount, rounded half-even to
	// 2 decimal places.
	Amount decimal.Decimal

	// JobCode is the grower's job code ("Job").
	JobCode string

	// TaxCode is the fixed tax code (GST).
	TaxCode string

	// Comment carries the purchase order.
	Comment string
}

// =============================================================================
// FAILURE TAXONOMY
// =============================================================================

// FailureKind is the machine-readable classification of a per-invoice
// failure. The human-readable reason strings are frozen separately; callers
// and the UI branch on both.
type FailureKind string

const (
	FailMissingPurchaseOrder FailureKind = "MissingPurchaseOrder"
	FailNoGrowersFound       FailureKind = "NoGrowersFound"
	FailConsigneeMissing     FailureKind = "ConsigneeMissing"
	FailConsigneeUnknown     FailureKind = "ConsigneeUnknown"
	FailRegionMismatch       FailureKind = "RegionMismatch"
	FailInvoiceTrayError     FailureKind = "InvoiceTrayError"
	FailZeroConsignmentTrays FailureKind = "ZeroConsignmentTrays"
	FailTrayMismatch         FailureKind = "TrayMismatch"
	FailUnmappedGrowers      FailureKind = "UnmappedGrowers"
	FailMissingRepackColumns FailureKind = "MissingRepackColumns"
	FailEmptyAllocation      FailureKind = "EmptyAllocation"
)

// Failure is a reported (never thrown) per-invoice failure. A failing
// invoice produces zero ledger rows; the batch continues.
type Failure struct {
	// Kind classifies the failure.
	Kind FailureKind

	// Reason is the stable, human-readable reason string. Downstream
	// tooling matches on this text, so it must not drift.
	Reason string
}

// FailedInvoice is the reporting shape handed to the failure table.
type FailedInvoice struct {
	Company       string
	InvoiceNo     string
	PurchaseOrder string
	Reason        string
	Kind          FailureKind
	Key           string
}
