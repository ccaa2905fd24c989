// =============================================================================
// Invoice Splitter - Identifier Normalizer
// =============================================================================
//
// Free-text identifiers arrive with formatting noise: purchase orders carry
// dashes and stray letters, consignee names carry non-breaking spaces from
// spreadsheet exports, supplier names differ only in case and padding. This
// package canonicalizes them for robust comparison.
//
// All functions are pure and side-effect free. Empty input yields empty
// output.
//
// =============================================================================

package normalize

import (
	"strings"
	"unicode"
)

// Exact strips all whitespace and uppercases. Used for purchase-order
// exact comparison, so "PO-123" and "po-123 " compare equal.
func Exact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Digits strips all non-digit characters. Used as the fallback
// purchase-order comparator: "PO 123-A" and "123A" both reduce to "123".
//
// The fallback only applies when the digit-only result is non-empty; an
// all-non-digit PO must match exactly. That guard lives with the caller.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Consignee canonicalizes a consignee name for jurisdiction-table lookup:
// non-breaking spaces become regular spaces, the result is trimmed and
// uppercased, and internal whitespace runs collapse to single spaces.
func Consignee(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	fields := strings.Fields(strings.ToUpper(s))
	return strings.Join(fields, " ")
}

// SupplierKey trims and lowercases a grower/supplier name. This is the
// identity key for account-mapping lookups.
func SupplierKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
