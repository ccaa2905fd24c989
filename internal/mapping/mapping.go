// =============================================================================
// Invoice Splitter - Account Mapping Table
// =============================================================================
//
// The account maps workbook associates each grower (supplier) with its
// ledger account numbers and job code:
//
//   | Supplier | Logistics Account | Freight Account | Job Code | Repack Logistics Account | Repack Freight Account |
//
// The two repack columns are optional; their absence means "no repack
// account available", which only becomes an error if a run actually
// requests repack routing.
//
// Grower names are identity keys under case/whitespace-insensitive
// comparison. The table is loaded once per run and read-only afterwards,
// so concurrent lookups need no locking.
//
// =============================================================================

package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bussy7598/3PL-test/internal/normalize"
)

// =============================================================================
// TABLE SCHEMA
// =============================================================================

// Entry is one grower's account mapping row.
type Entry struct {
	// Supplier is the grower name as it appears in the workbook.
	Supplier string

	// LogisticsAccount is the standard logistics ledger account.
	LogisticsAccount string

	// FreightAccount is the standard freight ledger account.
	FreightAccount string

	// JobCode is the grower's job code.
	JobCode string

	// RepackLogisticsAccount is the repack logistics account, when the
	// workbook provides the column.
	RepackLogisticsAccount string

	// RepackFreightAccount is the repack freight account, when the
	// workbook provides the column.
	RepackFreightAccount string
}

// Columns maps the workbook headers to the Entry fields. Supplier,
// Logistics, Freight and Job are required; the repack columns are optional.
type Columns struct {
	Supplier        string `yaml:"supplier"`
	Logistics       string `yaml:"logistics"`
	Freight         string `yaml:"freight"`
	Job             string `yaml:"job"`
	RepackLogistics string `yaml:"repack_logistics"`
	RepackFreight   string `yaml:"repack_freight"`
}

// Table is the loaded account mapping table.
type Table struct {
	entries []Entry
	byKey   map[string]*Entry
	cols    Columns

	hasRepackLogistics bool
	hasRepackFreight   bool
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// NewTable builds a Table from already-typed entries. Used by the loader
// and by tests. The two booleans record whether the source workbook carried
// the repack columns at all, which is a different fact from individual
// repack cells being empty.
func NewTable(entries []Entry, cols Columns, hasRepackLogistics, hasRepackFreight bool) *Table {
	t := &Table{
		entries:            entries,
		byKey:              make(map[string]*Entry, len(entries)),
		cols:               cols,
		hasRepackLogistics: hasRepackLogistics,
		hasRepackFreight:   hasRepackFreight,
	}
	for i := range t.entries {
		key := normalize.SupplierKey(t.entries[i].Supplier)
		if key == "" {
			continue
		}
		if _, dup := t.byKey[key]; !dup {
			t.byKey[key] = &t.entries[i]
		}
	}
	return t
}

// Load reads the account maps workbook (first sheet) into a Table.
//
// PARAMETERS:
//   - path: path to the account maps workbook (.xlsx).
//   - cols: the header names to read.
//
// RETURNS:
//   - The loaded Table.
//   - An error if the workbook cannot be opened or a required column is
//     absent.
func Load(path string, cols Columns) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open account maps: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("account maps workbook has no sheets")
	}

	raw, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("account maps sheet %q is empty", sheetName)
	}

	idx := make(map[string]int, len(raw[0]))
	for i, h := range raw[0] {
		h = strings.TrimSpace(h)
		if _, seen := idx[h]; h != "" && !seen {
			idx[h] = i
		}
	}

	required := map[string]string{
		cols.Supplier:  "supplier",
		cols.Logistics: "logistics account",
		cols.Freight:   "freight account",
		cols.Job:       "job code",
	}
	for header, role := range required {
		if _, ok := idx[header]; !ok {
			return nil, fmt.Errorf("account maps are missing the %s column %q", role, header)
		}
	}

	repLogIdx, hasRepLog := idx[cols.RepackLogistics]
	repFrtIdx, hasRepFrt := idx[cols.RepackFreight]

	entries := make([]Entry, 0, len(raw)-1)
	for _, r := range raw[1:] {
		supplier := cell(r, idx[cols.Supplier])
		if supplier == "" || strings.EqualFold(supplier, "nan") || strings.EqualFold(supplier, "none") {
			continue
		}
		e := Entry{
			Supplier:         supplier,
			LogisticsAccount: cell(r, idx[cols.Logistics]),
			FreightAccount:   cell(r, idx[cols.Freight]),
			JobCode:          cell(r, idx[cols.Job]),
		}
		if hasRepLog {
			e.RepackLogisticsAccount = cell(r, repLogIdx)
		}
		if hasRepFrt {
			e.RepackFreightAccount = cell(r, repFrtIdx)
		}
		entries = append(entries, e)
	}

	return NewTable(entries, cols, hasRepLog, hasRepFrt), nil
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve locates a grower's mapping row by case/whitespace-insensitive
// match against the supplier column. The second return is false when the
// grower has no row; callers batch those misses into a single failure
// rather than erroring per call.
func (t *Table) Resolve(grower string) (*Entry, bool) {
	e, ok := t.byKey[normalize.SupplierKey(grower)]
	return e, ok
}

// HasRepackAccounts reports whether the workbook carried both repack
// account columns.
func (t *Table) HasRepackAccounts() bool {
	return t.hasRepackLogistics && t.hasRepackFreight
}

// MissingRepackColumns names the repack columns the workbook lacks, using
// the configured header names. Empty when both are present.
func (t *Table) MissingRepackColumns() []string {
	var missing []string
	if !t.hasRepackLogistics {
		missing = append(missing, t.cols.RepackLogistics)
	}
	if !t.hasRepackFreight {
		missing = append(missing, t.cols.RepackFreight)
	}
	return missing
}

// Suppliers returns the mapped grower names, sorted case-insensitively.
// The repack workflow uses this as its pick list.
func (t *Table) Suppliers() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.Supplier)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// Len returns the number of mapping rows.
func (t *Table) Len() int {
	return len(t.entries)
}

// cell safely reads a cell from a row, returning "" past the row's end.
func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
