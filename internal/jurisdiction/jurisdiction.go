// =============================================================================
// Invoice Splitter - Consignee Jurisdiction Table
// =============================================================================
//
// This module builds the static lookup from normalized consignee name to a
// state/region code. The table is loaded once per run from the consignee
// reference workbook and is read-only afterwards, so concurrent lookups
// need no locking.
//
// A malformed reference workbook (missing sheet or columns) is a fatal,
// run-aborting condition: the loader returns an error before any invoice is
// processed. This is distinct from per-invoice failures.
//
// =============================================================================

package jurisdiction

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bussy7598/3PL-test/internal/normalize"
)

// Table maps normalized consignee names to region codes.
type Table struct {
	regions map[string]string
}

// New builds a Table from raw name -> region pairs. Names are normalized
// with normalize.Consignee; regions are trimmed and uppercased. Entries
// with an empty name or region are dropped, as is the spreadsheet artifact
// "NAN".
func New(entries map[string]string) *Table {
	t := &Table{regions: make(map[string]string, len(entries))}
	for name, region := range entries {
		key := normalize.Consignee(name)
		reg := strings.ToUpper(strings.TrimSpace(region))
		if key == "" || reg == "" || reg == "NAN" {
			continue
		}
		t.regions[key] = reg
	}
	return t
}

// Columns names the sheet and columns of the consignee reference workbook.
type Columns struct {
	// Sheet is the worksheet holding the reference data.
	Sheet string

	// Name is the header of the consignee name column.
	Name string

	// Region is the header of the market area / region column.
	Region string
}

// Load reads the consignee reference workbook and builds the table.
//
// PARAMETERS:
//   - path: path to the reference workbook (.xlsx).
//   - cols: sheet and column names to read.
//
// RETURNS:
//   - The built Table.
//   - An error if the workbook cannot be opened or the required sheet or
//     columns are absent.
func Load(path string, cols Columns) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open consignee reference file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(cols.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", cols.Sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", cols.Sheet)
	}

	// Resolve header positions. Duplicate headers resolve to the first
	// occurrence.
	nameIdx, regionIdx := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case cols.Name:
			if nameIdx < 0 {
				nameIdx = i
			}
		case cols.Region:
			if regionIdx < 0 {
				regionIdx = i
			}
		}
	}
	if nameIdx < 0 || regionIdx < 0 {
		return nil, fmt.Errorf("sheet %q must have columns %q and %q", cols.Sheet, cols.Name, cols.Region)
	}

	entries := make(map[string]string)
	for _, row := range rows[1:] {
		entries[cell(row, nameIdx)] = cell(row, regionIdx)
	}

	return New(entries), nil
}

// Lookup resolves a consignee name (in any formatting) to its region code.
func (t *Table) Lookup(consignee string) (string, bool) {
	region, ok := t.regions[normalize.Consignee(consignee)]
	return region, ok
}

// Len returns the number of table entries.
func (t *Table) Len() int {
	return len(t.regions)
}

// cell safely reads a cell from a row, returning "" past the row's end.
func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
