// =============================================================================
// Invoice Splitter - Consignment Summary Loader
// =============================================================================
//
// This module reads the consignment summary workbook into strongly-typed
// rows. Column names are configuration, not hardcoded: each deployment maps
// its workbook headers once, and the schema is validated at load time. A
// missing required column is a fatal, run-aborting error.
//
// Tray counts are coerced to numeric at load; non-numeric cells count as 0,
// matching how the legacy tooling treated them.
//
// =============================================================================

package consignment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// ROW SCHEMA
// =============================================================================

// Row is one consignment summary line.
type Row struct {
	// Consignor is the entity handing over goods for transport. Used to
	// scope rows to a company's configured consignor aliases.
	Consignor string

	// Supplier is the grower whose product is on the consignment.
	Supplier string

	// PurchaseOrder links the row to an invoice.
	PurchaseOrder string

	// Trays is the tray count for this line. Non-numeric cells load as 0.
	Trays float64

	// Crop is the crop description (e.g. "Blueberry - Organic").
	Crop string

	// Consignee is the receiving party of the shipment.
	Consignee string
}

// Columns maps the workbook headers to the Row fields. All but Consignee
// are required.
type Columns struct {
	Consignor     string `yaml:"consignor"`
	Supplier      string `yaml:"supplier"`
	PurchaseOrder string `yaml:"purchase_order"`
	Trays         string `yaml:"trays"`
	Crop          string `yaml:"crop"`
	Consignee     string `yaml:"consignee"`
}

// =============================================================================
// LOADER
// =============================================================================

// Load reads the first sheet of the consignment summary workbook into typed
// rows.
//
// PARAMETERS:
//   - path: path to the consignment summary workbook (.xlsx).
//   - cols: the header names to read.
//
// RETURNS:
//   - The parsed rows.
//   - An error if the workbook cannot be opened or a required column is
//     absent.
func Load(path string, cols Columns) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open consignment summary: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("consignment summary has no sheets")
	}

	raw, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("consignment summary sheet %q is empty", sheetName)
	}

	idx := headerIndex(raw[0])

	// Validate the schema once, up front.
	required := map[string]string{
		cols.Consignor:     "consignor",
		cols.Supplier:      "supplier",
		cols.PurchaseOrder: "purchase order",
		cols.Trays:         "trays",
		cols.Crop:          "crop",
	}
	for header, role := range required {
		if _, ok := idx[header]; !ok {
			return nil, fmt.Errorf("consignment summary is missing the %s column %q", role, header)
		}
	}

	// The consignee column is optional; older summaries predate it.
	consigneeIdx, hasConsignee := idx[cols.Consignee]

	rows := make([]Row, 0, len(raw)-1)
	for _, r := range raw[1:] {
		if isRowEmpty(r) {
			continue
		}
		row := Row{
			Consignor:     cell(r, idx[cols.Consignor]),
			Supplier:      cell(r, idx[cols.Supplier]),
			PurchaseOrder: cell(r, idx[cols.PurchaseOrder]),
			Trays:         coerceTrays(cell(r, idx[cols.Trays])),
			Crop:          cell(r, idx[cols.Crop]),
		}
		if hasConsignee {
			row.Consignee = cell(r, consigneeIdx)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// headerIndex maps trimmed header names to their column positions.
// Duplicate headers resolve to the first occurrence.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, seen := idx[h]; h != "" && !seen {
			idx[h] = i
		}
	}
	return idx
}

// coerceTrays parses a tray-count cell, treating non-numeric values as 0.
func coerceTrays(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// cell safely reads a cell from a row, returning "" past the row's end.
func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
