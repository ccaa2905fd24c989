// =============================================================================
// Invoice Splitter - Parsed Invoice Loader
// =============================================================================
//
// PDF extraction happens outside this tool. The upstream parser emits one
// JSON record per invoice:
//
//   {
//     "company": "FG",
//     "invoice_no": "INV-10021",
//     "purchase_order": "PO-123",
//     "invoice_date": "21/07/2025",
//     "charges": {"Logistics": 1232.50, "Freight": 410.00},
//     "tray_count": 1450
//   }
//
// purchase_order may be empty and tray_count may be null when the parser
// could not read them; those become per-invoice failures downstream, not
// load errors here.
//
// =============================================================================

package invoice

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bussy7598/3PL-test/internal/types"
)

// Discover scans a directory for parsed-invoice JSON files. Results are
// sorted for deterministic processing order.
func Discover(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}

// Load reads a single parsed-invoice record.
//
// RETURNS:
//   - The invoice record with SourceFile set.
//   - An error if the file is unreadable, malformed, or lacks the company
//     or invoice number identity fields.
func Load(path string) (types.InvoiceRecord, error) {
	var rec types.InvoiceRecord

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("failed to read invoice file: %w", err)
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to parse invoice file: %w", err)
	}

	if strings.TrimSpace(rec.Company) == "" {
		return rec, fmt.Errorf("invoice file %s has no company", filepath.Base(path))
	}
	if strings.TrimSpace(rec.InvoiceNo) == "" {
		return rec, fmt.Errorf("invoice file %s has no invoice number", filepath.Base(path))
	}

	if rec.Charges == nil {
		rec.Charges = map[types.ChargeType]float64{}
	}
	rec.SourceFile = path

	return rec, nil
}
