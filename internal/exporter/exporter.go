// =============================================================================
// Invoice Splitter - Ledger Export
// =============================================================================
//
// This module renders ledger rows as the tab-delimited import file the
// accounting system consumes: a header row, one line per ledger row in the
// exact field order below, and one blank separator line between invoice
// groups. Rows are grouped by supplier invoice number in first-seen order.
//
//   Co./Last Name | Date | Supplier Invoice No. | Description | Account No.
//   | Amount | Job | Tax Code | Comment
//
// Output files are named from a configurable format string with {uuid},
// {timestamp} and {company} placeholders.
//
// =============================================================================

package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bussy7598/3PL-test/internal/types"
)

// Header is the import file's column order. The accounting system matches
// on these names; do not reorder.
var Header = []string{
	"Co./Last Name",
	"Date",
	"Supplier Invoice No.",
	"Description",
	"Account No.",
	"Amount",
	"Job",
	"Tax Code",
	"Comment",
}

// Render produces the tab-delimited file content for the given rows.
// Consecutive rows sharing an invoice number form a group; a blank line
// separates groups. Row order is preserved.
func Render(rows []types.LedgerRow) string {
	var b strings.Builder

	b.WriteString(strings.Join(Header, "\t"))
	b.WriteString("\n")

	for i, row := range rows {
		if i > 0 && rows[i-1].InvoiceNo != row.InvoiceNo {
			b.WriteString("\n")
		}
		b.WriteString(strings.Join([]string{
			row.CardName,
			row.Date,
			row.InvoiceNo,
			row.Description,
			row.AccountNo,
			row.Amount.StringFixed(2),
			row.JobCode,
			row.TaxCode,
			row.Comment,
		}, "\t"))
		b.WriteString("\n")
	}

	return b.String()
}

// FileName expands the configured export name format.
//
// Placeholders:
//   {uuid}      - a random UUID
//   {timestamp} - current time as YYYYMMDD_HHMMSS
//   {company}   - the supplied label (a company code, or "repack")
//
// A .txt extension is appended when the format lacks one.
func FileName(format, company string) string {
	name := format
	name = strings.ReplaceAll(name, "{uuid}", uuid.New().String())
	name = strings.ReplaceAll(name, "{timestamp}", time.Now().Format("20060102_150405"))
	name = strings.ReplaceAll(name, "{company}", company)

	if filepath.Ext(name) != ".txt" {
		name += ".txt"
	}

	return name
}

// Write renders the rows and writes the import file into dir, named per
// the format string.
//
// RETURNS:
//   - The path of the written file.
//   - An error if the file cannot be written.
func Write(dir, format, company string, rows []types.LedgerRow) (string, error) {
	path := filepath.Join(dir, FileName(format, company))

	if err := os.WriteFile(path, []byte(Render(rows)), 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
