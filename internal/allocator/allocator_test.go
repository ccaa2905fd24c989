package allocator

import (
	"reflect"
	"testing"

	"github.com/bussy7598/3PL-test/internal/mapping"
	"github.com/bussy7598/3PL-test/internal/types"
)

var testCols = mapping.Columns{
	Supplier:        "Supplier",
	Logistics:       "Logistics Account",
	Freight:         "Freight Account",
	Job:             "Job Code",
	RepackLogistics: "Repack Logistics Account",
	RepackFreight:   "Repack Freight Account",
}

func testTable() *mapping.Table {
	return mapping.NewTable([]mapping.Entry{
		{Supplier: "Bellfield Orchard", LogisticsAccount: "6-1100", FreightAccount: "6-1200", JobCode: "BEL", RepackLogisticsAccount: "6-1150", RepackFreightAccount: "6-1250"},
		{Supplier: "Harlow Berries", LogisticsAccount: "6-2100", FreightAccount: "6-2200", JobCode: "HAR", RepackLogisticsAccount: "6-2150", RepackFreightAccount: "6-2250"},
	}, testCols, true, true)
}

func testOptions() Options {
	return Options{
		CardNames: map[string]string{"FG": "Fresh Growers Pty Ltd"},
		TaxCode:   "GST",
		CropLabel: "Blueberry",
		TrayRate:  0.85,
	}
}

func baseRequest() Request {
	return Request{
		InvoiceNo:     "INV-10021",
		PurchaseOrder: "PO-123",
		InvoiceDate:   "21/07/2025",
		Company:       "FG",
		Charges:       map[types.ChargeType]float64{types.ChargeLogistics: 100},
		Split:         map[string]float64{"Bellfield Orchard": 0.6, "Harlow Berries": 0.4},
	}
}

// findRow picks the first row matching a job code; test fixtures keep one
// row per (grower, charge type).
func findRow(t *testing.T, rows []types.LedgerRow, jobCode, description string) types.LedgerRow {
	t.Helper()
	for _, r := range rows {
		if r.JobCode == jobCode && r.Description == description {
			return r
		}
	}
	t.Fatalf("no row with job %q and description %q in %v", jobCode, description, rows)
	return types.LedgerRow{}
}

func TestAllocateUnmappedGrowersFail(t *testing.T) {
	req := baseRequest()
	req.Split = map[string]float64{
		"Bellfield Orchard": 0.5,
		"Ghost Farm":        0.3,
		"Another Ghost":     0.2,
	}

	rows, failure := Allocate(req, testTable(), testOptions())

	if rows != nil {
		t.Errorf("expected no rows, got %d", len(rows))
	}
	if failure == nil {
		t.Fatal("expected a failure")
	}
	if failure.Kind != types.FailUnmappedGrowers {
		t.Errorf("kind = %q, want %q", failure.Kind, types.FailUnmappedGrowers)
	}
	// All missing growers are named, sorted, not just the first.
	if failure.Reason != "Another Ghost, Ghost Farm not in mapping" {
		t.Errorf("reason = %q", failure.Reason)
	}
}

func TestAllocateRepackOverride(t *testing.T) {
	req := baseRequest()
	req.RepackGrowers = []string{"Bellfield Orchard"}

	rows, failure := Allocate(req, testTable(), testOptions())
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure.Reason)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	// Tray estimate: 100 / 0.85 = 117.6... -> 118.
	bellfield := findRow(t, rows, "BEL", "118 x Blueberry Logistics BEL")
	if bellfield.AccountNo != "6-1150" {
		t.Errorf("repack grower account = %q, want repack logistics 6-1150", bellfield.AccountNo)
	}
	if got := bellfield.Amount.StringFixed(2); got != "60.00" {
		t.Errorf("repack grower amount = %s, want 60.00", got)
	}

	harlow := findRow(t, rows, "HAR", "118 x Blueberry Logistics HAR")
	if harlow.AccountNo != "6-2100" {
		t.Errorf("standard grower account = %q, want standard logistics 6-2100", harlow.AccountNo)
	}
	if got := harlow.Amount.StringFixed(2); got != "40.00" {
		t.Errorf("standard grower amount = %s, want 40.00", got)
	}
}

func TestAllocateMissingRepackColumns(t *testing.T) {
	table := mapping.NewTable([]mapping.Entry{
		{Supplier: "Bellfield Orchard", LogisticsAccount: "6-1100", FreightAccount: "6-1200", JobCode: "BEL"},
		{Supplier: "Harlow Berries", LogisticsAccount: "6-2100", FreightAccount: "6-2200", JobCode: "HAR"},
	}, testCols, false, false)

	req := baseRequest()
	req.RepackGrowers = []string{"Bellfield Orchard"}

	rows, failure := Allocate(req, table, testOptions())

	if rows != nil {
		t.Errorf("expected no rows, got %d", len(rows))
	}
	if failure == nil || failure.Kind != types.FailMissingRepackColumns {
		t.Fatalf("failure = %v, want MissingRepackColumns", failure)
	}
	if failure.Reason != "Missing repack columns in mapping: Repack Logistics Account, Repack Freight Account" {
		t.Errorf("reason = %q", failure.Reason)
	}
}

func TestAllocateRepackChargeTypeScoping(t *testing.T) {
	req := baseRequest()
	req.Charges = map[types.ChargeType]float64{
		types.ChargeLogistics: 100,
		types.ChargeFreight:   50,
	}
	req.RepackGrowers = []string{"Bellfield Orchard"}

	t.Run("nil scope applies repack to every charge type", func(t *testing.T) {
		rows, failure := Allocate(req, testTable(), testOptions())
		if failure != nil {
			t.Fatalf("unexpected failure: %v", failure.Reason)
		}
		bellLog := findRow(t, rows, "BEL", "118 x Blueberry Logistics BEL")
		bellFrt := findRow(t, rows, "BEL", "Blueberry Freight BEL")
		if bellLog.AccountNo != "6-1150" || bellFrt.AccountNo != "6-1250" {
			t.Errorf("accounts = %q/%q, want repack 6-1150/6-1250", bellLog.AccountNo, bellFrt.AccountNo)
		}
	})

	t.Run("scoped to freight only", func(t *testing.T) {
		opts := testOptions()
		opts.RepackChargeTypes = []types.ChargeType{types.ChargeFreight}

		rows, failure := Allocate(req, testTable(), opts)
		if failure != nil {
			t.Fatalf("unexpected failure: %v", failure.Reason)
		}
		bellLog := findRow(t, rows, "BEL", "118 x Blueberry Logistics BEL")
		bellFrt := findRow(t, rows, "BEL", "Blueberry Freight BEL")
		if bellLog.AccountNo != "6-1100" {
			t.Errorf("logistics account = %q, want standard 6-1100", bellLog.AccountNo)
		}
		if bellFrt.AccountNo != "6-1250" {
			t.Errorf("freight account = %q, want repack 6-1250", bellFrt.AccountNo)
		}
	})

	t.Run("explicitly empty scope disables repack routing", func(t *testing.T) {
		opts := testOptions()
		opts.RepackChargeTypes = []types.ChargeType{}

		// With no repack-applicable charge types, even a table without
		// repack columns must not fail the column precondition.
		table := mapping.NewTable([]mapping.Entry{
			{Supplier: "Bellfield Orchard", LogisticsAccount: "6-1100", FreightAccount: "6-1200", JobCode: "BEL"},
			{Supplier: "Harlow Berries", LogisticsAccount: "6-2100", FreightAccount: "6-2200", JobCode: "HAR"},
		}, testCols, false, false)

		rows, failure := Allocate(req, table, opts)
		if failure != nil {
			t.Fatalf("unexpected failure: %v", failure.Reason)
		}
		bellLog := findRow(t, rows, "BEL", "118 x Blueberry Logistics BEL")
		if bellLog.AccountNo != "6-1100" {
			t.Errorf("logistics account = %q, want standard 6-1100", bellLog.AccountNo)
		}
	})
}

func TestAllocateUnknownChargeTypeBillsAsFreight(t *testing.T) {
	// Any charge type other than Logistics falls through to the freight
	// account. New charge types silently billing as freight is the
	// documented (if suspicious) behavior; this test pins it.
	req := baseRequest()
	req.Split = map[string]float64{"Bellfield Orchard": 1.0}
	req.Charges = map[types.ChargeType]float64{"Fuel Levy": 80}

	rows, failure := Allocate(req, testTable(), testOptions())
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure.Reason)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].AccountNo != "6-1200" {
		t.Errorf("account = %q, want the freight account 6-1200", rows[0].AccountNo)
	}
	if rows[0].Description != "Blueberry Freight BEL" {
		t.Errorf("description = %q", rows[0].Description)
	}
}

func TestAllocateEmptyCharges(t *testing.T) {
	req := baseRequest()
	req.Charges = map[types.ChargeType]float64{}

	rows, failure := Allocate(req, testTable(), testOptions())

	if rows != nil {
		t.Errorf("expected no rows, got %d", len(rows))
	}
	if failure == nil || failure.Kind != types.FailEmptyAllocation {
		t.Fatalf("failure = %v, want EmptyAllocation", failure)
	}
	if failure.Reason != "No Logistics or Freight" {
		t.Errorf("reason = %q", failure.Reason)
	}
}

func TestAllocateDeterminism(t *testing.T) {
	req := baseRequest()
	req.Charges = map[types.ChargeType]float64{
		types.ChargeLogistics: 1232.5,
		types.ChargeFreight:   410,
		"Fuel Levy":           33.33,
	}

	first, failure := Allocate(req, testTable(), testOptions())
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure.Reason)
	}
	second, failure := Allocate(req, testTable(), testOptions())
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure.Reason)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("two allocations of identical inputs differ")
	}
}

func TestAllocateRoundingHalfEven(t *testing.T) {
	// Exact .005 boundaries round half-even: 0.005 -> 0.00, 0.045 -> 0.04.
	req := baseRequest()
	req.Split = map[string]float64{"Bellfield Orchard": 0.1, "Harlow Berries": 0.9}
	req.Charges = map[types.ChargeType]float64{types.ChargeFreight: 0.05}

	rows, failure := Allocate(req, testTable(), testOptions())
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure.Reason)
	}

	bell := findRow(t, rows, "BEL", "Blueberry Freight BEL")
	if got := bell.Amount.StringFixed(2); got != "0.00" {
		t.Errorf("0.05 x 0.1 rounded = %s, want 0.00 (half-even)", got)
	}
	harlow := findRow(t, rows, "HAR", "Blueberry Freight HAR")
	if got := harlow.Amount.StringFixed(2); got != "0.04" {
		t.Errorf("0.05 x 0.9 rounded = %s, want 0.04 (half-even)", got)
	}
}

func TestAllocateTrayEstimate(t *testing.T) {
	// 85 / 0.85 = 100 exactly; display only.
	req := baseRequest()
	req.Split = map[string]float64{"Bellfield Orchard": 1.0}
	req.Charges = map[types.ChargeType]float64{types.ChargeLogistics: 85}

	rows, failure := Allocate(req, testTable(), testOptions())
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure.Reason)
	}
	if rows[0].Description != "100 x Blueberry Logistics BEL" {
		t.Errorf("description = %q, want %q", rows[0].Description, "100 x Blueberry Logistics BEL")
	}
}

func TestAllocateCardNameResolution(t *testing.T) {
	t.Run("mapped company uses the card name", func(t *testing.T) {
		rows, failure := Allocate(baseRequest(), testTable(), testOptions())
		if failure != nil {
			t.Fatalf("unexpected failure: %v", failure.Reason)
		}
		if rows[0].CardName != "Fresh Growers Pty Ltd" {
			t.Errorf("card name = %q", rows[0].CardName)
		}
	})

	t.Run("unmapped company falls back to the raw identifier", func(t *testing.T) {
		req := baseRequest()
		req.Company = "ZZ"
		rows, failure := Allocate(req, testTable(), testOptions())
		if failure != nil {
			t.Fatalf("unexpected failure: %v", failure.Reason)
		}
		if rows[0].CardName != "ZZ" {
			t.Errorf("card name = %q, want ZZ", rows[0].CardName)
		}
	})
}

func TestAllocateRepackNameFolding(t *testing.T) {
	// The repack directive names the grower in a different case than the
	// split key. Legacy behavior (no folding) misses it; the folded
	// behavior matches it. Both are kept until the matching rule is
	// settled; this test documents the difference.
	req := baseRequest()
	req.Split = map[string]float64{"Bellfield Orchard": 1.0}
	req.RepackGrowers = []string{"bellfield orchard"}

	t.Run("folded matching routes to repack accounts", func(t *testing.T) {
		opts := testOptions()
		opts.FoldRepackNames = true

		rows, failure := Allocate(req, testTable(), opts)
		if failure != nil {
			t.Fatalf("unexpected failure: %v", failure.Reason)
		}
		if rows[0].AccountNo != "6-1150" {
			t.Errorf("account = %q, want repack 6-1150", rows[0].AccountNo)
		}
	})

	t.Run("legacy exact matching does not", func(t *testing.T) {
		opts := testOptions()
		opts.FoldRepackNames = false

		rows, failure := Allocate(req, testTable(), opts)
		if failure != nil {
			t.Fatalf("unexpected failure: %v", failure.Reason)
		}
		if rows[0].AccountNo != "6-1100" {
			t.Errorf("account = %q, want standard 6-1100", rows[0].AccountNo)
		}
	})
}

func TestAllocateRowFields(t *testing.T) {
	rows, failure := Allocate(baseRequest(), testTable(), testOptions())
	if failure != nil {
		t.Fatalf("unexpected failure: %v", failure.Reason)
	}

	row := findRow(t, rows, "BEL", "118 x Blueberry Logistics BEL")
	if row.Date != "21/07/2025" {
		t.Errorf("date = %q", row.Date)
	}
	if row.InvoiceNo != "INV-10021" {
		t.Errorf("invoice no = %q", row.InvoiceNo)
	}
	if row.TaxCode != "GST" {
		t.Errorf("tax code = %q", row.TaxCode)
	}
	if row.Comment != "PO-123" {
		t.Errorf("comment = %q, want the purchase order", row.Comment)
	}
}
