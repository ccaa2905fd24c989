package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `companies:
  FG:
    card_name: Fresh Growers Pty Ltd
    consignors:
      - Fresh Growers
      - FG Logistics
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.InputDir != "./input" || cfg.OutputDir != "./output" {
		t.Errorf("dirs = %q/%q", cfg.InputDir, cfg.OutputDir)
	}
	if cfg.ConsignmentFile != "./data/consignment_summary.xlsx" {
		t.Errorf("consignment file = %q", cfg.ConsignmentFile)
	}
	if cfg.ExportNameFormat != "myob_import_{timestamp}_{uuid}.txt" {
		t.Errorf("export format = %q", cfg.ExportNameFormat)
	}
	if cfg.MaxConcurrency != 4 {
		t.Errorf("max concurrency = %d", cfg.MaxConcurrency)
	}
	if cfg.CropKeyword != "Blueberry" || cfg.TaxCode != "GST" {
		t.Errorf("crop/tax = %q/%q", cfg.CropKeyword, cfg.TaxCode)
	}
	if cfg.LogisticsTrayRate != 0.85 {
		t.Errorf("tray rate = %v", cfg.LogisticsTrayRate)
	}
	if cfg.RepackCaseInsensitive {
		t.Error("repack matching defaulted to case-insensitive")
	}
	if cfg.Compliance.Label != "KING" || cfg.Compliance.RequiredRegion != "VIC" {
		t.Errorf("compliance = %+v", cfg.Compliance)
	}
	if cfg.Compliance.Grower != "" {
		t.Errorf("compliance grower = %q, want the gate disabled by default", cfg.Compliance.Grower)
	}
	if cfg.ConsignmentColumns.PurchaseOrder != "Customer PO" {
		t.Errorf("PO column = %q", cfg.ConsignmentColumns.PurchaseOrder)
	}
	if cfg.MappingColumns.RepackLogistics != "Repack Logistics Account" {
		t.Errorf("repack logistics column = %q", cfg.MappingColumns.RepackLogistics)
	}
	if cfg.Jurisdiction.Sheet != "Data" || cfg.Jurisdiction.RegionColumn != "Market Area" {
		t.Errorf("jurisdiction = %+v", cfg.Jurisdiction)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `input_dir: /srv/invoices
data_dir: /srv/reference
max_concurrency: 1
crop_keyword: Raspberry
logistics_tray_rate: 1.2
repack_case_insensitive: true
compliance:
  grower: Kinglake Farms
  label: KLK
  required_region: NSW
consignment_columns:
  purchase_order: PO Number
companies:
  FG:
    consignors: [Fresh Growers]
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.InputDir != "/srv/invoices" {
		t.Errorf("input dir = %q", cfg.InputDir)
	}
	// Reference file defaults derive from the overridden data dir.
	if cfg.AccountMapsFile != "/srv/reference/account_maps.xlsx" {
		t.Errorf("account maps file = %q", cfg.AccountMapsFile)
	}
	if cfg.MaxConcurrency != 1 {
		t.Errorf("max concurrency = %d", cfg.MaxConcurrency)
	}
	if cfg.CropKeyword != "Raspberry" || cfg.LogisticsTrayRate != 1.2 {
		t.Errorf("crop/rate = %q/%v", cfg.CropKeyword, cfg.LogisticsTrayRate)
	}
	if !cfg.RepackCaseInsensitive {
		t.Error("repack_case_insensitive not honored")
	}
	if cfg.Compliance.Grower != "Kinglake Farms" || cfg.Compliance.Label != "KLK" || cfg.Compliance.RequiredRegion != "NSW" {
		t.Errorf("compliance = %+v", cfg.Compliance)
	}
	if cfg.ConsignmentColumns.PurchaseOrder != "PO Number" {
		t.Errorf("PO column = %q", cfg.ConsignmentColumns.PurchaseOrder)
	}
	// Unset columns still default.
	if cfg.ConsignmentColumns.Trays != "Trays" {
		t.Errorf("trays column = %q", cfg.ConsignmentColumns.Trays)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no companies", `input_dir: ./in`},
		{"company without consignors", "companies:\n  FG:\n    card_name: Fresh Growers\n"},
		{"negative tray rate", minimalConfig + "logistics_tray_rate: -0.5\n"},
		{"negative concurrency", minimalConfig + "max_concurrency: -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := Load(writeConfig(t, "companies: [unclosed")); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestDerivedViews(t *testing.T) {
	cfg, err := Load(writeConfig(t, `companies:
  FG:
    card_name: Fresh Growers Pty Ltd
    consignors: [Fresh Growers]
  HB:
    consignors: [Harlow Holdings, HB Transport]
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cards := cfg.CardNames()
	if cards["FG"] != "Fresh Growers Pty Ltd" {
		t.Errorf("FG card name = %q", cards["FG"])
	}
	// Companies without a card name are absent; callers fall back to the code.
	if _, ok := cards["HB"]; ok {
		t.Error("HB should have no card name entry")
	}

	consignors := cfg.Consignors()
	if len(consignors["HB"]) != 2 {
		t.Errorf("HB consignors = %v", consignors["HB"])
	}
}
