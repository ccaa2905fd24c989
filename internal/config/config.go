// =============================================================================
// Invoice Splitter - Configuration Module
// =============================================================================
//
// This module loads the main application configuration (config.yaml). It
// carries everything deployment-specific:
//   - directories (input, output, archives, reference data)
//   - workbook column names (the core never hardcodes headers)
//   - the company table (card names + consignor aliases)
//   - compliance gate settings (reserved grower, required region)
//   - allocation knobs (crop label, tray rate, tax code, repack matching)
//
// Configuration is loaded once, given defaults, validated, and treated as
// read-only for the rest of the run.
//
// =============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bussy7598/3PL-test/internal/consignment"
	"github.com/bussy7598/3PL-test/internal/mapping"
)

// =============================================================================
// CONFIGURATION STRUCTURES
// =============================================================================

// Config is the main application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is where parsed-invoice JSON files are placed.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is where generated import files are placed.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir is where invoice files are moved after successful
	// processing. Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// DataDir holds the reference workbooks. Default: "./data"
	DataDir string `yaml:"data_dir"`

	// =========================================================================
	// REFERENCE FILES
	// =========================================================================

	// ConsignmentFile is the consignment summary workbook.
	// Default: "<data_dir>/consignment_summary.xlsx"
	ConsignmentFile string `yaml:"consignment_file"`

	// AccountMapsFile is the account maps workbook.
	// Default: "<data_dir>/account_maps.xlsx"
	AccountMapsFile string `yaml:"account_maps_file"`

	// ConsigneesFile is the consignee jurisdiction reference workbook.
	// Default: "<data_dir>/consignees.xlsx"
	ConsigneesFile string `yaml:"consignees_file"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// ExportNameFormat names generated import files. Placeholders:
	//   {uuid}      - a random UUID
	//   {timestamp} - current timestamp (YYYYMMDD_HHMMSS)
	//   {company}   - company code, or "repack" for correction runs
	// Default: "myob_import_{timestamp}_{uuid}.txt"
	ExportNameFormat string `yaml:"export_name_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency caps the number of invoices processed concurrently.
	// Set to 1 for sequential processing. Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// CropKeyword scopes consignment rows by crop. Default: "Blueberry"
	CropKeyword string `yaml:"crop_keyword"`

	// LogisticsTrayRate is the dollars-per-tray divisor for the
	// display-only tray estimate in Logistics descriptions. Default: 0.85
	LogisticsTrayRate float64 `yaml:"logistics_tray_rate"`

	// TaxCode is stamped on every ledger row. Default: "GST"
	TaxCode string `yaml:"tax_code"`

	// RepackCaseInsensitive folds case when matching growers against the
	// repack directive. The legacy behavior (false) matches exact trimmed
	// names even though mapping lookups fold case; flip this once the
	// product owner confirms the intended rule. Default: false
	RepackCaseInsensitive bool `yaml:"repack_case_insensitive"`

	// =========================================================================
	// COMPANY TABLE
	// =========================================================================

	// Companies maps company codes to their ledger card name and
	// consignor aliases.
	Companies map[string]CompanyConfig `yaml:"companies"`

	// =========================================================================
	// COMPLIANCE GATE
	// =========================================================================

	// Compliance configures the reserved-grower jurisdiction check.
	Compliance ComplianceConfig `yaml:"compliance"`

	// =========================================================================
	// WORKBOOK COLUMN NAMES
	// =========================================================================

	// ConsignmentColumns maps consignment summary headers.
	ConsignmentColumns consignment.Columns `yaml:"consignment_columns"`

	// MappingColumns maps account maps headers.
	MappingColumns mapping.Columns `yaml:"mapping_columns"`

	// Jurisdiction maps the consignee reference workbook layout.
	Jurisdiction JurisdictionConfig `yaml:"jurisdiction"`
}

// CompanyConfig is one company's deployment settings.
type CompanyConfig struct {
	// CardName is the ledger counterparty name ("Co./Last Name"). When
	// empty, the raw company code is used.
	CardName string `yaml:"card_name"`

	// Consignors are the consignor aliases that mark a consignment row as
	// belonging to this company.
	Consignors []string `yaml:"consignors"`
}

// ComplianceConfig configures the reserved-grower jurisdiction gate.
type ComplianceConfig struct {
	// Grower is the reserved grower name. Empty disables the gate.
	Grower string `yaml:"grower"`

	// Label is the short label used in the gate's failure text.
	// Default: "KING"
	Label string `yaml:"label"`

	// RequiredRegion is the region the consignee must resolve to.
	// Default: "VIC"
	RequiredRegion string `yaml:"required_region"`
}

// JurisdictionConfig names the consignee reference workbook layout.
type JurisdictionConfig struct {
	// Sheet holding the reference data. Default: "Data"
	Sheet string `yaml:"sheet"`

	// NameColumn is the consignee name header. Default: "Name"
	NameColumn string `yaml:"name_column"`

	// RegionColumn is the market area header. Default: "Market Area"
	RegionColumn string `yaml:"region_column"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads, defaults and validates the main configuration.
//
// PARAMETERS:
//   - configPath: path to config.yaml.
//
// RETURNS:
//   - The validated configuration.
//   - An error if the file cannot be read or parsed, or validation fails.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset options.
func applyDefaults(cfg *Config) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.InputArchiveDir == "" {
		cfg.InputArchiveDir = "./input_archive"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.ConsignmentFile == "" {
		cfg.ConsignmentFile = cfg.DataDir + "/consignment_summary.xlsx"
	}
	if cfg.AccountMapsFile == "" {
		cfg.AccountMapsFile = cfg.DataDir + "/account_maps.xlsx"
	}
	if cfg.ConsigneesFile == "" {
		cfg.ConsigneesFile = cfg.DataDir + "/consignees.xlsx"
	}
	if cfg.ExportNameFormat == "" {
		cfg.ExportNameFormat = "myob_import_{timestamp}_{uuid}.txt"
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.CropKeyword == "" {
		cfg.CropKeyword = "Blueberry"
	}
	if cfg.LogisticsTrayRate == 0 {
		cfg.LogisticsTrayRate = 0.85
	}
	if cfg.TaxCode == "" {
		cfg.TaxCode = "GST"
	}

	if cfg.Compliance.Label == "" {
		cfg.Compliance.Label = "KING"
	}
	if cfg.Compliance.RequiredRegion == "" {
		cfg.Compliance.RequiredRegion = "VIC"
	}

	// Workbook header defaults match the standard exports.
	c := &cfg.ConsignmentColumns
	if c.Consignor == "" {
		c.Consignor = "Consignor"
	}
	if c.Supplier == "" {
		c.Supplier = "Supplier"
	}
	if c.PurchaseOrder == "" {
		c.PurchaseOrder = "Customer PO"
	}
	if c.Trays == "" {
		c.Trays = "Trays"
	}
	if c.Crop == "" {
		c.Crop = "Crop"
	}
	if c.Consignee == "" {
		c.Consignee = "Consignee"
	}

	m := &cfg.MappingColumns
	if m.Supplier == "" {
		m.Supplier = "Supplier"
	}
	if m.Logistics == "" {
		m.Logistics = "Logistics Account"
	}
	if m.Freight == "" {
		m.Freight = "Freight Account"
	}
	if m.Job == "" {
		m.Job = "Job Code"
	}
	if m.RepackLogistics == "" {
		m.RepackLogistics = "Repack Logistics Account"
	}
	if m.RepackFreight == "" {
		m.RepackFreight = "Repack Freight Account"
	}

	if cfg.Jurisdiction.Sheet == "" {
		cfg.Jurisdiction.Sheet = "Data"
	}
	if cfg.Jurisdiction.NameColumn == "" {
		cfg.Jurisdiction.NameColumn = "Name"
	}
	if cfg.Jurisdiction.RegionColumn == "" {
		cfg.Jurisdiction.RegionColumn = "Market Area"
	}
}

// validate checks the configuration for unusable values.
func validate(cfg *Config) error {
	if len(cfg.Companies) == 0 {
		return fmt.Errorf("no companies configured")
	}
	for code, company := range cfg.Companies {
		if len(company.Consignors) == 0 {
			return fmt.Errorf("company %q has no consignor aliases", code)
		}
	}
	if cfg.LogisticsTrayRate <= 0 {
		return fmt.Errorf("logistics_tray_rate must be positive")
	}
	if cfg.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1")
	}
	return nil
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// CardNames returns the company -> card name table.
func (cfg *Config) CardNames() map[string]string {
	out := make(map[string]string, len(cfg.Companies))
	for code, company := range cfg.Companies {
		if company.CardName != "" {
			out[code] = company.CardName
		}
	}
	return out
}

// Consignors returns the company -> consignor alias table.
func (cfg *Config) Consignors() map[string][]string {
	out := make(map[string][]string, len(cfg.Companies))
	for code, company := range cfg.Companies {
		out[code] = company.Consignors
	}
	return out
}
