package jurisdiction

import "testing"

func testTable() *Table {
	return New(map[string]string{
		"Melbourne Cool Store": "vic",
		"  Sydney Markets ":    "NSW",
		"Empty Region":         "",
		"Spreadsheet Artifact": "NAN",
		"":                     "QLD",
	})
}

func TestLookup(t *testing.T) {
	table := testTable()

	tests := []struct {
		name       string
		consignee  string
		wantRegion string
		wantFound  bool
	}{
		{"plain match", "Melbourne Cool Store", "VIC", true},
		{"case and padding ignored", "  melbourne COOL store ", "VIC", true},
		{"internal whitespace collapsed", "Melbourne   Cool Store", "VIC", true},
		{"key normalized at build time", "Sydney Markets", "NSW", true},
		{"unknown consignee", "Adelaide Depot", "", false},
		{"empty region dropped at build", "Empty Region", "", false},
		{"NAN artifact dropped at build", "Spreadsheet Artifact", "", false},
		{"empty lookup", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, found := table.Lookup(tt.consignee)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if region != tt.wantRegion {
				t.Errorf("region = %q, want %q", region, tt.wantRegion)
			}
		})
	}
}

func TestLen(t *testing.T) {
	// Of the five entries, only the two real consignees survive.
	if got := testTable().Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}
