// =============================================================================
// Invoice Splitter - Repack Allocation Sheets
// =============================================================================
//
// When an invoice fails automated matching, the operator corrects it by
// entering the grower tray allocation by hand: tray counts per grower, with
// a repack flag for growers that must bill to repack accounts. Those
// entries live in a YAML allocation sheet keyed by the invoice's composite
// key:
//
//   "FG|INV-10021|PO-123":
//     - grower: Bellfield Orchard
//       trays: 960
//       repack: true
//     - grower: Harlow Berries
//       trays: 490
//
// A sheet never mutates an existing split; it always builds a new one, with
// shares = trays / total over the usable rows.
//
// =============================================================================

package repack

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Allocation is one operator-entered grower line.
type Allocation struct {
	// Grower is the grower name; matched against the mapping table later.
	Grower string `yaml:"grower"`

	// Trays is the tray count assigned to this grower.
	Trays float64 `yaml:"trays"`

	// Repack routes this grower to its repack accounts.
	Repack bool `yaml:"repack"`
}

// Sheet maps composite invoice keys to their entered allocations.
type Sheet map[string][]Allocation

// LoadSheet reads a repack allocation sheet.
func LoadSheet(path string) (Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read repack sheet: %w", err)
	}

	var sheet Sheet
	if err := yaml.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("failed to parse repack sheet: %w", err)
	}

	return sheet, nil
}

// Keys returns the sheet's invoice keys in sorted order.
func (s Sheet) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BuildSplit turns entered allocations into a fresh grower split and the
// repack directive. Rows with an empty grower name or non-positive trays
// are dropped; duplicate grower rows accumulate.
//
// RETURNS:
//   - shares: grower -> trays/total over the usable rows; nil when no row
//     is usable.
//   - repackGrowers: growers flagged repack among the usable rows, sorted.
//   - totalTrays: the total entered trays.
func BuildSplit(allocs []Allocation) (shares map[string]float64, repackGrowers []string, totalTrays float64) {
	type entered struct {
		trays  float64
		repack bool
	}
	usable := make(map[string]*entered)

	for _, a := range allocs {
		grower := strings.TrimSpace(a.Grower)
		if grower == "" || a.Trays <= 0 {
			continue
		}
		e, ok := usable[grower]
		if !ok {
			e = &entered{}
			usable[grower] = e
		}
		e.trays += a.Trays
		e.repack = e.repack || a.Repack
		totalTrays += a.Trays
	}

	if len(usable) == 0 || totalTrays <= 0 {
		return nil, nil, 0
	}

	shares = make(map[string]float64, len(usable))
	for grower, e := range usable {
		shares[grower] = e.trays / totalTrays
		if e.repack {
			repackGrowers = append(repackGrowers, grower)
		}
	}
	sort.Strings(repackGrowers)

	return shares, repackGrowers, totalTrays
}
