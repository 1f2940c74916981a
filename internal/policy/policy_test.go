package policy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
)

// consistentDocument is a minimal document with every cross reference in range
func consistentDocument() *device.Document {
	site := uint32(5)
	bel := uint32(6)
	return &device.Document{
		Name: "test",
		TileTypes: []device.TileType{{
			Name:      0,
			SiteTypes: []device.SiteTypeInTileType{{PrimaryType: 0, Name: 1}},
			Wires:     []uint32{2, 3},
			PIPs:      []device.PIP{{Wire0: 0, Wire1: 1, Directional: true, Buffered20: true}},
		}},
		SiteTypes:  []device.SiteType{{Name: 4}},
		CellBelMap: []device.CellBelMapping{},
		Wires:      []device.Wire{{Tile: 7, Wire: 2}, {Tile: 7, Wire: 3}},
		Nodes:      []device.Node{{Wires: []uint32{0, 1}}},
		WireTypes:  []device.WireType{{Name: 8, Category: device.WireGeneral}},
		Tiles: []device.Tile{{
			Name:  7,
			Type:  0,
			Sites: []device.Site{{Name: 5, Type: 0}},
		}},
		Packages: []device.Package{{
			Name: 9,
			PackagePins: []device.PackagePin{
				{PackagePin: 10, Site: &site, BEL: &bel},
				{PackagePin: 11},
			},
		}},
		LUTDefinitions: device.LUTDefinitions{
			LUTElements: []device.LUTElements{{Site: "PLC"}},
		},
		Strings: []string{
			"NULL", "SLICEA", "A0", "F0", "PLC", "R0C0_PIOA", "PAD_B",
			"R0C0:PLC", "GENERAL", "CABGA400", "A1", "A2",
		},
	}
}

func newAuditor(t *testing.T, dir string) *Auditor {
	t.Helper()
	a, err := New(context.Background(), dir)
	if err != nil {
		t.Fatalf("Failed to create auditor: %v", err)
	}
	return a
}

func TestConsistentDocumentHasNoViolations(t *testing.T) {
	a := newAuditor(t, "")
	result, err := a.Evaluate(context.Background(), consistentDocument())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(result.Violations) != 0 {
		t.Fatalf("expected no violations, got %v", result.Violations)
	}
	if result.Summary.TotalViolations != 0 {
		t.Fatalf("expected empty summary, got %+v", result.Summary)
	}
}

func TestIntegrityRules(t *testing.T) {
	a := newAuditor(t, "")

	tests := []struct {
		name   string
		mutate func(d *device.Document)
		rule   string
	}{
		{
			name:   "tile_name_out_of_range",
			mutate: func(d *device.Document) { d.Tiles[0].Name = 99 },
			rule:   "string_handle",
		},
		{
			name: "unplaced_pin_bel_out_of_range",
			mutate: func(d *device.Document) {
				bad := uint32(40)
				d.Packages[0].PackagePins[0].BEL = &bad
			},
			rule: "string_handle",
		},
		{
			name:   "duplicate_strings",
			mutate: func(d *device.Document) { d.Strings = append(d.Strings, "PLC") },
			rule:   "duplicate_string",
		},
		{
			name:   "node_wire_out_of_range",
			mutate: func(d *device.Document) { d.Nodes[0].Wires = []uint32{0, 1, 2} },
			rule:   "wire_index",
		},
		{
			name:   "wire_not_in_any_node",
			mutate: func(d *device.Document) { d.Nodes[0].Wires = []uint32{0} },
			rule:   "wire_coverage",
		},
		{
			name:   "wire_type_out_of_range",
			mutate: func(d *device.Document) { d.Wires[1].Type = 3 },
			rule:   "wire_type",
		},
		{
			name:   "tile_type_out_of_range",
			mutate: func(d *device.Document) { d.Tiles[0].Type = 1 },
			rule:   "tile_type_index",
		},
		{
			name:   "tile_site_slot_out_of_range",
			mutate: func(d *device.Document) { d.Tiles[0].Sites[0].Type = 1 },
			rule:   "tile_site",
		},
		{
			name:   "primary_type_out_of_range",
			mutate: func(d *device.Document) { d.TileTypes[0].SiteTypes[0].PrimaryType = 2 },
			rule:   "site_type_index",
		},
		{
			name:   "pip_wire_out_of_range",
			mutate: func(d *device.Document) { d.TileTypes[0].PIPs[0].Wire1 = 2 },
			rule:   "pip_wire",
		},
		{
			name:   "half_placed_pin",
			mutate: func(d *device.Document) { d.Packages[0].PackagePins[0].BEL = nil },
			rule:   "package_pin_placement",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := consistentDocument()
			tt.mutate(d)
			msgs, err := a.Audit(context.Background(), d)
			if err != nil {
				t.Fatalf("Audit: %v", err)
			}
			found := false
			for _, m := range msgs {
				if strings.HasPrefix(m, tt.rule+" ") {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected a %s violation, got %v", tt.rule, msgs)
			}
		})
	}
}

func TestMissingLUTElementsIsWarningOnly(t *testing.T) {
	a := newAuditor(t, "")
	d := consistentDocument()
	d.LUTDefinitions.LUTElements = []device.LUTElements{}

	result, err := a.Evaluate(context.Background(), d)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Summary.Warnings != 1 || result.Summary.Errors != 0 {
		t.Fatalf("expected 1 warning and no errors, got %+v", result.Summary)
	}
	msgs, err := a.Audit(context.Background(), d)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected warnings to be left out of Audit, got %v", msgs)
	}
}

func TestPolicyDirAddsRules(t *testing.T) {
	dir := t.TempDir()
	custom := `package fabric.integrity

import rego.v1

violations contains v if {
	count(input.tiles) < 2
	v := {"rule": "tile_count", "severity": "error", "message": "expected at least two tiles"}
}
`
	if err := os.WriteFile(filepath.Join(dir, "extra.rego"), []byte(custom), 0644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	a := newAuditor(t, dir)
	msgs, err := a.Audit(context.Background(), consistentDocument())
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "tile_count ") {
		t.Fatalf("expected only the custom violation, got %v", msgs)
	}
}
