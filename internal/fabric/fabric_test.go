package fabric

import (
	"os"
	"path/filepath"
	"testing"
)

func plcSiteType() SiteType {
	return SiteType{
		Name:      "PLC",
		InputPins: 1,
		Bels: []Bel{
			{Name: "A0", Type: "OXIDE_COMB", Class: BelLogic, Pins: []int{0, 1}},
		},
		BelPins: []BelPin{
			{Name: "A", Dir: DirInput, Bel: "A0"},
			{Name: "F", Dir: DirOutput, Bel: "A0"},
		},
		SiteWires: []SiteWire{
			{Name: "A0", BelPins: []int{0}},
			{Name: "F0", BelPins: []int{1}},
		},
		SitePips: []SitePip{},
		Pins: []SitePin{
			{SiteWire: "A0", Dir: DirInput, BelPin: 0},
			{SiteWire: "F0", Dir: DirOutput, BelPin: 1},
		},
	}
}

func TestSiteTypeEqual(t *testing.T) {
	a := plcSiteType()
	b := plcSiteType()
	if !a.Equal(&b) {
		t.Fatalf("expected identical site types to be equal")
	}

	b.Bels[0].Pins = []int{1, 0}
	if a.Equal(&b) {
		t.Fatalf("expected reordered bel pins to make site types unequal")
	}

	c := plcSiteType()
	c.SitePips = nil
	if !a.Equal(&c) {
		t.Fatalf("expected nil and empty site pip lists to compare equal")
	}
}

func TestSiteTypeCloneIsDeep(t *testing.T) {
	orig := plcSiteType()
	clone := orig.Clone()
	if !orig.Equal(clone) {
		t.Fatalf("clone differs from original")
	}

	orig.Bels[0].Pins[0] = 7
	orig.SiteWires[1].BelPins[0] = 9
	orig.Pins[0].SiteWire = "changed"
	if clone.Bels[0].Pins[0] != 0 || clone.SiteWires[1].BelPins[0] != 1 || clone.Pins[0].SiteWire != "A0" {
		t.Fatalf("clone shares storage with original: %+v", clone)
	}
}

func TestPinMapTableLookup(t *testing.T) {
	st := plcSiteType()
	table := PinMapTable{
		"PLC": {{CellType: "LUT4", Bels: []string{"A0"}, Pins: []PinPair{{CellPin: "A", BelPin: "A"}}}},
	}
	if got := table.PinMaps(&st); len(got) != 1 || got[0].CellType != "LUT4" {
		t.Fatalf("expected LUT4 pin map, got %+v", got)
	}
	other := SiteType{Name: "PIO"}
	if got := table.PinMaps(&other); len(got) != 0 {
		t.Fatalf("expected no pin maps for PIO, got %+v", got)
	}
	var empty PinMapTable
	if got := empty.PinMaps(&st); got != nil {
		t.Fatalf("expected nil from empty table, got %+v", got)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.yaml")
	model := `
name: LIFCL-17
family: LIFCL
width: 4
height: 3
tile_types:
  - wires: ["G:VCC", X0]
    sites: []
    pips:
      - {src: 0, dst: 1, sub_tile: 0}
tiles:
  - {name: R0C0, x: 0, y: 0, type: 0, sub_tiles: [CIB]}
chip_tiles:
  - {name: "R0C0:CIB", x: 0, y: 0, type: CIB}
nodes:
  - wires: [{tile: R0C0, wire: X0}]
    root: {tile: R0C0, wire: X0}
    type: 0
iodb:
  packages: [CABGA256]
  pads:
    - {pins: [A1], side: T, offset: 1, pio: 0}
`
	if err := os.WriteFile(path, []byte(model), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	dev, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dev.Name != "LIFCL-17" || dev.Width != 4 || dev.Height != 3 {
		t.Fatalf("unexpected header: %+v", dev)
	}
	if len(dev.TileTypes) != 1 || len(dev.TileTypes[0].Pips) != 1 {
		t.Fatalf("expected 1 tile type with 1 pip, got %+v", dev.TileTypes)
	}
	if idx, ok := dev.TileTypes[0].WireIndex("X0"); !ok || idx != 1 {
		t.Fatalf("expected X0 at index 1, got %d %v", idx, ok)
	}
	if dev.ChipTiles[0].Name != "R0C0:CIB" {
		t.Fatalf("unexpected chip tile %+v", dev.ChipTiles[0])
	}
	if dev.IODB.Pads[0].Side != "T" || dev.IODB.Pads[0].Pins[0] != "A1" {
		t.Fatalf("unexpected pad %+v", dev.IODB.Pads[0])
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte(`{"name": "x", "bogus": 1}`)); err == nil {
		t.Fatalf("expected unknown field error")
	}
}
