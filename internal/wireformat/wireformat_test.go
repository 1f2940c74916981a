package wireformat

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
)

// sampleDocument uses nil for every empty list so it compares equal to its
// decoded form
func sampleDocument() *device.Document {
	site := uint32(9)
	bel := uint32(10)
	return &device.Document{
		Name: "LIFCL-40",
		TileTypes: []device.TileType{{
			Name: 1,
			SiteTypes: []device.SiteTypeInTileType{{
				PrimaryType:            0,
				Name:                   2,
				RelX:                   -1,
				RelY:                   3,
				PrimaryPinsToTileWires: []uint32{3, 4},
			}},
			Wires: []uint32{3, 4, 5},
			PIPs: []device.PIP{
				{Wire0: 0, Wire1: 1, Directional: true, Buffered20: true},
				{Wire0: 1, Wire1: 2, Directional: true, Buffered20: true, SubTile: 1,
					PseudoCells: []device.PseudoCell{{Bel: 6, Pins: []uint32{7, 8}}}},
			},
			Constants: []device.WireConstantSources{{Wires: []uint32{2}, Constant: device.ConstantGnd}},
		}},
		SiteTypes: []device.SiteType{{
			Name:      2,
			LastInput: 1,
			BELs:      []device.BEL{{Name: 6, Type: 7, Category: device.BELRouting, NonInverting: true, Pins: []uint32{0, 1}}},
			BELPins:   []device.BELPin{{Name: 3, Dir: device.DirInput, BEL: 6}, {Name: 4, Dir: device.DirOutput, BEL: 6}},
			SiteWires: []device.SiteWire{{Name: 3, Pins: []uint32{0}}},
			SitePIPs:  []device.SitePIP{{InPin: 0, OutPin: 1}},
			Pins:      []device.SitePin{{Name: 3, Dir: device.DirInout, BELPin: 0}},
		}},
		Wires:     []device.Wire{{Tile: 8, Wire: 3}, {Tile: 8, Wire: 4, Type: 2}},
		Nodes:     []device.Node{{Wires: []uint32{0, 1}}},
		WireTypes: []device.WireType{{Name: 5, Category: device.WireGlobal}},
		Tiles: []device.Tile{{
			Name:             8,
			Type:             0,
			Row:              65535,
			Col:              7,
			Sites:            []device.Site{{Name: 9, Type: 0}},
			SubTilesPrefices: []uint32{1},
		}},
		Constants: device.Constants{
			GndCellType: 1,
			GndCellPin:  2,
			VccCellType: 3,
			VccCellPin:  2,
			DefaultCellConns: []device.DefaultCellConnections{{
				CellType: 4,
				Pins:     []device.DefaultCellConnection{{Name: 3, Value: device.CellPinGnd}, {Name: 4, Value: device.CellPinVcc}},
			}},
		},
		CellBelMap: []device.CellBelMapping{
			{Cell: 1},
			{Cell: 4, CommonPins: []device.CommonCellBelPinMaps{{
				SiteTypes: []device.SiteTypeBelEntry{{SiteType: 2, BELs: []uint32{6}}},
				Pins:      []device.CellBelPinEntry{{CellPin: 3, BELPin: 4}},
			}}},
		},
		Packages: []device.Package{{
			Name: 5,
			PackagePins: []device.PackagePin{
				{PackagePin: 3, Site: &site, BEL: &bel},
				{PackagePin: 4},
			},
		}},
		LUTDefinitions: device.LUTDefinitions{
			LUTCells: []device.LUTCell{{Cell: "LUT4", InputPins: []string{"A", "B", "C", "D"}, InitParam: "INIT"}},
			LUTElements: []device.LUTElements{{
				Site: "PLC",
				LUTs: []device.LUTElement{{Width: 16, BELs: []device.LUTBel{{
					Name: "K0", InputPins: []string{"A", "B", "C", "D"}, OutputPin: "F", HighBit: 15,
				}}}},
			}},
		},
		ParameterDefs: device.ParameterDefs{Cells: []device.CellParameterDefinitions{{
			CellType: 4,
			Parameters: []device.ParameterDefinition{{
				Name: 11, Format: device.FormatCHex, Default: device.Property{Key: 11, TextValue: 12},
			}},
		}}},
		Strings: []string{"", "NULL", "PLC", "A0", "B0", "GLOBAL", "K0", "OXIDE_COMB",
			"R1C7", "R1C7_PIOA", "PAD_B", "INIT", "0x0000"},
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	doc := sampleDocument()
	back, err := Unmarshal(Marshal(doc))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(doc, back) {
		t.Fatalf("round trip mismatch\nexpected %+v\ngot      %+v", doc, back)
	}
}

func TestStringTableIsWrittenLast(t *testing.T) {
	data := Marshal(sampleDocument())
	r, err := NewReader(data)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	st := r.sections[SectionStrings-1]
	for s := SectionName; s < SectionStrings; s++ {
		if r.sections[s-1].table >= st.table {
			t.Fatalf("section %s starts after the string table", s)
		}
	}
	if end := st.records + st.size; end != len(data) {
		t.Fatalf("string table ends at %d, document at %d", end, len(data))
	}
}

func TestReaderResolvesSingleRecords(t *testing.T) {
	doc := sampleDocument()
	r, err := NewReader(Marshal(doc))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	if got := r.Len(SectionStrings); got != len(doc.Strings) {
		t.Fatalf("Len(strings) = %d, expected %d", got, len(doc.Strings))
	}
	if got, err := r.String(3); err != nil || got != "A0" {
		t.Fatalf("String(3) = %q, %v", got, err)
	}
	if got, err := r.Name(); err != nil || got != doc.Name {
		t.Fatalf("Name() = %q, %v", got, err)
	}

	tests := []struct {
		name     string
		get      func() (any, error)
		expected any
	}{
		{"tile_type", func() (any, error) { return r.TileType(0) }, doc.TileTypes[0]},
		{"site_type", func() (any, error) { return r.SiteType(0) }, doc.SiteTypes[0]},
		{"wire", func() (any, error) { return r.Wire(1) }, doc.Wires[1]},
		{"node", func() (any, error) { return r.Node(0) }, doc.Nodes[0]},
		{"wire_type", func() (any, error) { return r.WireType(0) }, doc.WireTypes[0]},
		{"tile", func() (any, error) { return r.Tile(0) }, doc.Tiles[0]},
		{"cell_bel_map", func() (any, error) { return r.CellBelMapping(1) }, doc.CellBelMap[1]},
		{"package", func() (any, error) { return r.Package(0) }, doc.Packages[0]},
		{"constants", func() (any, error) { return r.Constants() }, doc.Constants},
		{"lut_definitions", func() (any, error) { return r.LUTDefinitions() }, doc.LUTDefinitions},
		{"parameter_defs", func() (any, error) { return r.ParameterDefs() }, doc.ParameterDefs},
		{"record_by_section", func() (any, error) { return r.Record(SectionStrings, 10) }, "PAD_B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.get()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestReaderOutOfRange(t *testing.T) {
	r, err := NewReader(Marshal(sampleDocument()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	tests := []struct {
		name    string
		section Section
		index   int
	}{
		{"string_past_end", SectionStrings, 13},
		{"negative_wire", SectionWires, -1},
		{"wire_past_end", SectionWires, 2},
		{"second_constants", SectionConstants, 1},
		{"second_name", SectionName, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Record(tt.section, tt.index); !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("expected ErrOutOfRange, got %v", err)
			}
		})
	}
}

func TestReaderIsolatesCorruptRecords(t *testing.T) {
	recs := sectionRecords(sampleDocument())
	recs[SectionTileTypes-1][0] = []byte{0x80}
	data := assemble(recs)

	r, err := NewReader(data)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.TileType(0); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for the tile type, got %v", err)
	}
	if got, err := r.String(9); err != nil || got != "R1C7_PIOA" {
		t.Fatalf("String(9) = %q, %v", got, err)
	}
	if _, err := r.Wire(1); err != nil {
		t.Fatalf("Wire(1): %v", err)
	}
	if _, err := Unmarshal(data); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected Unmarshal to fail, got %v", err)
	}
}

func TestParseSection(t *testing.T) {
	for s := SectionName; s <= SectionStrings; s++ {
		got, err := ParseSection(s.String())
		if err != nil || got != s {
			t.Fatalf("ParseSection(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseSection("bels"); err == nil {
		t.Fatalf("expected an error for an unknown section")
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	valid := Marshal(sampleDocument())
	setByte := func(pos int, v byte) []byte {
		b := append([]byte(nil), valid...)
		b[pos] = v
		return b
	}
	withRecord := func(s Section, rec []byte) []byte {
		recs := sectionRecords(sampleDocument())
		recs[s-1] = [][]byte{rec}
		return assemble(recs)
	}
	twoConstants := sectionRecords(sampleDocument())
	twoConstants[SectionConstants-1] = append(twoConstants[SectionConstants-1], nil)

	wiresTable := func() int {
		r, err := NewReader(valid)
		if err != nil {
			t.Fatalf("NewReader: %v", err)
		}
		return r.sections[SectionWires-1].table
	}()
	recordEnd := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint64(recordEnd[wiresTable+8:], 1<<40)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad_magic", setByte(0, 'X')},
		{"bad_version", setByte(4, 2)},
		{"truncated_directory", valid[:headerSize+dirEntrySize]},
		{"truncated_records", valid[:len(valid)-1]},
		{"repeated_section", setByte(headerSize+dirEntrySize, 1)},
		{"offset_beyond_end", setByte(headerSize+dirEntrySize+15, 0xff)},
		{"record_beyond_section", recordEnd},
		{"two_constants_records", assemble(twoConstants)},
		{"wrong_wire_type", withRecord(SectionWires, appendMessage(nil, 1, nil))},
		{"truncated_message", withRecord(SectionTiles, protowire.AppendTag(nil, 5, protowire.BytesType))},
		{"pip_without_kind", withRecord(SectionTileTypes, appendMessage(nil, 4, appendUint(nil, 1, 1)))},
		{"pin_with_two_placements", withRecord(SectionPackages, appendMessage(nil, 2,
			appendMessage(appendMessage(nil, 2, nil), 3, nil)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal(tt.data)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

var schemaField = regexp.MustCompile(`^\s*(?:repeated\s+)?\w+\s+\w+\s*=\s*(\d+);`)

// schemaFields maps each top-level message of Schema to its field numbers
func schemaFields(t *testing.T) map[string]map[protowire.Number]bool {
	t.Helper()
	out := map[string]map[protowire.Number]bool{}
	var current string
	for _, line := range strings.Split(Schema, "\n") {
		if name, ok := strings.CutPrefix(line, "message "); ok {
			current = strings.Fields(name)[0]
			out[current] = map[protowire.Number]bool{}
			continue
		}
		if m := schemaField.FindStringSubmatch(line); m != nil && current != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				t.Fatalf("schema line %q: %v", line, err)
			}
			out[current][protowire.Number(n)] = true
		}
	}
	return out
}

func TestSchemaDeclaresEncodedFields(t *testing.T) {
	fields := schemaFields(t)
	messages := map[Section]string{
		SectionTileTypes:      "TileType",
		SectionSiteTypes:      "SiteType",
		SectionWires:          "Wire",
		SectionNodes:          "Node",
		SectionWireTypes:      "WireType",
		SectionTiles:          "Tile",
		SectionConstants:      "Constants",
		SectionCellBelMap:     "CellBelMapping",
		SectionPackages:       "Package",
		SectionLUTDefinitions: "LUTDefinitions",
		SectionParameterDefs:  "ParameterDefs",
	}
	recs := sectionRecords(sampleDocument())
	for section, message := range messages {
		declared, ok := fields[message]
		if !ok {
			t.Fatalf("schema has no message %s", message)
		}
		for i, rec := range recs[section-1] {
			err := eachField(rec, func(f field) error {
				if !declared[f.num] {
					t.Errorf("%s[%d] writes field %d not declared in %s", section, i, f.num, message)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("%s[%d]: %v", section, i, err)
			}
		}
	}
}

func TestWriteFileReadFile(t *testing.T) {
	for _, compress := range []bool{true, false} {
		dir := t.TempDir()
		path := filepath.Join(dir, "out", "device.bin")
		doc := sampleDocument()
		if err := WriteFile(path, doc, compress); err != nil {
			t.Fatalf("WriteFile(compress=%v): %v", compress, err)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		isGzip := len(raw) > 1 && raw[0] == 0x1f && raw[1] == 0x8b
		if isGzip != compress {
			t.Fatalf("compress=%v but gzip header present=%v", compress, isGzip)
		}

		back, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if !reflect.DeepEqual(doc, back) {
			t.Fatalf("file round trip mismatch (compress=%v)", compress)
		}

		entries, err := os.ReadDir(filepath.Dir(path))
		if err != nil {
			t.Fatalf("readdir: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected only the output file, got %d entries", len(entries))
		}
	}
}

func TestWriteFileFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.bin")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := WriteFile(path, sampleDocument(), true); err == nil {
		t.Fatalf("expected error replacing a directory")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		t.Fatalf("expected the temporary file to be removed, got %d entries", len(entries))
	}
}
