// Package wireformat serializes device documents into a sectioned container
// that can be read one record at a time.
//
// Each table of the document is a section with an offset table in front of
// its records, so a reader resolves a tile type, wire or string handle
// without scanning anything before it. Records are protobuf messages whose
// field numbers are listed in device.proto and next to each encoder below.
// Index lists are packed varints. Scalars equal to zero are omitted, repeated
// entries never are, so list lengths survive a round trip.
package wireformat

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
)

// Marshal encodes doc. The string table is the last section.
func Marshal(doc *device.Document) []byte {
	return assemble(sectionRecords(doc))
}

func sectionRecords(doc *device.Document) [numSections][][]byte {
	var sections [numSections][][]byte
	put := func(s Section, rec []byte) {
		sections[s-1] = append(sections[s-1], rec)
	}

	put(SectionName, []byte(doc.Name))
	for i := range doc.TileTypes {
		put(SectionTileTypes, encodeTileType(&doc.TileTypes[i]))
	}
	for i := range doc.SiteTypes {
		put(SectionSiteTypes, encodeSiteType(&doc.SiteTypes[i]))
	}
	for _, w := range doc.Wires {
		put(SectionWires, encodeWire(w))
	}
	for _, n := range doc.Nodes {
		put(SectionNodes, appendPacked(nil, 1, n.Wires))
	}
	for _, wt := range doc.WireTypes {
		put(SectionWireTypes, encodeWireType(wt))
	}
	for i := range doc.Tiles {
		put(SectionTiles, encodeTile(&doc.Tiles[i]))
	}
	put(SectionConstants, encodeConstants(&doc.Constants))
	for i := range doc.CellBelMap {
		put(SectionCellBelMap, encodeCellBelMapping(&doc.CellBelMap[i]))
	}
	for i := range doc.Packages {
		put(SectionPackages, encodePackage(&doc.Packages[i]))
	}
	put(SectionLUTDefinitions, encodeLUTDefinitions(&doc.LUTDefinitions))
	put(SectionParameterDefs, encodeParameterDefs(&doc.ParameterDefs))
	for _, s := range doc.Strings {
		put(SectionStrings, []byte(s))
	}
	return sections
}

// Wire: 1 tile, 2 wire, 3 type
func encodeWire(w device.Wire) []byte {
	var m []byte
	m = appendUint(m, 1, w.Tile)
	m = appendUint(m, 2, w.Wire)
	m = appendUint(m, 3, w.Type)
	return m
}

// WireType: 1 name, 2 category
func encodeWireType(wt device.WireType) []byte {
	var m []byte
	m = appendUint(m, 1, wt.Name)
	m = appendUint(m, 2, uint32(wt.Category))
	return m
}

// TileType: 1 name, 2 site_types, 3 wires, 4 pips, 5 constants
func encodeTileType(tt *device.TileType) []byte {
	var b []byte
	b = appendUint(b, 1, tt.Name)
	for _, st := range tt.SiteTypes {
		var m []byte
		m = appendUint(m, 1, st.PrimaryType)
		m = appendUint(m, 2, st.Name)
		m = appendSint(m, 3, st.RelX)
		m = appendSint(m, 4, st.RelY)
		m = appendPacked(m, 5, st.PrimaryPinsToTileWires)
		b = appendMessage(b, 2, m)
	}
	b = appendPacked(b, 3, tt.Wires)
	for i := range tt.PIPs {
		b = appendMessage(b, 4, encodePIP(&tt.PIPs[i]))
	}
	for _, c := range tt.Constants {
		var m []byte
		m = appendPacked(m, 1, c.Wires)
		m = appendUint(m, 2, uint32(c.Constant))
		b = appendMessage(b, 5, m)
	}
	return b
}

// PIP: 1 wire0, 2 wire1, 3 directional, 4 buffered20, 5 buffered21,
// 6 sub_tile, then one of 7 conventional or 8 pseudo_cells
func encodePIP(p *device.PIP) []byte {
	var b []byte
	b = appendUint(b, 1, p.Wire0)
	b = appendUint(b, 2, p.Wire1)
	b = appendBool(b, 3, p.Directional)
	b = appendBool(b, 4, p.Buffered20)
	b = appendBool(b, 5, p.Buffered21)
	b = appendUint(b, 6, p.SubTile)
	if p.Conventional() {
		return appendMessage(b, 7, nil)
	}
	var cells []byte
	for _, pc := range p.PseudoCells {
		var m []byte
		m = appendUint(m, 1, pc.Bel)
		m = appendPacked(m, 2, pc.Pins)
		cells = appendMessage(cells, 1, m)
	}
	return appendMessage(b, 8, cells)
}

// SiteType: 1 name, 2 last_input, 3 bels, 4 bel_pins, 5 site_wires,
// 6 site_pips, 7 pins
func encodeSiteType(st *device.SiteType) []byte {
	var b []byte
	b = appendUint(b, 1, st.Name)
	b = appendUint(b, 2, st.LastInput)
	for _, bel := range st.BELs {
		var m []byte
		m = appendUint(m, 1, bel.Name)
		m = appendUint(m, 2, bel.Type)
		m = appendUint(m, 3, uint32(bel.Category))
		m = appendBool(m, 4, bel.NonInverting)
		m = appendPacked(m, 5, bel.Pins)
		b = appendMessage(b, 3, m)
	}
	for _, bp := range st.BELPins {
		var m []byte
		m = appendUint(m, 1, bp.Name)
		m = appendUint(m, 2, uint32(bp.Dir))
		m = appendUint(m, 3, bp.BEL)
		b = appendMessage(b, 4, m)
	}
	for _, sw := range st.SiteWires {
		var m []byte
		m = appendUint(m, 1, sw.Name)
		m = appendPacked(m, 2, sw.Pins)
		b = appendMessage(b, 5, m)
	}
	for _, sp := range st.SitePIPs {
		var m []byte
		m = appendUint(m, 1, sp.InPin)
		m = appendUint(m, 2, sp.OutPin)
		b = appendMessage(b, 6, m)
	}
	for _, pin := range st.Pins {
		var m []byte
		m = appendUint(m, 1, pin.Name)
		m = appendUint(m, 2, uint32(pin.Dir))
		m = appendUint(m, 3, pin.BELPin)
		b = appendMessage(b, 7, m)
	}
	return b
}

// Tile: 1 name, 2 type, 3 row, 4 col, 5 sites, 6 sub_tiles_prefices
func encodeTile(t *device.Tile) []byte {
	var b []byte
	b = appendUint(b, 1, t.Name)
	b = appendUint(b, 2, t.Type)
	b = appendUint(b, 3, uint32(t.Row))
	b = appendUint(b, 4, uint32(t.Col))
	for _, s := range t.Sites {
		var m []byte
		m = appendUint(m, 1, s.Name)
		m = appendUint(m, 2, s.Type)
		b = appendMessage(b, 5, m)
	}
	return appendPacked(b, 6, t.SubTilesPrefices)
}

// Constants: 1 gnd_cell_type, 2 gnd_cell_pin, 3 vcc_cell_type,
// 4 vcc_cell_pin, 5 default_cell_conns {1 cell_type, 2 pins {1 name, 2 value}}
func encodeConstants(c *device.Constants) []byte {
	var b []byte
	b = appendUint(b, 1, c.GndCellType)
	b = appendUint(b, 2, c.GndCellPin)
	b = appendUint(b, 3, c.VccCellType)
	b = appendUint(b, 4, c.VccCellPin)
	for _, conn := range c.DefaultCellConns {
		var m []byte
		m = appendUint(m, 1, conn.CellType)
		for _, pin := range conn.Pins {
			var pm []byte
			pm = appendUint(pm, 1, pin.Name)
			pm = appendUint(pm, 2, uint32(pin.Value))
			m = appendMessage(m, 2, pm)
		}
		b = appendMessage(b, 5, m)
	}
	return b
}

// CellBelMapping: 1 cell, 2 common_pins {1 site_types {1 site_type, 2 bels},
// 2 pins {1 cell_pin, 2 bel_pin}}
func encodeCellBelMapping(cm *device.CellBelMapping) []byte {
	var b []byte
	b = appendUint(b, 1, cm.Cell)
	for _, cp := range cm.CommonPins {
		var m []byte
		for _, st := range cp.SiteTypes {
			var sm []byte
			sm = appendUint(sm, 1, st.SiteType)
			sm = appendPacked(sm, 2, st.BELs)
			m = appendMessage(m, 1, sm)
		}
		for _, pin := range cp.Pins {
			var pm []byte
			pm = appendUint(pm, 1, pin.CellPin)
			pm = appendUint(pm, 2, pin.BELPin)
			m = appendMessage(m, 2, pm)
		}
		b = appendMessage(b, 2, m)
	}
	return b
}

// Package: 1 name, 2 package_pins {1 package_pin, then one of
// 2 placed {1 site, 2 bel} or 3 unplaced}
func encodePackage(pkg *device.Package) []byte {
	var b []byte
	b = appendUint(b, 1, pkg.Name)
	for i := range pkg.PackagePins {
		pin := &pkg.PackagePins[i]
		var m []byte
		m = appendUint(m, 1, pin.PackagePin)
		if pin.Placed() {
			var placed []byte
			placed = appendUint(placed, 1, *pin.Site)
			placed = appendUint(placed, 2, *pin.BEL)
			m = appendMessage(m, 2, placed)
		} else {
			m = appendMessage(m, 3, nil)
		}
		b = appendMessage(b, 2, m)
	}
	return b
}

// LUTDefinitions: 1 lut_cells {1 cell, 2 input_pins, 3 init_param},
// 2 lut_elements {1 site, 2 luts {1 width, 2 bels {1 name, 2 input_pins,
// 3 output_pin, 4 low_bit, 5 high_bit}}}
func encodeLUTDefinitions(ld *device.LUTDefinitions) []byte {
	var b []byte
	for _, cell := range ld.LUTCells {
		var m []byte
		m = appendString(m, 1, cell.Cell)
		m = appendStrings(m, 2, cell.InputPins)
		m = appendString(m, 3, cell.InitParam)
		b = appendMessage(b, 1, m)
	}
	for _, elems := range ld.LUTElements {
		var m []byte
		m = appendString(m, 1, elems.Site)
		for _, lut := range elems.LUTs {
			var lm []byte
			lm = appendUint(lm, 1, lut.Width)
			for _, bel := range lut.BELs {
				var bm []byte
				bm = appendString(bm, 1, bel.Name)
				bm = appendStrings(bm, 2, bel.InputPins)
				bm = appendString(bm, 3, bel.OutputPin)
				bm = appendUint(bm, 4, bel.LowBit)
				bm = appendUint(bm, 5, bel.HighBit)
				lm = appendMessage(lm, 2, bm)
			}
			m = appendMessage(m, 2, lm)
		}
		b = appendMessage(b, 2, m)
	}
	return b
}

// ParameterDefs: 1 cells {1 cell_type, 2 parameters {1 name, 2 format,
// 3 default {1 key, 2 text_value}}}
func encodeParameterDefs(pd *device.ParameterDefs) []byte {
	var b []byte
	for _, cell := range pd.Cells {
		var m []byte
		m = appendUint(m, 1, cell.CellType)
		for _, param := range cell.Parameters {
			var pm []byte
			pm = appendUint(pm, 1, param.Name)
			pm = appendUint(pm, 2, uint32(param.Format))
			var prop []byte
			prop = appendUint(prop, 1, param.Default.Key)
			prop = appendUint(prop, 2, param.Default.TextValue)
			pm = appendMessage(pm, 3, prop)
			m = appendMessage(m, 2, pm)
		}
		b = appendMessage(b, 1, m)
	}
	return b
}

func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

func appendUint(b []byte, num protowire.Number, v uint32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendSint(b []byte, num protowire.Number, v int32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v)))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendStrings(b []byte, num protowire.Number, ss []string) []byte {
	for _, s := range ss {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return b
}

func appendPacked(b []byte, num protowire.Number, vs []uint32) []byte {
	if len(vs) == 0 {
		return b
	}
	size := 0
	for _, v := range vs {
		size += protowire.SizeVarint(uint64(v))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(size))
	for _, v := range vs {
		b = protowire.AppendVarint(b, uint64(v))
	}
	return b
}
