package builder

import (
	"strconv"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/fabric"
)

// tileTypeName returns the emitted name of tile type idx. The type of the
// first tile is the reserved null type.
func (p *pass) tileTypeName(idx int) string {
	if len(p.dev.Tiles) > 0 && p.dev.Tiles[0].Type == idx {
		return p.names.NullTileType
	}
	if name := p.dev.TileTypes[idx].Name; name != "" {
		return name
	}
	return p.names.TileTypePrefix + strconv.Itoa(idx)
}

func (p *pass) buildTileTypes() error {
	tts := p.dev.TileTypes
	out := make([]device.TileType, len(tts))
	for i := range tts {
		tt := &tts[i]
		ot := &out[i]
		name := p.tileTypeName(i)
		ot.Name = p.ids.ID(name)

		ot.SiteTypes = make([]device.SiteTypeInTileType, len(tt.Sites))
		for j := range tt.Sites {
			inst := &tt.Sites[j]
			if len(inst.PinTileWires) != len(inst.Type.Pins) {
				return invalidf("tile type %q: site %q maps %d pins to tile wires but its type %q has %d pins",
					name, inst.Name, len(inst.PinTileWires), inst.Type.Name, len(inst.Type.Pins))
			}
			idx := p.siteTypes.Canonicalize(&inst.Type)
			ot.SiteTypes[j] = device.SiteTypeInTileType{
				PrimaryType:            p.n.u32(idx, "site type index"),
				Name:                   p.ids.ID(inst.Name),
				RelX:                   p.n.i32(inst.RelX, "rel_x"),
				RelY:                   p.n.i32(inst.RelY, "rel_y"),
				PrimaryPinsToTileWires: p.internAll(inst.PinTileWires),
			}
		}

		ot.Wires = p.internAll(tt.Wires)

		pips, err := p.tileTypePIPs(name, tt)
		if err != nil {
			return err
		}
		ot.PIPs = pips
		ot.Constants = p.constantSources(tt)
	}
	p.doc.TileTypes = out
	return nil
}

func (p *pass) tileTypePIPs(name string, tt *fabric.TileType) ([]device.PIP, error) {
	out := make([]device.PIP, len(tt.Pips))
	for i := range tt.Pips {
		pip := &tt.Pips[i]
		if pip.Src < 0 || pip.Src >= len(tt.Wires) || pip.Dst < 0 || pip.Dst >= len(tt.Wires) {
			return nil, invalidf("tile type %q: pip %d connects wires %d -> %d outside its %d wires",
				name, i, pip.Src, pip.Dst, len(tt.Wires))
		}
		out[i] = device.PIP{
			Wire0:       p.n.u32(pip.Src, "pip wire"),
			Wire1:       p.n.u32(pip.Dst, "pip wire"),
			Directional: true,
			Buffered20:  true,
			Buffered21:  false,
			SubTile:     p.n.u32(pip.SubTile, "pip sub tile"),
		}
		if len(pip.PseudoCells) == 0 {
			continue
		}
		cells := make([]device.PseudoCell, len(pip.PseudoCells))
		for j, pc := range pip.PseudoCells {
			cells[j] = device.PseudoCell{
				Bel:  p.ids.ID(pc.Bel),
				Pins: p.internAll(pc.Pins),
			}
		}
		out[i].PseudoCells = cells
	}
	return out, nil
}

// constantSources marks the supply and ground wires of a tile type
func (p *pass) constantSources(tt *fabric.TileType) []device.WireConstantSources {
	out := make([]device.WireConstantSources, 0, 2)
	for _, c := range []struct {
		wire string
		kind device.ConstantType
	}{
		{p.names.VccWire, device.ConstantVcc},
		{p.names.GndWire, device.ConstantGnd},
	} {
		if idx, ok := tt.WireIndex(c.wire); ok {
			out = append(out, device.WireConstantSources{
				Wires:    []uint32{p.n.u32(idx, "wire index")},
				Constant: c.kind,
			})
		}
	}
	return out
}
