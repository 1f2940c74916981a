package builder

import (
	"slices"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/fabric"
)

type hostedPinMap struct {
	siteType string
	pinMap   fabric.PinMap
}

// buildCellBelMap groups pin maps by cell type. The ground and supply
// cells lead with no mappings, the rest follow in lexical order.
func (p *pass) buildCellBelMap() error {
	byCell := make(map[string][]hostedPinMap)
	if p.mapper != nil {
		for i := 0; i < p.siteTypes.Len(); i++ {
			st := p.siteTypes.At(i)
			for _, pm := range p.mapper.PinMaps(st) {
				byCell[pm.CellType] = append(byCell[pm.CellType], hostedPinMap{siteType: st.Name, pinMap: pm})
			}
		}
	}
	delete(byCell, p.names.GndCell)
	delete(byCell, p.names.VccCell)
	cells := make([]string, 0, len(byCell))
	for c := range byCell {
		cells = append(cells, c)
	}
	slices.Sort(cells)

	out := make([]device.CellBelMapping, 0, 2+len(cells))
	for _, constCell := range []string{p.names.GndCell, p.names.VccCell} {
		out = append(out, device.CellBelMapping{
			Cell:       p.ids.ID(constCell),
			CommonPins: []device.CommonCellBelPinMaps{},
		})
	}
	for _, cell := range cells {
		hosted := byCell[cell]
		m := device.CellBelMapping{
			Cell:       p.ids.ID(cell),
			CommonPins: make([]device.CommonCellBelPinMaps, len(hosted)),
		}
		for j, h := range hosted {
			pins := make([]device.CellBelPinEntry, len(h.pinMap.Pins))
			site := device.SiteTypeBelEntry{
				SiteType: p.ids.ID(h.siteType),
				BELs:     p.internAll(h.pinMap.Bels),
			}
			for k, pair := range h.pinMap.Pins {
				pins[k] = device.CellBelPinEntry{
					CellPin: p.ids.ID(pair.CellPin),
					BELPin:  p.ids.ID(pair.BelPin),
				}
			}
			m.CommonPins[j] = device.CommonCellBelPinMaps{
				SiteTypes: []device.SiteTypeBelEntry{site},
				Pins:      pins,
			}
		}
		out = append(out, m)
	}
	p.doc.CellBelMap = out
	return nil
}
