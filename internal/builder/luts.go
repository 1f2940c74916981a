package builder

import (
	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
)

const (
	lutWidth      = 16
	lutOutputPin  = "F"
	lutInitParam  = "INIT"
	lutInitFormat = device.FormatCHex
	lutInitValue  = "0x0000"
)

var lutInputPins = []string{"A", "B", "C", "D"}

func (p *pass) buildConstants() error {
	pin := p.ids.ID(p.names.ConstCellPin)
	c := device.Constants{
		GndCellType: p.ids.ID(p.names.GndCell),
		GndCellPin:  pin,
		VccCellType: p.ids.ID(p.names.VccCell),
		VccCellPin:  pin,
	}
	conn := device.DefaultCellConnections{
		CellType: p.ids.ID(p.names.LUTCell),
		Pins:     make([]device.DefaultCellConnection, len(lutInputPins)),
	}
	for i, name := range lutInputPins {
		conn.Pins[i] = device.DefaultCellConnection{Name: p.ids.ID(name), Value: device.CellPinGnd}
	}
	c.DefaultCellConns = []device.DefaultCellConnections{conn}
	p.doc.Constants = c
	return nil
}

// buildLUTDefinitions describes the LUT cell and one LUT element per LUT bel
// of the logic site type
func (p *pass) buildLUTDefinitions() error {
	p.doc.LUTDefinitions = device.LUTDefinitions{
		LUTCells: []device.LUTCell{{
			Cell:      p.names.LUTCell,
			InputPins: append([]string(nil), lutInputPins...),
			InitParam: lutInitParam,
		}},
		LUTElements: []device.LUTElements{},
	}

	idx, ok := p.siteTypes.ByName(p.names.LogicSiteType)
	if !ok {
		p.log.WithField("site_type", p.names.LogicSiteType).Warn("logic site type not found, no LUT elements emitted")
		return nil
	}
	luts := make([]device.LUTElement, 0, 8)
	for _, bel := range p.siteTypes.At(idx).Bels {
		if bel.Type != p.names.LUTBelType {
			continue
		}
		luts = append(luts, device.LUTElement{
			Width: lutWidth,
			BELs: []device.LUTBel{{
				Name:      bel.Name,
				InputPins: append([]string(nil), lutInputPins...),
				OutputPin: lutOutputPin,
				LowBit:    0,
				HighBit:   lutWidth - 1,
			}},
		})
	}
	p.doc.LUTDefinitions.LUTElements = append(p.doc.LUTDefinitions.LUTElements, device.LUTElements{
		Site: p.names.LogicSiteType,
		LUTs: luts,
	})
	return nil
}

func (p *pass) buildParameterDefs() error {
	cell := device.CellParameterDefinitions{
		CellType: p.ids.ID(p.names.LUTCell),
		Parameters: []device.ParameterDefinition{{
			Name:   p.ids.ID(lutInitParam),
			Format: lutInitFormat,
			Default: device.Property{
				Key:       p.ids.ID(lutInitParam),
				TextValue: p.ids.ID(lutInitValue),
			},
		}},
	}
	p.doc.ParameterDefs = device.ParameterDefs{Cells: []device.CellParameterDefinitions{cell}}
	return nil
}
