package builder

import (
	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/fabric"
)

func belCategory(c fabric.BelClass) (device.BELCategory, bool) {
	switch c {
	case fabric.BelLogic:
		return device.BELLogic, true
	case fabric.BelRouting:
		return device.BELRouting, true
	case fabric.BelPort:
		return device.BELSitePort, true
	}
	return 0, false
}

func direction(d fabric.PinDir) (device.Direction, bool) {
	switch d {
	case fabric.DirInput:
		return device.DirInput, true
	case fabric.DirOutput:
		return device.DirOutput, true
	case fabric.DirInout:
		return device.DirInout, true
	}
	return 0, false
}

// buildSiteTypes emits the canonical site types collected by the tile type stage
func (p *pass) buildSiteTypes() error {
	out := make([]device.SiteType, p.siteTypes.Len())
	for i := range out {
		st := p.siteTypes.At(i)
		if st.InputPins <= 0 {
			return invalidf("site type %q has no inputs", st.Name)
		}
		if st.InputPins > len(st.Pins) {
			return invalidf("site type %q declares %d input pins but has %d pins", st.Name, st.InputPins, len(st.Pins))
		}
		ost := &out[i]
		ost.Name = p.ids.ID(st.Name)
		ost.LastInput = p.n.u32(st.InputPins-1, "last input")

		pinCount := len(st.BelPins)
		ost.BELs = make([]device.BEL, len(st.Bels))
		for j := range st.Bels {
			bel := &st.Bels[j]
			cat, ok := belCategory(bel.Class)
			if !ok {
				return invalidf("site type %q: bel %q has unknown class %q", st.Name, bel.Name, bel.Class)
			}
			pins, err := p.pinIndices(bel.Pins, pinCount, st.Name, bel.Name)
			if err != nil {
				return err
			}
			ost.BELs[j] = device.BEL{
				Name:         p.ids.ID(bel.Name),
				Type:         p.ids.ID(bel.Type),
				Category:     cat,
				NonInverting: true,
				Pins:         pins,
			}
		}

		ost.BELPins = make([]device.BELPin, len(st.BelPins))
		for j := range st.BelPins {
			bp := &st.BelPins[j]
			dir, ok := direction(bp.Dir)
			if !ok {
				return invalidf("site type %q: bel pin %s.%s has unknown direction %q", st.Name, bp.Bel, bp.Name, bp.Dir)
			}
			ost.BELPins[j] = device.BELPin{
				Name: p.ids.ID(bp.Name),
				Dir:  dir,
				BEL:  p.ids.ID(bp.Bel),
			}
		}

		ost.SiteWires = make([]device.SiteWire, len(st.SiteWires))
		for j := range st.SiteWires {
			sw := &st.SiteWires[j]
			pins, err := p.pinIndices(sw.BelPins, pinCount, st.Name, sw.Name)
			if err != nil {
				return err
			}
			ost.SiteWires[j] = device.SiteWire{Name: p.ids.ID(sw.Name), Pins: pins}
		}

		ost.SitePIPs = make([]device.SitePIP, len(st.SitePips))
		for j, sp := range st.SitePips {
			if !inRange(sp.InPin, pinCount) || !inRange(sp.OutPin, pinCount) {
				return invalidf("site type %q: site pip %d references bel pins %d -> %d outside %d",
					st.Name, j, sp.InPin, sp.OutPin, pinCount)
			}
			ost.SitePIPs[j] = device.SitePIP{
				InPin:  p.n.u32(sp.InPin, "bel pin index"),
				OutPin: p.n.u32(sp.OutPin, "bel pin index"),
			}
		}

		ost.Pins = make([]device.SitePin, len(st.Pins))
		for j := range st.Pins {
			sp := &st.Pins[j]
			dir, ok := direction(sp.Dir)
			if !ok {
				return invalidf("site type %q: site pin %q has unknown direction %q", st.Name, sp.SiteWire, sp.Dir)
			}
			if !inRange(sp.BelPin, pinCount) {
				return invalidf("site type %q: site pin %q references bel pin %d outside %d", st.Name, sp.SiteWire, sp.BelPin, pinCount)
			}
			ost.Pins[j] = device.SitePin{
				Name:   p.ids.ID(sp.SiteWire),
				Dir:    dir,
				BELPin: p.n.u32(sp.BelPin, "bel pin index"),
			}
		}
	}
	p.doc.SiteTypes = out
	return nil
}

func inRange(v, n int) bool {
	return v >= 0 && v < n
}

func (p *pass) pinIndices(pins []int, limit int, siteType, owner string) ([]uint32, error) {
	out := make([]uint32, len(pins))
	for i, v := range pins {
		if !inRange(v, limit) {
			return nil, invalidf("site type %q: %q references bel pin %d outside %d", siteType, owner, v, limit)
		}
		out[i] = p.n.u32(v, "bel pin index")
	}
	return out, nil
}
