package fabric

import "slices"

// Equal reports full structural equality of two site type definitions
func (st *SiteType) Equal(other *SiteType) bool {
	if st == other {
		return true
	}
	if st == nil || other == nil {
		return false
	}
	if st.Name != other.Name || st.InputPins != other.InputPins {
		return false
	}
	return slices.EqualFunc(st.Bels, other.Bels, func(a, b Bel) bool {
		return a.Name == b.Name && a.Type == b.Type && a.Class == b.Class && slices.Equal(a.Pins, b.Pins)
	}) &&
		slices.Equal(st.BelPins, other.BelPins) &&
		slices.EqualFunc(st.SiteWires, other.SiteWires, func(a, b SiteWire) bool {
			return a.Name == b.Name && slices.Equal(a.BelPins, b.BelPins)
		}) &&
		slices.Equal(st.SitePips, other.SitePips) &&
		slices.Equal(st.Pins, other.Pins)
}

// Clone returns a deep copy that shares no slices with st
func (st *SiteType) Clone() *SiteType {
	out := &SiteType{
		Name:      st.Name,
		InputPins: st.InputPins,
		Bels:      make([]Bel, len(st.Bels)),
		BelPins:   slices.Clone(st.BelPins),
		SiteWires: make([]SiteWire, len(st.SiteWires)),
		SitePips:  slices.Clone(st.SitePips),
		Pins:      slices.Clone(st.Pins),
	}
	for i, b := range st.Bels {
		b.Pins = slices.Clone(b.Pins)
		out.Bels[i] = b
	}
	for i, w := range st.SiteWires {
		w.BelPins = slices.Clone(w.BelPins)
		out.SiteWires[i] = w
	}
	return out
}
