package fabric

// PinMap states that CellType can be placed on Bels of a site type, with the
// listed cell pin to bel pin correspondence
type PinMap struct {
	CellType string    `json:"cell_type"`
	Bels     []string  `json:"bels"`
	Pins     []PinPair `json:"pins"`
}

type PinPair struct {
	CellPin string `json:"cell_pin"`
	BelPin  string `json:"bel_pin"`
}

// PinMapTable holds pin maps per site type name, as produced by the
// external pin-mapping step
type PinMapTable map[string][]PinMap

// PinMaps returns the pin maps of a site type; unknown site types have none
func (t PinMapTable) PinMaps(st *SiteType) []PinMap {
	if t == nil || st == nil {
		return nil
	}
	return t[st.Name]
}
