package device

// Stats provides counts of the document's tables
type Stats struct {
	Name         string `json:"name"`
	TileTypes    int    `json:"tile_types"`
	SiteTypes    int    `json:"site_types"`
	Tiles        int    `json:"tiles"`
	Sites        int    `json:"sites"`
	Wires        int    `json:"wires"`
	Nodes        int    `json:"nodes"`
	PIPs         int    `json:"pips"`
	PseudoPIPs   int    `json:"pseudo_pips"`
	CellTypes    int    `json:"cell_types"`
	Packages     int    `json:"packages"`
	PackagePins  int    `json:"package_pins"`
	UnplacedPins int    `json:"unplaced_pins"`
	Strings      int    `json:"strings"`
}

// Stats summarizes the document
func (d *Document) Stats() Stats {
	s := Stats{
		Name:      d.Name,
		TileTypes: len(d.TileTypes),
		SiteTypes: len(d.SiteTypes),
		Tiles:     len(d.Tiles),
		Wires:     len(d.Wires),
		Nodes:     len(d.Nodes),
		CellTypes: len(d.CellBelMap),
		Packages:  len(d.Packages),
		Strings:   len(d.Strings),
	}
	for i := range d.TileTypes {
		for j := range d.TileTypes[i].PIPs {
			s.PIPs++
			if !d.TileTypes[i].PIPs[j].Conventional() {
				s.PseudoPIPs++
			}
		}
	}
	for _, t := range d.Tiles {
		s.Sites += len(t.Sites)
	}
	for _, pkg := range d.Packages {
		for i := range pkg.PackagePins {
			s.PackagePins++
			if !pkg.PackagePins[i].Placed() {
				s.UnplacedPins++
			}
		}
	}
	return s
}

// Str resolves a string handle; out of range handles resolve to ""
func (d *Document) Str(handle uint32) string {
	if int64(handle) >= int64(len(d.Strings)) {
		return ""
	}
	return d.Strings[handle]
}
