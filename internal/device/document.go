// Package device holds the normalized device-description document. Every name
// field is a handle into Document.Strings; every list index is a uint32.
package device

// Document is the fully cross-referenced device description.
// Field order is the order in which sections are written.
type Document struct {
	Name           string           `json:"name"`
	TileTypes      []TileType       `json:"tile_types"`
	SiteTypes      []SiteType       `json:"site_types"`
	Wires          []Wire           `json:"wires"`
	Nodes          []Node           `json:"nodes"`
	WireTypes      []WireType       `json:"wire_types"`
	Tiles          []Tile           `json:"tiles"`
	Constants      Constants        `json:"constants"`
	CellBelMap     []CellBelMapping `json:"cell_bel_map"`
	Packages       []Package        `json:"packages"`
	LUTDefinitions LUTDefinitions   `json:"lut_definitions"`
	ParameterDefs  ParameterDefs    `json:"parameter_defs"`
	Strings        []string         `json:"strings"`
}

// TileType describes the wires, pips, sites and constant sources shared by
// every tile of that type
type TileType struct {
	Name      uint32                `json:"name"`
	SiteTypes []SiteTypeInTileType  `json:"site_types"`
	Wires     []uint32              `json:"wires"`
	PIPs      []PIP                 `json:"pips"`
	Constants []WireConstantSources `json:"constants"`
}

// SiteTypeInTileType is one site slot of a tile type. PrimaryType indexes the
// canonical site type table; the rest is per-instance placement.
type SiteTypeInTileType struct {
	PrimaryType            uint32   `json:"primary_type"`
	Name                   uint32   `json:"name"`
	RelX                   int32    `json:"rel_x"`
	RelY                   int32    `json:"rel_y"`
	PrimaryPinsToTileWires []uint32 `json:"primary_pins_to_tile_wires"`
}

// PIP connects tile-local wires Wire0 -> Wire1. A PIP is conventional when
// PseudoCells is empty; otherwise it routes through the listed bels.
type PIP struct {
	Wire0       uint32       `json:"wire0"`
	Wire1       uint32       `json:"wire1"`
	Directional bool         `json:"directional"`
	Buffered20  bool         `json:"buffered20"`
	Buffered21  bool         `json:"buffered21"`
	SubTile     uint32       `json:"sub_tile"`
	PseudoCells []PseudoCell `json:"pseudo_cells,omitempty"`
}

// Conventional reports whether the pip occupies no cells
func (p *PIP) Conventional() bool {
	return len(p.PseudoCells) == 0
}

type PseudoCell struct {
	Bel  uint32   `json:"bel"`
	Pins []uint32 `json:"pins"`
}

// WireConstantSources marks tile-local wires that source a constant
type WireConstantSources struct {
	Wires    []uint32     `json:"wires"`
	Constant ConstantType `json:"constant"`
}

type SiteType struct {
	Name      uint32     `json:"name"`
	LastInput uint32     `json:"last_input"`
	BELs      []BEL      `json:"bels"`
	BELPins   []BELPin   `json:"bel_pins"`
	SiteWires []SiteWire `json:"site_wires"`
	SitePIPs  []SitePIP  `json:"site_pips"`
	Pins      []SitePin  `json:"pins"`
}

type BEL struct {
	Name         uint32      `json:"name"`
	Type         uint32      `json:"type"`
	Category     BELCategory `json:"category"`
	NonInverting bool        `json:"non_inverting"`
	Pins         []uint32    `json:"pins"`
}

// BELPin names its owning bel by string handle
type BELPin struct {
	Name uint32    `json:"name"`
	Dir  Direction `json:"dir"`
	BEL  uint32    `json:"bel"`
}

type SiteWire struct {
	Name uint32   `json:"name"`
	Pins []uint32 `json:"pins"`
}

type SitePIP struct {
	InPin  uint32 `json:"inpin"`
	OutPin uint32 `json:"outpin"`
}

type SitePin struct {
	Name   uint32    `json:"name"`
	Dir    Direction `json:"dir"`
	BELPin uint32    `json:"belpin"`
}

// Wire is one entry of the device-wide wire table
type Wire struct {
	Tile uint32 `json:"tile"`
	Wire uint32 `json:"wire"`
	Type uint32 `json:"type"`
}

// Node lists wire table indices; Wires[0] is the root wire
type Node struct {
	Wires []uint32 `json:"wires"`
}

type WireType struct {
	Name     uint32       `json:"name"`
	Category WireCategory `json:"category"`
}

// Tile is a placed tile instance
type Tile struct {
	Name             uint32   `json:"name"`
	Type             uint32   `json:"type"`
	Row              uint16   `json:"row"`
	Col              uint16   `json:"col"`
	Sites            []Site   `json:"sites"`
	SubTilesPrefices []uint32 `json:"sub_tiles_prefices"`
}

// Site is a placed site; Type indexes the owning tile type's SiteTypes
type Site struct {
	Name uint32 `json:"name"`
	Type uint32 `json:"type"`
}

// Constants names the constant source cells and default pin ties
type Constants struct {
	GndCellType      uint32                   `json:"gnd_cell_type"`
	GndCellPin       uint32                   `json:"gnd_cell_pin"`
	VccCellType      uint32                   `json:"vcc_cell_type"`
	VccCellPin       uint32                   `json:"vcc_cell_pin"`
	DefaultCellConns []DefaultCellConnections `json:"default_cell_conns"`
}

type DefaultCellConnections struct {
	CellType uint32                  `json:"cell_type"`
	Pins     []DefaultCellConnection `json:"pins"`
}

type DefaultCellConnection struct {
	Name  uint32       `json:"name"`
	Value CellPinValue `json:"value"`
}

// CellBelMapping lists every site type able to host Cell
type CellBelMapping struct {
	Cell       uint32                 `json:"cell"`
	CommonPins []CommonCellBelPinMaps `json:"common_pins"`
}

type CommonCellBelPinMaps struct {
	SiteTypes []SiteTypeBelEntry `json:"site_types"`
	Pins      []CellBelPinEntry  `json:"pins"`
}

type SiteTypeBelEntry struct {
	SiteType uint32   `json:"site_type"`
	BELs     []uint32 `json:"bels"`
}

type CellBelPinEntry struct {
	CellPin uint32 `json:"cell_pin"`
	BELPin  uint32 `json:"bel_pin"`
}

type Package struct {
	Name        uint32       `json:"name"`
	PackagePins []PackagePin `json:"package_pins"`
}

// PackagePin is a physical pin. Site and BEL are both nil for pins without
// an addressable fabric site (power, ground, bondwires).
type PackagePin struct {
	PackagePin uint32  `json:"package_pin"`
	Site       *uint32 `json:"site,omitempty"`
	BEL        *uint32 `json:"bel,omitempty"`
}

// Placed reports whether the pin resolved to a site and bel
func (p *PackagePin) Placed() bool {
	return p.Site != nil && p.BEL != nil
}

// LUTDefinitions names are plain text, not string table handles
type LUTDefinitions struct {
	LUTCells    []LUTCell     `json:"lut_cells"`
	LUTElements []LUTElements `json:"lut_elements"`
}

type LUTCell struct {
	Cell      string   `json:"cell"`
	InputPins []string `json:"input_pins"`
	InitParam string   `json:"init_param"`
}

type LUTElements struct {
	Site string       `json:"site"`
	LUTs []LUTElement `json:"luts"`
}

type LUTElement struct {
	Width uint32   `json:"width"`
	BELs  []LUTBel `json:"bels"`
}

type LUTBel struct {
	Name      string   `json:"name"`
	InputPins []string `json:"input_pins"`
	OutputPin string   `json:"output_pin"`
	LowBit    uint32   `json:"low_bit"`
	HighBit   uint32   `json:"high_bit"`
}

type ParameterDefs struct {
	Cells []CellParameterDefinitions `json:"cells"`
}

type CellParameterDefinitions struct {
	CellType   uint32                `json:"cell_type"`
	Parameters []ParameterDefinition `json:"parameters"`
}

type ParameterDefinition struct {
	Name    uint32          `json:"name"`
	Format  ParameterFormat `json:"format"`
	Default Property        `json:"default"`
}

// Property is a key/value pair of string handles
type Property struct {
	Key       uint32 `json:"key"`
	TextValue uint32 `json:"text_value"`
}
