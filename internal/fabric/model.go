package fabric

// Device is the in-memory fabric model handed over by the chip database side.
// It is read-only while a document is being built.
type Device struct {
	Name   string `json:"name"`
	Family string `json:"family"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	TileTypes []TileType `json:"tile_types"`
	Tiles     []Tile     `json:"tiles"`

	// ChipTiles are the raw chip-database tiles; a merged tile lists their types in SubTiles
	ChipTiles []ChipTile `json:"chip_tiles"`

	Nodes []Node `json:"nodes"`

	IODB IODB `json:"iodb"`

	// PinMaps is the per-site-type cell/bel pin correspondence, keyed by site type name
	PinMaps PinMapTable `json:"pin_maps,omitempty"`
}

// TileType is the reusable shape of a tile
type TileType struct {
	Name  string         `json:"name,omitempty"`
	Sites []SiteInstance `json:"sites"`
	Wires []string       `json:"wires"`
	Pips  []Pip          `json:"pips"`
}

// WireIndex returns the tile-local index of the named wire
func (tt *TileType) WireIndex(name string) (int, bool) {
	for i, w := range tt.Wires {
		if w == name {
			return i, true
		}
	}
	return -1, false
}

// SiteInstance places a site type inside a tile type
type SiteInstance struct {
	Name string   `json:"name"`
	RelX int      `json:"rel_x"`
	RelY int      `json:"rel_y"`
	Type SiteType `json:"type"`

	// PinTileWires[i] is the tile wire connected to Type.Pins[i]
	PinTileWires []string `json:"pin_tile_wires"`
}

// BelClass is the functional category of a bel
type BelClass string

const (
	BelLogic   BelClass = "logic"
	BelRouting BelClass = "routing"
	BelPort    BelClass = "port"
)

// PinDir is a bel or site pin direction
type PinDir string

const (
	DirInput  PinDir = "input"
	DirOutput PinDir = "output"
	DirInout  PinDir = "inout"
)

// SiteType is a cluster of bels with its internal wiring.
// Input pins come first in Pins; InputPins counts them.
type SiteType struct {
	Name      string     `json:"name"`
	InputPins int        `json:"input_pins"`
	Bels      []Bel      `json:"bels"`
	BelPins   []BelPin   `json:"bel_pins"`
	SiteWires []SiteWire `json:"site_wires"`
	SitePips  []SitePip  `json:"site_pips"`
	Pins      []SitePin  `json:"pins"`
}

type Bel struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Class BelClass `json:"class"`
	// Pins index into SiteType.BelPins
	Pins []int `json:"pins"`
}

type BelPin struct {
	Name string `json:"name"`
	Dir  PinDir `json:"dir"`
	Bel  string `json:"bel"`
}

type SiteWire struct {
	Name    string `json:"name"`
	BelPins []int  `json:"bel_pins"`
}

type SitePip struct {
	InPin  int `json:"in_pin"`
	OutPin int `json:"out_pin"`
}

type SitePin struct {
	SiteWire string `json:"site_wire"`
	Dir      PinDir `json:"dir"`
	BelPin   int    `json:"bel_pin"`
}

// Pip is a programmable connection between two tile-local wires.
// A pip with pseudo cells routes through otherwise idle logic.
type Pip struct {
	Src         int          `json:"src"`
	Dst         int          `json:"dst"`
	SubTile     int          `json:"sub_tile"`
	PseudoCells []PseudoCell `json:"pseudo_cells,omitempty"`
}

type PseudoCell struct {
	Bel  string   `json:"bel"`
	Pins []string `json:"pins"`
}

// Tile is a placed tile; X is the column and Y the row
type Tile struct {
	Name     string   `json:"name"`
	X        int      `json:"x"`
	Y        int      `json:"y"`
	Type     int      `json:"type"`
	SubTiles []string `json:"sub_tiles"`
}

// ChipTile is a tile as named by the chip database, e.g. "R2C3:PLC"
type ChipTile struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Type string `json:"type"`
}

// WireRef names a wire by tile and tile-local wire name
type WireRef struct {
	Tile string `json:"tile"`
	Wire string `json:"wire"`
}

// Node is one electrical net. Type is the wire category index
// (0 general, 1 special, 2 global) decided upstream.
type Node struct {
	Wires []WireRef `json:"wires"`
	Root  WireRef   `json:"root"`
	Type  int       `json:"type"`
}

// IODB is the package/pad table of a device
type IODB struct {
	Packages []string `json:"packages"`
	Pads     []Pad    `json:"pads"`
}

// NotBonded marks a pad that has no pin in a package
const NotBonded = "-"

// Pad is one I/O pad; Pins holds the package pin label per package
type Pad struct {
	Pins   []string `json:"pins"`
	Side   string   `json:"side"`
	Offset int      `json:"offset"`
	PIO    int      `json:"pio"`
}
