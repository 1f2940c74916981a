package builder

import (
	"fmt"
	"strings"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
)

// SiteName is the name of a placed site: row and column of the owning tile
// plus the instance's relative offset, then the instance name
func SiteName(row, col int, instance string) string {
	return fmt.Sprintf("R%dC%d_%s", row, col, instance)
}

// SubTilePrefix turns a chip tile name into the prefix used for its wires
func SubTilePrefix(chipTile string) string {
	return strings.ReplaceAll(chipTile, ":", "__")
}

type chipTileKey struct {
	x, y int
	typ  string
}

// buildTiles emits the tile table and records every realized site name
func (p *pass) buildTiles() error {
	chip := make(map[chipTileKey]string, len(p.dev.ChipTiles))
	for _, ct := range p.dev.ChipTiles {
		key := chipTileKey{ct.X, ct.Y, ct.Type}
		if _, dup := chip[key]; !dup {
			chip[key] = ct.Name
		}
	}

	p.siteNames = make(map[string]bool)
	tiles := p.dev.Tiles
	out := make([]device.Tile, len(tiles))
	for i := range tiles {
		t := &tiles[i]
		if t.Type < 0 || t.Type >= len(p.dev.TileTypes) {
			return invalidf("tile %q has type %d outside %d tile types", t.Name, t.Type, len(p.dev.TileTypes))
		}
		tt := &p.dev.TileTypes[t.Type]
		ot := &out[i]
		ot.Name = p.ids.ID(t.Name)
		ot.Type = p.n.u32(t.Type, "tile type index")
		ot.Row = p.n.u16(t.Y, "tile row")
		ot.Col = p.n.u16(t.X, "tile col")

		ot.Sites = make([]device.Site, len(tt.Sites))
		for j := range tt.Sites {
			inst := &tt.Sites[j]
			name := SiteName(t.Y+inst.RelY, t.X+inst.RelX, inst.Name)
			p.siteNames[name] = true
			ot.Sites[j] = device.Site{
				Name: p.ids.ID(name),
				Type: p.n.u32(j, "site index"),
			}
		}

		ot.SubTilesPrefices = make([]uint32, len(t.SubTiles))
		for j, sub := range t.SubTiles {
			name, ok := chip[chipTileKey{t.X, t.Y, sub}]
			if !ok {
				return invalidf("tile %q: no chip tile of type %q at x=%d y=%d", t.Name, sub, t.X, t.Y)
			}
			ot.SubTilesPrefices[j] = p.ids.ID(SubTilePrefix(name))
		}
	}
	p.doc.Tiles = out
	return nil
}
