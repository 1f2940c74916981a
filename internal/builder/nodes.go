package builder

import (
	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/fabric"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/intern"
)

// wireTypes is the fixed wire type table; a node's Type indexes it
var wireTypes = []struct {
	name     string
	category device.WireCategory
}{
	{"GENERAL", device.WireGeneral},
	{"SPECIAL", device.WireSpecial},
	{"GLOBAL", device.WireGlobal},
}

// WireAccumulator collects the device-wide wire table while nodes are
// flattened. Indices are dense and assigned in append order.
type WireAccumulator struct {
	wires []device.Wire
}

// NewWireAccumulator preallocates room for n wires
func NewWireAccumulator(n int) *WireAccumulator {
	return &WireAccumulator{wires: make([]device.Wire, 0, n)}
}

func (a *WireAccumulator) Len() int {
	return len(a.wires)
}

// Wires returns the accumulated table
func (a *WireAccumulator) Wires() []device.Wire {
	if a.wires == nil {
		return []device.Wire{}
	}
	return a.wires
}

func (a *WireAccumulator) add(w device.Wire) (uint32, error) {
	idx, err := toU32(len(a.wires), "wire index")
	if err != nil {
		return 0, err
	}
	a.wires = append(a.wires, w)
	return idx, nil
}

// FlattenNode appends the wires of node to acc, root first, and returns the
// node entry listing their indices. Member wires equal to the root are skipped.
func FlattenNode(acc *WireAccumulator, ids *intern.Table, node *fabric.Node) (device.Node, error) {
	if node.Type < 0 || node.Type >= len(wireTypes) {
		return device.Node{}, invalidf("node rooted at %s/%s has wire category %d outside 0..%d",
			node.Root.Tile, node.Root.Wire, node.Type, len(wireTypes)-1)
	}
	rootSeen := false
	others := 0
	for _, w := range node.Wires {
		if w == node.Root {
			rootSeen = true
			continue
		}
		others++
	}
	if !rootSeen {
		return device.Node{}, invalidf("node root %s/%s is not one of its %d wires",
			node.Root.Tile, node.Root.Wire, len(node.Wires))
	}

	wireType := uint32(node.Type)
	members := make([]uint32, 0, 1+others)
	idx, err := acc.add(device.Wire{Tile: ids.ID(node.Root.Tile), Wire: ids.ID(node.Root.Wire), Type: wireType})
	if err != nil {
		return device.Node{}, err
	}
	members = append(members, idx)
	for _, w := range node.Wires {
		if w == node.Root {
			continue
		}
		idx, err := acc.add(device.Wire{Tile: ids.ID(w.Tile), Wire: ids.ID(w.Wire), Type: wireType})
		if err != nil {
			return device.Node{}, err
		}
		members = append(members, idx)
	}
	return device.Node{Wires: members}, nil
}

func (p *pass) buildNodes() error {
	total := 0
	for i := range p.dev.Nodes {
		total += len(p.dev.Nodes[i].Wires)
	}
	acc := NewWireAccumulator(total)
	nodes := make([]device.Node, len(p.dev.Nodes))
	for i := range p.dev.Nodes {
		node, err := FlattenNode(acc, p.ids, &p.dev.Nodes[i])
		if err != nil {
			return err
		}
		nodes[i] = node
	}
	p.doc.Wires = acc.Wires()
	p.doc.Nodes = nodes
	return nil
}

func (p *pass) buildWireTypes() error {
	out := make([]device.WireType, len(wireTypes))
	for i, wt := range wireTypes {
		out[i] = device.WireType{Name: p.ids.ID(wt.name), Category: wt.category}
	}
	p.doc.WireTypes = out
	return nil
}
