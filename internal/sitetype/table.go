// Package sitetype canonicalizes site type definitions met while walking tile
// types, so each structurally distinct site type is stored once.
package sitetype

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/fabric"
)

// Table is a bijective site type <-> index table. Indices follow first-seen
// order. Lookups are bucketed by an xxhash digest of the whole definition and
// confirmed with full structural equality.
type Table struct {
	types   []*fabric.SiteType
	buckets map[uint64][]int
	byName  map[string]int
}

// New creates an empty Table
func New() *Table {
	return &Table{
		buckets: make(map[uint64][]int),
		byName:  make(map[string]int),
	}
}

// Canonicalize returns the index of the entry equal to st, storing a deep
// copy of st first if no such entry exists
func (t *Table) Canonicalize(st *fabric.SiteType) int {
	h := Digest(st)
	for _, idx := range t.buckets[h] {
		if t.types[idx].Equal(st) {
			return idx
		}
	}
	idx := len(t.types)
	t.types = append(t.types, st.Clone())
	t.buckets[h] = append(t.buckets[h], idx)
	if _, ok := t.byName[st.Name]; !ok {
		t.byName[st.Name] = idx
	}
	return idx
}

// Index returns the index of the entry equal to st
func (t *Table) Index(st *fabric.SiteType) (int, bool) {
	for _, idx := range t.buckets[Digest(st)] {
		if t.types[idx].Equal(st) {
			return idx, true
		}
	}
	return -1, false
}

// At returns the canonical definition stored at idx
func (t *Table) At(idx int) *fabric.SiteType {
	return t.types[idx]
}

// ByName returns the first canonical entry carrying name
func (t *Table) ByName(name string) (int, bool) {
	idx, ok := t.byName[name]
	return idx, ok
}

// Len returns the number of canonical site types
func (t *Table) Len() int {
	return len(t.types)
}

// Digest hashes every field that takes part in site type equality
func Digest(st *fabric.SiteType) uint64 {
	d := xxhash.New()
	var buf [8]byte
	num := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = d.Write(buf[:])
	}
	str := func(s string) {
		num(len(s))
		_, _ = d.WriteString(s)
	}
	ints := func(vs []int) {
		num(len(vs))
		for _, v := range vs {
			num(v)
		}
	}

	str(st.Name)
	num(st.InputPins)
	num(len(st.Bels))
	for _, b := range st.Bels {
		str(b.Name)
		str(b.Type)
		str(string(b.Class))
		ints(b.Pins)
	}
	num(len(st.BelPins))
	for _, p := range st.BelPins {
		str(p.Name)
		str(string(p.Dir))
		str(p.Bel)
	}
	num(len(st.SiteWires))
	for _, w := range st.SiteWires {
		str(w.Name)
		ints(w.BelPins)
	}
	num(len(st.SitePips))
	for _, p := range st.SitePips {
		num(p.InPin)
		num(p.OutPin)
	}
	num(len(st.Pins))
	for _, p := range st.Pins {
		str(p.SiteWire)
		str(string(p.Dir))
		num(p.BelPin)
	}
	return d.Sum64()
}
