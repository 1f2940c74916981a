// Package intern maps every name used in a device document to a stable
// integer handle into one shared string table.
package intern

import (
	"fmt"
	"math"
)

// ErrTableFull is reported by Err once more strings were interned than a
// uint32 handle can address
var ErrTableFull = fmt.Errorf("string table exceeds %d entries", uint64(math.MaxUint32)+1)

// Table is a bijective string <-> handle table. Handles are dense, start at
// zero and follow insertion order; they are never reused.
type Table struct {
	ids     map[string]uint32
	strs    []string
	limit   int64
	overrun bool
}

// New creates an empty Table
func New() *Table {
	return &Table{
		ids:   make(map[string]uint32),
		limit: math.MaxUint32 + 1,
	}
}

// ID returns the handle of s, allocating the next handle on first use.
// Once the handle space is exhausted ID returns 0 and Err reports it.
func (t *Table) ID(s string) uint32 {
	if id, ok := t.ids[s]; ok {
		return id
	}
	if int64(len(t.strs)) >= t.limit {
		t.overrun = true
		return 0
	}
	id := uint32(len(t.strs))
	t.ids[s] = id
	t.strs = append(t.strs, s)
	return id
}

// Lookup returns the handle of s without inserting it
func (t *Table) Lookup(s string) (uint32, bool) {
	id, ok := t.ids[s]
	return id, ok
}

// String returns the string behind a handle
func (t *Table) String(id uint32) (string, bool) {
	if int64(id) >= int64(len(t.strs)) {
		return "", false
	}
	return t.strs[id], true
}

// Len returns the number of interned strings
func (t *Table) Len() int {
	return len(t.strs)
}

// Strings returns a copy of the table in handle order
func (t *Table) Strings() []string {
	out := make([]string, len(t.strs))
	copy(out, t.strs)
	return out
}

// Err reports whether the handle space overflowed
func (t *Table) Err() error {
	if t.overrun {
		return ErrTableFull
	}
	return nil
}
