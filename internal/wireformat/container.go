package wireformat

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
)

// Container layout, all fixed-width integers little endian:
//
//	magic "FXIC", version fixed32, section count fixed32
//	directory: per section {id fixed32, record count fixed32, offset fixed64}
//	section at offset: (count+1) fixed64 record offsets relative to the end
//	of the offset table, then the records back to back
//
// Record i of a section spans offsets[i]..offsets[i+1], so any record is
// found with two reads. Records are protobuf messages as described in
// device.proto; a string table record is the raw string.

// Schema is the protobuf definition of every record message
//
//go:embed device.proto
var Schema string

var magic = []byte("FXIC")

const (
	formatVersion = 1
	headerSize    = 4 + 4 + 4
	dirEntrySize  = 4 + 4 + 8
)

// ErrOutOfRange is returned for a record index beyond its section
var ErrOutOfRange = errors.New("record index out of range")

// Section identifies one table of a document
type Section uint32

const (
	SectionName Section = iota + 1
	SectionTileTypes
	SectionSiteTypes
	SectionWires
	SectionNodes
	SectionWireTypes
	SectionTiles
	SectionConstants
	SectionCellBelMap
	SectionPackages
	SectionLUTDefinitions
	SectionParameterDefs
	SectionStrings
)

const numSections = int(SectionStrings)

var sectionNames = [...]string{
	"", "name", "tile_types", "site_types", "wires", "nodes", "wire_types", "tiles",
	"constants", "cell_bel_map", "packages", "lut_definitions", "parameter_defs", "strings",
}

func (s Section) String() string {
	if s == 0 || int(s) > numSections {
		return fmt.Sprintf("section(%d)", uint32(s))
	}
	return sectionNames[s]
}

// singleton sections hold exactly one record
func (s Section) singleton() bool {
	switch s {
	case SectionName, SectionConstants, SectionLUTDefinitions, SectionParameterDefs:
		return true
	}
	return false
}

// ParseSection returns the section with the given name, e.g. "tile_types"
func ParseSection(name string) (Section, error) {
	for i := 1; i < len(sectionNames); i++ {
		if sectionNames[i] == name {
			return Section(i), nil
		}
	}
	return 0, fmt.Errorf("unknown section %q", name)
}

// assemble lays out records[s-1] as section s, in section order, so the
// string table comes last
func assemble(records [numSections][][]byte) []byte {
	size := headerSize + numSections*dirEntrySize
	for _, recs := range records {
		size += 8 * (len(recs) + 1)
		for _, r := range recs {
			size += len(r)
		}
	}

	b := make([]byte, 0, size)
	b = append(b, magic...)
	b = protowire.AppendFixed32(b, formatVersion)
	b = protowire.AppendFixed32(b, uint32(numSections))

	offset := uint64(headerSize + numSections*dirEntrySize)
	for i, recs := range records {
		b = protowire.AppendFixed32(b, uint32(i+1))
		b = protowire.AppendFixed32(b, uint32(len(recs)))
		b = protowire.AppendFixed64(b, offset)
		offset += uint64(8 * (len(recs) + 1))
		for _, r := range recs {
			offset += uint64(len(r))
		}
	}

	for _, recs := range records {
		var rel uint64
		b = protowire.AppendFixed64(b, rel)
		for _, r := range recs {
			rel += uint64(len(r))
			b = protowire.AppendFixed64(b, rel)
		}
		for _, r := range recs {
			b = append(b, r...)
		}
	}
	return b
}

type sectionIndex struct {
	count   int
	table   int // start of the offset table
	records int // start of the record area
	size    int // length of the record area
}

// Reader resolves records of an encoded document by index. Only the header
// and directory are read up front; each record is decoded on request.
// A Reader is safe for concurrent use.
type Reader struct {
	data     []byte
	sections [numSections]sectionIndex
}

// NewReader checks the header and directory of an uncompressed document
func NewReader(data []byte) (*Reader, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic) {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}
	version, _ := protowire.ConsumeFixed32(data[4:])
	if version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, version)
	}
	n, _ := protowire.ConsumeFixed32(data[8:])
	if int64(n) != int64(numSections) {
		return nil, fmt.Errorf("%w: %d sections, expected %d", ErrMalformed, n, numSections)
	}
	if len(data) < headerSize+numSections*dirEntrySize {
		return nil, fmt.Errorf("%w: truncated directory", ErrMalformed)
	}

	r := &Reader{data: data}
	seen := [numSections]bool{}
	entry := data[headerSize:]
	for i := 0; i < numSections; i++ {
		id, _ := protowire.ConsumeFixed32(entry)
		count, _ := protowire.ConsumeFixed32(entry[4:])
		offset, _ := protowire.ConsumeFixed64(entry[8:])
		entry = entry[dirEntrySize:]

		s := Section(id)
		if s == 0 || int(s) > numSections || seen[s-1] {
			return nil, fmt.Errorf("%w: bad or repeated section id %d", ErrMalformed, id)
		}
		seen[s-1] = true
		if s.singleton() && count != 1 {
			return nil, fmt.Errorf("%w: %s holds %d records, expected 1", ErrMalformed, s, count)
		}

		tableLen := 8 * (uint64(count) + 1)
		if offset > uint64(len(data)) || tableLen > uint64(len(data))-offset {
			return nil, fmt.Errorf("%w: %s offset table outside the document", ErrMalformed, s)
		}
		records := offset + tableLen
		size, _ := protowire.ConsumeFixed64(data[records-8:])
		if size > uint64(len(data))-records {
			return nil, fmt.Errorf("%w: %s records outside the document", ErrMalformed, s)
		}
		r.sections[s-1] = sectionIndex{
			count:   int(count),
			table:   int(offset),
			records: int(records),
			size:    int(size),
		}
	}
	return r, nil
}

// Len returns the number of records in s
func (r *Reader) Len(s Section) int {
	if s == 0 || int(s) > numSections {
		return 0
	}
	return r.sections[s-1].count
}

// record returns the bytes of record i of s without touching other records
func (r *Reader) record(s Section, i int) ([]byte, error) {
	idx := r.sections[s-1]
	if i < 0 || i >= idx.count {
		return nil, fmt.Errorf("%w: %s[%d] of %d", ErrOutOfRange, s, i, idx.count)
	}
	pos := idx.table + 8*i
	lo, _ := protowire.ConsumeFixed64(r.data[pos:])
	hi, _ := protowire.ConsumeFixed64(r.data[pos+8:])
	if lo > hi || hi > uint64(idx.size) {
		return nil, fmt.Errorf("%w: %s[%d] spans %d..%d of %d", ErrMalformed, s, i, lo, hi, idx.size)
	}
	return r.data[idx.records+int(lo) : idx.records+int(hi)], nil
}

func decodeRecord[T any](r *Reader, s Section, i int, dec func(b []byte, v *T) error) (T, error) {
	var v T
	b, err := r.record(s, i)
	if err != nil {
		return v, err
	}
	if err := dec(b, &v); err != nil {
		return v, fmt.Errorf("%s[%d]: %w", s, i, err)
	}
	return v, nil
}

// String resolves a string handle
func (r *Reader) String(handle uint32) (string, error) {
	b, err := r.record(SectionStrings, int(handle))
	return string(b), err
}

// Name returns the device name
func (r *Reader) Name() (string, error) {
	b, err := r.record(SectionName, 0)
	return string(b), err
}

func (r *Reader) TileType(i int) (device.TileType, error) {
	return decodeRecord(r, SectionTileTypes, i, decodeTileType)
}

func (r *Reader) SiteType(i int) (device.SiteType, error) {
	return decodeRecord(r, SectionSiteTypes, i, decodeSiteType)
}

func (r *Reader) Wire(i int) (device.Wire, error) {
	return decodeRecord(r, SectionWires, i, decodeWire)
}

func (r *Reader) Node(i int) (device.Node, error) {
	return decodeRecord(r, SectionNodes, i, decodeNode)
}

func (r *Reader) WireType(i int) (device.WireType, error) {
	return decodeRecord(r, SectionWireTypes, i, decodeWireType)
}

func (r *Reader) Tile(i int) (device.Tile, error) {
	return decodeRecord(r, SectionTiles, i, decodeTile)
}

func (r *Reader) CellBelMapping(i int) (device.CellBelMapping, error) {
	return decodeRecord(r, SectionCellBelMap, i, decodeCellBelMapping)
}

func (r *Reader) Package(i int) (device.Package, error) {
	return decodeRecord(r, SectionPackages, i, decodePackage)
}

func (r *Reader) Constants() (device.Constants, error) {
	return decodeRecord(r, SectionConstants, 0, decodeConstants)
}

func (r *Reader) LUTDefinitions() (device.LUTDefinitions, error) {
	return decodeRecord(r, SectionLUTDefinitions, 0, decodeLUTDefinitions)
}

func (r *Reader) ParameterDefs() (device.ParameterDefs, error) {
	return decodeRecord(r, SectionParameterDefs, 0, decodeParameterDefs)
}

// Record decodes record i of any section
func (r *Reader) Record(s Section, i int) (any, error) {
	switch s {
	case SectionName, SectionStrings:
		b, err := r.record(s, i)
		return string(b), err
	case SectionTileTypes:
		return r.TileType(i)
	case SectionSiteTypes:
		return r.SiteType(i)
	case SectionWires:
		return r.Wire(i)
	case SectionNodes:
		return r.Node(i)
	case SectionWireTypes:
		return r.WireType(i)
	case SectionTiles:
		return r.Tile(i)
	case SectionCellBelMap:
		return r.CellBelMapping(i)
	case SectionPackages:
		return r.Package(i)
	case SectionConstants:
		return decodeRecord(r, s, i, decodeConstants)
	case SectionLUTDefinitions:
		return decodeRecord(r, s, i, decodeLUTDefinitions)
	case SectionParameterDefs:
		return decodeRecord(r, s, i, decodeParameterDefs)
	}
	return nil, fmt.Errorf("unknown section %d", uint32(s))
}

func readAll[T any](r *Reader, s Section, get func(int) (T, error)) ([]T, error) {
	n := r.Len(s)
	if n == 0 {
		return nil, nil
	}
	out := make([]T, n)
	for i := range out {
		v, err := get(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Document decodes every record
func (r *Reader) Document() (*device.Document, error) {
	doc := &device.Document{}
	var err error
	if doc.Name, err = r.Name(); err != nil {
		return nil, err
	}
	if doc.TileTypes, err = readAll(r, SectionTileTypes, r.TileType); err != nil {
		return nil, err
	}
	if doc.SiteTypes, err = readAll(r, SectionSiteTypes, r.SiteType); err != nil {
		return nil, err
	}
	if doc.Wires, err = readAll(r, SectionWires, r.Wire); err != nil {
		return nil, err
	}
	if doc.Nodes, err = readAll(r, SectionNodes, r.Node); err != nil {
		return nil, err
	}
	if doc.WireTypes, err = readAll(r, SectionWireTypes, r.WireType); err != nil {
		return nil, err
	}
	if doc.Tiles, err = readAll(r, SectionTiles, r.Tile); err != nil {
		return nil, err
	}
	if doc.Constants, err = r.Constants(); err != nil {
		return nil, err
	}
	if doc.CellBelMap, err = readAll(r, SectionCellBelMap, r.CellBelMapping); err != nil {
		return nil, err
	}
	if doc.Packages, err = readAll(r, SectionPackages, r.Package); err != nil {
		return nil, err
	}
	if doc.LUTDefinitions, err = r.LUTDefinitions(); err != nil {
		return nil, err
	}
	if doc.ParameterDefs, err = r.ParameterDefs(); err != nil {
		return nil, err
	}
	if doc.Strings, err = readAll(r, SectionStrings, func(i int) (string, error) {
		return r.String(uint32(i))
	}); err != nil {
		return nil, err
	}
	return doc, nil
}
