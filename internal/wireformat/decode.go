package wireformat

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
)

// ErrMalformed marks input that is not a well-formed device document
var ErrMalformed = errors.New("malformed device document")

type field struct {
	num protowire.Number
	typ protowire.Type
	u   uint64
	b   []byte
}

func (f field) u32() (uint32, error) {
	if f.typ != protowire.VarintType {
		return 0, fmt.Errorf("%w: field %d: expected varint, got wire type %d", ErrMalformed, f.num, f.typ)
	}
	if f.u > math.MaxUint32 {
		return 0, fmt.Errorf("%w: field %d: value %d overflows uint32", ErrMalformed, f.num, f.u)
	}
	return uint32(f.u), nil
}

func (f field) i32() (int32, error) {
	if f.typ != protowire.VarintType {
		return 0, fmt.Errorf("%w: field %d: expected varint, got wire type %d", ErrMalformed, f.num, f.typ)
	}
	v := protowire.DecodeZigZag(f.u)
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: field %d: value %d overflows int32", ErrMalformed, f.num, v)
	}
	return int32(v), nil
}

func (f field) flag() (bool, error) {
	if f.typ != protowire.VarintType {
		return false, fmt.Errorf("%w: field %d: expected varint, got wire type %d", ErrMalformed, f.num, f.typ)
	}
	return protowire.DecodeBool(f.u), nil
}

func (f field) bytes() ([]byte, error) {
	if f.typ != protowire.BytesType {
		return nil, fmt.Errorf("%w: field %d: expected bytes, got wire type %d", ErrMalformed, f.num, f.typ)
	}
	return f.b, nil
}

func (f field) str() (string, error) {
	b, err := f.bytes()
	return string(b), err
}

// packed appends the values of a packed or unpacked repeated uint32 field
func (f field) packed(dst []uint32) ([]uint32, error) {
	if f.typ == protowire.VarintType {
		v, err := f.u32()
		return append(dst, v), err
	}
	b, err := f.bytes()
	if err != nil {
		return dst, err
	}
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return dst, fmt.Errorf("%w: field %d: %v", ErrMalformed, f.num, protowire.ParseError(n))
		}
		if v > math.MaxUint32 {
			return dst, fmt.Errorf("%w: field %d: value %d overflows uint32", ErrMalformed, f.num, v)
		}
		dst = append(dst, uint32(v))
		b = b[n:]
	}
	return dst, nil
}

// eachField calls fn for every field of a message; groups and fixed-width
// fields are skipped
func eachField(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			f.u = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			f.b = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// decodeList decodes one repeated message entry and appends it
func decodeList[T any](dst []T, f field, dec func(b []byte, v *T) error) ([]T, error) {
	b, err := f.bytes()
	if err != nil {
		return dst, err
	}
	var v T
	if err := dec(b, &v); err != nil {
		return dst, err
	}
	return append(dst, v), nil
}

// Unmarshal decodes every record of a document produced by Marshal
func Unmarshal(b []byte) (*device.Document, error) {
	r, err := NewReader(b)
	if err != nil {
		return nil, err
	}
	return r.Document()
}

func decodeTileType(b []byte, tt *device.TileType) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			tt.Name, err = f.u32()
		case 2:
			tt.SiteTypes, err = decodeList(tt.SiteTypes, f, decodeSiteTypeInTileType)
		case 3:
			tt.Wires, err = f.packed(tt.Wires)
		case 4:
			tt.PIPs, err = decodeList(tt.PIPs, f, decodePIP)
		case 5:
			tt.Constants, err = decodeList(tt.Constants, f, func(b []byte, c *device.WireConstantSources) error {
				return eachField(b, func(f field) error {
					var err error
					switch f.num {
					case 1:
						c.Wires, err = f.packed(c.Wires)
					case 2:
						var v uint32
						v, err = f.u32()
						c.Constant = device.ConstantType(v)
					}
					return err
				})
			})
		}
		return err
	})
}

func decodeSiteTypeInTileType(b []byte, st *device.SiteTypeInTileType) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			st.PrimaryType, err = f.u32()
		case 2:
			st.Name, err = f.u32()
		case 3:
			st.RelX, err = f.i32()
		case 4:
			st.RelY, err = f.i32()
		case 5:
			st.PrimaryPinsToTileWires, err = f.packed(st.PrimaryPinsToTileWires)
		}
		return err
	})
}

func decodePIP(b []byte, p *device.PIP) error {
	kinds := 0
	err := eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			p.Wire0, err = f.u32()
		case 2:
			p.Wire1, err = f.u32()
		case 3:
			p.Directional, err = f.flag()
		case 4:
			p.Buffered20, err = f.flag()
		case 5:
			p.Buffered21, err = f.flag()
		case 6:
			p.SubTile, err = f.u32()
		case 7:
			kinds++
			_, err = f.bytes()
		case 8:
			kinds++
			var cells []byte
			if cells, err = f.bytes(); err != nil {
				return err
			}
			err = eachField(cells, func(f field) error {
				if f.num != 1 {
					return nil
				}
				var err error
				p.PseudoCells, err = decodeList(p.PseudoCells, f, decodePseudoCell)
				return err
			})
			if err == nil && len(p.PseudoCells) == 0 {
				err = fmt.Errorf("%w: pseudo pip without pseudo cells", ErrMalformed)
			}
		}
		return err
	})
	if err != nil {
		return err
	}
	if kinds != 1 {
		return fmt.Errorf("%w: pip carries %d kinds, expected exactly one", ErrMalformed, kinds)
	}
	return nil
}

func decodePseudoCell(b []byte, pc *device.PseudoCell) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			pc.Bel, err = f.u32()
		case 2:
			pc.Pins, err = f.packed(pc.Pins)
		}
		return err
	})
}

func decodeSiteType(b []byte, st *device.SiteType) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			st.Name, err = f.u32()
		case 2:
			st.LastInput, err = f.u32()
		case 3:
			st.BELs, err = decodeList(st.BELs, f, decodeBEL)
		case 4:
			st.BELPins, err = decodeList(st.BELPins, f, func(b []byte, bp *device.BELPin) error {
				return eachField(b, func(f field) error {
					var err error
					switch f.num {
					case 1:
						bp.Name, err = f.u32()
					case 2:
						var v uint32
						v, err = f.u32()
						bp.Dir = device.Direction(v)
					case 3:
						bp.BEL, err = f.u32()
					}
					return err
				})
			})
		case 5:
			st.SiteWires, err = decodeList(st.SiteWires, f, func(b []byte, sw *device.SiteWire) error {
				return eachField(b, func(f field) error {
					var err error
					switch f.num {
					case 1:
						sw.Name, err = f.u32()
					case 2:
						sw.Pins, err = f.packed(sw.Pins)
					}
					return err
				})
			})
		case 6:
			st.SitePIPs, err = decodeList(st.SitePIPs, f, func(b []byte, sp *device.SitePIP) error {
				return eachField(b, func(f field) error {
					var err error
					switch f.num {
					case 1:
						sp.InPin, err = f.u32()
					case 2:
						sp.OutPin, err = f.u32()
					}
					return err
				})
			})
		case 7:
			st.Pins, err = decodeList(st.Pins, f, func(b []byte, pin *device.SitePin) error {
				return eachField(b, func(f field) error {
					var err error
					switch f.num {
					case 1:
						pin.Name, err = f.u32()
					case 2:
						var v uint32
						v, err = f.u32()
						pin.Dir = device.Direction(v)
					case 3:
						pin.BELPin, err = f.u32()
					}
					return err
				})
			})
		}
		return err
	})
}

func decodeBEL(b []byte, bel *device.BEL) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			bel.Name, err = f.u32()
		case 2:
			bel.Type, err = f.u32()
		case 3:
			var v uint32
			v, err = f.u32()
			bel.Category = device.BELCategory(v)
		case 4:
			bel.NonInverting, err = f.flag()
		case 5:
			bel.Pins, err = f.packed(bel.Pins)
		}
		return err
	})
}

func decodeWire(b []byte, w *device.Wire) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			w.Tile, err = f.u32()
		case 2:
			w.Wire, err = f.u32()
		case 3:
			w.Type, err = f.u32()
		}
		return err
	})
}

func decodeNode(b []byte, n *device.Node) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			var err error
			n.Wires, err = f.packed(n.Wires)
			return err
		}
		return nil
	})
}

func decodeWireType(b []byte, wt *device.WireType) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			wt.Name, err = f.u32()
		case 2:
			var v uint32
			v, err = f.u32()
			wt.Category = device.WireCategory(v)
		}
		return err
	})
}

func decodeTile(b []byte, t *device.Tile) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			t.Name, err = f.u32()
		case 2:
			t.Type, err = f.u32()
		case 3, 4:
			var v uint32
			if v, err = f.u32(); err != nil {
				return err
			}
			if v > math.MaxUint16 {
				return fmt.Errorf("%w: tile coordinate %d overflows uint16", ErrMalformed, v)
			}
			if f.num == 3 {
				t.Row = uint16(v)
			} else {
				t.Col = uint16(v)
			}
		case 5:
			t.Sites, err = decodeList(t.Sites, f, func(b []byte, s *device.Site) error {
				return eachField(b, func(f field) error {
					var err error
					switch f.num {
					case 1:
						s.Name, err = f.u32()
					case 2:
						s.Type, err = f.u32()
					}
					return err
				})
			})
		case 6:
			t.SubTilesPrefices, err = f.packed(t.SubTilesPrefices)
		}
		return err
	})
}

func decodeConstants(b []byte, c *device.Constants) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			c.GndCellType, err = f.u32()
		case 2:
			c.GndCellPin, err = f.u32()
		case 3:
			c.VccCellType, err = f.u32()
		case 4:
			c.VccCellPin, err = f.u32()
		case 5:
			c.DefaultCellConns, err = decodeList(c.DefaultCellConns, f, func(b []byte, conn *device.DefaultCellConnections) error {
				return eachField(b, func(f field) error {
					var err error
					switch f.num {
					case 1:
						conn.CellType, err = f.u32()
					case 2:
						conn.Pins, err = decodeList(conn.Pins, f, func(b []byte, pin *device.DefaultCellConnection) error {
							return eachField(b, func(f field) error {
								var err error
								switch f.num {
								case 1:
									pin.Name, err = f.u32()
								case 2:
									var v uint32
									v, err = f.u32()
									pin.Value = device.CellPinValue(v)
								}
								return err
							})
						})
					}
					return err
				})
			})
		}
		return err
	})
}

func decodeCellBelMapping(b []byte, cm *device.CellBelMapping) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			cm.Cell, err = f.u32()
		case 2:
			cm.CommonPins, err = decodeList(cm.CommonPins, f, decodeCommonPins)
		}
		return err
	})
}

func decodeCommonPins(b []byte, cp *device.CommonCellBelPinMaps) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			cp.SiteTypes, err = decodeList(cp.SiteTypes, f, func(b []byte, st *device.SiteTypeBelEntry) error {
				return eachField(b, func(f field) error {
					var err error
					switch f.num {
					case 1:
						st.SiteType, err = f.u32()
					case 2:
						st.BELs, err = f.packed(st.BELs)
					}
					return err
				})
			})
		case 2:
			cp.Pins, err = decodeList(cp.Pins, f, func(b []byte, pin *device.CellBelPinEntry) error {
				return eachField(b, func(f field) error {
					var err error
					switch f.num {
					case 1:
						pin.CellPin, err = f.u32()
					case 2:
						pin.BELPin, err = f.u32()
					}
					return err
				})
			})
		}
		return err
	})
}

func decodePackage(b []byte, pkg *device.Package) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			pkg.Name, err = f.u32()
		case 2:
			pkg.PackagePins, err = decodeList(pkg.PackagePins, f, decodePackagePin)
		}
		return err
	})
}

func decodePackagePin(b []byte, pin *device.PackagePin) error {
	kinds := 0
	err := eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			pin.PackagePin, err = f.u32()
		case 2:
			kinds++
			var placed []byte
			if placed, err = f.bytes(); err != nil {
				return err
			}
			var site, bel uint32
			err = eachField(placed, func(f field) error {
				var err error
				switch f.num {
				case 1:
					site, err = f.u32()
				case 2:
					bel, err = f.u32()
				}
				return err
			})
			pin.Site = &site
			pin.BEL = &bel
		case 3:
			kinds++
			_, err = f.bytes()
		}
		return err
	})
	if err != nil {
		return err
	}
	if kinds != 1 {
		return fmt.Errorf("%w: package pin carries %d placements, expected exactly one", ErrMalformed, kinds)
	}
	return nil
}

func decodeLUTDefinitions(b []byte, ld *device.LUTDefinitions) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			ld.LUTCells, err = decodeList(ld.LUTCells, f, func(b []byte, cell *device.LUTCell) error {
				return eachField(b, func(f field) error {
					var err error
					switch f.num {
					case 1:
						cell.Cell, err = f.str()
					case 2:
						var s string
						if s, err = f.str(); err == nil {
							cell.InputPins = append(cell.InputPins, s)
						}
					case 3:
						cell.InitParam, err = f.str()
					}
					return err
				})
			})
		case 2:
			ld.LUTElements, err = decodeList(ld.LUTElements, f, decodeLUTElements)
		}
		return err
	})
}

func decodeLUTElements(b []byte, le *device.LUTElements) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			le.Site, err = f.str()
		case 2:
			le.LUTs, err = decodeList(le.LUTs, f, func(b []byte, lut *device.LUTElement) error {
				return eachField(b, func(f field) error {
					var err error
					switch f.num {
					case 1:
						lut.Width, err = f.u32()
					case 2:
						lut.BELs, err = decodeList(lut.BELs, f, decodeLUTBel)
					}
					return err
				})
			})
		}
		return err
	})
}

func decodeLUTBel(b []byte, bel *device.LUTBel) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			bel.Name, err = f.str()
		case 2:
			var s string
			if s, err = f.str(); err == nil {
				bel.InputPins = append(bel.InputPins, s)
			}
		case 3:
			bel.OutputPin, err = f.str()
		case 4:
			bel.LowBit, err = f.u32()
		case 5:
			bel.HighBit, err = f.u32()
		}
		return err
	})
}

func decodeParameterDefs(b []byte, pd *device.ParameterDefs) error {
	return eachField(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		var err error
		pd.Cells, err = decodeList(pd.Cells, f, func(b []byte, cell *device.CellParameterDefinitions) error {
			return eachField(b, func(f field) error {
				var err error
				switch f.num {
				case 1:
					cell.CellType, err = f.u32()
				case 2:
					cell.Parameters, err = decodeList(cell.Parameters, f, decodeParameterDefinition)
				}
				return err
			})
		})
		return err
	})
}

func decodeParameterDefinition(b []byte, pd *device.ParameterDefinition) error {
	return eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			pd.Name, err = f.u32()
		case 2:
			var v uint32
			v, err = f.u32()
			pd.Format = device.ParameterFormat(v)
		case 3:
			var prop []byte
			if prop, err = f.bytes(); err != nil {
				return err
			}
			err = eachField(prop, func(f field) error {
				var err error
				switch f.num {
				case 1:
					pd.Default.Key, err = f.u32()
				case 2:
					pd.Default.TextValue, err = f.u32()
				}
				return err
			})
		}
		return err
	})
}
