package device

import "fmt"

// BELCategory is the functional role of a BEL
type BELCategory uint8

const (
	BELLogic BELCategory = iota
	BELRouting
	BELSitePort
)

var belCategoryNames = []string{"logic", "routing", "site_port"}

// Direction of a BEL or site pin
type Direction uint8

const (
	DirInput Direction = iota
	DirOutput
	DirInout
)

var directionNames = []string{"input", "output", "inout"}

// WireCategory classifies wires for the router
type WireCategory uint8

const (
	WireGeneral WireCategory = iota
	WireSpecial
	WireGlobal
)

var wireCategoryNames = []string{"general", "special", "global"}

// ConstantType is the constant net a wire sources
type ConstantType uint8

const (
	ConstantVcc ConstantType = iota
	ConstantGnd
)

var constantTypeNames = []string{"vcc", "gnd"}

// CellPinValue is the constant a cell pin is tied to by default
type CellPinValue uint8

const (
	CellPinVcc CellPinValue = iota
	CellPinGnd
)

var cellPinValueNames = []string{"vcc", "gnd"}

// ParameterFormat is the textual format of a cell parameter
type ParameterFormat uint8

const (
	FormatString ParameterFormat = iota
	FormatBoolean
	FormatInteger
	FormatFloatingPoint
	FormatVerilogBinary
	FormatVerilogHex
	FormatCBinary
	FormatCHex
)

var parameterFormatNames = []string{
	"string", "boolean", "integer", "floating_point",
	"verilog_binary", "verilog_hex", "c_binary", "c_hex",
}

func enumString(names []string, v int) string {
	if v >= 0 && v < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%d", v)
}

func marshalEnum(names []string, v int, kind string) ([]byte, error) {
	if v < 0 || v >= len(names) {
		return nil, fmt.Errorf("invalid %s %d", kind, v)
	}
	return []byte(names[v]), nil
}

func unmarshalEnum(names []string, text []byte, kind string) (int, error) {
	for i, n := range names {
		if n == string(text) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, text)
}

func (v BELCategory) String() string { return enumString(belCategoryNames, int(v)) }
func (v BELCategory) MarshalText() ([]byte, error) {
	return marshalEnum(belCategoryNames, int(v), "bel category")
}
func (v *BELCategory) UnmarshalText(text []byte) error {
	n, err := unmarshalEnum(belCategoryNames, text, "bel category")
	*v = BELCategory(n)
	return err
}

func (v Direction) String() string { return enumString(directionNames, int(v)) }
func (v Direction) MarshalText() ([]byte, error) {
	return marshalEnum(directionNames, int(v), "direction")
}
func (v *Direction) UnmarshalText(text []byte) error {
	n, err := unmarshalEnum(directionNames, text, "direction")
	*v = Direction(n)
	return err
}

func (v WireCategory) String() string { return enumString(wireCategoryNames, int(v)) }
func (v WireCategory) MarshalText() ([]byte, error) {
	return marshalEnum(wireCategoryNames, int(v), "wire category")
}
func (v *WireCategory) UnmarshalText(text []byte) error {
	n, err := unmarshalEnum(wireCategoryNames, text, "wire category")
	*v = WireCategory(n)
	return err
}

func (v ConstantType) String() string { return enumString(constantTypeNames, int(v)) }
func (v ConstantType) MarshalText() ([]byte, error) {
	return marshalEnum(constantTypeNames, int(v), "constant type")
}
func (v *ConstantType) UnmarshalText(text []byte) error {
	n, err := unmarshalEnum(constantTypeNames, text, "constant type")
	*v = ConstantType(n)
	return err
}

func (v CellPinValue) String() string { return enumString(cellPinValueNames, int(v)) }
func (v CellPinValue) MarshalText() ([]byte, error) {
	return marshalEnum(cellPinValueNames, int(v), "cell pin value")
}
func (v *CellPinValue) UnmarshalText(text []byte) error {
	n, err := unmarshalEnum(cellPinValueNames, text, "cell pin value")
	*v = CellPinValue(n)
	return err
}

func (v ParameterFormat) String() string { return enumString(parameterFormatNames, int(v)) }
func (v ParameterFormat) MarshalText() ([]byte, error) {
	return marshalEnum(parameterFormatNames, int(v), "parameter format")
}
func (v *ParameterFormat) UnmarshalText(text []byte) error {
	n, err := unmarshalEnum(parameterFormatNames, text, "parameter format")
	*v = ParameterFormat(n)
	return err
}
