package builder

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfiguration marks a fabric model that breaks an invariant the
	// document depends on. Generation stops; nothing is written.
	ErrInvalidConfiguration = errors.New("invalid fabric configuration")

	// ErrIndexOverflow marks a count or index that does not fit the document's
	// native index width
	ErrIndexOverflow = errors.New("index overflow")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func toU32(v int, what string) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s %d does not fit in uint32", ErrIndexOverflow, what, v)
	}
	return uint32(v), nil
}

// narrower converts ints to the document's index widths and keeps the first
// failure, so a stage can convert freely and check once at the end
type narrower struct {
	err error
}

func (n *narrower) u32(v int, what string) uint32 {
	out, err := toU32(v, what)
	if err != nil && n.err == nil {
		n.err = err
	}
	return out
}

func (n *narrower) u16(v int, what string) uint16 {
	if v < 0 || v > math.MaxUint16 {
		if n.err == nil {
			n.err = fmt.Errorf("%w: %s %d does not fit in uint16", ErrIndexOverflow, what, v)
		}
		return 0
	}
	return uint16(v)
}

func (n *narrower) i32(v int, what string) int32 {
	if v < math.MinInt32 || v > math.MaxInt32 {
		if n.err == nil {
			n.err = fmt.Errorf("%w: %s %d does not fit in int32", ErrIndexOverflow, what, v)
		}
		return 0
	}
	return int32(v)
}
