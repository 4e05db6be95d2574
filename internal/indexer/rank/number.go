// Package rank holds the sortable numeric values of ranked attributes.
package rank

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrParseNumber = errors.New("cannot parse number")
	// ErrNaN rejects NaN, which sorted sets cannot score.
	ErrNaN = errors.New("NaN is not a ranking value")
)

type numberKind uint8

const (
	unsigned numberKind = iota
	signed
	float
)

// Number is an unsigned, signed or floating-point ranking value.
type Number struct {
	kind numberKind
	u    uint64
	i    int64
	f    float64
}

func Unsigned(u uint64) Number { return Number{kind: unsigned, u: u} }
func Signed(i int64) Number    { return Number{kind: signed, i: i} }
func Float(f float64) Number   { return Number{kind: float, f: f} }

// ParseNumber reads s as an unsigned integer, then a signed integer, then a
// float, keeping the first interpretation that succeeds.
func ParseNumber(s string) (Number, error) {
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Unsigned(u), nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Signed(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}, fmt.Errorf("%w: %q", ErrParseNumber, s)
	}
	if math.IsNaN(f) {
		return Number{}, fmt.Errorf("%w: %w: %q", ErrParseNumber, ErrNaN, s)
	}
	return Float(f), nil
}

// IsFloat reports whether n holds a floating-point value.
func (n Number) IsFloat() bool { return n.kind == float }

// Float64 converts n to a float64, losing precision for large integers.
func (n Number) Float64() float64 {
	switch n.kind {
	case unsigned:
		return float64(n.u)
	case signed:
		return float64(n.i)
	default:
		return n.f
	}
}

func (n Number) String() string {
	switch n.kind {
	case unsigned:
		return strconv.FormatUint(n.u, 10)
	case signed:
		return strconv.FormatInt(n.i, 10)
	default:
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	}
}

// Compare orders numbers by value. Integers compare exactly; anything
// involving a float compares as float64 with NaN sorting last.
func (n Number) Compare(o Number) int {
	switch {
	case n.kind == unsigned && o.kind == unsigned:
		return cmp.Compare(n.u, o.u)
	case n.kind == signed && o.kind == signed:
		return cmp.Compare(n.i, o.i)
	case n.kind == unsigned && o.kind == signed:
		if o.i < 0 || n.u > math.MaxInt64 {
			return 1
		}
		return cmp.Compare(int64(n.u), o.i)
	case n.kind == signed && o.kind == unsigned:
		return -o.Compare(n)
	}
	a, b := n.Float64(), o.Float64()
	switch {
	case math.IsNaN(a) && math.IsNaN(b):
		return 0
	case math.IsNaN(a):
		return 1
	case math.IsNaN(b):
		return -1
	}
	return cmp.Compare(a, b)
}
