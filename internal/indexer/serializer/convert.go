package serializer

import (
	"math"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/rank"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
)

// ConvertToString normalizes a map key into a field name. Strings and chars
// are taken as is, numbers are formatted in decimal, newtypes are unwrapped.
func ConvertToString(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindString:
		return v.Str(), nil
	case value.KindChar:
		return string(v.Char()), nil
	case value.KindInt:
		return strconv.FormatInt(v.Int(), 10), nil
	case value.KindUint:
		return strconv.FormatUint(v.Uint(), 10), nil
	case value.KindFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	case value.KindNewtype:
		return ConvertToString(v.Inner())
	default:
		return "", unserializable(v.Kind())
	}
}

// ConvertToNumber coerces a ranked field value into a rank.Number. Strings
// are parsed; unparsable strings fail with rank.ErrParseNumber.
func ConvertToNumber(v value.Value) (rank.Number, error) {
	switch v.Kind() {
	case value.KindInt:
		return rank.Signed(v.Int()), nil
	case value.KindUint:
		return rank.Unsigned(v.Uint()), nil
	case value.KindFloat:
		if math.IsNaN(v.Float()) {
			return rank.Number{}, rank.ErrNaN
		}
		return rank.Float(v.Float()), nil
	case value.KindString:
		return rank.ParseNumber(v.Str())
	case value.KindSome, value.KindNewtype:
		return ConvertToNumber(v.Inner())
	default:
		return rank.Number{}, unserializable(v.Kind())
	}
}
