// Package value describes self-describing document values as a tagged union.
// A Value carries its structural Kind (scalar, sequence, map, record, option,
// unit or enum variant) so ingestion can dispatch on shape without knowing the
// caller's concrete document type.
package value

// Kind is the structural category of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindChar
	KindString
	KindBytes
	KindNone
	KindSome
	KindUnit
	KindUnitStruct
	KindUnitVariant
	KindNewtype
	KindNewtypeVariant
	KindSeq
	KindTuple
	KindTupleStruct
	KindTupleVariant
	KindMap
	KindStruct
	KindStructVariant
)

var kindNames = [...]string{
	KindInvalid:        "invalid",
	KindBool:           "bool",
	KindInt:            "i64",
	KindUint:           "u64",
	KindFloat:          "f64",
	KindChar:           "char",
	KindString:         "str",
	KindBytes:          "&[u8]",
	KindNone:           "Option",
	KindSome:           "Option",
	KindUnit:           "()",
	KindUnitStruct:     "unit struct",
	KindUnitVariant:    "unit variant",
	KindNewtype:        "newtype struct",
	KindNewtypeVariant: "newtype variant",
	KindSeq:            "sequence",
	KindTuple:          "tuple",
	KindTupleStruct:    "tuple struct",
	KindTupleVariant:   "tuple variant",
	KindMap:            "map",
	KindStruct:         "struct",
	KindStructVariant:  "struct variant",
}

// String returns the shape name reported in UnserializableType errors.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Entry is one key/value pair of a map-shaped Value.
type Entry struct {
	Key   Value
	Value Value
}

// Field is one named field of a record-shaped Value.
type Field struct {
	Name  string
	Value Value
}

// Value is an immutable document value. The zero Value has KindInvalid.
type Value struct {
	kind    Kind
	b       bool
	i       int64
	u       uint64
	f       float64
	s       string
	raw     []byte
	name    string
	variant string
	inner   *Value
	elems   []Value
	entries []Entry
	fields  []Field
}

func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Uint(u uint64) Value   { return Value{kind: KindUint, u: u} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Char(r rune) Value     { return Value{kind: KindChar, i: int64(r)} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Bytes(b []byte) Value  { return Value{kind: KindBytes, raw: b} }
func None() Value           { return Value{kind: KindNone} }
func Unit() Value           { return Value{kind: KindUnit} }
func UnitStruct(name string) Value {
	return Value{kind: KindUnitStruct, name: name}
}

func Some(v Value) Value { return Value{kind: KindSome, inner: &v} }

func UnitVariant(name, variant string) Value {
	return Value{kind: KindUnitVariant, name: name, variant: variant}
}

// Newtype wraps v in a transparent named wrapper.
func Newtype(name string, v Value) Value {
	return Value{kind: KindNewtype, name: name, inner: &v}
}

func NewtypeVariant(name, variant string, v Value) Value {
	return Value{kind: KindNewtypeVariant, name: name, variant: variant, inner: &v}
}

func Seq(elems ...Value) Value { return Value{kind: KindSeq, elems: elems} }

func Tuple(elems ...Value) Value { return Value{kind: KindTuple, elems: elems} }

func TupleStruct(name string, elems ...Value) Value {
	return Value{kind: KindTupleStruct, name: name, elems: elems}
}

func TupleVariant(name, variant string, elems ...Value) Value {
	return Value{kind: KindTupleVariant, name: name, variant: variant, elems: elems}
}

// Map builds a map-shaped Value. Entry order is preserved.
func Map(entries ...Entry) Value { return Value{kind: KindMap, entries: entries} }

// Struct builds a record-shaped Value with the given named fields.
func Struct(name string, fields ...Field) Value {
	return Value{kind: KindStruct, name: name, fields: fields}
}

func StructVariant(name, variant string, fields ...Field) Value {
	return Value{kind: KindStructVariant, name: name, variant: variant, fields: fields}
}

// E is shorthand for a map Entry.
func E(key, val Value) Entry { return Entry{Key: key, Value: val} }

// F is shorthand for a record Field.
func F(name string, val Value) Field { return Field{Name: name, Value: val} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Bool() bool       { return v.b }
func (v Value) Int() int64       { return v.i }
func (v Value) Uint() uint64     { return v.u }
func (v Value) Float() float64   { return v.f }
func (v Value) Char() rune       { return rune(v.i) }
func (v Value) Str() string      { return v.s }
func (v Value) Bytes() []byte    { return v.raw }
func (v Value) Name() string     { return v.name }
func (v Value) Variant() string  { return v.variant }
func (v Value) Elems() []Value   { return v.elems }
func (v Value) Entries() []Entry { return v.entries }
func (v Value) Fields() []Field  { return v.fields }

// Inner returns the wrapped value of Some, Newtype and NewtypeVariant.
// It returns the zero Value for every other kind.
func (v Value) Inner() Value {
	if v.inner == nil {
		return Value{}
	}
	return *v.inner
}

// Len reports the number of elements, entries or fields of a compound Value.
func (v Value) Len() int {
	switch v.kind {
	case KindSeq, KindTuple, KindTupleStruct, KindTupleVariant:
		return len(v.elems)
	case KindMap:
		return len(v.entries)
	case KindStruct, KindStructVariant:
		return len(v.fields)
	default:
		return 0
	}
}
