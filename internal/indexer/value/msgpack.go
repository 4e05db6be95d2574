package value

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var _ msgpack.CustomEncoder = Value{}

// EncodeMsgpack lays v out with the same structure as its JSON rendering:
// variants become single-entry maps keyed by the variant name.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch v.kind {
	case KindBool:
		return enc.EncodeBool(v.b)
	case KindInt:
		return enc.EncodeInt(v.i)
	case KindUint:
		return enc.EncodeUint(v.u)
	case KindFloat:
		return enc.EncodeFloat64(v.f)
	case KindChar:
		return enc.EncodeString(string(rune(v.i)))
	case KindString:
		return enc.EncodeString(v.s)
	case KindBytes:
		return enc.EncodeBytes(v.raw)
	case KindNone, KindUnit, KindUnitStruct:
		return enc.EncodeNil()
	case KindSome, KindNewtype:
		return v.Inner().EncodeMsgpack(enc)
	case KindUnitVariant:
		return enc.EncodeString(v.variant)
	case KindNewtypeVariant:
		if err := encodeTag(enc, v.variant); err != nil {
			return err
		}
		return v.Inner().EncodeMsgpack(enc)
	case KindSeq, KindTuple, KindTupleStruct:
		return encodeElems(enc, v.elems)
	case KindTupleVariant:
		if err := encodeTag(enc, v.variant); err != nil {
			return err
		}
		return encodeElems(enc, v.elems)
	case KindMap:
		if err := enc.EncodeMapLen(len(v.entries)); err != nil {
			return err
		}
		for _, e := range v.entries {
			if err := e.Key.EncodeMsgpack(enc); err != nil {
				return err
			}
			if err := e.Value.EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	case KindStruct:
		return encodeFields(enc, v.fields)
	case KindStructVariant:
		if err := encodeTag(enc, v.variant); err != nil {
			return err
		}
		return encodeFields(enc, v.fields)
	default:
		return fmt.Errorf("cannot encode %s value as msgpack", v.kind)
	}
}

func encodeTag(enc *msgpack.Encoder, tag string) error {
	if err := enc.EncodeMapLen(1); err != nil {
		return err
	}
	return enc.EncodeString(tag)
}

func encodeElems(enc *msgpack.Encoder, elems []Value) error {
	if err := enc.EncodeArrayLen(len(elems)); err != nil {
		return err
	}
	for _, e := range elems {
		if err := e.EncodeMsgpack(enc); err != nil {
			return err
		}
	}
	return nil
}

func encodeFields(enc *msgpack.Encoder, fields []Field) error {
	if err := enc.EncodeMapLen(len(fields)); err != nil {
		return err
	}
	for _, f := range fields {
		if err := enc.EncodeString(f.Name); err != nil {
			return err
		}
		if err := f.Value.EncodeMsgpack(enc); err != nil {
			return err
		}
	}
	return nil
}
