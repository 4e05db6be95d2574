package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// MarshalJSON renders v as JSON. Map entries and record fields keep their
// order. Map keys must be string-like (string, char or number).
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindUint:
		buf.WriteString(strconv.FormatUint(v.u, 10))
	case KindFloat:
		return writeScalar(buf, v.f)
	case KindChar:
		return writeScalar(buf, string(rune(v.i)))
	case KindString:
		return writeScalar(buf, v.s)
	case KindBytes:
		buf.WriteByte('[')
		for i, b := range v.raw {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Itoa(int(b)))
		}
		buf.WriteByte(']')
	case KindNone, KindUnit, KindUnitStruct:
		buf.WriteString("null")
	case KindSome, KindNewtype:
		return writeJSON(buf, v.Inner())
	case KindUnitVariant:
		return writeScalar(buf, v.variant)
	case KindNewtypeVariant:
		return writeTagged(buf, v.variant, func() error { return writeJSON(buf, v.Inner()) })
	case KindSeq, KindTuple, KindTupleStruct:
		return writeArray(buf, v.elems)
	case KindTupleVariant:
		return writeTagged(buf, v.variant, func() error { return writeArray(buf, v.elems) })
	case KindMap:
		buf.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := jsonKey(e.Key)
			if err != nil {
				return err
			}
			if err := writeScalar(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindStruct:
		return writeObject(buf, v.fields)
	case KindStructVariant:
		return writeTagged(buf, v.variant, func() error { return writeObject(buf, v.fields) })
	default:
		return fmt.Errorf("cannot encode %s value as JSON", v.kind)
	}
	return nil
}

func writeScalar(buf *bytes.Buffer, x any) error {
	data, err := json.Marshal(x)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

func writeArray(buf *bytes.Buffer, elems []Value) error {
	buf.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(buf, e); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeObject(buf *bytes.Buffer, fields []Field) error {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeScalar(buf, f.Name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeJSON(buf, f.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeTagged(buf *bytes.Buffer, tag string, body func() error) error {
	buf.WriteByte('{')
	if err := writeScalar(buf, tag); err != nil {
		return err
	}
	buf.WriteByte(':')
	if err := body(); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func jsonKey(k Value) (string, error) {
	switch k.kind {
	case KindString:
		return k.s, nil
	case KindChar:
		return string(rune(k.i)), nil
	case KindInt:
		return strconv.FormatInt(k.i, 10), nil
	case KindUint:
		return strconv.FormatUint(k.u, 10), nil
	case KindNewtype:
		return jsonKey(k.Inner())
	default:
		return "", fmt.Errorf("JSON object key must be a string, got %s", k.kind)
	}
}

// Decoder reads a stream of JSON documents as Values. Object key order is
// preserved and numbers keep their integer or float nature.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Decoder{dec: dec}
}

// Decode reads the next JSON value. It returns io.EOF when the stream is
// exhausted.
func (d *Decoder) Decode() (Value, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return Value{}, err
	}
	return d.decodeToken(tok)
}

func (d *Decoder) decodeToken(tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return d.decodeObject()
		case '[':
			return d.decodeArray()
		default:
			return Value{}, fmt.Errorf("unexpected JSON delimiter %q", t)
		}
	case bool:
		return Bool(t), nil
	case json.Number:
		return parseNumber(t)
	case string:
		return String(t), nil
	case nil:
		return Unit(), nil
	default:
		return Value{}, fmt.Errorf("unexpected JSON token %T", tok)
	}
}

func (d *Decoder) decodeObject() (Value, error) {
	var entries []Entry
	for d.dec.More() {
		keyTok, err := d.dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("unexpected JSON object key %v", keyTok)
		}
		val, err := d.Decode()
		if err != nil {
			return Value{}, unexpectedEOF(err)
		}
		entries = append(entries, E(String(key), val))
	}
	if _, err := d.dec.Token(); err != nil {
		return Value{}, unexpectedEOF(err)
	}
	return Map(entries...), nil
}

func (d *Decoder) decodeArray() (Value, error) {
	var elems []Value
	for d.dec.More() {
		val, err := d.Decode()
		if err != nil {
			return Value{}, unexpectedEOF(err)
		}
		elems = append(elems, val)
	}
	if _, err := d.dec.Token(); err != nil {
		return Value{}, unexpectedEOF(err)
	}
	return Seq(elems...), nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func parseNumber(n json.Number) (Value, error) {
	s := n.String()
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Uint(u), nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("parsing JSON number %q: %w", s, err)
	}
	return Float(f), nil
}

// ParseJSON decodes exactly one JSON value from data.
func ParseJSON(data []byte) (Value, error) {
	d := NewDecoder(bytes.NewReader(data))
	v, err := d.Decode()
	if err != nil {
		return Value{}, fmt.Errorf("decoding JSON value: %w", err)
	}
	if _, err := d.dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("decoding JSON value: trailing data after value")
	}
	return v, nil
}
