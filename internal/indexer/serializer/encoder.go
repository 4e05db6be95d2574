package serializer

import (
	"bytes"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	EncodingJSON    = "json"
	EncodingMsgPack = "msgpack"
)

// Encoder turns a field value into the bytes kept in the document store.
type Encoder interface {
	Encode(v value.Value) ([]byte, error)
}

// JSONEncoder stores fields as JSON text.
type JSONEncoder struct{}

func (JSONEncoder) Encode(v value.Value) ([]byte, error) {
	return v.MarshalJSON()
}

// MsgPackEncoder stores fields as MessagePack.
type MsgPackEncoder struct{}

func (MsgPackEncoder) Encode(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	err := v.EncodeMsgpack(enc)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewEncoder returns the encoder registered under name; an empty name
// selects JSON.
func NewEncoder(name string) (Encoder, error) {
	switch name {
	case "", EncodingJSON:
		return JSONEncoder{}, nil
	case EncodingMsgPack:
		return MsgPackEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown field encoding %q", name)
	}
}
