package serializer

import (
	"errors"
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/rank"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
)

func docID(id uint64) document.ID { return document.ID(id) }

func TestConvertToString(t *testing.T) {
	tests := []struct {
		in   value.Value
		want string
	}{
		{value.String("title"), "title"},
		{value.Char('é'), "é"},
		{value.Int(-12), "-12"},
		{value.Uint(42), "42"},
		{value.Float(1.5), "1.5"},
		{value.Newtype("Key", value.String("price")), "price"},
	}
	for _, tt := range tests {
		got, err := ConvertToString(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ConvertToString(%s) = %q, %v; want %q", tt.in.Kind(), got, err, tt.want)
		}
	}
	for _, in := range []value.Value{value.Bool(true), value.Unit(), value.Seq(), value.Map(), value.Some(value.String("x"))} {
		if _, err := ConvertToString(in); !errors.Is(err, ErrUnserializableType) {
			t.Errorf("ConvertToString(%s) err = %v, want ErrUnserializableType", in.Kind(), err)
		}
	}
}

func TestConvertToNumber(t *testing.T) {
	tests := []struct {
		in        value.Value
		want      string
		wantFloat bool
	}{
		{value.Uint(7), "7", false},
		{value.Int(-7), "-7", false},
		{value.Float(19.99), "19.99", true},
		{value.String("19.99"), "19.99", true},
		{value.String("-4"), "-4", false},
		{value.Some(value.Uint(3)), "3", false},
		{value.Newtype("Price", value.Int(2)), "2", false},
	}
	for _, tt := range tests {
		n, err := ConvertToNumber(tt.in)
		if err != nil {
			t.Errorf("ConvertToNumber(%s): %v", tt.in.Kind(), err)
			continue
		}
		if n.String() != tt.want || n.IsFloat() != tt.wantFloat {
			t.Errorf("ConvertToNumber(%s) = %s (float=%v), want %s", tt.in.Kind(), n, n.IsFloat(), tt.want)
		}
	}
	if _, err := ConvertToNumber(value.String("cheap")); !errors.Is(err, rank.ErrParseNumber) {
		t.Errorf("err = %v, want ErrParseNumber", err)
	}
	for _, in := range []value.Value{value.String("NaN"), value.Float(math.NaN()), value.Some(value.Float(math.NaN()))} {
		if _, err := ConvertToNumber(in); !errors.Is(err, rank.ErrNaN) {
			t.Errorf("ConvertToNumber(%s) err = %v, want ErrNaN", in.Kind(), err)
		}
	}
	for _, in := range []value.Value{value.Bool(true), value.None(), value.Seq(value.Int(1))} {
		if _, err := ConvertToNumber(in); !errors.Is(err, ErrUnserializableType) {
			t.Errorf("ConvertToNumber(%s) err = %v, want ErrUnserializableType", in.Kind(), err)
		}
	}
}

func TestIndexTexts(t *testing.T) {
	tests := []struct {
		in   value.Value
		want []string
	}{
		{value.String("red shoes"), []string{"red shoes"}},
		{value.Uint(12), []string{"12"}},
		{value.Some(value.String("x")), []string{"x"}},
		{value.None(), nil},
		{value.Seq(value.String("a"), value.Int(2), value.Seq(value.String("b"))), []string{"a", "2", `["b"]`}},
		{value.Map(value.E(value.String("k"), value.String("v"))), []string{"k", "v"}},
		{value.Struct("S", value.F("f", value.Float(0.5))), []string{"f", "0.5"}},
	}
	for _, tt := range tests {
		got, err := indexTexts(tt.in)
		if err != nil {
			t.Errorf("indexTexts(%s): %v", tt.in.Kind(), err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("indexTexts(%s) = %q, want %q", tt.in.Kind(), got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("indexTexts(%s)[%d] = %q, want %q", tt.in.Kind(), i, got[i], tt.want[i])
			}
		}
	}
	for _, in := range []value.Value{value.Bool(false), value.Bytes([]byte("x"))} {
		if _, err := indexTexts(in); !errors.Is(err, ErrUnserializableType) {
			t.Errorf("indexTexts(%s) err = %v, want ErrUnserializableType", in.Kind(), err)
		}
	}
}
