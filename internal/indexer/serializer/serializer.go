// Package serializer decomposes one document into its top-level fields and
// routes every field recognized by the schema to the document store, the
// word index and the ranked map.
//
// A Serializer is synchronous and holds no locks. The caller must guarantee
// exclusive access to the destinations for the duration of a document.
// Errors abort the remaining fields; writes already made are kept.
package serializer

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/rank"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
)

type Schema interface {
	Attribute(name string) (schema.Attribute, bool)
	Props(attr schema.Attribute) schema.Props
}

type DocumentStore interface {
	SetDocumentField(id document.ID, attr schema.Attribute, data []byte)
}

type FieldsCounts interface {
	Set(id document.ID, attr schema.Attribute, count uint64)
	Delete(id document.ID, attr schema.Attribute)
}

// TextIndexer tokenizes text into the word index and returns the number of
// words indexed.
type TextIndexer interface {
	IndexText(id document.ID, attr schema.Attribute, text string) int
	IndexTextSeq(id document.ID, attr schema.Attribute, texts []string) int
}

type RankedMap interface {
	Insert(id document.ID, attr schema.Attribute, n rank.Number)
}

// Stats counts what happened to the fields of the documents serialized with
// it. A nil *Stats is valid and records nothing.
type Stats struct {
	Stored  int
	Indexed int
	Ranked  int
	Dropped int
}

func (s *Stats) add(stored, indexed, ranked, dropped int) {
	if s == nil {
		return
	}
	s.Stored += stored
	s.Indexed += indexed
	s.Ranked += ranked
	s.Dropped += dropped
}

// Serializer routes the fields of the document DocumentID. Encoder defaults
// to JSONEncoder when nil.
type Serializer struct {
	Schema        Schema
	DocumentStore DocumentStore
	FieldsCounts  FieldsCounts
	Indexer       TextIndexer
	RankedMap     RankedMap
	Encoder       Encoder
	DocumentID    document.ID
	Stats         *Stats
}

// Serialize accepts a map or a struct, unwrapping newtypes, and routes each
// of its fields. Any other shape is rejected before a destination is touched.
func (s *Serializer) Serialize(v value.Value) error {
	switch v.Kind() {
	case value.KindNewtype:
		return s.Serialize(v.Inner())
	case value.KindMap:
		m := s.SerializeMap()
		for _, e := range v.Entries() {
			if err := m.SerializeKey(e.Key); err != nil {
				return err
			}
			if err := m.SerializeValue(e.Value); err != nil {
				return err
			}
		}
		return m.End()
	case value.KindStruct:
		st := s.SerializeStruct()
		for _, f := range v.Fields() {
			if err := st.SerializeField(f.Name, f.Value); err != nil {
				return err
			}
		}
		return st.End()
	default:
		return unserializable(v.Kind())
	}
}

// SerializeField routes one field. Names unknown to the schema are dropped
// silently. The stored bytes are always written before indexing and ranking.
func (s *Serializer) SerializeField(name string, v value.Value) error {
	attr, ok := s.Schema.Attribute(name)
	if !ok {
		s.Stats.add(0, 0, 0, 1)
		return nil
	}
	props := s.Schema.Props(attr)

	enc := s.Encoder
	if enc == nil {
		enc = JSONEncoder{}
	}
	data, err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("%w: field %q: %w", ErrEncode, name, err)
	}
	s.DocumentStore.SetDocumentField(s.DocumentID, attr, data)
	s.Stats.add(1, 0, 0, 0)

	if props.Indexed {
		count, ok, err := indexWords(s.Indexer, s.DocumentID, attr, v)
		if err != nil {
			return fmt.Errorf("%w: field %q: %w", ErrIndex, name, err)
		}
		if ok {
			s.FieldsCounts.Set(s.DocumentID, attr, uint64(count))
			s.Stats.add(0, 1, 0, 0)
		} else {
			s.FieldsCounts.Delete(s.DocumentID, attr)
		}
	}

	if props.Ranked {
		n, err := ConvertToNumber(v)
		if err != nil {
			return fmt.Errorf("%w: field %q: %w", ErrNumberConversion, name, err)
		}
		s.RankedMap.Insert(s.DocumentID, attr, n)
		s.Stats.add(0, 0, 1, 0)
	}
	return nil
}

func (s *Serializer) SerializeMap() *MapSerializer {
	return &MapSerializer{s: s}
}

func (s *Serializer) SerializeStruct() *StructSerializer {
	return &StructSerializer{s: s}
}

// MapSerializer feeds a map-shaped document key by key. A key must be
// followed by its value before the next key.
type MapSerializer struct {
	s      *Serializer
	key    string
	hasKey bool
}

func (m *MapSerializer) SerializeKey(k value.Value) error {
	if m.hasKey {
		return fmt.Errorf("%w: key %q has no value", ErrProtocolViolation, m.key)
	}
	name, err := ConvertToString(k)
	if err != nil {
		return fmt.Errorf("map key: %w", err)
	}
	m.key, m.hasKey = name, true
	return nil
}

func (m *MapSerializer) SerializeValue(v value.Value) error {
	if !m.hasKey {
		return fmt.Errorf("%w: value without a key", ErrProtocolViolation)
	}
	name := m.key
	m.key, m.hasKey = "", false
	return m.s.SerializeField(name, v)
}

// SerializeEntry routes a key and its value without using the key buffer.
func (m *MapSerializer) SerializeEntry(k, v value.Value) error {
	name, err := ConvertToString(k)
	if err != nil {
		return fmt.Errorf("map key: %w", err)
	}
	return m.s.SerializeField(name, v)
}

func (m *MapSerializer) End() error {
	return nil
}

type StructSerializer struct {
	s *Serializer
}

func (st *StructSerializer) SerializeField(name string, v value.Value) error {
	return st.s.SerializeField(name, v)
}

func (st *StructSerializer) End() error {
	return nil
}
