package rank

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
)

type key struct {
	doc  document.ID
	attr schema.Attribute
}

// Entry is one ranked value.
type Entry struct {
	DocumentID document.ID
	Attribute  schema.Attribute
	Number     Number
}

// RankedMap stores the ranking value of each (document, attribute) pair.
// It is not safe for concurrent use.
type RankedMap struct {
	values map[key]Number
}

func NewRankedMap() *RankedMap {
	return &RankedMap{values: make(map[key]Number)}
}

// Insert sets the value for (id, attr), replacing any previous one.
func (m *RankedMap) Insert(id document.ID, attr schema.Attribute, n Number) {
	m.values[key{id, attr}] = n
}

func (m *RankedMap) Get(id document.ID, attr schema.Attribute) (Number, bool) {
	n, ok := m.values[key{id, attr}]
	return n, ok
}

func (m *RankedMap) Len() int {
	return len(m.values)
}

// Entries returns all values ordered by attribute, then document.
func (m *RankedMap) Entries() []Entry {
	entries := make([]Entry, 0, len(m.values))
	for k, n := range m.values {
		entries = append(entries, Entry{DocumentID: k.doc, Attribute: k.attr, Number: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Attribute != entries[j].Attribute {
			return entries[i].Attribute < entries[j].Attribute
		}
		return entries[i].DocumentID < entries[j].DocumentID
	})
	return entries
}
