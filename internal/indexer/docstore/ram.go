// Package docstore holds the stored bytes of document fields and the number
// of words indexed per field. The in-memory structures take writes during
// ingestion; Bolt persists them.
package docstore

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
)

type key struct {
	doc  document.ID
	attr schema.Attribute
}

func less(a, b key) bool {
	if a.doc != b.doc {
		return a.doc < b.doc
	}
	return a.attr < b.attr
}

// FieldEntry is one stored field.
type FieldEntry struct {
	DocumentID document.ID
	Attribute  schema.Attribute
	Data       []byte
}

// RAM is an in-memory document store. It is not safe for concurrent use.
type RAM struct {
	fields map[key][]byte
	size   int64
}

func NewRAM() *RAM {
	return &RAM{fields: make(map[key][]byte)}
}

// SetDocumentField stores data for (id, attr), replacing any previous value.
func (r *RAM) SetDocumentField(id document.ID, attr schema.Attribute, data []byte) {
	k := key{id, attr}
	if old, ok := r.fields[k]; ok {
		r.size -= int64(len(old))
	}
	r.fields[k] = data
	r.size += int64(len(data))
}

func (r *RAM) DocumentField(id document.ID, attr schema.Attribute) ([]byte, bool) {
	data, ok := r.fields[key{id, attr}]
	return data, ok
}

// DocumentFields returns the stored fields of id ordered by attribute.
func (r *RAM) DocumentFields(id document.ID) []FieldEntry {
	var out []FieldEntry
	for k, data := range r.fields {
		if k.doc == id {
			out = append(out, FieldEntry{DocumentID: k.doc, Attribute: k.attr, Data: data})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Attribute < out[j].Attribute })
	return out
}

func (r *RAM) Len() int {
	return len(r.fields)
}

// Size returns the total number of stored bytes.
func (r *RAM) Size() int64 {
	return r.size
}

// Entries returns every stored field ordered by document, then attribute.
func (r *RAM) Entries() []FieldEntry {
	keys := make([]key, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	out := make([]FieldEntry, len(keys))
	for i, k := range keys {
		out[i] = FieldEntry{DocumentID: k.doc, Attribute: k.attr, Data: r.fields[k]}
	}
	return out
}

// Reset drops every stored field.
func (r *RAM) Reset() {
	r.fields = make(map[key][]byte)
	r.size = 0
}

// CountEntry is the number of words indexed for one field.
type CountEntry struct {
	DocumentID document.ID
	Attribute  schema.Attribute
	Count      uint64
}

// FieldsCounts records how many words each indexed field contributed.
// Deleted counts are remembered until Reset so Bolt.Persist can drop them
// from disk too.
type FieldsCounts struct {
	counts  map[key]uint64
	deleted map[key]struct{}
}

func NewFieldsCounts() *FieldsCounts {
	return &FieldsCounts{
		counts:  make(map[key]uint64),
		deleted: make(map[key]struct{}),
	}
}

// Set records count for (id, attr), replacing any previous value.
func (f *FieldsCounts) Set(id document.ID, attr schema.Attribute, count uint64) {
	k := key{id, attr}
	f.counts[k] = count
	delete(f.deleted, k)
}

// Delete removes the count of (id, attr).
func (f *FieldsCounts) Delete(id document.ID, attr schema.Attribute) {
	k := key{id, attr}
	delete(f.counts, k)
	f.deleted[k] = struct{}{}
}

func (f *FieldsCounts) Get(id document.ID, attr schema.Attribute) (uint64, bool) {
	c, ok := f.counts[key{id, attr}]
	return c, ok
}

func (f *FieldsCounts) Len() int {
	return len(f.counts)
}

// Entries returns every count ordered by document, then attribute.
func (f *FieldsCounts) Entries() []CountEntry {
	keys := make([]key, 0, len(f.counts))
	for k := range f.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	out := make([]CountEntry, len(keys))
	for i, k := range keys {
		out[i] = CountEntry{DocumentID: k.doc, Attribute: k.attr, Count: f.counts[k]}
	}
	return out
}

// Deleted returns the deleted (document, attribute) pairs in order.
func (f *FieldsCounts) Deleted() []CountEntry {
	keys := make([]key, 0, len(f.deleted))
	for k := range f.deleted {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	out := make([]CountEntry, len(keys))
	for i, k := range keys {
		out[i] = CountEntry{DocumentID: k.doc, Attribute: k.attr}
	}
	return out
}

// Reset drops every count and deletion.
func (f *FieldsCounts) Reset() {
	f.counts = make(map[key]uint64)
	f.deleted = make(map[key]struct{})
}
