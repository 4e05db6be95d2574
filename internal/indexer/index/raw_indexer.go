package index

import (
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/tokenizer"
)

// positionGap separates consecutive texts of one field so phrase matches
// never span two array elements.
const positionGap = 8

type fieldKey struct {
	doc  document.ID
	attr schema.Attribute
}

// RawIndexer accumulates postings for indexed fields. Re-indexing a
// (document, attribute) pair replaces its previous postings.
type RawIndexer struct {
	tokenizer tokenizer.Tokenizer

	mu     sync.RWMutex
	index  map[string]map[fieldKey]*Posting
	fields map[fieldKey][]string
	docs   map[document.ID]int
	size   int64
}

func NewRawIndexer(t tokenizer.Tokenizer) *RawIndexer {
	return &RawIndexer{
		tokenizer: t,
		index:     make(map[string]map[fieldKey]*Posting),
		fields:    make(map[fieldKey][]string),
		docs:      make(map[document.ID]int),
	}
}

// IndexText indexes one text for (id, attr) and returns the number of words
// it produced.
func (r *RawIndexer) IndexText(id document.ID, attr schema.Attribute, text string) int {
	return r.IndexTextSeq(id, attr, []string{text})
}

// IndexTextSeq indexes several texts as one field, leaving a position gap
// between them, and returns the total number of words.
func (r *RawIndexer) IndexTextSeq(id document.ID, attr schema.Attribute, texts []string) int {
	k := fieldKey{id, attr}
	termData := make(map[string]*Posting)
	count := 0
	offset := 0
	for _, text := range texts {
		last := -1
		for _, token := range r.tokenizer.Tokenize(text) {
			p, exists := termData[token.Term]
			if !exists {
				p = &Posting{
					DocID:     id,
					Attribute: attr,
					Positions: make([]int, 0, 4),
				}
				termData[token.Term] = p
			}
			p.Frequency++
			p.Positions = append(p.Positions, offset+token.Position)
			last = token.Position
			count++
		}
		if last >= 0 {
			offset += last + 1 + positionGap
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFieldLocked(k)
	if len(termData) == 0 {
		return 0
	}
	terms := make([]string, 0, len(termData))
	for term, posting := range termData {
		if _, exists := r.index[term]; !exists {
			r.index[term] = make(map[fieldKey]*Posting)
		}
		r.index[term][k] = posting
		r.size += postingSize(term, posting)
		terms = append(terms, term)
	}
	r.fields[k] = terms
	r.docs[id]++
	return count
}

func (r *RawIndexer) removeFieldLocked(k fieldKey) {
	terms, ok := r.fields[k]
	if !ok {
		return
	}
	for _, term := range terms {
		postings := r.index[term]
		if p, ok := postings[k]; ok {
			r.size -= postingSize(term, p)
			delete(postings, k)
		}
		if len(postings) == 0 {
			delete(r.index, term)
		}
	}
	delete(r.fields, k)
	r.docs[k.doc]--
	if r.docs[k.doc] <= 0 {
		delete(r.docs, k.doc)
	}
}

func postingSize(term string, p *Posting) int64 {
	return int64(len(term) + len(p.Positions)*8 + 64)
}

// Search returns the postings of term ordered by document and attribute.
func (r *RawIndexer) Search(term string) PostingList {
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs, exists := r.index[term]
	if !exists {
		return nil
	}
	result := make(PostingList, 0, len(docs))
	for _, posting := range docs {
		result = append(result, *posting)
	}
	sortPostings(result)
	return result
}

// Snapshot copies the index as term entries ordered by term.
func (r *RawIndexer) Snapshot() []TermEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]TermEntry, 0, len(r.index))
	for term, docs := range r.index {
		postings := make(PostingList, 0, len(docs))
		for _, posting := range docs {
			postings = append(postings, *posting)
		}
		sortPostings(postings)
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// Size is an estimate of the index's memory footprint in bytes.
func (r *RawIndexer) Size() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// DocCount returns the number of documents with at least one indexed word.
func (r *RawIndexer) DocCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

func (r *RawIndexer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = make(map[string]map[fieldKey]*Posting)
	r.fields = make(map[fieldKey][]string)
	r.docs = make(map[document.ID]int)
	r.size = 0
}

func sortPostings(l PostingList) {
	sort.Slice(l, func(i, j int) bool {
		if l[i].DocID != l[j].DocID {
			return l[i].DocID < l[j].DocID
		}
		return l[i].Attribute < l[j].Attribute
	})
}
