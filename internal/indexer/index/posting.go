// Package index is the in-memory inverted index fed during ingestion. Terms
// map to postings keyed by (document, attribute) with word positions.
package index

import (
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
)

type Posting struct {
	DocID     document.ID      `msgpack:"d"`
	Attribute schema.Attribute `msgpack:"a"`
	Frequency int              `msgpack:"f"`
	Positions []int            `msgpack:"p"`
}

type PostingList []Posting

type TermEntry struct {
	Term     string
	Postings PostingList
}
