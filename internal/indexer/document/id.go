// Package document holds the identifier shared by every per-document index
// structure.
package document

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// ID identifies one document across the document store, the word index,
// the field-count table and the ranked map. IDs are assigned by the caller.
type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Bytes returns the big-endian encoding of id, which sorts like the number.
func (id ID) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

// ParseID parses a decimal document ID.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing document id %q: %w", s, err)
	}
	return ID(n), nil
}
