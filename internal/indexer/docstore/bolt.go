package docstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
	"go.etcd.io/bbolt"
)

var (
	documentsBucket    = []byte("documents")
	fieldsCountsBucket = []byte("documents_fields_counts")
)

var ErrNotFound = errors.New("field not found")

// Bolt is the on-disk document store. Keys are the big-endian document ID
// followed by the big-endian attribute, so one document's fields are
// contiguous and ordered.
type Bolt struct {
	db *bbolt.DB
}

type BoltOptions struct {
	// NoSync trades durability for speed; only meant for tests.
	NoSync bool
}

// OpenBolt opens (creating if needed) the store at path.
func OpenBolt(path string, opt BoltOptions) (*Bolt, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	bopt.NoSync = opt.NoSync
	bopt.FreelistType = bbolt.FreelistMapType
	db, err := bbolt.Open(path, 0o644, &bopt)
	if err != nil {
		return nil, fmt.Errorf("opening document store %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{documentsBucket, fieldsCountsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func fieldKey(id document.ID, attr schema.Attribute) []byte {
	k := make([]byte, 0, 10)
	k = append(k, id.Bytes()...)
	return append(k, attr.Bytes()...)
}

// Persist writes every stored field and word count in a single transaction
// and removes the counts deleted since the last reset.
func (b *Bolt) Persist(fields *RAM, counts *FieldsCounts) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(documentsBucket)
		for _, e := range fields.Entries() {
			if err := docs.Put(fieldKey(e.DocumentID, e.Attribute), e.Data); err != nil {
				return fmt.Errorf("storing field %d of document %d: %w", e.Attribute, e.DocumentID, err)
			}
		}
		cb := tx.Bucket(fieldsCountsBucket)
		var buf [8]byte
		for _, e := range counts.Entries() {
			binary.BigEndian.PutUint64(buf[:], e.Count)
			if err := cb.Put(fieldKey(e.DocumentID, e.Attribute), buf[:]); err != nil {
				return fmt.Errorf("storing word count of document %d: %w", e.DocumentID, err)
			}
		}
		for _, e := range counts.Deleted() {
			if err := cb.Delete(fieldKey(e.DocumentID, e.Attribute)); err != nil {
				return fmt.Errorf("deleting word count of document %d: %w", e.DocumentID, err)
			}
		}
		return nil
	})
}

// DocumentField returns a copy of the stored bytes of (id, attr).
func (b *Bolt) DocumentField(id document.ID, attr schema.Attribute) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(documentsBucket).Get(fieldKey(id, attr))
		if data == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), data...)
		return nil
	})
	return out, err
}

// DocumentFields returns every stored field of id ordered by attribute.
func (b *Bolt) DocumentFields(id document.ID) ([]FieldEntry, error) {
	var out []FieldEntry
	prefix := id.Bytes()
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(documentsBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && len(k) == 10 && string(k[:8]) == string(prefix); k, v = c.Next() {
			attr, err := schema.AttributeFromBytes(k[8:])
			if err != nil {
				return err
			}
			out = append(out, FieldEntry{
				DocumentID: id,
				Attribute:  attr,
				Data:       append([]byte(nil), v...),
			})
		}
		return nil
	})
	return out, err
}

// FieldWordCount returns the persisted word count of (id, attr).
func (b *Bolt) FieldWordCount(id document.ID, attr schema.Attribute) (uint64, error) {
	var count uint64
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(fieldsCountsBucket).Get(fieldKey(id, attr))
		if len(data) != 8 {
			return ErrNotFound
		}
		count = binary.BigEndian.Uint64(data)
		return nil
	})
	return count, err
}

// Ping reports whether the underlying database is still open.
func (b *Bolt) Ping() error {
	return b.db.View(func(*bbolt.Tx) error { return nil })
}

func (b *Bolt) Path() string {
	return b.db.Path()
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
