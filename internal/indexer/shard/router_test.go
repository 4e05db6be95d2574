package shard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/config"
)

func newRouter(t *testing.T, shards int) *Router {
	t.Helper()
	s, err := schema.FromDefs("id", []schema.AttributeDef{{Name: "title", Indexed: true}})
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.IndexerConfig{
		DataDir:        t.TempDir(),
		SegmentMaxSize: 1 << 20,
		FlushInterval:  time.Hour,
		NumShards:      shards,
		Encoding:       "json",
		NoSync:         true,
	}
	r, err := NewRouter(cfg, indexer.Options{Schema: s})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestShardFor(t *testing.T) {
	r := newRouter(t, 3)
	tests := []struct {
		id   document.ID
		want int
	}{
		{0, 0}, {1, 1}, {5, 2}, {9, 0},
	}
	for _, tt := range tests {
		if got := r.ShardFor(tt.id); got != tt.want {
			t.Errorf("ShardFor(%d) = %d, want %d", tt.id, got, tt.want)
		}
	}
	if r.Route(4) != r.Route(7) {
		t.Error("ids 4 and 7 should share shard 1")
	}
}

func TestConcurrentIndexAcrossShards(t *testing.T) {
	r := newRouter(t, 4)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 1; i <= 40; i++ {
		wg.Add(1)
		go func(id document.ID) {
			defer wg.Done()
			doc := value.Struct("Doc", value.F("title", value.String("wool hat")))
			if err := r.IndexDocument(ctx, id, doc); err != nil {
				t.Errorf("IndexDocument(%d): %v", id, err)
			}
		}(document.ID(i))
	}
	wg.Wait()

	if err := r.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}
	postings, err := r.Search(ctx, "wool")
	if err != nil {
		t.Fatal(err)
	}
	if len(postings) != 40 {
		t.Fatalf("Search(wool) = %d postings, want 40", len(postings))
	}
	for i, p := range postings {
		if p.DocID != document.ID(i+1) {
			t.Fatalf("postings[%d].DocID = %d, want %d", i, p.DocID, i+1)
		}
	}
	fields, err := r.Document(17)
	if err != nil || len(fields) != 1 {
		t.Errorf("Document(17) = %d fields, %v", len(fields), err)
	}
	if err := r.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
