// Package indexer owns the ingestion destinations of one shard: the document
// store, the field word counts, the word index and the ranked map. Documents
// are routed into them by the serializer under a single writer lock and
// flushed periodically to bolt, segment files and the rank publisher.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/rank"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/serializer"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/metrics"
)

const storeFile = "documents.bolt"

// Options carries the collaborators shared by every shard. Publisher and
// Metrics are optional.
type Options struct {
	Schema    *schema.Schema
	Publisher *rank.Publisher
	Metrics   *metrics.Metrics
	ShardID   string
}

type Engine struct {
	cfg       config.IndexerConfig
	schema    *schema.Schema
	encoder   serializer.Encoder
	tokenizer tokenizer.Tokenizer
	publisher *rank.Publisher
	metrics   *metrics.Metrics
	shardID   string
	logger    *slog.Logger

	mu       sync.Mutex
	fields   *docstore.RAM
	counts   *docstore.FieldsCounts
	memIndex *index.RawIndexer
	ranked   *rank.RankedMap

	store    *docstore.Bolt
	writer   *segment.Writer
	readers  []*segment.Reader
	readerMu sync.RWMutex
}

func NewEngine(cfg config.IndexerConfig, opts Options) (*Engine, error) {
	if opts.Schema == nil {
		return nil, errors.New("engine requires a schema")
	}
	enc, err := serializer.NewEncoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	tok, err := tokenizer.New(cfg.Analyzer)
	if err != nil {
		return nil, fmt.Errorf("creating tokenizer: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	store, err := docstore.OpenBolt(filepath.Join(cfg.DataDir, storeFile), docstore.BoltOptions{NoSync: cfg.NoSync})
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		schema:    opts.Schema,
		encoder:   enc,
		tokenizer: tok,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		shardID:   opts.ShardID,
		logger:    logger.WithComponent("indexer").With("shard_id", opts.ShardID),
		fields:    docstore.NewRAM(),
		counts:    docstore.NewFieldsCounts(),
		memIndex:  index.NewRawIndexer(tok),
		ranked:    rank.NewRankedMap(),
		store:     store,
		writer:    segment.NewWriter(cfg.DataDir),
	}
	if err := e.loadExistingSegments(); err != nil {
		store.Close()
		return nil, fmt.Errorf("loading existing segments: %w", err)
	}
	return e, nil
}

// IndexDocument routes every field of doc. A failing field aborts the rest
// of the document; fields already routed stay in place until the next flush.
func (e *Engine) IndexDocument(ctx context.Context, id document.ID, doc value.Value) error {
	start := time.Now()
	var stats serializer.Stats

	e.mu.Lock()
	ser := serializer.Serializer{
		Schema:        e.schema,
		DocumentStore: e.fields,
		FieldsCounts:  e.counts,
		Indexer:       e.memIndex,
		RankedMap:     e.ranked,
		Encoder:       e.encoder,
		DocumentID:    id,
		Stats:         &stats,
	}
	err := ser.Serialize(doc)
	size := e.bufferedSizeLocked()
	buffered := e.memIndex.DocCount()
	e.mu.Unlock()

	e.observe(stats, err, time.Since(start), buffered)
	if err != nil {
		e.logger.Error("document rejected",
			"doc_id", id,
			"reason", FailureReason(err),
			"error", err,
		)
		return fmt.Errorf("indexing document %s: %w", id, err)
	}
	e.logger.Debug("document indexed in memory",
		"doc_id", id,
		"stored", stats.Stored,
		"indexed", stats.Indexed,
		"ranked", stats.Ranked,
		"dropped", stats.Dropped,
		"mem_size", size,
	)
	if size >= e.cfg.SegmentMaxSize {
		e.logger.Info("memory index reached max size, flushing to disk",
			"size", size,
			"threshold", e.cfg.SegmentMaxSize,
		)
		if err := e.Flush(ctx); err != nil {
			return fmt.Errorf("flushing memory index: %w", err)
		}
	}
	return nil
}

func (e *Engine) bufferedSizeLocked() int64 {
	return e.fields.Size() + e.memIndex.Size()
}

func (e *Engine) observe(stats serializer.Stats, err error, elapsed time.Duration, buffered int) {
	if e.metrics == nil {
		return
	}
	m := e.metrics
	m.IndexLatency.Observe(elapsed.Seconds())
	m.FieldsRoutedTotal.WithLabelValues("store").Add(float64(stats.Stored))
	m.FieldsRoutedTotal.WithLabelValues("index").Add(float64(stats.Indexed))
	m.FieldsRoutedTotal.WithLabelValues("rank").Add(float64(stats.Ranked))
	m.FieldsDroppedTotal.Add(float64(stats.Dropped))
	m.ShardBufferedDocs.WithLabelValues(e.shardID).Set(float64(buffered))
	if err != nil {
		m.DocFailuresTotal.WithLabelValues(FailureReason(err)).Inc()
		return
	}
	m.DocsIndexedTotal.Inc()
}

// FailureReason classifies a document error for logs and metrics.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, serializer.ErrProtocolViolation):
		return "protocol_violation"
	case errors.Is(err, serializer.ErrEncode):
		return "encode"
	case errors.Is(err, serializer.ErrIndex):
		return "index"
	case errors.Is(err, serializer.ErrNumberConversion):
		return "number_conversion"
	case errors.Is(err, serializer.ErrUnserializableType):
		return "unserializable_type"
	default:
		return "other"
	}
}

// Flush persists the buffered fields and counts to bolt, publishes the
// ranked values and writes the word index as a new segment. The buffers are
// reset only when every step succeeded; all steps are safe to repeat.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fields.Len() == 0 && e.ranked.Len() == 0 && e.memIndex.DocCount() == 0 {
		return nil
	}
	if err := e.flushLocked(ctx); err != nil {
		e.countFlush("error")
		return err
	}
	e.countFlush("success")
	return nil
}

func (e *Engine) flushLocked(ctx context.Context) error {
	fieldCount := e.fields.Len()
	if err := e.store.Persist(e.fields, e.counts); err != nil {
		return fmt.Errorf("persisting document store: %w", err)
	}
	rankCount := e.ranked.Len()
	if e.publisher != nil && rankCount > 0 {
		if err := e.publisher.Publish(ctx, e.ranked); err != nil {
			return fmt.Errorf("publishing ranks: %w", err)
		}
		if e.metrics != nil {
			e.metrics.RanksPublishedTotal.Add(float64(rankCount))
		}
	}

	segmentName := ""
	terms := 0
	if snapshot := e.memIndex.Snapshot(); len(snapshot) > 0 {
		name, err := e.writer.Write(snapshot)
		if err != nil {
			return fmt.Errorf("writing segment: %w", err)
		}
		reader, err := segment.OpenReader(filepath.Join(e.cfg.DataDir, name))
		if err != nil {
			return fmt.Errorf("opening new segment for reading: %w", err)
		}
		e.readerMu.Lock()
		e.readers = append(e.readers, reader)
		e.readerMu.Unlock()
		segmentName, terms = name, reader.Terms()
	}

	e.fields.Reset()
	e.counts.Reset()
	e.memIndex.Reset()
	e.ranked = rank.NewRankedMap()
	if e.metrics != nil {
		e.metrics.ShardBufferedDocs.WithLabelValues(e.shardID).Set(0)
	}
	e.logger.Info("index flushed",
		"fields", fieldCount,
		"ranks", rankCount,
		"segment", segmentName,
		"terms", terms,
		"active_segments", e.segmentCount(),
	)
	return nil
}

func (e *Engine) countFlush(status string) {
	if e.metrics != nil {
		e.metrics.IndexFlushesTotal.WithLabelValues(status).Inc()
	}
}

func (e *Engine) segmentCount() int {
	e.readerMu.RLock()
	defer e.readerMu.RUnlock()
	return len(e.readers)
}

// Search returns the postings of the first term of query across the memory
// index and every segment. When a field was re-indexed, the newest posting
// of that (document, attribute) wins.
func (e *Engine) Search(query string) (index.PostingList, error) {
	tokens := e.tokenizer.Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}
	term := tokens[0].Term

	e.readerMu.RLock()
	readers := make([]*segment.Reader, len(e.readers))
	copy(readers, e.readers)
	e.readerMu.RUnlock()

	var all index.PostingList
	for _, reader := range readers {
		postings, err := reader.Search(term)
		if err != nil {
			e.logger.Error("segment search failed",
				"segment", reader.Path(),
				"error", err,
			)
			continue
		}
		all = append(all, postings...)
	}
	all = append(all, e.memIndex.Search(term)...)
	return latestPostings(all), nil
}

// Document returns the stored fields of id, buffered values taking
// precedence over persisted ones.
func (e *Engine) Document(id document.ID) ([]docstore.FieldEntry, error) {
	persisted, err := e.store.DocumentFields(id)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", id, err)
	}
	merged := make(map[schema.Attribute]docstore.FieldEntry, len(persisted))
	for _, f := range persisted {
		merged[f.Attribute] = f
	}
	e.mu.Lock()
	for _, f := range e.fields.DocumentFields(id) {
		merged[f.Attribute] = f
	}
	e.mu.Unlock()

	out := make([]docstore.FieldEntry, 0, len(merged))
	for _, f := range merged {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Attribute < out[j].Attribute })
	return out, nil
}

// Ping checks the document store.
func (e *Engine) Ping(context.Context) error {
	return e.store.Ping()
}

func (e *Engine) StartFlushLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.FlushInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.Flush(ctx); err != nil {
					e.logger.Error("periodic flush failed", "error", err)
				}
			}
		}
	}()
}

// Close performs a final flush and releases the store and segment files.
func (e *Engine) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	flushErr := e.Flush(ctx)
	if flushErr != nil {
		e.logger.Error("final flush on close failed", "error", flushErr)
	}
	e.readerMu.Lock()
	for _, reader := range e.readers {
		if err := reader.Close(); err != nil {
			e.logger.Error("closing segment reader", "error", err)
		}
	}
	e.readers = nil
	e.readerMu.Unlock()
	if err := e.store.Close(); err != nil {
		return fmt.Errorf("closing document store: %w", err)
	}
	return flushErr
}

func (e *Engine) loadExistingSegments() error {
	entries, err := os.ReadDir(e.cfg.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading data directory: %w", err)
	}
	segFiles := make([]string, 0)
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), segment.FileSuffix) {
			segFiles = append(segFiles, entry.Name())
		}
	}
	sort.Strings(segFiles)

	for _, name := range segFiles {
		reader, err := segment.OpenReader(filepath.Join(e.cfg.DataDir, name))
		if err != nil {
			e.logger.Error("failed to open segment, skipping",
				"segment", name,
				"error", err,
			)
			continue
		}
		e.readers = append(e.readers, reader)
	}
	if len(e.readers) > 0 {
		e.logger.Info("segment recovery complete", "segments_loaded", len(e.readers))
	}
	return nil
}

// latestPostings keeps the last posting seen for each (document, attribute)
// and orders the result by document, then attribute.
func latestPostings(postings index.PostingList) index.PostingList {
	if len(postings) <= 1 {
		return postings
	}
	type key struct {
		doc  document.ID
		attr schema.Attribute
	}
	seen := make(map[key]int)
	result := make(index.PostingList, 0, len(postings))
	for _, p := range postings {
		k := key{p.DocID, p.Attribute}
		if idx, exists := seen[k]; exists {
			result[idx] = p
			continue
		}
		seen[k] = len(result)
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DocID != result[j].DocID {
			return result[i].DocID < result[j].DocID
		}
		return result[i].Attribute < result[j].Attribute
	})
	return result
}
