// Package shard partitions documents across independent indexer.Engine
// instances. Each shard owns its own destinations and data directory, so
// documents of different shards are indexed concurrently while each shard
// keeps a single writer.
package shard

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Router maps document IDs to shard engines by id modulo the shard count.
type Router struct {
	engines []*indexer.Engine
	logger  *slog.Logger
}

// NewRouter creates cfg.NumShards engines, each in its own sub-directory
// under cfg.DataDir.
func NewRouter(cfg config.IndexerConfig, opts indexer.Options) (*Router, error) {
	if cfg.NumShards < 1 {
		return nil, fmt.Errorf("shard count must be at least 1, got %d", cfg.NumShards)
	}
	r := &Router{
		engines: make([]*indexer.Engine, 0, cfg.NumShards),
		logger:  logger.WithComponent("shard-router"),
	}
	for i := 0; i < cfg.NumShards; i++ {
		shardCfg := cfg
		shardCfg.DataDir = filepath.Join(cfg.DataDir, fmt.Sprintf("shard-%d", i))
		shardOpts := opts
		shardOpts.ShardID = strconv.Itoa(i)
		engine, err := indexer.NewEngine(shardCfg, shardOpts)
		if err != nil {
			r.closeAll()
			return nil, fmt.Errorf("creating engine for shard %d: %w", i, err)
		}
		r.engines = append(r.engines, engine)
		r.logger.Debug("shard engine initialized",
			"shard_id", i,
			"data_dir", shardCfg.DataDir,
		)
	}
	if opts.Metrics != nil {
		opts.Metrics.ActiveShards.Set(float64(len(r.engines)))
	}
	r.logger.Info("shard router ready", "num_shards", len(r.engines))
	return r, nil
}

// ShardFor returns the shard index owning id.
func (r *Router) ShardFor(id document.ID) int {
	return int(uint64(id) % uint64(len(r.engines)))
}

// Route returns the Engine responsible for id.
func (r *Router) Route(id document.ID) *indexer.Engine {
	return r.engines[r.ShardFor(id)]
}

// IndexDocument indexes doc into the shard owning id.
func (r *Router) IndexDocument(ctx context.Context, id document.ID, doc value.Value) error {
	return r.Route(id).IndexDocument(ctx, id, doc)
}

// Document returns the stored fields of id from its shard.
func (r *Router) Document(id document.ID) ([]docstore.FieldEntry, error) {
	return r.Route(id).Document(id)
}

// NumShards returns the number of shards managed by this router.
func (r *Router) NumShards() int {
	return len(r.engines)
}

// Search queries every shard concurrently and merges the postings ordered
// by document.
func (r *Router) Search(ctx context.Context, query string) (index.PostingList, error) {
	results := make([]index.PostingList, len(r.engines))
	g, _ := errgroup.WithContext(ctx)
	for i, engine := range r.engines {
		g.Go(func() error {
			postings, err := engine.Search(query)
			if err != nil {
				return fmt.Errorf("searching shard %d: %w", i, err)
			}
			results[i] = postings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var merged index.PostingList
	for _, postings := range results {
		merged = append(merged, postings...)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].DocID != merged[j].DocID {
			return merged[i].DocID < merged[j].DocID
		}
		return merged[i].Attribute < merged[j].Attribute
	})
	return merged, nil
}

// FlushAll flushes every shard concurrently and returns the first error.
func (r *Router) FlushAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, engine := range r.engines {
		g.Go(func() error {
			if err := engine.Flush(gctx); err != nil {
				r.logger.Error("flush failed", "shard_id", i, "error", err)
				return fmt.Errorf("flushing shard %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// StartFlushLoops starts the periodic flush of every shard.
func (r *Router) StartFlushLoops(ctx context.Context) {
	for _, engine := range r.engines {
		engine.StartFlushLoop(ctx)
	}
}

// Ping checks the document store of every shard.
func (r *Router) Ping(ctx context.Context) error {
	for i, engine := range r.engines {
		if err := engine.Ping(ctx); err != nil {
			return fmt.Errorf("shard %d: %w", i, err)
		}
	}
	return nil
}

// Close flushes and closes every shard engine.
func (r *Router) Close() error {
	return r.closeAll()
}

func (r *Router) closeAll() error {
	var firstErr error
	for id, engine := range r.engines {
		if err := engine.Close(); err != nil {
			r.logger.Error("close failed", "shard_id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
