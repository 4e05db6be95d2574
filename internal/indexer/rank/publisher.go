package rank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/resilience"
)

// SortedSetWriter is the subset of the Redis client the Publisher needs.
type SortedSetWriter interface {
	ZAddScores(ctx context.Context, key string, scores map[string]float64) error
}

// Publisher exports a RankedMap as one sorted set per ranked attribute, so
// sort-by-field queries can page through documents by score.
type Publisher struct {
	writer    SortedSetWriter
	schema    *schema.Schema
	keyPrefix string
	retry     resilience.RetryConfig
	timeout   time.Duration
	breaker   *resilience.CircuitBreaker
	logger    *slog.Logger
}

func NewPublisher(w SortedSetWriter, s *schema.Schema, keyPrefix string, retry resilience.RetryConfig) *Publisher {
	return &Publisher{
		writer:    w,
		schema:    s,
		keyPrefix: keyPrefix,
		retry:     retry,
		logger:    logger.WithComponent("rank-publisher"),
	}
}

// WithTimeout bounds every sorted-set write by d.
func (p *Publisher) WithTimeout(d time.Duration) *Publisher {
	p.timeout = d
	return p
}

// WithCircuitBreaker makes writes fail fast while cb is open.
func (p *Publisher) WithCircuitBreaker(cb *resilience.CircuitBreaker) *Publisher {
	p.breaker = cb
	return p
}

// Key returns the sorted set name used for attr.
func (p *Publisher) Key(attr schema.Attribute) string {
	return p.keyPrefix + p.schema.AttributeName(attr)
}

// Publish writes every entry of m. Members are document IDs, scores the
// ranked values as float64. NaN scores are skipped since Redis rejects them.
func (p *Publisher) Publish(ctx context.Context, m *RankedMap) error {
	grouped := make(map[schema.Attribute]map[string]float64)
	for _, e := range m.Entries() {
		if math.IsNaN(e.Number.Float64()) {
			p.logger.Warn("skipping NaN rank",
				"doc_id", e.DocumentID,
				"attribute", p.schema.AttributeName(e.Attribute),
			)
			continue
		}
		scores, ok := grouped[e.Attribute]
		if !ok {
			scores = make(map[string]float64)
			grouped[e.Attribute] = scores
		}
		scores[e.DocumentID.String()] = e.Number.Float64()
	}
	for attr, scores := range grouped {
		key := p.Key(attr)
		err := resilience.Retry(ctx, "publish-ranks", p.retry, func() error {
			return p.write(ctx, key, scores)
		})
		if err != nil {
			return fmt.Errorf("publishing ranks for %s: %w", key, err)
		}
		p.logger.Debug("ranks published", "key", key, "members", len(scores))
	}
	return nil
}

func (p *Publisher) write(ctx context.Context, key string, scores map[string]float64) error {
	call := func() error {
		return resilience.WithTimeout(ctx, p.timeout, "zadd "+key, func(ctx context.Context) error {
			return p.writer.ZAddScores(ctx, key, scores)
		})
	}
	if p.breaker == nil {
		return call()
	}
	err := p.breaker.Execute(call)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return resilience.Permanent(err)
	}
	return err
}
