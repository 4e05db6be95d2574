package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/rank"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// pipeline is the set of long-lived components shared by every command.
type pipeline struct {
	cfg     *config.Config
	schema  *schema.Schema
	router  *shard.Router
	metrics *metrics.Metrics
	checker *health.Checker
	closers []func() error
}

func setup(configPath string, reg prometheus.Registerer) (*pipeline, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	s, err := cfg.Schema.Build()
	if err != nil {
		return nil, fmt.Errorf("building schema: %w", err)
	}
	p := &pipeline{
		cfg:     cfg,
		schema:  s,
		metrics: metrics.New(reg),
		checker: health.NewChecker(),
	}
	opts := indexer.Options{Schema: s, Metrics: p.metrics}

	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, rc.Close)
		p.checker.Register("redis", health.PingCheck(rc.Ping))
		cb := resilience.NewCircuitBreaker("redis", cfg.Redis.CircuitBreaker)
		cb.OnStateChange(func(name string, st resilience.State) {
			p.metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(st))
		})
		p.checker.Register("rank_publisher", health.BreakerCheck(cb))
		opts.Publisher = rank.NewPublisher(rc, s, cfg.Redis.RankKeyPrefix, cfg.Retry).
			WithTimeout(cfg.Redis.PublishTimeout).
			WithCircuitBreaker(cb)
	}

	router, err := shard.NewRouter(cfg.Indexer, opts)
	if err != nil {
		p.close()
		return nil, fmt.Errorf("creating shard router: %w", err)
	}
	p.router = router
	p.closers = append([]func() error{router.Close}, p.closers...)
	p.checker.Register("document_store", health.PingCheck(router.Ping))
	return p, nil
}

// close releases components in reverse order of dependency; the router
// flushes first while Redis is still reachable.
func (p *pipeline) close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runConsume(ctx context.Context, configPath string) error {
	reg := prometheus.NewRegistry()
	p, err := setup(configPath, reg)
	if err != nil {
		return err
	}
	defer p.close()
	cfg := p.cfg

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := consumer.NewHandler(p.router, p.schema.Identifier())
	handler.Metrics = p.metrics
	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		handler.Status = db
		p.checker.Register("postgres", health.PingCheck(db.Ping))
	}
	if cfg.Kafka.Topics.IndexComplete != "" {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
		handler.Events = producer
	}

	p.router.StartFlushLoops(ctx)
	kc := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, cfg.Retry, handler.MessageHandler())

	slog.Info("indexer ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.DocumentIngest,
		"group", cfg.Kafka.ConsumerGroup,
		"num_shards", p.router.NumShards(),
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return kc.Start(gctx)
	})
	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Port, reg, p.checker)
		g.Go(func() error {
			return metrics.Serve(gctx, srv)
		})
	}
	err = g.Wait()
	slog.Info("indexer stopped")
	return err
}

// readDocuments decodes every JSON value of r. A top-level array is
// expanded into its elements.
func readDocuments(r io.Reader, fn func(doc value.Value) error) error {
	dec := value.NewDecoder(r)
	for {
		v, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if v.Kind() == value.KindSeq {
			for _, doc := range v.Elems() {
				if err := fn(doc); err != nil {
					return err
				}
			}
			continue
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

func forEachDocument(files []string, fn func(file string, doc value.Value) error) error {
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = readDocuments(f, func(doc value.Value) error { return fn(file, doc) })
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
	}
	return nil
}

func runIngest(ctx context.Context, configPath string, files []string, out io.Writer) error {
	p, err := setup(configPath, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	identifier := p.schema.Identifier()

	var indexed, rejected int
	err = forEachDocument(files, func(file string, doc value.Value) error {
		id, err := consumer.ResolveID(nil, doc, identifier)
		if err != nil {
			slog.Warn("skipping document", "file", file, "error", err)
			rejected++
			return nil
		}
		if err := p.router.IndexDocument(ctx, id, doc); err != nil {
			if indexer.FailureReason(err) == "other" {
				return err
			}
			rejected++
			return nil
		}
		indexed++
		return nil
	})
	if cerr := p.close(); err == nil {
		err = cerr
	}
	fmt.Fprintf(out, "indexed %d documents, rejected %d\n", indexed, rejected)
	return err
}

func runProduce(ctx context.Context, configPath string, files []string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
	defer producer.Close()

	sent := 0
	err = forEachDocument(files, func(file string, doc value.Value) error {
		id, err := consumer.ResolveID(nil, doc, cfg.Schema.Identifier)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		data, err := doc.MarshalJSON()
		if err != nil {
			return err
		}
		if err := producer.Publish(ctx, id.String(), data); err != nil {
			return err
		}
		sent++
		return nil
	})
	fmt.Fprintf(out, "published %d documents to %s\n", sent, cfg.Kafka.Topics.DocumentIngest)
	return err
}

func runSearch(ctx context.Context, configPath, term string, out io.Writer) error {
	p, err := setup(configPath, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer p.close()
	postings, err := p.router.Search(ctx, term)
	if err != nil {
		return err
	}
	for _, posting := range postings {
		fmt.Fprintf(out, "%d\t%s\t%d\t%v\n",
			posting.DocID,
			p.schema.AttributeName(posting.Attribute),
			posting.Frequency,
			posting.Positions,
		)
	}
	return nil
}
