// Package metrics defines the Prometheus collectors of the indexer and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the indexer.
type Metrics struct {
	DocsIndexedTotal      prometheus.Counter
	DocFailuresTotal      *prometheus.CounterVec
	FieldsRoutedTotal     *prometheus.CounterVec
	FieldsDroppedTotal    prometheus.Counter
	IndexLatency          prometheus.Histogram
	IndexFlushesTotal     *prometheus.CounterVec
	RanksPublishedTotal   prometheus.Counter
	ShardBufferedDocs     *prometheus.GaugeVec
	ActiveShards          prometheus.Gauge
	ConsumerMessagesTotal *prometheus.CounterVec
	CircuitBreakerState   *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents whose fields were all routed.",
			},
		),
		DocFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doc_failures_total",
				Help: "Documents aborted, by failure reason.",
			},
			[]string{"reason"},
		),
		FieldsRoutedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fields_routed_total",
				Help: "Fields written per destination (store, index, rank).",
			},
			[]string{"destination"},
		),
		FieldsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fields_dropped_total",
				Help: "Fields ignored because the schema does not declare them.",
			},
		),
		IndexLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_document_duration_seconds",
				Help:    "Time spent routing the fields of one document.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		IndexFlushesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_flushes_total",
				Help: "Total index flush operations by status.",
			},
			[]string{"status"},
		),
		RanksPublishedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ranks_published_total",
				Help: "Ranked values published to the sorted-set store.",
			},
		),
		ShardBufferedDocs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shard_buffered_documents",
				Help: "Documents held in memory per shard since the last flush.",
			},
			[]string{"shard_id"},
		),
		ActiveShards: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "active_shards",
				Help: "Number of active index shards.",
			},
		),
		ConsumerMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consumer_messages_total",
				Help: "Ingest messages handled by outcome (indexed, failed, invalid).",
			},
			[]string{"outcome"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.DocsIndexedTotal,
		m.DocFailuresTotal,
		m.FieldsRoutedTotal,
		m.FieldsDroppedTotal,
		m.IndexLatency,
		m.IndexFlushesTotal,
		m.RanksPublishedTotal,
		m.ShardBufferedDocs,
		m.ActiveShards,
		m.ConsumerMessagesTotal,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
