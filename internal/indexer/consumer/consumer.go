// Package consumer turns ingest messages into indexed documents. The
// message key carries the document ID and the value the JSON document;
// when the key is empty the ID is read from the schema identifier field.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/postgres"
)

var ErrMissingID = errors.New("document has no usable id")

// DocumentIndexer is satisfied by *shard.Router and *indexer.Engine.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, id document.ID, doc value.Value) error
}

// StatusStore records per-document outcomes, typically *postgres.Client.
type StatusStore interface {
	SetDocumentStatus(ctx context.Context, docID, status, reason, detail string) error
}

// EventPublisher announces finished documents, typically *kafka.Producer.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// IndexCompleteEvent is published once per handled document.
type IndexCompleteEvent struct {
	DocumentID string    `json:"document_id"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// Handler indexes ingest messages. Status and Events are optional.
type Handler struct {
	Indexer    DocumentIndexer
	Identifier string
	Status     StatusStore
	Events     EventPublisher
	Metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewHandler(ix DocumentIndexer, identifier string) *Handler {
	return &Handler{
		Indexer:    ix,
		Identifier: identifier,
		logger:     logger.WithComponent("index-consumer"),
	}
}

// Handle processes one message. Malformed messages and rejected documents
// are recorded and acknowledged; only infrastructure failures are returned
// so the message is redelivered.
func (h *Handler) Handle(ctx context.Context, key, raw []byte) error {
	doc, err := value.ParseJSON(raw)
	if err != nil {
		h.logger.Error("failed to decode document", "key", string(key), "error", err)
		h.count("invalid")
		return nil
	}
	id, err := ResolveID(key, doc, h.Identifier)
	if err != nil {
		h.logger.Error("failed to resolve document id", "key", string(key), "error", err)
		h.count("invalid")
		return nil
	}

	err = h.Indexer.IndexDocument(ctx, id, doc)
	reason := ""
	if err != nil {
		reason = indexer.FailureReason(err)
		if reason == "other" {
			return fmt.Errorf("indexing document %s: %w", id, err)
		}
	}

	status, detail := postgres.StatusIndexed, ""
	if err != nil {
		status, detail = postgres.StatusFailed, err.Error()
		h.count("failed")
	} else {
		h.count("indexed")
	}
	if h.Status != nil {
		if serr := h.Status.SetDocumentStatus(ctx, id.String(), status, reason, detail); serr != nil {
			h.logger.Error("failed to update document status",
				"doc_id", id,
				"status", status,
				"error", serr,
			)
		}
	}
	if h.Events != nil {
		event := IndexCompleteEvent{
			DocumentID: id.String(),
			Status:     status,
			Reason:     reason,
			IndexedAt:  time.Now().UTC(),
		}
		if perr := h.Events.PublishJSON(ctx, id.String(), event); perr != nil {
			h.logger.Error("failed to publish index-complete event", "doc_id", id, "error", perr)
		}
	}
	if err == nil {
		h.logger.Debug("document indexed", "doc_id", id)
	}
	return nil
}

func (h *Handler) count(outcome string) {
	if h.Metrics != nil {
		h.Metrics.ConsumerMessagesTotal.WithLabelValues(outcome).Inc()
	}
}

// MessageHandler adapts h to the Kafka consumer callback.
func (h *Handler) MessageHandler() kafka.MessageHandler {
	return h.Handle
}

// ResolveID takes the document ID from key, or from the identifier field of
// doc when key is empty. Identifier values may be unsigned integers,
// non-negative signed integers or decimal strings.
func ResolveID(key []byte, doc value.Value, identifier string) (document.ID, error) {
	if len(key) > 0 {
		id, err := document.ParseID(string(key))
		if err != nil {
			return 0, fmt.Errorf("%w: key %q: %w", ErrMissingID, key, err)
		}
		return id, nil
	}
	if identifier == "" {
		return 0, fmt.Errorf("%w: empty key and no identifier field", ErrMissingID)
	}
	v, ok := lookupField(doc, identifier)
	if !ok {
		return 0, fmt.Errorf("%w: field %q not found", ErrMissingID, identifier)
	}
	switch v.Kind() {
	case value.KindUint:
		return document.ID(v.Uint()), nil
	case value.KindInt:
		if v.Int() >= 0 {
			return document.ID(v.Int()), nil
		}
	case value.KindString:
		id, err := document.ParseID(v.Str())
		if err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: field %q holds an invalid %s", ErrMissingID, identifier, v.Kind())
}

func lookupField(doc value.Value, name string) (value.Value, bool) {
	switch doc.Kind() {
	case value.KindNewtype:
		return lookupField(doc.Inner(), name)
	case value.KindMap:
		for _, e := range doc.Entries() {
			if e.Key.Kind() == value.KindString && e.Key.Str() == name {
				return e.Value, true
			}
		}
	case value.KindStruct:
		for _, f := range doc.Fields() {
			if f.Name == name {
				return f.Value, true
			}
		}
	}
	return value.Value{}, false
}
