package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/serializer"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeIndexer struct {
	docs map[document.ID]value.Value
	err  error
}

func (f *fakeIndexer) IndexDocument(_ context.Context, id document.ID, doc value.Value) error {
	if f.err != nil {
		return f.err
	}
	if f.docs == nil {
		f.docs = make(map[document.ID]value.Value)
	}
	f.docs[id] = doc
	return nil
}

type statusCall struct {
	id, status, reason string
}

type fakeStatus struct {
	calls []statusCall
}

func (f *fakeStatus) SetDocumentStatus(_ context.Context, id, status, reason, _ string) error {
	f.calls = append(f.calls, statusCall{id, status, reason})
	return nil
}

type fakeEvents struct {
	events []IndexCompleteEvent
}

func (f *fakeEvents) PublishJSON(_ context.Context, _ string, v any) error {
	f.events = append(f.events, v.(IndexCompleteEvent))
	return nil
}

func TestHandleIndexesDocument(t *testing.T) {
	ix := &fakeIndexer{}
	status := &fakeStatus{}
	events := &fakeEvents{}
	m := metrics.New(prometheus.NewRegistry())
	h := NewHandler(ix, "id")
	h.Status, h.Events, h.Metrics = status, events, m

	if err := h.Handle(context.Background(), []byte("7"), []byte(`{"title":"red shoes","price":19.99}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if doc, ok := ix.docs[7]; !ok || doc.Len() != 2 {
		t.Fatalf("document 7 not indexed: %+v", ix.docs)
	}
	if len(status.calls) != 1 || status.calls[0] != (statusCall{"7", "INDEXED", ""}) {
		t.Errorf("status calls = %+v", status.calls)
	}
	if len(events.events) != 1 || events.events[0].Status != "INDEXED" {
		t.Errorf("events = %+v", events.events)
	}
	if got := testutil.ToFloat64(m.ConsumerMessagesTotal.WithLabelValues("indexed")); got != 1 {
		t.Errorf("indexed messages = %v, want 1", got)
	}
}

func TestHandleRejectedDocumentIsAcknowledged(t *testing.T) {
	rejection := fmt.Errorf("indexing document 3: %w", serializer.ErrNumberConversion)
	status := &fakeStatus{}
	h := NewHandler(&fakeIndexer{err: rejection}, "id")
	h.Status = status

	if err := h.Handle(context.Background(), []byte("3"), []byte(`{"price":"cheap"}`)); err != nil {
		t.Fatalf("Handle returned %v, want nil for a rejected document", err)
	}
	if len(status.calls) != 1 || status.calls[0] != (statusCall{"3", "FAILED", "number_conversion"}) {
		t.Errorf("status calls = %+v", status.calls)
	}
}

func TestHandleInfrastructureErrorIsReturned(t *testing.T) {
	h := NewHandler(&fakeIndexer{err: errors.New("disk full")}, "id")
	if err := h.Handle(context.Background(), []byte("3"), []byte(`{}`)); err == nil {
		t.Error("expected error so the message is redelivered")
	}
}

func TestHandleInvalidMessages(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	ix := &fakeIndexer{}
	h := NewHandler(ix, "id")
	h.Metrics = m
	tests := []struct {
		key, value string
	}{
		{"1", `{"title":`},
		{"abc", `{"title":"x"}`},
		{"", `{"title":"no id"}`},
	}
	for _, tt := range tests {
		if err := h.Handle(context.Background(), []byte(tt.key), []byte(tt.value)); err != nil {
			t.Errorf("Handle(%q, %q) = %v, want nil", tt.key, tt.value, err)
		}
	}
	if len(ix.docs) != 0 {
		t.Errorf("invalid messages reached the indexer: %+v", ix.docs)
	}
	if got := testutil.ToFloat64(m.ConsumerMessagesTotal.WithLabelValues("invalid")); got != 3 {
		t.Errorf("invalid messages = %v, want 3", got)
	}
}

func TestResolveID(t *testing.T) {
	tests := []struct {
		name string
		key  string
		doc  value.Value
		want document.ID
		ok   bool
	}{
		{"key", "42", value.Map(), 42, true},
		{"uint field", "", value.Map(value.E(value.String("id"), value.Uint(9))), 9, true},
		{"string field", "", value.Struct("D", value.F("id", value.String("11"))), 11, true},
		{"newtype root", "", value.Newtype("W", value.Map(value.E(value.String("id"), value.Int(5)))), 5, true},
		{"negative", "", value.Map(value.E(value.String("id"), value.Int(-1))), 0, false},
		{"float", "", value.Map(value.E(value.String("id"), value.Float(1.5))), 0, false},
		{"missing", "", value.Map(value.E(value.String("sku"), value.Uint(1))), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveID([]byte(tt.key), tt.doc, "id")
			if tt.ok {
				if err != nil || got != tt.want {
					t.Errorf("ResolveID = %d, %v; want %d", got, err, tt.want)
				}
				return
			}
			if !errors.Is(err, ErrMissingID) {
				t.Errorf("err = %v, want ErrMissingID", err)
			}
		})
	}
}
