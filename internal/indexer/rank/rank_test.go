package rank

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/resilience"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		wantFloat bool
	}{
		{"42", "42", false},
		{"-7", "-7", false},
		{"19.99", "19.99", true},
		{"1e3", "1000", true},
	}
	for _, tt := range tests {
		n, err := ParseNumber(tt.in)
		if err != nil {
			t.Errorf("ParseNumber(%q): %v", tt.in, err)
			continue
		}
		if n.String() != tt.want || n.IsFloat() != tt.wantFloat {
			t.Errorf("ParseNumber(%q) = %s (float=%v), want %s (float=%v)", tt.in, n, n.IsFloat(), tt.want, tt.wantFloat)
		}
	}
	if _, err := ParseNumber("cheap"); !errors.Is(err, ErrParseNumber) {
		t.Errorf("err = %v, want ErrParseNumber", err)
	}
	for _, in := range []string{"NaN", "nan", "-NaN"} {
		if _, err := ParseNumber(in); !errors.Is(err, ErrNaN) {
			t.Errorf("ParseNumber(%q) err = %v, want ErrNaN", in, err)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b Number
		want int
	}{
		{Unsigned(1), Unsigned(2), -1},
		{Signed(-1), Unsigned(0), -1},
		{Unsigned(math.MaxUint64), Signed(math.MaxInt64), 1},
		{Signed(3), Signed(3), 0},
		{Float(1.5), Unsigned(1), 1},
		{Float(math.NaN()), Float(1), 1},
		{Float(1), Float(math.NaN()), -1},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRankedMapOverwrites(t *testing.T) {
	m := NewRankedMap()
	m.Insert(7, 2, Float(19.99))
	m.Insert(7, 2, Float(9.5))
	m.Insert(3, 2, Unsigned(4))
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	n, ok := m.Get(7, 2)
	if !ok || n.Float64() != 9.5 {
		t.Errorf("Get(7, 2) = %v, %v; want 9.5", n, ok)
	}
	entries := m.Entries()
	if entries[0].DocumentID != 3 || entries[1].DocumentID != 7 {
		t.Errorf("entries not ordered by document: %+v", entries)
	}
}

type fakeSortedSets struct {
	sets  map[string]map[string]float64
	fails int
}

func (f *fakeSortedSets) ZAddScores(_ context.Context, key string, scores map[string]float64) error {
	if f.fails > 0 {
		f.fails--
		return errors.New("connection reset")
	}
	if f.sets == nil {
		f.sets = make(map[string]map[string]float64)
	}
	set, ok := f.sets[key]
	if !ok {
		set = make(map[string]float64)
		f.sets[key] = set
	}
	for m, s := range scores {
		set[m] = s
	}
	return nil
}

func TestPublisherGroupsByAttribute(t *testing.T) {
	s, err := schema.FromDefs("id", []schema.AttributeDef{
		{Name: "price", Ranked: true},
		{Name: "stock", Ranked: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	price, _ := s.Attribute("price")
	stock, _ := s.Attribute("stock")

	m := NewRankedMap()
	m.Insert(7, price, Float(19.99))
	m.Insert(8, price, Signed(-1))
	m.Insert(7, stock, Unsigned(12))

	w := &fakeSortedSets{fails: 1}
	p := NewPublisher(w, s, "rank:", resilience.RetryConfig{InitialDelay: time.Millisecond})
	if err := p.Publish(context.Background(), m); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := w.sets["rank:price"]["7"]; got != 19.99 {
		t.Errorf("rank:price[7] = %v, want 19.99", got)
	}
	if got := w.sets["rank:price"]["8"]; got != -1 {
		t.Errorf("rank:price[8] = %v, want -1", got)
	}
	if got := w.sets["rank:stock"]["7"]; got != 12 {
		t.Errorf("rank:stock[7] = %v, want 12", got)
	}
}

func TestPublisherSkipsNaN(t *testing.T) {
	s, err := schema.FromDefs("", []schema.AttributeDef{{Name: "price", Ranked: true}})
	if err != nil {
		t.Fatal(err)
	}
	price, _ := s.Attribute("price")
	m := NewRankedMap()
	m.Insert(1, price, Float(math.NaN()))
	m.Insert(2, price, Float(4.5))

	w := &fakeSortedSets{}
	p := NewPublisher(w, s, "rank:", resilience.RetryConfig{MaxAttempts: 1})
	if err := p.Publish(context.Background(), m); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	set := w.sets["rank:price"]
	if _, ok := set["1"]; ok {
		t.Error("NaN score was written")
	}
	if set["2"] != 4.5 {
		t.Errorf("rank:price[2] = %v, want 4.5", set["2"])
	}
}

func TestPublisherFailsFastWhenCircuitOpen(t *testing.T) {
	s, err := schema.FromDefs("", []schema.AttributeDef{{Name: "price", Ranked: true}})
	if err != nil {
		t.Fatal(err)
	}
	price, _ := s.Attribute("price")
	m := NewRankedMap()
	m.Insert(1, price, Unsigned(3))

	w := &fakeSortedSets{fails: 100}
	cb := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	p := NewPublisher(w, s, "rank:", resilience.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond}).
		WithCircuitBreaker(cb).
		WithTimeout(time.Second)

	err = p.Publish(context.Background(), m)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if w.fails != 99 {
		t.Errorf("writer called %d times, want 1", 100-w.fails)
	}
}
