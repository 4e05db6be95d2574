package schema

import (
	"errors"
	"testing"
)

func TestBuilderAssignsAttributesInOrder(t *testing.T) {
	b := NewBuilder("id")
	title, err := b.NewAttribute("title", Props{Indexed: true})
	if err != nil {
		t.Fatalf("NewAttribute: %v", err)
	}
	price, err := b.NewAttribute("price", Props{Ranked: true})
	if err != nil {
		t.Fatalf("NewAttribute: %v", err)
	}
	s := b.Build()

	if title != 1 || price != 2 {
		t.Errorf("attributes = %d, %d; want 1, 2", title, price)
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
	if attr, ok := s.Attribute("id"); !ok || attr != 0 {
		t.Errorf("identifier attribute = %d, %v", attr, ok)
	}
	if got := s.Props(title); !got.Indexed || got.Ranked {
		t.Errorf("title props = %+v", got)
	}
	if got := s.Props(price); got.Indexed || !got.Ranked {
		t.Errorf("price props = %+v", got)
	}
	if s.AttributeName(price) != "price" {
		t.Errorf("AttributeName(price) = %q", s.AttributeName(price))
	}
	if _, ok := s.Attribute("unknown"); ok {
		t.Error("unknown field should not resolve")
	}
	if (s.Props(99) != Props{}) {
		t.Error("out of range attribute should have no props")
	}
}

func TestBuilderRejectsDuplicates(t *testing.T) {
	b := NewBuilder("id")
	if _, err := b.NewAttribute("title", Props{}); err != nil {
		t.Fatalf("NewAttribute: %v", err)
	}
	if _, err := b.NewAttribute("title", Props{}); !errors.Is(err, ErrDuplicateAttribute) {
		t.Errorf("err = %v, want ErrDuplicateAttribute", err)
	}
	if _, err := b.NewAttribute("id", Props{}); err != nil {
		t.Errorf("declaring identifier: %v", err)
	}
	if _, err := b.NewAttribute("id", Props{}); !errors.Is(err, ErrDuplicateAttribute) {
		t.Errorf("redeclaring identifier: err = %v, want ErrDuplicateAttribute", err)
	}
	if _, err := b.NewAttribute("", Props{}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("err = %v, want ErrEmptyName", err)
	}
}

func TestIdentifierCanBeIndexedAndRanked(t *testing.T) {
	s, err := FromDefs("id", []AttributeDef{
		{Name: "title", Indexed: true},
		{Name: "id", Indexed: true, Ranked: true},
	})
	if err != nil {
		t.Fatalf("FromDefs: %v", err)
	}
	attr, ok := s.Attribute("id")
	if !ok || attr != 0 {
		t.Fatalf("identifier attribute = %d, %v; want 0", attr, ok)
	}
	if got := s.Props(attr); !got.Indexed || !got.Ranked {
		t.Errorf("identifier props = %+v, want indexed and ranked", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestBuildIsolatedFromBuilder(t *testing.T) {
	b := NewBuilder("")
	b.NewAttribute("a", Props{})
	s := b.Build()
	b.NewAttribute("b", Props{})
	if _, ok := s.Attribute("b"); ok {
		t.Error("built schema changed after Build")
	}
}

func TestFromDefs(t *testing.T) {
	s, err := FromDefs("id", []AttributeDef{
		{Name: "title", Indexed: true},
		{Name: "price", Ranked: true},
		{Name: "tags"},
	})
	if err != nil {
		t.Fatalf("FromDefs: %v", err)
	}
	tags, ok := s.Attribute("tags")
	if !ok {
		t.Fatal("tags not declared")
	}
	if (s.Props(tags) != Props{}) {
		t.Errorf("tags props = %+v", s.Props(tags))
	}
	if _, err := FromDefs("id", []AttributeDef{{Name: "x"}, {Name: "x"}}); err == nil {
		t.Error("expected duplicate error")
	}
}

func TestAttributeBytesRoundTrip(t *testing.T) {
	a := Attribute(513)
	got, err := AttributeFromBytes(a.Bytes())
	if err != nil || got != a {
		t.Errorf("round trip = %d, %v", got, err)
	}
	if _, err := AttributeFromBytes([]byte{1}); err == nil {
		t.Error("expected error for short input")
	}
}
