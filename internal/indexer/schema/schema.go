// Package schema maps document field names to attribute handles and records,
// per attribute, whether the field is full-text indexed and/or ranked.
package schema

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	ErrTooManyAttributes  = errors.New("too many attributes")
	ErrEmptyName          = errors.New("empty attribute name")
)

// Attribute is the schema-assigned handle of a field. Index structures key on
// it instead of the field name.
type Attribute uint16

// Bytes returns the big-endian encoding of a.
func (a Attribute) Bytes() []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(a))
	return b[:]
}

// AttributeFromBytes decodes an Attribute produced by Bytes.
func AttributeFromBytes(b []byte) (Attribute, error) {
	if len(b) < 2 {
		return 0, fmt.Errorf("attribute needs 2 bytes, got %d", len(b))
	}
	return Attribute(binary.BigEndian.Uint16(b[:2])), nil
}

// Props are the per-attribute routing flags.
type Props struct {
	Indexed bool
	Ranked  bool
}

// Schema is immutable once built and safe for concurrent reads.
type Schema struct {
	identifier string
	names      map[string]Attribute
	attrs      []attributeInfo
}

type attributeInfo struct {
	name  string
	props Props
}

// Attribute looks up the handle of a field name.
func (s *Schema) Attribute(name string) (Attribute, bool) {
	attr, ok := s.names[name]
	return attr, ok
}

// Props returns the routing flags of attr. Unknown attributes have no flags.
func (s *Schema) Props(attr Attribute) Props {
	if int(attr) >= len(s.attrs) {
		return Props{}
	}
	return s.attrs[attr].props
}

// AttributeName returns the field name attr was assigned to.
func (s *Schema) AttributeName(attr Attribute) string {
	if int(attr) >= len(s.attrs) {
		return ""
	}
	return s.attrs[attr].name
}

// Identifier returns the name of the field holding the document ID.
func (s *Schema) Identifier() string {
	return s.identifier
}

// Len returns the number of declared attributes.
func (s *Schema) Len() int {
	return len(s.attrs)
}

// Builder assigns attributes in declaration order.
type Builder struct {
	identifier string
	declaredID bool
	names      map[string]Attribute
	attrs      []attributeInfo
}

// NewBuilder starts a schema whose documents carry their ID in the field
// named identifier. The identifier is itself the first attribute, with no
// flags until it is declared through NewAttribute.
func NewBuilder(identifier string) *Builder {
	b := &Builder{
		identifier: identifier,
		names:      make(map[string]Attribute),
	}
	if identifier != "" {
		b.names[identifier] = 0
		b.attrs = append(b.attrs, attributeInfo{name: identifier})
	}
	return b
}

// NewAttribute declares a field and returns its handle.
func (b *Builder) NewAttribute(name string, props Props) (Attribute, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	if name == b.identifier && !b.declaredID {
		b.declaredID = true
		b.attrs[0].props = props
		return 0, nil
	}
	if _, exists := b.names[name]; exists {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateAttribute, name)
	}
	if len(b.attrs) > math.MaxUint16 {
		return 0, ErrTooManyAttributes
	}
	attr := Attribute(len(b.attrs))
	b.names[name] = attr
	b.attrs = append(b.attrs, attributeInfo{name: name, props: props})
	return attr, nil
}

// Build freezes the declared attributes into a Schema.
func (b *Builder) Build() *Schema {
	names := make(map[string]Attribute, len(b.names))
	for k, v := range b.names {
		names[k] = v
	}
	attrs := make([]attributeInfo, len(b.attrs))
	copy(attrs, b.attrs)
	return &Schema{
		identifier: b.identifier,
		names:      names,
		attrs:      attrs,
	}
}

// AttributeDef is the declarative form of one attribute, as found in config.
type AttributeDef struct {
	Name    string `yaml:"name"`
	Indexed bool   `yaml:"indexed"`
	Ranked  bool   `yaml:"ranked"`
}

// FromDefs builds a Schema from declarative attribute definitions.
func FromDefs(identifier string, defs []AttributeDef) (*Schema, error) {
	b := NewBuilder(identifier)
	for _, d := range defs {
		if _, err := b.NewAttribute(d.Name, Props{Indexed: d.Indexed, Ranked: d.Ranked}); err != nil {
			return nil, fmt.Errorf("declaring attribute %q: %w", d.Name, err)
		}
	}
	return b.Build(), nil
}
