package serializer

import (
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
)

var (
	ErrUnserializableType = errors.New("unserializable type")
	ErrEncode             = errors.New("encoding field failed")
	ErrIndex              = errors.New("indexing field failed")
	ErrNumberConversion   = errors.New("number conversion failed")
	ErrProtocolViolation  = errors.New("map serializer protocol violation")
)

// UnserializableTypeError reports a value whose shape is not accepted where
// it appeared: a document root that is not a record, or a map key that is
// not string-like.
type UnserializableTypeError struct {
	TypeName string
}

func (e *UnserializableTypeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnserializableType, e.TypeName)
}

func (e *UnserializableTypeError) Is(target error) bool {
	return target == ErrUnserializableType
}

func unserializable(k value.Kind) error {
	return &UnserializableTypeError{TypeName: k.String()}
}
