package serializer

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/document"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/value"
)

// indexWords feeds the text of v to ix. It reports the number of words
// indexed and false when v contributed none.
func indexWords(ix TextIndexer, id document.ID, attr schema.Attribute, v value.Value) (int, bool, error) {
	texts, err := indexTexts(v)
	if err != nil {
		return 0, false, err
	}
	var n int
	switch len(texts) {
	case 0:
		return 0, false, nil
	case 1:
		n = ix.IndexText(id, attr, texts[0])
	default:
		n = ix.IndexTextSeq(id, attr, texts)
	}
	return n, n > 0, nil
}

// indexTexts flattens v one level into the texts to tokenize. Nested
// compound values are indexed as their JSON text.
func indexTexts(v value.Value) ([]string, error) {
	switch v.Kind() {
	case value.KindString, value.KindChar, value.KindInt, value.KindUint, value.KindFloat:
		text, err := ConvertToString(v)
		if err != nil {
			return nil, err
		}
		return []string{text}, nil
	case value.KindNone, value.KindUnit, value.KindUnitStruct:
		return nil, nil
	case value.KindSome, value.KindNewtype:
		return indexTexts(v.Inner())
	case value.KindSeq, value.KindTuple, value.KindTupleStruct:
		texts := make([]string, 0, v.Len())
		for _, e := range v.Elems() {
			text, err := elementText(e)
			if err != nil {
				return nil, err
			}
			texts = append(texts, text)
		}
		return texts, nil
	case value.KindMap:
		texts := make([]string, 0, 2*v.Len())
		for _, e := range v.Entries() {
			key, err := ConvertToString(e.Key)
			if err != nil {
				return nil, err
			}
			text, err := elementText(e.Value)
			if err != nil {
				return nil, err
			}
			texts = append(texts, key, text)
		}
		return texts, nil
	case value.KindStruct:
		texts := make([]string, 0, 2*v.Len())
		for _, f := range v.Fields() {
			text, err := elementText(f.Value)
			if err != nil {
				return nil, err
			}
			texts = append(texts, f.Name, text)
		}
		return texts, nil
	default:
		return nil, unserializable(v.Kind())
	}
}

func elementText(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindString, value.KindChar, value.KindInt, value.KindUint, value.KindFloat:
		return ConvertToString(v)
	case value.KindSome, value.KindNewtype:
		return elementText(v.Inner())
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("rendering %s element as text: %w", v.Kind(), err)
	}
	return string(data), nil
}
