// Package pricing models a catalog pricing axis as a tagged union and resolves
// a price from it.
//
// A field is one of four shapes:
//
//	Unpriced                     absent / null
//	Simple   "1.25"              one price, no key needed
//	Tiered   [["5m","0.625"]]    tier key -> price
//	Nested   [["hd",[["1024x1024","0.08"]]]]  category key -> tier key -> price
//
// The shape is decided once, when the field is decoded. Anything else is kept
// verbatim as Invalid so catalog round-trips never lose data.
package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind tags the shape of a Field.
type Kind uint8

const (
	KindUnpriced Kind = iota
	KindSimple
	KindTiered
	KindNested
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindUnpriced:
		return "unpriced"
	case KindSimple:
		return "simple"
	case KindTiered:
		return "tiered"
	case KindNested:
		return "nested"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Tier is one named price within a tiered axis.
type Tier struct {
	Key   string
	Price string
}

// Category groups tiers under a second-level key.
type Category struct {
	Key   string
	Tiers []Tier
}

// Field is a pricing axis value. The zero value is Unpriced.
type Field struct {
	kind       Kind
	simple     string
	tiers      []Tier
	categories []Category
	raw        json.RawMessage
}

// Unpriced returns an absent axis.
func Unpriced() Field {
	return Field{}
}

// Simple returns a single-price axis.
func Simple(price string) Field {
	return Field{kind: KindSimple, simple: price}
}

// TieredOf returns a tiered axis in the given order.
func TieredOf(tiers ...Tier) Field {
	return Field{kind: KindTiered, tiers: append([]Tier(nil), tiers...)}
}

// NestedOf returns a two-level axis in the given order.
func NestedOf(categories ...Category) Field {
	copied := make([]Category, len(categories))
	for i, c := range categories {
		copied[i] = Category{Key: c.Key, Tiers: append([]Tier(nil), c.Tiers...)}
	}
	return Field{kind: KindNested, categories: copied}
}

// Kind reports the shape.
func (f Field) Kind() Kind {
	return f.kind
}

// IsZero reports whether the axis is unpriced. It lets `omitzero` drop absent axes.
func (f Field) IsZero() bool {
	return f.kind == KindUnpriced
}

// SimplePrice returns the raw price string of a Simple field.
func (f Field) SimplePrice() (string, bool) {
	return f.simple, f.kind == KindSimple
}

// Tiers returns a copy of the tiers of a Tiered field.
func (f Field) Tiers() []Tier {
	return append([]Tier(nil), f.tiers...)
}

// Categories returns a copy of the categories of a Nested field.
func (f Field) Categories() []Category {
	return NestedOf(f.categories...).categories
}

// MarshalJSON emits the field in the shape it was built or decoded with.
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case KindUnpriced:
		return []byte("null"), nil
	case KindSimple:
		return marshal(f.simple)
	case KindTiered:
		return marshal(tierPairs(f.tiers))
	case KindNested:
		pairs := make([][2]any, len(f.categories))
		for i, c := range f.categories {
			pairs[i] = [2]any{c.Key, tierPairs(c.Tiers)}
		}
		return marshal(pairs)
	case KindInvalid:
		return f.raw, nil
	default:
		return nil, fmt.Errorf("unknown pricing field kind: %s", f.kind)
	}
}

// UnmarshalJSON classifies the raw value. It never fails on an unexpected
// shape; such values become Invalid and resolve to zero.
func (f *Field) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = Unpriced()
		return nil
	}

	var simple string
	if err := json.Unmarshal(trimmed, &simple); err == nil {
		*f = Simple(simple)
		return nil
	}

	if parsed, ok := classifyList(trimmed); ok {
		*f = parsed
		return nil
	}

	*f = Field{kind: KindInvalid, raw: append(json.RawMessage(nil), trimmed...)}
	return nil
}

// marshal encodes v without HTML escaping so keys like "<=200k" survive verbatim.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// decodeString accepts a JSON string only; null is rejected.
func decodeString(raw json.RawMessage) (string, bool) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil || s == nil {
		return "", false
	}
	return *s, true
}

func tierPairs(tiers []Tier) [][2]string {
	pairs := make([][2]string, len(tiers))
	for i, t := range tiers {
		pairs[i] = [2]string{t.Key, t.Price}
	}
	return pairs
}

func classifyList(data []byte) (Field, bool) {
	var entries [][]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return Field{}, false
	}

	if len(entries) == 0 {
		return TieredOf(), true
	}

	var tiers []Tier
	var categories []Category

	for _, entry := range entries {
		if len(entry) != 2 {
			return Field{}, false
		}

		key, ok := decodeString(entry[0])
		if !ok {
			return Field{}, false
		}

		if price, ok := decodeString(entry[1]); ok {
			tiers = append(tiers, Tier{Key: key, Price: price})
			continue
		}

		var sub [][]json.RawMessage
		if err := json.Unmarshal(entry[1], &sub); err != nil || sub == nil {
			return Field{}, false
		}
		category := Category{Key: key, Tiers: make([]Tier, len(sub))}
		for i, pair := range sub {
			if len(pair) != 2 {
				return Field{}, false
			}
			tierKey, ok := decodeString(pair[0])
			if !ok {
				return Field{}, false
			}
			price, ok := decodeString(pair[1])
			if !ok {
				return Field{}, false
			}
			category.Tiers[i] = Tier{Key: tierKey, Price: price}
		}
		categories = append(categories, category)
	}

	switch {
	case len(categories) == 0:
		return TieredOf(tiers...), true
	case len(tiers) == 0:
		return NestedOf(categories...), true
	default:
		// Mixed tier and category entries.
		return Field{}, false
	}
}
