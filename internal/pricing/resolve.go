package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/davidbz/creditmeter/internal/money"
)

// Resolution describes how a price was obtained from a field.
type Resolution uint8

const (
	// ResolvedExact means the price came from the field directly or from the requested key.
	ResolvedExact Resolution = iota
	// ResolvedAbsent means the axis is unpriced; the price is zero.
	ResolvedAbsent
	// ResolvedMaxTier means the tier could not be determined and the highest price was used.
	ResolvedMaxTier
	// ResolvedMalformed means the price string did not parse; the price is zero.
	ResolvedMalformed
	// ResolvedUnknownShape means the field had an unrecognised shape; the price is zero.
	ResolvedUnknownShape
)

func (r Resolution) String() string {
	switch r {
	case ResolvedExact:
		return "exact"
	case ResolvedAbsent:
		return "absent"
	case ResolvedMaxTier:
		return "max_tier"
	case ResolvedMalformed:
		return "malformed"
	case ResolvedUnknownShape:
		return "unknown_shape"
	default:
		return "unknown"
	}
}

// MarshalText renders the resolution name.
func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// IsDataQualityIssue reports whether the catalog data itself is at fault.
func (r Resolution) IsDataQualityIssue() bool {
	return r == ResolvedMalformed || r == ResolvedUnknownShape
}

// Lookup resolves a price per one million units.
//
// Simple fields ignore keys. Tiered fields use keys[0]. Nested fields use
// keys[0] as the category and keys[1] as the tier. When a needed key is
// missing or not present in the field, the maximum price in scope is returned
// with ResolvedMaxTier.
func (f Field) Lookup(keys ...string) (decimal.Decimal, Resolution) {
	switch f.kind {
	case KindUnpriced:
		return decimal.Zero, ResolvedAbsent
	case KindSimple:
		return parse(f.simple)
	case KindTiered:
		return lookupTier(f.tiers, keys)
	case KindNested:
		return f.lookupNested(keys)
	default:
		return decimal.Zero, ResolvedUnknownShape
	}
}

// Max returns the highest price in the field.
func (f Field) Max() (decimal.Decimal, Resolution) {
	return f.Lookup()
}

func (f Field) lookupNested(keys []string) (decimal.Decimal, Resolution) {
	if len(keys) > 0 {
		for _, c := range f.categories {
			if c.Key == keys[0] {
				return lookupTier(c.Tiers, keys[1:])
			}
		}
	}

	all := make([]Tier, 0, len(f.categories))
	for _, c := range f.categories {
		all = append(all, c.Tiers...)
	}
	return maxTier(all, len(keys) > 0)
}

func lookupTier(tiers []Tier, keys []string) (decimal.Decimal, Resolution) {
	if len(keys) > 0 {
		for _, t := range tiers {
			if t.Key == keys[0] {
				return parse(t.Price)
			}
		}
	}
	return maxTier(tiers, len(keys) > 0)
}

// maxTier returns the highest parsable price. A lone tier counts as exact
// only when no key was asked for.
func maxTier(tiers []Tier, missed bool) (decimal.Decimal, Resolution) {
	if len(tiers) == 0 {
		return decimal.Zero, ResolvedAbsent
	}

	best := decimal.Zero
	found := false
	for _, t := range tiers {
		price, ok := money.ParsePrice(t.Price)
		if !ok {
			continue
		}
		if !found || price.GreaterThan(best) {
			best = price
			found = true
		}
	}

	if !found {
		return decimal.Zero, ResolvedMalformed
	}
	if len(tiers) == 1 && !missed {
		return best, ResolvedExact
	}
	return best, ResolvedMaxTier
}

func parse(raw string) (decimal.Decimal, Resolution) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, ResolvedAbsent
	}

	price, ok := money.ParsePrice(raw)
	if !ok {
		return decimal.Zero, ResolvedMalformed
	}
	return price, ResolvedExact
}
