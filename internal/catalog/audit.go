package catalog

import (
	"strings"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/money"
	"github.com/davidbz/creditmeter/internal/pricing"
)

// Issue is a catalog price that cannot be resolved as written.
type Issue struct {
	Ref     domain.ModelRef `json:"ref"`
	Axis    string          `json:"axis"`
	Key     string          `json:"key,omitempty"`
	Problem string          `json:"problem"`
}

// Audit reports prices the calculator would treat as data quality issues:
// unrecognized shapes and unparsable or negative prices. Empty prices count
// as absent and are not reported.
func Audit(models []domain.ModelInfo) []Issue {
	var issues []Issue
	for _, info := range models {
		for _, axis := range axes(info.Pricing) {
			issues = append(issues, auditField(info.ModelRef, axis.name, axis.field)...)
		}
	}
	return issues
}

type namedField struct {
	name  string
	field pricing.Field
}

func axes(p domain.Pricing) []namedField {
	return []namedField{
		{"inputTokenPrice", p.InputTokenPrice},
		{"outputTokenPrice", p.OutputTokenPrice},
		{"cachedInputTokenPrice", p.CachedInputTokenPrice},
		{"cacheInputTokenPrice", p.CacheInputTokenPrice},
		{"imagePrice", p.ImagePrice},
		{"inputCharacterPrice", p.InputCharacterPrice},
		{"inputAudioSecondPrice", p.InputAudioSecondPrice},
	}
}

func auditField(ref domain.ModelRef, axis string, field pricing.Field) []Issue {
	var issues []Issue
	check := func(key, price string) {
		if strings.TrimSpace(price) == "" {
			return
		}
		if _, ok := money.ParsePrice(price); !ok {
			issues = append(issues, Issue{Ref: ref, Axis: axis, Key: key, Problem: "malformed price " + price})
		}
	}

	switch field.Kind() {
	case pricing.KindInvalid:
		issues = append(issues, Issue{Ref: ref, Axis: axis, Problem: "unrecognized price shape"})
	case pricing.KindSimple:
		price, _ := field.SimplePrice()
		check("", price)
	case pricing.KindTiered:
		for _, t := range field.Tiers() {
			check(t.Key, t.Price)
		}
	case pricing.KindNested:
		for _, c := range field.Categories() {
			for _, t := range c.Tiers {
				check(c.Key+"/"+t.Key, t.Price)
			}
		}
	case pricing.KindUnpriced:
	}

	return issues
}
