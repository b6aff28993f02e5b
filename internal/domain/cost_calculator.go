package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/davidbz/creditmeter/internal/money"
	"github.com/davidbz/creditmeter/internal/pricing"
)

// StandardCostCalculator prices completed calls from catalog pricing and usage.
// It holds no state and is safe for concurrent use.
type StandardCostCalculator struct{}

// NewStandardCostCalculator creates a new cost calculator.
func NewStandardCostCalculator() *StandardCostCalculator {
	return &StandardCostCalculator{}
}

// Calculate dispatches on the model's modality.
//
// Unchargeable models and modalities the engine does not know return NoCost.
// The only error is a caller passing details of the wrong modality.
func (c *StandardCostCalculator) Calculate(info ModelInfo, details GenerationDetails) (Cost, error) {
	if !info.Chargeable {
		return NoCost(), nil
	}

	if !info.Modality.Known() {
		return NoCost(), nil
	}

	if details == nil {
		return NoCost(), errors.New("generation details cannot be nil")
	}

	if details.Modality() != info.Modality {
		return NoCost(), fmt.Errorf("%w: model %s got %s usage", ErrModalityMismatch, info.ModelRef, details.Modality())
	}

	switch d := details.(type) {
	case LanguageGenerationDetails:
		return c.languageCost(info.Pricing, d), nil
	case *LanguageGenerationDetails:
		return c.languageCost(info.Pricing, *d), nil
	case ImageGenerationDetails, *ImageGenerationDetails:
		return c.imageCost(info.Pricing), nil
	case SpeechGenerationDetails, *SpeechGenerationDetails:
		return c.speechCost(info.Pricing), nil
	case TranscriptionGenerationDetails, *TranscriptionGenerationDetails:
		return c.transcriptionCost(info.Pricing), nil
	case TextEmbeddingGenerationDetails, *TextEmbeddingGenerationDetails:
		return c.textEmbeddingCost(info.Pricing), nil
	default:
		return NoCost(), nil
	}
}

func (c *StandardCostCalculator) languageCost(p Pricing, d LanguageGenerationDetails) Cost {
	inputTokens := nonNegative(d.InputTokens)
	outputTokens := nonNegative(d.OutputTokens)
	cachedTokens := nonNegative(d.CachedInputTokens)

	billableInput := money.AtLeast(inputTokens.Sub(cachedTokens), decimal.Zero)

	components := []CostComponent{
		priceAxis(AxisInput, p.InputTokenPrice, billableInput),
		priceAxis(AxisOutput, p.OutputTokenPrice, outputTokens),
		priceAxis(AxisCacheRead, p.CachedInputTokenPrice, cachedTokens),
	}
	components = append(components, cacheWriteComponents(p.CacheInputTokenPrice, d.ProviderMetadata)...)

	subtotals := make([]decimal.Decimal, len(components))
	for i, comp := range components {
		subtotals[i] = comp.Subtotal
	}

	return ChargedCost(money.ToCost(money.Sum(subtotals...)), components...)
}

// The remaining modalities have no defined usage fields yet. They keep the
// dispatch shape so callers do not change when pricing lands.

func (c *StandardCostCalculator) imageCost(_ Pricing) Cost {
	return NoCost()
}

func (c *StandardCostCalculator) speechCost(_ Pricing) Cost {
	return NoCost()
}

func (c *StandardCostCalculator) transcriptionCost(_ Pricing) Cost {
	return NoCost()
}

func (c *StandardCostCalculator) textEmbeddingCost(_ Pricing) Cost {
	return NoCost()
}

func cacheWriteComponents(field pricing.Field, metadata []ProviderMetadata) []CostComponent {
	counter, ok := cacheWriteCounter(metadata)
	if !ok || field.IsZero() {
		return nil
	}

	total := counter.CacheWriteInputTokens()
	if total <= 0 {
		return nil
	}

	tiered, ok := counter.(CacheWriteTierCounter)
	if !ok {
		return []CostComponent{priceAxis(AxisCacheWrite, field, decimal.NewFromInt(total))}
	}

	var components []CostComponent
	remaining := total
	for _, tt := range tiered.CacheWriteInputTokensByTier() {
		tokens := min(tt.Tokens, remaining)
		if tokens <= 0 {
			continue
		}
		remaining -= tokens
		components = append(components, priceAxis(AxisCacheWrite, field, decimal.NewFromInt(tokens), tt.Tier))
	}

	if remaining > 0 {
		components = append(components, priceAxis(AxisCacheWrite, field, decimal.NewFromInt(remaining)))
	}

	return components
}

func priceAxis(axis Axis, field pricing.Field, units decimal.Decimal, keys ...string) CostComponent {
	price, resolution := field.Lookup(keys...)

	comp := CostComponent{
		Axis:       axis,
		Units:      units,
		UnitPrice:  price,
		Subtotal:   money.Multiply(price, units),
		Resolution: resolution,
	}
	if len(keys) > 0 {
		comp.Tier = keys[0]
	}
	return comp
}

func nonNegative(n int64) decimal.Decimal {
	return money.AtLeast(decimal.NewFromInt(n), decimal.Zero)
}
