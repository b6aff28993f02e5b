package anthropic

import (
	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/pricing"
)

// Models returns the built-in Anthropic catalog entries, USD per million
// tokens. Cache writes are priced per cache lifetime.
func Models() []domain.ModelInfo {
	return []domain.ModelInfo{
		claude("claude-opus-4-1", "Claude Opus 4.1", "15", "75", "1.5", "18.75", "30"),
		claude("claude-sonnet-4-5", "Claude Sonnet 4.5", "3", "15", "0.3", "3.75", "6"),
		claude("claude-sonnet-4", "Claude Sonnet 4", "3", "15", "0.3", "3.75", "6"),
		claude("claude-3-5-haiku", "Claude Haiku 3.5", "0.8", "4", "0.08", "1", "1.6"),
	}
}

func claude(id, name, input, output, cacheRead, write5m, write1h string) domain.ModelInfo {
	return domain.ModelInfo{
		ModelRef: domain.ModelRef{ProviderID: Namespace, ModelID: id, Modality: domain.ModalityLanguage},
		Pricing: domain.Pricing{
			InputTokenPrice:       pricing.Simple(input),
			OutputTokenPrice:      pricing.Simple(output),
			CachedInputTokenPrice: pricing.Simple(cacheRead),
			CacheInputTokenPrice: pricing.TieredOf(
				pricing.Tier{Key: TierFiveMinutes, Price: write5m},
				pricing.Tier{Key: TierOneHour, Price: write1h},
			),
		},
		DisplayName: name,
		Chargeable:  true,
	}
}
