package openai

import (
	"github.com/openai/openai-go"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/pricing"
)

// Models returns the built-in OpenAI catalog entries. Token prices are USD
// per million tokens; image prices are per image.
func Models() []domain.ModelInfo {
	return []domain.ModelInfo{
		chatModel("gpt-4o", "GPT-4o", "2.5", "10", "1.25"),
		chatModel("gpt-4o-mini", "GPT-4o mini", "0.15", "0.6", "0.075"),
		chatModel("gpt-4.1", "GPT-4.1", "2", "8", "0.5"),
		chatModel("gpt-4.1-mini", "GPT-4.1 mini", "0.4", "1.6", "0.1"),
		{
			ModelRef: domain.ModelRef{
				ProviderID: Namespace,
				ModelID:    string(openai.EmbeddingModelTextEmbedding3Small),
				Modality:   domain.ModalityTextEmbedding,
			},
			Pricing:     domain.Pricing{InputTokenPrice: pricing.Simple("0.02")},
			DisplayName: "text-embedding-3-small",
			Chargeable:  true,
		},
		{
			ModelRef: domain.ModelRef{ProviderID: Namespace, ModelID: "gpt-image-1", Modality: domain.ModalityImage},
			Pricing: domain.Pricing{
				ImagePrice: pricing.NestedOf(
					pricing.Category{Key: "low", Tiers: []pricing.Tier{
						{Key: "1024x1024", Price: "0.011"},
						{Key: "1024x1536", Price: "0.016"},
					}},
					pricing.Category{Key: "medium", Tiers: []pricing.Tier{
						{Key: "1024x1024", Price: "0.042"},
						{Key: "1024x1536", Price: "0.063"},
					}},
					pricing.Category{Key: "high", Tiers: []pricing.Tier{
						{Key: "1024x1024", Price: "0.167"},
						{Key: "1024x1536", Price: "0.25"},
					}},
				),
			},
			DisplayName: "GPT Image 1",
			Chargeable:  true,
		},
	}
}

func chatModel(id, name, input, output, cached string) domain.ModelInfo {
	return domain.ModelInfo{
		ModelRef: domain.ModelRef{ProviderID: Namespace, ModelID: id, Modality: domain.ModalityLanguage},
		Pricing: domain.Pricing{
			InputTokenPrice:       pricing.Simple(input),
			OutputTokenPrice:      pricing.Simple(output),
			CachedInputTokenPrice: pricing.Simple(cached),
		},
		DisplayName: name,
		Chargeable:  true,
	}
}
