// Package gemini maps Gemini API usage metadata onto generation details.
package gemini

import (
	"google.golang.org/genai"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/pricing"
)

// Namespace is the provider metadata key for Gemini counters.
const Namespace = "google"

// Metadata holds Gemini counters folded into the common ones.
type Metadata struct {
	ThoughtsTokens      int64 `json:"thoughtsTokens,omitempty"`
	ToolUsePromptTokens int64 `json:"toolUsePromptTokens,omitempty"`
}

func (Metadata) Namespace() string { return Namespace }

// FromUsageMetadata converts a response's usage metadata. Thinking tokens are
// billed as output; tool-use prompt tokens as input.
func FromUsageMetadata(usage *genai.GenerateContentResponseUsageMetadata) domain.LanguageGenerationDetails {
	if usage == nil {
		return domain.LanguageGenerationDetails{}
	}

	return domain.LanguageGenerationDetails{
		InputTokens:       int64(usage.PromptTokenCount) + int64(usage.ToolUsePromptTokenCount),
		OutputTokens:      int64(usage.CandidatesTokenCount) + int64(usage.ThoughtsTokenCount),
		CachedInputTokens: int64(usage.CachedContentTokenCount),
		ProviderMetadata: []domain.ProviderMetadata{Metadata{
			ThoughtsTokens:      int64(usage.ThoughtsTokenCount),
			ToolUsePromptTokens: int64(usage.ToolUsePromptTokenCount),
		}},
	}
}

// FromResponse converts the usage of a complete generateContent response.
func FromResponse(resp *genai.GenerateContentResponse) domain.LanguageGenerationDetails {
	if resp == nil {
		return domain.LanguageGenerationDetails{}
	}
	return FromUsageMetadata(resp.UsageMetadata)
}

// Models returns the built-in Gemini catalog entries, USD per million tokens.
func Models() []domain.ModelInfo {
	return []domain.ModelInfo{
		flash("gemini-2.5-flash", "Gemini 2.5 Flash", "0.3", "2.5", "0.075"),
		flash("gemini-2.0-flash", "Gemini 2.0 Flash", "0.1", "0.4", "0.025"),
	}
}

func flash(id, name, input, output, cached string) domain.ModelInfo {
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
