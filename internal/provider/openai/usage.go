// Package openai maps OpenAI API usage blocks onto the engine's generation
// details and carries the built-in OpenAI price list.
package openai

import (
	"github.com/openai/openai-go"

	"github.com/davidbz/creditmeter/internal/domain"
)

// Namespace is the provider metadata key for OpenAI counters.
const Namespace = "openai"

// Metadata holds OpenAI counters that are reported but not priced separately.
type Metadata struct {
	ReasoningTokens          int64 `json:"reasoningTokens,omitempty"`
	AcceptedPredictionTokens int64 `json:"acceptedPredictionTokens,omitempty"`
	RejectedPredictionTokens int64 `json:"rejectedPredictionTokens,omitempty"`
	AudioInputTokens         int64 `json:"audioInputTokens,omitempty"`
	AudioOutputTokens        int64 `json:"audioOutputTokens,omitempty"`
	EmbeddingInputTokens     int64 `json:"embeddingInputTokens,omitempty"`
}

func (Metadata) Namespace() string { return Namespace }

// FromCompletionUsage converts a chat completion usage block. OpenAI already
// counts cached tokens inside prompt_tokens.
func FromCompletionUsage(usage openai.CompletionUsage) domain.LanguageGenerationDetails {
	return domain.LanguageGenerationDetails{
		InputTokens:       usage.PromptTokens,
		OutputTokens:      usage.CompletionTokens,
		CachedInputTokens: usage.PromptTokensDetails.CachedTokens,
		ProviderMetadata: []domain.ProviderMetadata{Metadata{
			ReasoningTokens:          usage.CompletionTokensDetails.ReasoningTokens,
			AcceptedPredictionTokens: usage.CompletionTokensDetails.AcceptedPredictionTokens,
			RejectedPredictionTokens: usage.CompletionTokensDetails.RejectedPredictionTokens,
			AudioInputTokens:         usage.PromptTokensDetails.AudioTokens,
			AudioOutputTokens:        usage.CompletionTokensDetails.AudioTokens,
		}},
	}
}

// FromChatCompletion converts the usage of a complete chat response.
func FromChatCompletion(resp *openai.ChatCompletion) domain.LanguageGenerationDetails {
	if resp == nil {
		return domain.LanguageGenerationDetails{}
	}
	return FromCompletionUsage(resp.Usage)
}

// FromEmbeddingResponse converts the usage of an embeddings response.
func FromEmbeddingResponse(resp *openai.CreateEmbeddingResponse) domain.TextEmbeddingGenerationDetails {
	if resp == nil {
		return domain.TextEmbeddingGenerationDetails{}
	}
	return domain.TextEmbeddingGenerationDetails{
		ProviderMetadata: []domain.ProviderMetadata{Metadata{EmbeddingInputTokens: resp.Usage.PromptTokens}},
	}
}
