package domain

import (
	"fmt"

	"github.com/davidbz/creditmeter/internal/pricing"
)

// Modality is a billable unit category.
type Modality string

const (
	ModalityLanguage      Modality = "language"
	ModalityImage         Modality = "image"
	ModalitySpeech        Modality = "speech"
	ModalityTranscription Modality = "transcription"
	ModalityTextEmbedding Modality = "textEmbedding"
)

// Known reports whether the engine recognises the modality.
func (m Modality) Known() bool {
	switch m {
	case ModalityLanguage, ModalityImage, ModalitySpeech, ModalityTranscription, ModalityTextEmbedding:
		return true
	default:
		return false
	}
}

// ModelRef identifies one chargeable unit in the model directory.
type ModelRef struct {
	ProviderID string   `json:"providerId" jsonschema:"required"`
	ModelID    string   `json:"modelId"    jsonschema:"required"`
	Modality   Modality `json:"modality"   jsonschema:"required,enum=language,enum=image,enum=speech,enum=transcription,enum=textEmbedding"`
}

// String returns the directory key, provider/model/modality.
func (r ModelRef) String() string {
	return fmt.Sprintf("%s/%s/%s", r.ProviderID, r.ModelID, r.Modality)
}

// Validate checks that every part of the reference is set.
func (r ModelRef) Validate() error {
	if r.ProviderID == "" {
		return fmt.Errorf("%w: provider id cannot be empty", ErrInvalidModelRef)
	}
	if r.ModelID == "" {
		return fmt.Errorf("%w: model id cannot be empty", ErrInvalidModelRef)
	}
	if r.Modality == "" {
		return fmt.Errorf("%w: modality cannot be empty", ErrInvalidModelRef)
	}
	return nil
}

// Pricing lists the pricing axes a catalog entry may carry. Every price is per
// one million units. Absent axes are omitted on the wire.
type Pricing struct {
	InputTokenPrice  pricing.Field `json:"inputTokenPrice,omitzero"`
	OutputTokenPrice pricing.Field `json:"outputTokenPrice,omitzero"`

	// CachedInputTokenPrice prices tokens read from the provider's prompt cache.
	CachedInputTokenPrice pricing.Field `json:"cachedInputTokenPrice,omitzero"`

	// CacheInputTokenPrice prices tokens written to the prompt cache, usually
	// tiered by cache TTL.
	CacheInputTokenPrice pricing.Field `json:"cacheInputTokenPrice,omitzero"`

	// ImagePrice is usually nested: quality, then size.
	ImagePrice pricing.Field `json:"imagePrice,omitzero"`

	InputCharacterPrice   pricing.Field `json:"inputCharacterPrice,omitzero"`
	InputAudioSecondPrice pricing.Field `json:"inputAudioSecondPrice,omitzero"`
}

// ModelInfo is a read-only catalog entry.
type ModelInfo struct {
	ModelRef
	Pricing

	DisplayName string `json:"displayName,omitempty"`
	Chargeable  bool   `json:"chargeable"`
}

// PromptMessage is one message of a language prompt.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
