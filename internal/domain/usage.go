package domain

// GenerationDetails is the usage record of one completed provider call.
// Each modality has its own concrete type.
type GenerationDetails interface {
	Modality() Modality
}

// ProviderMetadata is a provider-namespaced usage payload outside the common
// schema. Capabilities are discovered through the interfaces below.
type ProviderMetadata interface {
	Namespace() string
}

// CacheWriteCounter is implemented by metadata that reports tokens newly
// written to the provider's prompt cache.
type CacheWriteCounter interface {
	ProviderMetadata
	CacheWriteInputTokens() int64
}

// TierTokens attributes a token count to a pricing tier key.
type TierTokens struct {
	Tier   string
	Tokens int64
}

// CacheWriteTierCounter is implemented by metadata that also says which cache
// tier (for example "5m" or "1h") the written tokens went to.
type CacheWriteTierCounter interface {
	CacheWriteCounter
	CacheWriteInputTokensByTier() []TierTokens
}

// LanguageGenerationDetails is the usage of a language model call.
// InputTokens includes CachedInputTokens.
type LanguageGenerationDetails struct {
	InputTokens       int64
	OutputTokens      int64
	CachedInputTokens int64
	ProviderMetadata  []ProviderMetadata
}

func (LanguageGenerationDetails) Modality() Modality { return ModalityLanguage }

// ImageGenerationDetails is the usage of an image generation call.
type ImageGenerationDetails struct {
	ProviderMetadata []ProviderMetadata
}

func (ImageGenerationDetails) Modality() Modality { return ModalityImage }

// SpeechGenerationDetails is the usage of a text-to-speech call.
type SpeechGenerationDetails struct {
	ProviderMetadata []ProviderMetadata
}

func (SpeechGenerationDetails) Modality() Modality { return ModalitySpeech }

// TranscriptionGenerationDetails is the usage of a transcription call.
type TranscriptionGenerationDetails struct {
	ProviderMetadata []ProviderMetadata
}

func (TranscriptionGenerationDetails) Modality() Modality { return ModalityTranscription }

// TextEmbeddingGenerationDetails is the usage of an embedding call.
type TextEmbeddingGenerationDetails struct {
	ProviderMetadata []ProviderMetadata
}

func (TextEmbeddingGenerationDetails) Modality() Modality { return ModalityTextEmbedding }

// ModelCallOptions are the parameters of a call that has not run yet.
type ModelCallOptions interface {
	Modality() Modality
}

// LanguageCallOptions carries the prompt of a pending language call.
type LanguageCallOptions struct {
	Prompt []PromptMessage
}

func (LanguageCallOptions) Modality() Modality { return ModalityLanguage }

// GenericCallOptions stands in for modalities the estimator does not price.
type GenericCallOptions struct {
	For Modality
}

func (o GenericCallOptions) Modality() Modality { return o.For }

func cacheWriteCounter(metadata []ProviderMetadata) (CacheWriteCounter, bool) {
	for _, m := range metadata {
		if counter, ok := m.(CacheWriteCounter); ok {
			return counter, true
		}
	}
	return nil, false
}
