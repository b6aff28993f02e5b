// Package anthropic maps Anthropic Messages API usage counters onto the
// engine's generation details. Anthropic reports cache reads and cache writes
// outside input_tokens, so both are folded back in here.
package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/davidbz/creditmeter/internal/domain"
)

// Namespace is the provider metadata key for Anthropic counters.
const Namespace = "anthropic"

// Cache tier keys used by Anthropic cache-write prices.
const (
	TierFiveMinutes = "5m"
	TierOneHour     = "1h"
)

// CacheCreation splits cache-write tokens by cache lifetime.
type CacheCreation struct {
	Ephemeral5mInputTokens int64 `json:"ephemeral5mInputTokens"`
	Ephemeral1hInputTokens int64 `json:"ephemeral1hInputTokens"`
}

// Metadata is the Anthropic entry of a usage record's provider metadata.
type Metadata struct {
	CacheCreationInputTokens int64          `json:"cacheCreationInputTokens"`
	CacheCreation            *CacheCreation `json:"cacheCreation,omitempty"`
}

func (Metadata) Namespace() string { return Namespace }

// CacheWriteInputTokens returns the tokens written to the prompt cache.
func (m Metadata) CacheWriteInputTokens() int64 {
	return m.CacheCreationInputTokens
}

// CacheWriteInputTokensByTier attributes written tokens to cache tiers. It
// returns nil when the response carried no breakdown.
func (m Metadata) CacheWriteInputTokensByTier() []domain.TierTokens {
	if m.CacheCreation == nil {
		return nil
	}

	var tiers []domain.TierTokens
	if m.CacheCreation.Ephemeral5mInputTokens > 0 {
		tiers = append(tiers, domain.TierTokens{Tier: TierFiveMinutes, Tokens: m.CacheCreation.Ephemeral5mInputTokens})
	}
	if m.CacheCreation.Ephemeral1hInputTokens > 0 {
		tiers = append(tiers, domain.TierTokens{Tier: TierOneHour, Tokens: m.CacheCreation.Ephemeral1hInputTokens})
	}
	return tiers
}

// FromUsage converts the usage block of a Messages API response.
func FromUsage(usage anthropic.Usage) domain.LanguageGenerationDetails {
	meta := Metadata{CacheCreationInputTokens: usage.CacheCreationInputTokens}

	breakdown := usage.CacheCreation
	if breakdown.Ephemeral5mInputTokens > 0 || breakdown.Ephemeral1hInputTokens > 0 {
		meta.CacheCreation = &CacheCreation{
			Ephemeral5mInputTokens: breakdown.Ephemeral5mInputTokens,
			Ephemeral1hInputTokens: breakdown.Ephemeral1hInputTokens,
		}
	}

	return domain.LanguageGenerationDetails{
		InputTokens:       usage.InputTokens + usage.CacheReadInputTokens,
		OutputTokens:      usage.OutputTokens,
		CachedInputTokens: usage.CacheReadInputTokens,
		ProviderMetadata:  []domain.ProviderMetadata{meta},
	}
}

// FromMessage converts the usage of a complete Messages API response.
func FromMessage(msg *anthropic.Message) domain.LanguageGenerationDetails {
	if msg == nil {
		return domain.LanguageGenerationDetails{}
	}
	return FromUsage(msg.Usage)
}
