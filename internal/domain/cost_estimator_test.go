package domain_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/pricing"
)

func TestHeuristicCostEstimator_Estimate(t *testing.T) {
	estimator := domain.NewHeuristicCostEstimator(&domain.EstimatorConfig{
		TokensPerChar:  decimal.RequireFromString("0.25"),
		OverheadTokens: 32,
	})

	prompt := []domain.PromptMessage{{Role: "user", Content: "hi"}}
	// `[{"role":"user","content":"hi"}]` is 32 characters -> 8 tokens + 32 overhead.

	t.Run("language prices input tokens only", func(t *testing.T) {
		estimate, err := estimator.Estimate(languageModel(), domain.LanguageCallOptions{Prompt: prompt})

		require.NoError(t, err)
		require.Equal(t, domain.EstimateAmount, estimate.Kind)
		require.Equal(t, int64(40), estimate.EstimatedTokens)

		amount, ok := estimate.Amount()
		require.True(t, ok)
		// 40 × 3 / 1e6
		require.Equal(t, "0.00012", amount.String())
	})

	t.Run("unchargeable model has no cost", func(t *testing.T) {
		info := languageModel()
		info.Chargeable = false

		estimate, err := estimator.Estimate(info, domain.LanguageCallOptions{Prompt: prompt})

		require.NoError(t, err)
		require.Equal(t, domain.EstimateNoCost, estimate.Kind)
		_, ok := estimate.Amount()
		require.False(t, ok)
	})

	t.Run("other modalities are unknown", func(t *testing.T) {
		for _, m := range []domain.Modality{
			domain.ModalityImage,
			domain.ModalitySpeech,
			domain.ModalityTranscription,
			domain.ModalityTextEmbedding,
			"video",
		} {
			estimate, err := estimator.Estimate(withModality(m), domain.GenericCallOptions{For: m})

			require.NoError(t, err)
			require.Equal(t, domain.EstimateUnknown, estimate.Kind, string(m))
		}
	})

	t.Run("mismatched options are a caller error", func(t *testing.T) {
		_, err := estimator.Estimate(languageModel(), domain.GenericCallOptions{For: domain.ModalityImage})
		require.ErrorIs(t, err, domain.ErrModalityMismatch)

		_, err = estimator.Estimate(languageModel(), nil)
		require.Error(t, err)
	})

	t.Run("tiered input price uses highest tier", func(t *testing.T) {
		info := languageModel()
		info.InputTokenPrice = pricing.TieredOf(
			pricing.Tier{Key: "standard", Price: "1"},
			pricing.Tier{Key: "long", Price: "2"},
		)

		estimate, err := estimator.Estimate(info, domain.LanguageCallOptions{Prompt: prompt})

		require.NoError(t, err)
		amount, _ := estimate.Amount()
		require.Equal(t, "0.00008", amount.String())
	})

	t.Run("unpriced input estimates zero", func(t *testing.T) {
		info := languageModel()
		info.InputTokenPrice = pricing.Unpriced()

		estimate, err := estimator.Estimate(info, &domain.LanguageCallOptions{Prompt: prompt})

		require.NoError(t, err)
		require.Equal(t, domain.EstimateAmount, estimate.Kind)
		amount, _ := estimate.Amount()
		require.True(t, amount.IsZero())
	})
}

func TestHeuristicCostEstimator_StaysWithinMarginOfCalculator(t *testing.T) {
	estimator := domain.NewHeuristicCostEstimator(nil)
	calculator := domain.NewStandardCostCalculator()
	info := languageModel()
	info.InputTokenPrice = pricing.Simple("2.5")

	for _, content := range []string{"", "hello", strings.Repeat("lorem ipsum ", 40)} {
		prompt := []domain.PromptMessage{
			{Role: "system", Content: "You are a helpful narrator."},
			{Role: "user", Content: content},
		}

		estimate, err := estimator.Estimate(info, domain.LanguageCallOptions{Prompt: prompt})
		require.NoError(t, err)

		// Treat the length-based part of the heuristic as the true token count.
		actualTokens := estimate.EstimatedTokens - domain.DefaultEstimatorConfig().OverheadTokens

		cost, err := calculator.Calculate(info, domain.LanguageGenerationDetails{InputTokens: actualTokens})
		require.NoError(t, err)

		estimated, _ := estimate.Amount()
		actual, _ := cost.Amount()

		require.True(t, estimated.GreaterThanOrEqual(actual))
		require.True(t, estimated.Sub(actual).LessThanOrEqual(estimator.Margin(info)),
			"estimate %s exceeds %s by more than %s", estimated, actual, estimator.Margin(info))
	}
}

func TestHeuristicCostEstimator_MarkupCountsAsTyped(t *testing.T) {
	estimator := domain.NewHeuristicCostEstimator(nil)

	plain, err := estimator.EstimateInputTokens([]domain.PromptMessage{
		{Role: "user", Content: strings.Repeat("a", 1000)},
	})
	require.NoError(t, err)

	for _, ch := range []string{"<", ">", "&"} {
		markup, err := estimator.EstimateInputTokens([]domain.PromptMessage{
			{Role: "user", Content: strings.Repeat(ch, 1000)},
		})
		require.NoError(t, err)
		require.Equal(t, plain, markup, "content of %q", ch)
	}
}

func TestHeuristicCostEstimator_InvalidConfigFallsBackToDefaults(t *testing.T) {
	estimator := domain.NewHeuristicCostEstimator(&domain.EstimatorConfig{
		TokensPerChar:  decimal.Zero,
		OverheadTokens: -1,
	})

	tokens, err := estimator.EstimateInputTokens(nil)
	require.NoError(t, err)
	// `[]` is 2 characters -> ceil(0.5) = 1 token + 32 overhead.
	require.Equal(t, int64(33), tokens)
}
