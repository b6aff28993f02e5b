package domain_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/pricing"
)

func TestInMemoryModelDirectory(t *testing.T) {
	ctx := context.Background()

	t.Run("register and retrieve", func(t *testing.T) {
		directory := domain.NewInMemoryModelDirectory()
		info := languageModel()

		require.NoError(t, directory.Register(ctx, info))

		retrieved, err := directory.Get(ctx, info.ModelRef)
		require.NoError(t, err)
		require.Equal(t, info.ModelRef, retrieved.ModelRef)
		require.True(t, retrieved.Chargeable)
	})

	t.Run("missing model wraps ErrModelNotFound", func(t *testing.T) {
		directory := domain.NewInMemoryModelDirectory()

		_, err := directory.Get(ctx, languageModel().ModelRef)
		require.ErrorIs(t, err, domain.ErrModelNotFound)
	})

	t.Run("same model id under another modality is a different entry", func(t *testing.T) {
		directory := domain.NewInMemoryModelDirectory()
		require.NoError(t, directory.Register(ctx, languageModel()))

		ref := languageModel().ModelRef
		ref.Modality = domain.ModalityImage

		_, err := directory.Get(ctx, ref)
		require.ErrorIs(t, err, domain.ErrModelNotFound)
	})

	t.Run("invalid refs are rejected", func(t *testing.T) {
		directory := domain.NewInMemoryModelDirectory()

		err := directory.Register(ctx, domain.ModelInfo{})
		require.ErrorIs(t, err, domain.ErrInvalidModelRef)

		_, err = directory.Get(ctx, domain.ModelRef{ProviderID: "openai"})
		require.ErrorIs(t, err, domain.ErrInvalidModelRef)
	})

	t.Run("overwrite and list in key order", func(t *testing.T) {
		directory := domain.NewInMemoryModelDirectory()

		first := languageModel()
		second := languageModel()
		second.ProviderID = "aaa"
		replacement := languageModel()
		replacement.Chargeable = false

		require.NoError(t, directory.Register(ctx, first))
		require.NoError(t, directory.Register(ctx, second))
		require.NoError(t, directory.Register(ctx, replacement))

		models, err := directory.List(ctx)
		require.NoError(t, err)
		require.Len(t, models, 2)
		require.Equal(t, "aaa", models[0].ProviderID)
		require.False(t, models[1].Chargeable)
	})
}

func TestModelInfo_JSONRoundTrip(t *testing.T) {
	raw := `{"providerId":"openai","modelId":"gpt-image-1","modality":"image",` +
		`"imagePrice":[["low",[["1024x1024","0.011"]]],["high",[["1024x1024","0.167"],["1536x1024","0.25"]]]],` +
		`"chargeable":true}`

	var info domain.ModelInfo
	require.NoError(t, json.Unmarshal([]byte(raw), &info))

	require.Equal(t, domain.ModalityImage, info.Modality)
	require.Equal(t, pricing.KindNested, info.ImagePrice.Kind())
	require.Equal(t, pricing.KindUnpriced, info.InputTokenPrice.Kind())

	out, err := json.Marshal(info)
	require.NoError(t, err)
	require.Equal(t, raw, string(out))
}

func TestCost_JSON(t *testing.T) {
	out, err := json.Marshal(domain.NoCost())
	require.NoError(t, err)
	require.Equal(t, "null", string(out))

	calculator := domain.NewStandardCostCalculator()
	cost, err := calculator.Calculate(languageModel(), domain.LanguageGenerationDetails{})
	require.NoError(t, err)

	out, err = json.Marshal(cost)
	require.NoError(t, err)
	require.Equal(t, `"0.0000000000"`, string(out))
	require.False(t, cost.IsNoCost())
}

func TestEstimate_JSON(t *testing.T) {
	out, err := json.Marshal(domain.UnknownEstimate())
	require.NoError(t, err)
	require.JSONEq(t, `{"kind":"unknown"}`, string(out))

	out, err = json.Marshal(domain.NoCostEstimate())
	require.NoError(t, err)
	require.JSONEq(t, `{"kind":"no_cost"}`, string(out))
}
