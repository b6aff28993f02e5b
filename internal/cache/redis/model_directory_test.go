package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/cache/redis"
	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/pricing"
)

const catalogKey = "catalog:models"

func newDirectory(t *testing.T) (*redis.ModelDirectory, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	directory, err := redis.NewModelDirectory(client, catalogKey)
	require.NoError(t, err)

	return directory, server
}

func sonnet() domain.ModelInfo {
	return domain.ModelInfo{
		ModelRef: domain.ModelRef{ProviderID: "anthropic", ModelID: "claude-sonnet-4", Modality: domain.ModalityLanguage},
		Pricing: domain.Pricing{
			InputTokenPrice: pricing.Simple("3"),
			CacheInputTokenPrice: pricing.TieredOf(
				pricing.Tier{Key: "5m", Price: "3.75"},
				pricing.Tier{Key: "1h", Price: "6"},
			),
		},
		Chargeable: true,
	}
}

func TestNewModelDirectory_Validation(t *testing.T) {
	_, err := redis.NewModelDirectory(nil, catalogKey)
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis client cannot be nil")

	_, err = redis.NewModelDirectory(goredis.NewClient(&goredis.Options{}), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "catalog key cannot be empty")
}

func TestNewClient(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)

	client, err := redis.NewClient(ctx, &redis.Config{Addr: server.Addr()})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = redis.NewClient(ctx, &redis.Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to connect to redis")
}

func TestModelDirectory_RegisterAndGet(t *testing.T) {
	ctx := context.Background()
	directory, server := newDirectory(t)

	require.NoError(t, directory.Register(ctx, sonnet()))

	info, err := directory.Get(ctx, sonnet().ModelRef)
	require.NoError(t, err)
	require.Equal(t, sonnet().ModelRef, info.ModelRef)
	require.Equal(t, sonnet().CacheInputTokenPrice.Tiers(), info.CacheInputTokenPrice.Tiers())

	stored := server.HGet(catalogKey, "anthropic/claude-sonnet-4/language")
	require.JSONEq(t, `{"providerId":"anthropic","modelId":"claude-sonnet-4","modality":"language",`+
		`"inputTokenPrice":"3","cacheInputTokenPrice":[["5m","3.75"],["1h","6"]],"chargeable":true}`, stored)
}

func TestModelDirectory_Register_StoresMarkupVerbatim(t *testing.T) {
	ctx := context.Background()
	directory, server := newDirectory(t)

	info := sonnet()
	info.InputTokenPrice = pricing.TieredOf(
		pricing.Tier{Key: "<=200k", Price: "3"},
		pricing.Tier{Key: ">200k", Price: "6"},
	)
	require.NoError(t, directory.Register(ctx, info))

	stored := server.HGet(catalogKey, info.ModelRef.String())
	require.Contains(t, stored, `"inputTokenPrice":[["<=200k","3"],[">200k","6"]]`)

	got, err := directory.Get(ctx, info.ModelRef)
	require.NoError(t, err)
	require.Equal(t, info.InputTokenPrice.Tiers(), got.InputTokenPrice.Tiers())
}

func TestModelDirectory_Get_Errors(t *testing.T) {
	ctx := context.Background()
	directory, server := newDirectory(t)

	_, err := directory.Get(ctx, sonnet().ModelRef)
	require.ErrorIs(t, err, domain.ErrModelNotFound)

	_, err = directory.Get(ctx, domain.ModelRef{})
	require.ErrorIs(t, err, domain.ErrInvalidModelRef)

	server.HSet(catalogKey, sonnet().ModelRef.String(), "{not json")
	_, err = directory.Get(ctx, sonnet().ModelRef)
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupt catalog entry")
}

func TestModelDirectory_List(t *testing.T) {
	ctx := context.Background()
	directory, server := newDirectory(t)

	other := sonnet()
	other.ProviderID = "aaa"

	require.NoError(t, directory.Register(ctx, sonnet()))
	require.NoError(t, directory.Register(ctx, other))
	server.HSet(catalogKey, "broken/entry/language", "[")

	models, err := directory.List(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)
	require.Equal(t, "aaa", models[0].ProviderID)
	require.Equal(t, "anthropic", models[1].ProviderID)
}

func TestModelDirectory_Replace(t *testing.T) {
	ctx := context.Background()
	directory, _ := newDirectory(t)

	stale := sonnet()
	stale.ModelID = "retired"
	require.NoError(t, directory.Register(ctx, stale))

	require.NoError(t, directory.Replace(ctx, []domain.ModelInfo{sonnet()}))

	models, err := directory.List(ctx)
	require.NoError(t, err)
	require.Len(t, models, 1)
	require.Equal(t, "claude-sonnet-4", models[0].ModelID)

	err = directory.Replace(ctx, []domain.ModelInfo{{}})
	require.ErrorIs(t, err, domain.ErrInvalidModelRef)

	require.NoError(t, directory.Replace(ctx, nil))
	models, err = directory.List(ctx)
	require.NoError(t, err)
	require.Empty(t, models)
}

func TestModelDirectory_Delete(t *testing.T) {
	ctx := context.Background()
	directory, _ := newDirectory(t)

	require.NoError(t, directory.Register(ctx, sonnet()))
	require.NoError(t, directory.Delete(ctx, sonnet().ModelRef))
	require.NoError(t, directory.Delete(ctx, sonnet().ModelRef))

	_, err := directory.Get(ctx, sonnet().ModelRef)
	require.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestModelDirectory_BacksBillingService(t *testing.T) {
	ctx := context.Background()
	directory, _ := newDirectory(t)
	require.NoError(t, directory.Register(ctx, sonnet()))

	service := domain.NewBillingService(directory, domain.NewStandardCostCalculator(), nil, nil, nil)

	cost, err := service.Charge(ctx, sonnet().ModelRef, domain.LanguageGenerationDetails{InputTokens: 1_000_000})
	require.NoError(t, err)
	require.Equal(t, "3.0000000000", cost.String())
}
