// Package app assembles the cost engine's dependency container. The HTTP
// server and the command line build on the same container.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/creditmeter/internal/cache/redis"
	"github.com/davidbz/creditmeter/internal/catalog"
	"github.com/davidbz/creditmeter/internal/config"
	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/observability"
	"github.com/davidbz/creditmeter/internal/provider/registry"
	"github.com/davidbz/creditmeter/internal/routing"
	"github.com/davidbz/creditmeter/internal/usage"
)

const redisConnectTimeout = 5 * time.Second

// BuildContainer provides configuration, logging, the model directory and the
// billing service. cfgLoader supplies the configuration; config.Load in
// production.
func BuildContainer(cfgLoader func() *config.Config) (*dig.Container, error) {
	container := dig.New()

	providers := []struct {
		name        string
		constructor any
	}{
		{"config", cfgLoader},
		{"config dependencies", config.ParseDependenciesConfig},
		{"logger", observability.InitLogger},
		{"event publisher", func(logger *zap.Logger) domain.EventPublisher {
			return observability.NewEventBus(logger)
		}},
		{"metadata registry", registry.NewDefaultRegistry},
		{"metadata decoder", func(reg *registry.Registry) usage.MetadataDecoder {
			return reg
		}},
		{"model directory", NewModelDirectory},
		{"model router", routing.NewRouter},
		{"cost calculator", func() domain.CostCalculator {
			return domain.NewStandardCostCalculator()
		}},
		{"cost estimator", func(cfg *domain.EstimatorConfig) domain.CostEstimator {
			return domain.NewHeuristicCostEstimator(cfg)
		}},
		{"billing service", domain.NewBillingService},
	}

	for _, p := range providers {
		if err := container.Provide(p.constructor); err != nil {
			return nil, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	return container, nil
}

// NewModelDirectory returns the shared Redis directory when Redis is enabled,
// otherwise an in-memory directory seeded from the built-in catalog and the
// configured catalog file. Taking the logger orders it after logger setup.
func NewModelDirectory(
	logger *zap.Logger,
	redisCfg *redis.Config,
	catalogCfg *config.CatalogConfig,
) (domain.ModelDirectory, error) {
	ctx := context.Background()

	if redisCfg.Enabled {
		connectCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		defer cancel()

		client, err := redis.NewClient(connectCtx, redisCfg)
		if err != nil {
			return nil, err
		}

		directory, err := redis.NewModelDirectory(client, redisCfg.CatalogKey)
		if err != nil {
			return nil, err
		}

		logger.Info("using shared model directory", observability.String("directory", directory.String()))
		return directory, nil
	}

	directory := domain.NewInMemoryModelDirectory()

	if catalogCfg.SeedDefaults {
		if err := catalog.Seed(ctx, directory, catalog.Defaults()); err != nil {
			return nil, err
		}
	}

	if catalogCfg.File != "" {
		models, err := catalog.LoadFile(catalogCfg.File)
		if err != nil {
			return nil, err
		}

		for _, issue := range catalog.Audit(models) {
			logger.Warn("catalog price will not resolve",
				observability.String("model", issue.Ref.String()),
				observability.String("axis", issue.Axis),
				observability.String("key", issue.Key),
				observability.String("problem", issue.Problem))
		}

		if err := catalog.Seed(ctx, directory, models); err != nil {
			return nil, err
		}
	}

	models, _ := directory.List(ctx)
	logger.Info("using in-memory model directory", observability.Int("models", len(models)))

	return directory, nil
}
