package domain

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/davidbz/creditmeter/internal/observability"
)

const (
	// EventDataQuality is published when a price came from malformed catalog data.
	EventDataQuality = "pricing.data_quality"

	// EventUnresolvedTier is published when the max-tier fallback priced an axis.
	EventUnresolvedTier = "cost.unresolved_tier"

	defaultBackfillConcurrency = 8
)

// BillingConfig holds billing service settings.
type BillingConfig struct {
	BackfillConcurrency int `env:"BILLING_BACKFILL_CONCURRENCY" envDefault:"8"`
}

// UsageRecord is one completed call to (re)price.
type UsageRecord struct {
	Ref     ModelRef
	Details GenerationDetails
}

// BillingService resolves catalog entries and runs the cost engine on them.
type BillingService struct {
	directory   ModelDirectory
	calculator  CostCalculator
	estimator   CostEstimator
	events      EventPublisher
	concurrency int
}

// NewBillingService creates a new billing service (DI constructor).
func NewBillingService(
	directory ModelDirectory,
	calculator CostCalculator,
	estimator CostEstimator,
	events EventPublisher,
	cfg *BillingConfig,
) *BillingService {
	concurrency := defaultBackfillConcurrency
	if cfg != nil && cfg.BackfillConcurrency > 0 {
		concurrency = cfg.BackfillConcurrency
	}

	return &BillingService{
		directory:   directory,
		calculator:  calculator,
		estimator:   estimator,
		events:      events,
		concurrency: concurrency,
	}
}

// Charge computes the cost of a completed call.
func (s *BillingService) Charge(ctx context.Context, ref ModelRef, details GenerationDetails) (Cost, error) {
	if details == nil {
		return NoCost(), errors.New("generation details cannot be nil")
	}

	ctx = withRef(ctx, ref)
	logger := observability.FromContext(ctx)

	info, err := s.directory.Get(ctx, ref)
	if err != nil {
		return NoCost(), fmt.Errorf("model lookup failed: %w", err)
	}

	cost, err := s.calculator.Calculate(info, details)
	if err != nil {
		return NoCost(), fmt.Errorf("cost calculation failed: %w", err)
	}

	s.report(ctx, cost)

	if cost.IsNoCost() {
		logger.Debug("no cost recorded",
			observability.Bool("chargeable", info.Chargeable))
		return cost, nil
	}

	logger.Debug("cost computed",
		observability.String("cost", cost.String()))
	return cost, nil
}

// Estimate approximates the cost of a pending call.
func (s *BillingService) Estimate(ctx context.Context, ref ModelRef, opts ModelCallOptions) (Estimate, error) {
	ctx = withRef(ctx, ref)

	info, err := s.directory.Get(ctx, ref)
	if err != nil {
		return UnknownEstimate(), fmt.Errorf("model lookup failed: %w", err)
	}

	estimate, err := s.estimator.Estimate(info, opts)
	if err != nil {
		return UnknownEstimate(), fmt.Errorf("cost estimation failed: %w", err)
	}

	observability.FromContext(ctx).Debug("cost estimated",
		observability.String("kind", string(estimate.Kind)),
		observability.Int64("estimated_tokens", estimate.EstimatedTokens))

	return estimate, nil
}

// Models lists the directory's entries.
func (s *BillingService) Models(ctx context.Context) ([]ModelInfo, error) {
	models, err := s.directory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("model listing failed: %w", err)
	}
	return models, nil
}

// Backfill reprices records concurrently. Results keep the input order. The
// first failing record cancels the rest.
func (s *BillingService) Backfill(ctx context.Context, records []UsageRecord) ([]Cost, error) {
	costs := make([]Cost, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, record := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			cost, err := s.Charge(gctx, record.Ref, record.Details)
			if err != nil {
				return fmt.Errorf("record %d (%s): %w", i, record.Ref, err)
			}
			costs[i] = cost
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("backfill completed",
		observability.Int("records", len(records)))

	return costs, nil
}

func (s *BillingService) report(ctx context.Context, cost Cost) {
	logger := observability.FromContext(ctx)

	for _, comp := range cost.DataQualityIssues() {
		logger.Warn("catalog price could not be used",
			observability.String("axis", string(comp.Axis)),
			observability.String("resolution", comp.Resolution.String()))
		s.publish(ctx, EventDataQuality, comp)
	}

	for _, comp := range cost.UnresolvedTiers() {
		logger.Info("tier unresolved, charged highest tier price",
			observability.String("axis", string(comp.Axis)),
			observability.String("unit_price", comp.UnitPrice.String()))
		s.publish(ctx, EventUnresolvedTier, comp)
	}
}

func (s *BillingService) publish(ctx context.Context, eventType string, comp CostComponent) {
	if s.events == nil {
		return
	}

	s.events.Publish(ctx, eventType, map[string]interface{}{
		"provider":   observability.GetProvider(ctx),
		"model":      observability.GetModel(ctx),
		"axis":       string(comp.Axis),
		"tier":       comp.Tier,
		"units":      comp.Units.String(),
		"unit_price": comp.UnitPrice.String(),
		"resolution": comp.Resolution.String(),
	})
}

func withRef(ctx context.Context, ref ModelRef) context.Context {
	ctx = observability.WithProvider(ctx, ref.ProviderID)
	ctx = observability.WithModel(ctx, ref.ModelID)
	return observability.WithModality(ctx, string(ref.Modality))
}
