package domain

import (
	"context"
	"errors"
)

var (
	// ErrModelNotFound indicates the directory has no entry for a ModelRef.
	ErrModelNotFound = errors.New("model not found")

	// ErrInvalidModelRef indicates a ModelRef with missing parts.
	ErrInvalidModelRef = errors.New("invalid model reference")

	// ErrModalityMismatch indicates usage or call options of one modality were
	// passed for a model of another. It is a caller bug, not a data problem.
	ErrModalityMismatch = errors.New("modality mismatch")
)

// ModelDirectory provides read-only catalog entries.
type ModelDirectory interface {
	// Get returns the entry for ref, or an error wrapping ErrModelNotFound.
	Get(ctx context.Context, ref ModelRef) (ModelInfo, error)

	// List returns every entry.
	List(ctx context.Context) ([]ModelInfo, error)
}

// CostCalculator computes the exact cost of a completed call.
type CostCalculator interface {
	// Calculate returns the cost of details priced with info. It fails only on
	// caller errors such as a modality mismatch.
	Calculate(info ModelInfo, details GenerationDetails) (Cost, error)
}

// CostEstimator approximates the cost of a call before it runs.
type CostEstimator interface {
	// Estimate returns an estimate for opts priced with info.
	Estimate(info ModelInfo, opts ModelCallOptions) (Estimate, error)
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
