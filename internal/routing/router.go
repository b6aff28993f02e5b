// Package routing finds the provider that serves a bare model id.
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/davidbz/creditmeter/internal/domain"
)

// ErrAmbiguousModel indicates several providers list the same model id.
var ErrAmbiguousModel = errors.New("model id is served by more than one provider")

// SimpleRouter resolves model ids against the catalog.
type SimpleRouter struct {
	directory domain.ModelDirectory
}

// NewRouter creates a new router.
func NewRouter(directory domain.ModelDirectory) *SimpleRouter {
	return &SimpleRouter{
		directory: directory,
	}
}

// Route returns the reference of the only catalog entry with the given model
// id and modality. An empty modality means language.
func (r *SimpleRouter) Route(ctx context.Context, modelID string, modality domain.Modality) (domain.ModelRef, error) {
	if modelID == "" {
		return domain.ModelRef{}, fmt.Errorf("%w: model id cannot be empty", domain.ErrInvalidModelRef)
	}
	if modality == "" {
		modality = domain.ModalityLanguage
	}

	models, err := r.directory.List(ctx)
	if err != nil {
		return domain.ModelRef{}, fmt.Errorf("failed to list models: %w", err)
	}

	var matches []domain.ModelRef
	for _, info := range models {
		if info.ModelID == modelID && info.Modality == modality {
			matches = append(matches, info.ModelRef)
		}
	}

	switch len(matches) {
	case 0:
		return domain.ModelRef{}, fmt.Errorf("%w: no provider found for model %s", domain.ErrModelNotFound, modelID)
	case 1:
		return matches[0], nil
	default:
		providers := make([]string, len(matches))
		for i, ref := range matches {
			providers[i] = ref.ProviderID
		}
		return domain.ModelRef{}, fmt.Errorf("%w: %s (%s)", ErrAmbiguousModel, modelID, strings.Join(providers, ", "))
	}
}
