// Package registry decodes the provider-namespaced metadata bag of a usage
// record into typed values. Each provider registers a decoder for its
// namespace; the cost calculator then finds capabilities by interface.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/observability"
	"github.com/davidbz/creditmeter/internal/provider/anthropic"
	"github.com/davidbz/creditmeter/internal/provider/gemini"
	"github.com/davidbz/creditmeter/internal/provider/openai"
)

// Decoder turns one namespace's raw metadata into a typed value.
type Decoder func(raw json.RawMessage) (domain.ProviderMetadata, error)

// JSONDecoder returns a Decoder that unmarshals into T.
func JSONDecoder[T domain.ProviderMetadata]() Decoder {
	return func(raw json.RawMessage) (domain.ProviderMetadata, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Registry maps metadata namespaces to decoders.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mu:       sync.RWMutex{},
		decoders: make(map[string]Decoder),
	}
}

// NewDefaultRegistry creates a registry with the built-in provider decoders.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.decoders[anthropic.Namespace] = JSONDecoder[anthropic.Metadata]()
	r.decoders[openai.Namespace] = JSONDecoder[openai.Metadata]()
	r.decoders[gemini.Namespace] = JSONDecoder[gemini.Metadata]()
	return r
}

// Register adds a decoder for a namespace.
func (r *Registry) Register(_ context.Context, namespace string, decoder Decoder) error {
	if namespace == "" {
		return errors.New("namespace cannot be empty")
	}
	if decoder == nil {
		return errors.New("decoder cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.decoders[namespace]; exists {
		return fmt.Errorf("namespace %s already registered", namespace)
	}

	r.decoders[namespace] = decoder
	return nil
}

// List returns the registered namespaces in sorted order.
func (r *Registry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.decoders))
	for name := range r.decoders {
		names = append(names, name)
	}
	slices.Sort(names)

	return names, nil
}

// Decode converts a raw metadata bag. Namespaces without a decoder are
// skipped; they carry nothing the engine prices.
func (r *Registry) Decode(ctx context.Context, raw map[string]json.RawMessage) ([]domain.ProviderMetadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	namespaces := make([]string, 0, len(raw))
	for ns := range raw {
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)

	r.mu.RLock()
	defer r.mu.RUnlock()

	logger := observability.FromContext(ctx)

	metadata := make([]domain.ProviderMetadata, 0, len(namespaces))
	for _, ns := range namespaces {
		decoder, ok := r.decoders[ns]
		if !ok {
			logger.Debug("skipping unknown provider metadata", observability.String("namespace", ns))
			continue
		}

		value, err := decoder(raw[ns])
		if err != nil {
			return nil, fmt.Errorf("invalid %s provider metadata: %w", ns, err)
		}
		metadata = append(metadata, value)
	}

	return metadata, nil
}
