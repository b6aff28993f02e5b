package domain

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryModelDirectory stores catalog entries in memory.
type InMemoryModelDirectory struct {
	mu     sync.RWMutex
	models map[string]ModelInfo
}

// NewInMemoryModelDirectory creates a new in-memory model directory.
func NewInMemoryModelDirectory() *InMemoryModelDirectory {
	return &InMemoryModelDirectory{
		mu:     sync.RWMutex{},
		models: make(map[string]ModelInfo),
	}
}

// Get retrieves the entry for a model.
func (d *InMemoryModelDirectory) Get(_ context.Context, ref ModelRef) (ModelInfo, error) {
	if err := ref.Validate(); err != nil {
		return ModelInfo{}, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	info, exists := d.models[ref.String()]
	if !exists {
		return ModelInfo{}, fmt.Errorf("%w: %s", ErrModelNotFound, ref)
	}

	return info, nil
}

// List returns all entries ordered by key.
func (d *InMemoryModelDirectory) List(_ context.Context) ([]ModelInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.models))
	for key := range d.models {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	models := make([]ModelInfo, 0, len(keys))
	for _, key := range keys {
		models = append(models, d.models[key])
	}

	return models, nil
}

// Register adds or replaces an entry.
func (d *InMemoryModelDirectory) Register(_ context.Context, info ModelInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.models[info.String()] = info
	return nil
}
