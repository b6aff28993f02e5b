// Package catalog reads and writes model catalog files and seeds model
// directories from them. A catalog file is a JSON array of model entries,
// or an HCL file of model blocks.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/provider/anthropic"
	"github.com/davidbz/creditmeter/internal/provider/echo"
	"github.com/davidbz/creditmeter/internal/provider/gemini"
	"github.com/davidbz/creditmeter/internal/provider/openai"
)

// Registrar is a model directory that accepts new entries.
type Registrar interface {
	Register(ctx context.Context, info domain.ModelInfo) error
}

// Load decodes a JSON catalog. Every entry must carry a valid reference and
// references must be unique. Price fields keep whatever shape they arrived in.
func Load(r io.Reader) ([]domain.ModelInfo, error) {
	var models []domain.ModelInfo
	if err := json.NewDecoder(r).Decode(&models); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	if err := validate(models); err != nil {
		return nil, err
	}
	return models, nil
}

// LoadFile reads a catalog from disk. Files ending in .hcl are parsed as HCL,
// anything else as JSON.
func LoadFile(path string) ([]domain.ModelInfo, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	if filepath.Ext(path) == ".hcl" {
		return LoadHCL(src, path)
	}

	return Load(bytes.NewReader(src))
}

// Write encodes models as an indented JSON catalog.
func Write(w io.Writer, models []domain.ModelInfo) error {
	if models == nil {
		models = []domain.ModelInfo{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(models); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return nil
}

// Seed registers every model with the directory.
func Seed(ctx context.Context, registrar Registrar, models []domain.ModelInfo) error {
	for _, info := range models {
		if err := registrar.Register(ctx, info); err != nil {
			return fmt.Errorf("failed to register %s: %w", info.ModelRef, err)
		}
	}
	return nil
}

// Defaults returns the built-in catalog of every bundled provider.
func Defaults() []domain.ModelInfo {
	return slices.Concat(
		anthropic.Models(),
		openai.Models(),
		gemini.Models(),
		echo.Models(),
	)
}

func validate(models []domain.ModelInfo) error {
	seen := make(map[string]struct{}, len(models))
	for i, info := range models {
		if err := info.Validate(); err != nil {
			return fmt.Errorf("catalog entry %d: %w", i, err)
		}

		key := info.ModelRef.String()
		if _, dup := seen[key]; dup {
			return fmt.Errorf("catalog entry %d: duplicate model %s", i, key)
		}
		seen[key] = struct{}{}
	}
	return nil
}
