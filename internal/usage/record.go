// Package usage defines the wire form of usage records and estimate requests
// shared by the HTTP API and the command line, and converts them into domain
// values.
package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/davidbz/creditmeter/internal/domain"
)

// MetadataDecoder turns a raw provider metadata bag into typed values.
type MetadataDecoder interface {
	Decode(ctx context.Context, raw map[string]json.RawMessage) ([]domain.ProviderMetadata, error)
}

// Model names a catalog entry. Modality defaults to language.
type Model struct {
	ProviderID string          `json:"providerId"`
	ModelID    string          `json:"modelId"`
	Modality   domain.Modality `json:"modality,omitempty"`
}

// Ref returns the directory reference.
func (m Model) Ref() domain.ModelRef {
	modality := m.Modality
	if modality == "" {
		modality = domain.ModalityLanguage
	}
	return domain.ModelRef{ProviderID: m.ProviderID, ModelID: m.ModelID, Modality: modality}
}

// Record is one completed call as reported by a caller.
type Record struct {
	Model

	InputTokens       int64                      `json:"inputTokens"`
	OutputTokens      int64                      `json:"outputTokens"`
	CachedInputTokens int64                      `json:"cachedInputTokens"`
	ProviderMetadata  map[string]json.RawMessage `json:"providerMetadata,omitempty"`
}

// Details builds the generation details for the record's modality.
func (r Record) Details(ctx context.Context, decoder MetadataDecoder) (domain.GenerationDetails, error) {
	var metadata []domain.ProviderMetadata
	if len(r.ProviderMetadata) > 0 {
		if decoder == nil {
			return nil, errors.New("provider metadata given but no decoder configured")
		}

		var err error
		metadata, err = decoder.Decode(ctx, r.ProviderMetadata)
		if err != nil {
			return nil, err
		}
	}

	switch r.Ref().Modality {
	case domain.ModalityLanguage:
		return domain.LanguageGenerationDetails{
			InputTokens:       r.InputTokens,
			OutputTokens:      r.OutputTokens,
			CachedInputTokens: r.CachedInputTokens,
			ProviderMetadata:  metadata,
		}, nil
	case domain.ModalityImage:
		return domain.ImageGenerationDetails{ProviderMetadata: metadata}, nil
	case domain.ModalitySpeech:
		return domain.SpeechGenerationDetails{ProviderMetadata: metadata}, nil
	case domain.ModalityTranscription:
		return domain.TranscriptionGenerationDetails{ProviderMetadata: metadata}, nil
	case domain.ModalityTextEmbedding:
		return domain.TextEmbeddingGenerationDetails{ProviderMetadata: metadata}, nil
	default:
		return unknownDetails{modality: r.Ref().Modality}, nil
	}
}

// unknownDetails carries a modality the engine does not price. The calculator
// answers NoCost for it once the catalog entry agrees on the modality.
type unknownDetails struct {
	modality domain.Modality
}

func (d unknownDetails) Modality() domain.Modality { return d.modality }

// UsageRecord converts the record for batch repricing.
func (r Record) UsageRecord(ctx context.Context, decoder MetadataDecoder) (domain.UsageRecord, error) {
	details, err := r.Details(ctx, decoder)
	if err != nil {
		return domain.UsageRecord{}, err
	}
	return domain.UsageRecord{Ref: r.Ref(), Details: details}, nil
}

// EstimateRequest asks for the cost of a call that has not run yet.
type EstimateRequest struct {
	Model

	Prompt []domain.PromptMessage `json:"prompt"`
}

// Options builds the call options for the request's modality.
func (e EstimateRequest) Options() domain.ModelCallOptions {
	modality := e.Ref().Modality
	if modality == domain.ModalityLanguage {
		return domain.LanguageCallOptions{Prompt: e.Prompt}
	}
	return domain.GenericCallOptions{For: modality}
}

// ReadRecords reads a stream of JSON records, one after another, as written
// by JSON Lines exporters.
func ReadRecords(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)

	var records []Record
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
}
