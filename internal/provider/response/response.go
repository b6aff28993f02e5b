// Package response prices raw provider response bodies. It decodes the body
// with the provider's SDK types and maps the reported usage onto generation
// details for the catalog entry named in the response.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"

	"github.com/davidbz/creditmeter/internal/domain"
	anthropicusage "github.com/davidbz/creditmeter/internal/provider/anthropic"
	"github.com/davidbz/creditmeter/internal/provider/echo"
	geminiusage "github.com/davidbz/creditmeter/internal/provider/gemini"
	openaiusage "github.com/davidbz/creditmeter/internal/provider/openai"
)

// ErrUnknownProvider indicates no parser is registered for a provider id.
var ErrUnknownProvider = errors.New("unknown response provider")

// Priced is a decoded response ready for the billing service.
type Priced struct {
	Ref     domain.ModelRef
	Details domain.GenerationDetails
}

// Parser decodes one provider's response body.
type Parser func(raw []byte) (Priced, error)

//nolint:gochecknoglobals // fixed table of built-in parsers
var parsers = map[string]Parser{
	anthropicusage.Namespace: parseAnthropic,
	openaiusage.Namespace:    parseOpenAI,
	geminiusage.Namespace:    parseGemini,
	echo.ProviderID:          parseEcho,
}

// Providers lists the provider ids Parse understands, sorted.
func Providers() []string {
	ids := make([]string, 0, len(parsers))
	for id := range parsers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Parse decodes raw as a response of the given provider. A non-empty model
// replaces the model id reported in the response, for providers that answer
// with dated snapshot ids the catalog does not list.
func Parse(provider string, raw []byte, model string) (Priced, error) {
	parse, ok := parsers[provider]
	if !ok {
		return Priced{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	priced, err := parse(raw)
	if err != nil {
		return Priced{}, fmt.Errorf("invalid %s response: %w", provider, err)
	}

	if model != "" {
		priced.Ref.ModelID = model
	}
	if priced.Ref.ModelID == "" {
		return Priced{}, fmt.Errorf("%w: %s response names no model", domain.ErrInvalidModelRef, provider)
	}

	return priced, nil
}

func parseAnthropic(raw []byte) (Priced, error) {
	var msg anthropic.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Priced{}, err
	}

	return Priced{
		Ref:     languageRef(anthropicusage.Namespace, string(msg.Model)),
		Details: anthropicusage.FromMessage(&msg),
	}, nil
}

func parseOpenAI(raw []byte) (Priced, error) {
	var probe struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Priced{}, err
	}

	if probe.Object == "list" {
		var resp openai.CreateEmbeddingResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return Priced{}, err
		}
		return Priced{
			Ref: domain.ModelRef{
				ProviderID: openaiusage.Namespace,
				ModelID:    resp.Model,
				Modality:   domain.ModalityTextEmbedding,
			},
			Details: openaiusage.FromEmbeddingResponse(&resp),
		}, nil
	}

	var resp openai.ChatCompletion
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Priced{}, err
	}

	return Priced{
		Ref:     languageRef(openaiusage.Namespace, resp.Model),
		Details: openaiusage.FromChatCompletion(&resp),
	}, nil
}

func parseGemini(raw []byte) (Priced, error) {
	var resp genai.GenerateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Priced{}, err
	}

	return Priced{
		Ref:     languageRef(geminiusage.Namespace, resp.ModelVersion),
		Details: geminiusage.FromResponse(&resp),
	}, nil
}

// parseEcho reads the prompt messages the echo model answers with.
func parseEcho(raw []byte) (Priced, error) {
	var prompt []domain.PromptMessage
	if err := json.Unmarshal(raw, &prompt); err != nil {
		return Priced{}, err
	}

	return Priced{
		Ref:     echo.Ref,
		Details: echo.Usage(prompt),
	}, nil
}

func languageRef(provider, model string) domain.ModelRef {
	return domain.ModelRef{ProviderID: provider, ModelID: model, Modality: domain.ModalityLanguage}
}
