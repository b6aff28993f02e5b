package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/davidbz/creditmeter/internal/money"
)

// EstimatorConfig holds the token heuristic of the pre-call estimator.
//
// estimatedTokens = ceil(serialised prompt length × TokensPerChar) + OverheadTokens
type EstimatorConfig struct {
	TokensPerChar  decimal.Decimal `env:"ESTIMATOR_TOKENS_PER_CHAR"  envDefault:"0.25"`
	OverheadTokens int64           `env:"ESTIMATOR_OVERHEAD_TOKENS"  envDefault:"32"`
}

// DefaultEstimatorConfig returns the built-in heuristic.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		TokensPerChar:  decimal.New(25, -2),
		OverheadTokens: 32,
	}
}

// HeuristicCostEstimator approximates input cost from the prompt length.
// Output tokens are never estimated.
type HeuristicCostEstimator struct {
	tokensPerChar  decimal.Decimal
	overheadTokens int64
}

// NewHeuristicCostEstimator creates a new estimator (DI constructor).
func NewHeuristicCostEstimator(cfg *EstimatorConfig) *HeuristicCostEstimator {
	c := DefaultEstimatorConfig()
	if cfg != nil {
		if cfg.TokensPerChar.IsPositive() {
			c.TokensPerChar = cfg.TokensPerChar
		}
		if cfg.OverheadTokens >= 0 {
			c.OverheadTokens = cfg.OverheadTokens
		}
	}

	return &HeuristicCostEstimator{
		tokensPerChar:  c.TokensPerChar,
		overheadTokens: c.OverheadTokens,
	}
}

// Estimate prices the estimated input tokens of a language call at the input
// rate. Other modalities are unknown so the caller can reserve a flat amount.
func (e *HeuristicCostEstimator) Estimate(info ModelInfo, opts ModelCallOptions) (Estimate, error) {
	if !info.Chargeable {
		return NoCostEstimate(), nil
	}

	if info.Modality != ModalityLanguage {
		return UnknownEstimate(), nil
	}

	if opts == nil {
		return UnknownEstimate(), errors.New("call options cannot be nil")
	}

	if opts.Modality() != info.Modality {
		return UnknownEstimate(), fmt.Errorf("%w: model %s got %s options", ErrModalityMismatch, info.ModelRef, opts.Modality())
	}

	var prompt []PromptMessage
	switch o := opts.(type) {
	case LanguageCallOptions:
		prompt = o.Prompt
	case *LanguageCallOptions:
		prompt = o.Prompt
	default:
		return UnknownEstimate(), nil
	}

	tokens, err := e.EstimateInputTokens(prompt)
	if err != nil {
		return UnknownEstimate(), err
	}

	price, _ := info.InputTokenPrice.Lookup()
	amount := money.ToCost(money.MultiplyInt(price, tokens))

	return AmountEstimate(amount, tokens), nil
}

// EstimateInputTokens applies the heuristic to a prompt.
func (e *HeuristicCostEstimator) EstimateInputTokens(prompt []PromptMessage) (int64, error) {
	if prompt == nil {
		prompt = []PromptMessage{}
	}

	// Markup must count as typed, not as \u003c escapes.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(prompt); err != nil {
		return 0, fmt.Errorf("failed to serialize prompt: %w", err)
	}
	serialized := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	chars := decimal.NewFromInt(int64(utf8.RuneCount(serialized)))
	return chars.Mul(e.tokensPerChar).Ceil().IntPart() + e.overheadTokens, nil
}

// Margin is the most an estimate may exceed the input-only cost of a call
// whose true token count equals the length-based part of the heuristic.
func (e *HeuristicCostEstimator) Margin(info ModelInfo) decimal.Decimal {
	price, _ := info.InputTokenPrice.Lookup()
	return money.ToCost(money.MultiplyInt(price, e.overheadTokens))
}
