package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/davidbz/creditmeter/internal/money"
	"github.com/davidbz/creditmeter/internal/pricing"
)

// Axis names a priced usage dimension inside a Cost.
type Axis string

const (
	AxisInput      Axis = "input"
	AxisOutput     Axis = "output"
	AxisCacheRead  Axis = "cacheRead"
	AxisCacheWrite Axis = "cacheWrite"
)

// CostComponent is one priced axis of a cost. Subtotal is price × units at
// full precision, still per one million units.
type CostComponent struct {
	Axis       Axis               `json:"axis"`
	Tier       string             `json:"tier,omitempty"`
	Units      decimal.Decimal    `json:"units"`
	UnitPrice  decimal.Decimal    `json:"unitPrice"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
	Resolution pricing.Resolution `json:"resolution"`
}

// Cost is the billable amount of one generation in platform credit units.
//
// The zero value is NoCost: no line item should be recorded. A charged cost
// of zero is a different value and is only produced by ChargedCost.
type Cost struct {
	charged    bool
	amount     decimal.Decimal
	components []CostComponent
}

// NoCost returns the "do not record a line item" result.
func NoCost() Cost {
	return Cost{}
}

// ChargedCost returns a charged cost. Negative amounts are clamped to zero.
func ChargedCost(amount decimal.Decimal, components ...CostComponent) Cost {
	return Cost{
		charged:    true,
		amount:     money.AtLeast(amount, decimal.Zero),
		components: components,
	}
}

// IsNoCost reports whether no line item should be recorded.
func (c Cost) IsNoCost() bool {
	return !c.charged
}

// Amount returns the charged amount. ok is false for NoCost.
func (c Cost) Amount() (decimal.Decimal, bool) {
	return c.amount, c.charged
}

// Components returns the priced axes that make up the cost.
func (c Cost) Components() []CostComponent {
	return append([]CostComponent(nil), c.components...)
}

// DataQualityIssues returns components whose price came from bad catalog data.
func (c Cost) DataQualityIssues() []CostComponent {
	var issues []CostComponent
	for _, comp := range c.components {
		if comp.Resolution.IsDataQualityIssue() {
			issues = append(issues, comp)
		}
	}
	return issues
}

// UnresolvedTiers returns components priced with the max-tier fallback.
func (c Cost) UnresolvedTiers() []CostComponent {
	var unresolved []CostComponent
	for _, comp := range c.components {
		if comp.Resolution == pricing.ResolvedMaxTier {
			unresolved = append(unresolved, comp)
		}
	}
	return unresolved
}

// String renders the amount with ten decimal places, or "" for NoCost.
func (c Cost) String() string {
	if !c.charged {
		return ""
	}
	return money.Format(c.amount, money.CostPlaces)
}

// MarshalJSON renders the amount as a decimal string, or null for NoCost.
func (c Cost) MarshalJSON() ([]byte, error) {
	if !c.charged {
		return []byte("null"), nil
	}
	return json.Marshal(c.String())
}

// EstimateKind classifies an Estimate.
type EstimateKind string

const (
	EstimateAmount  EstimateKind = "amount"
	EstimateNoCost  EstimateKind = "no_cost"
	EstimateUnknown EstimateKind = "unknown"
)

// Estimate is an approximate pre-call cost.
type Estimate struct {
	Kind            EstimateKind `json:"kind"`
	EstimatedTokens int64        `json:"estimatedTokens,omitempty"`

	amount decimal.Decimal
}

// NoCostEstimate is returned for unchargeable models.
func NoCostEstimate() Estimate {
	return Estimate{Kind: EstimateNoCost}
}

// UnknownEstimate tells the caller to fall back to a flat reservation.
func UnknownEstimate() Estimate {
	return Estimate{Kind: EstimateUnknown}
}

// AmountEstimate returns a computed estimate.
func AmountEstimate(amount decimal.Decimal, estimatedTokens int64) Estimate {
	return Estimate{
		Kind:            EstimateAmount,
		EstimatedTokens: estimatedTokens,
		amount:          money.AtLeast(amount, decimal.Zero),
	}
}

// Amount returns the estimated amount. ok is false unless Kind is EstimateAmount.
func (e Estimate) Amount() (decimal.Decimal, bool) {
	return e.amount, e.Kind == EstimateAmount
}

// MarshalJSON adds the formatted amount for EstimateAmount.
func (e Estimate) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind            EstimateKind `json:"kind"`
		Amount          string       `json:"amount,omitempty"`
		EstimatedTokens int64        `json:"estimatedTokens,omitempty"`
	}

	w := wire{Kind: e.Kind, EstimatedTokens: e.EstimatedTokens}
	if e.Kind == EstimateAmount {
		w.Amount = money.Format(e.amount, money.CostPlaces)
	}
	return json.Marshal(w)
}
