package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/pricing"
	"github.com/davidbz/creditmeter/internal/usage"
)

// costView is the JSON form of a priced record.
type costView struct {
	Model      string                 `json:"model"`
	Cost       domain.Cost            `json:"cost"`
	NoCost     bool                   `json:"noCost"`
	Components []domain.CostComponent `json:"components,omitempty"`
}

func newCostView(ref domain.ModelRef, cost domain.Cost) costView {
	return costView{
		Model:      ref.String(),
		Cost:       cost,
		NoCost:     cost.IsNoCost(),
		Components: cost.Components(),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCost(w io.Writer, view costView) error {
	if view.NoCost {
		_, err := fmt.Fprintf(w, "%s: no cost\n", view.Model)
		return err
	}

	fmt.Fprintf(w, "%s: %s\n", view.Model, view.Cost)
	if len(view.Components) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  AXIS\tTIER\tUNITS\tPRICE/1M\tRESOLUTION")
	for _, c := range view.Components {
		tier := c.Tier
		if tier == "" {
			tier = "-"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", c.Axis, tier, c.Units, c.UnitPrice, c.Resolution)
	}
	return tw.Flush()
}

// parseModel reads "provider/model" or a bare model id. The model id may
// itself contain slashes. Bare ids are resolved later against the catalog.
func parseModel(value string, modality string) (usage.Model, error) {
	provider, model, ok := strings.Cut(value, "/")
	if !ok {
		provider, model = "", value
	}
	if (ok && provider == "") || model == "" {
		return usage.Model{}, fmt.Errorf("model %q must look like provider/model or model", value)
	}
	return usage.Model{ProviderID: provider, ModelID: model, Modality: domain.Modality(modality)}, nil
}

// priceLabel renders a pricing axis in one cell.
func priceLabel(field pricing.Field) string {
	switch field.Kind() {
	case pricing.KindUnpriced:
		return "-"
	case pricing.KindSimple:
		price, _ := field.SimplePrice()
		return price
	case pricing.KindTiered:
		parts := make([]string, 0, len(field.Tiers()))
		for _, tier := range field.Tiers() {
			parts = append(parts, tier.Key+" "+tier.Price)
		}
		return strings.Join(parts, ", ")
	case pricing.KindNested:
		return fmt.Sprintf("%d categories", len(field.Categories()))
	default:
		return "invalid"
	}
}
