package catalog

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/pricing"
)

//nolint:gochecknoglobals // static schema
var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "model", LabelNames: []string{"provider", "name"}},
	},
}

// priceAttributes maps HCL attribute names to the price axes they fill.
func priceAttributes(p *domain.Pricing) map[string]*pricing.Field {
	return map[string]*pricing.Field{
		"input_token_price":        &p.InputTokenPrice,
		"output_token_price":       &p.OutputTokenPrice,
		"cached_input_token_price": &p.CachedInputTokenPrice,
		"cache_input_token_price":  &p.CacheInputTokenPrice,
		"image_price":              &p.ImagePrice,
		"input_character_price":    &p.InputCharacterPrice,
		"input_audio_second_price": &p.InputAudioSecondPrice,
	}
}

// LoadHCL parses an HCL catalog:
//
//	model "anthropic" "claude-sonnet-4" {
//	  modality                = "language"
//	  chargeable              = true
//	  input_token_price       = "3"
//	  cache_input_token_price = [["5m", "3.75"], ["1h", "6"]]
//	}
//
// Prices are written exactly as in the JSON form; a price given as a number
// rather than a string is kept as an unrecognized shape.
func LoadHCL(src []byte, filename string) ([]domain.ModelInfo, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", filename, diags)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid catalog %s: %w", filename, diags)
	}

	models := make([]domain.ModelInfo, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		info, err := decodeModelBlock(block)
		if err != nil {
			return nil, fmt.Errorf("%s: model %q %q: %w", block.DefRange, block.Labels[0], block.Labels[1], err)
		}
		models = append(models, info)
	}

	if err := validate(models); err != nil {
		return nil, err
	}
	return models, nil
}

func decodeModelBlock(block *hcl.Block) (domain.ModelInfo, error) {
	info := domain.ModelInfo{
		ModelRef: domain.ModelRef{ProviderID: block.Labels[0], ModelID: block.Labels[1]},
	}
	prices := priceAttributes(&info.Pricing)

	schema := &hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "modality", Required: true},
			{Name: "display_name"},
			{Name: "chargeable"},
		},
	}
	for name := range prices {
		schema.Attributes = append(schema.Attributes, hcl.AttributeSchema{Name: name})
	}

	content, diags := block.Body.Content(schema)
	if diags.HasErrors() {
		return info, diags
	}

	for name, attr := range content.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return info, diags
		}

		switch name {
		case "modality":
			s, err := stringValue(name, val)
			if err != nil {
				return info, err
			}
			info.Modality = domain.Modality(s)
		case "display_name":
			s, err := stringValue(name, val)
			if err != nil {
				return info, err
			}
			info.DisplayName = s
		case "chargeable":
			if val.IsNull() || !val.Type().Equals(cty.Bool) {
				return info, fmt.Errorf("%s must be a bool", name)
			}
			info.Chargeable = val.True()
		default:
			if err := decodePrice(val, prices[name]); err != nil {
				return info, fmt.Errorf("%s: %w", name, err)
			}
		}
	}

	return info, nil
}

func stringValue(name string, val cty.Value) (string, error) {
	if val.IsNull() || !val.Type().Equals(cty.String) {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return val.AsString(), nil
}

// decodePrice round-trips the value through JSON so HCL and JSON catalogs
// classify price shapes identically.
func decodePrice(val cty.Value, field *pricing.Field) error {
	if val.IsNull() {
		*field = pricing.Unpriced()
		return nil
	}

	raw, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return err
	}
	return field.UnmarshalJSON(raw)
}
