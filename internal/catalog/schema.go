package catalog

import (
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/pricing"
)

// Schema returns the JSON Schema of a catalog file.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
		Mapper:                     priceFieldMapper,
	}

	schema := reflector.Reflect([]domain.ModelInfo{})
	schema.Title = "Model catalog"
	schema.Description = "Model entries with prices per one million units."
	return schema
}

func priceFieldMapper(t reflect.Type) *jsonschema.Schema {
	if t != reflect.TypeFor[pricing.Field]() {
		return nil
	}

	price := &jsonschema.Schema{Type: "string", Description: "Non-negative decimal price."}
	tier := &jsonschema.Schema{
		Type:        "array",
		Description: "[tierKey, price]",
		Items:       &jsonschema.Schema{Type: "string"},
	}
	tiered := &jsonschema.Schema{Type: "array", Items: tier}
	category := &jsonschema.Schema{
		Type:        "array",
		Description: "[categoryKey, tiers]",
		Items: &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{{Type: "string"}, tiered},
		},
	}

	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "null"},
			price,
			tiered,
			{Type: "array", Items: category},
		},
	}
}
