// Package schemas declares the contract every extraction candidate must
// satisfy. The embedded JSON Schema is the single source of truth: the same
// declaration constrains the extraction model's output and drives validation.
package schemas

import (
	_ "embed"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed extraction_result.schema.json
var extractionResultSchema string

// ExtractionSchema is a declarative description of the expected output,
// consumable by the extraction collaborator as a prompt constraint.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "PricingExtraction")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
	JSONSchema  string        // The JSON Schema enforced by the validator
}

// SchemaField describes a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "number", "boolean", array/object shapes
	Description string // Description for the model
	Required    bool   // Whether this field is required
	Enum        []string
}

// Describe returns the pricing extraction contract. Pure declaration; no side
// effects.
func Describe() ExtractionSchema {
	return ExtractionSchema{
		Name: "PricingExtraction",
		Description: `You are an expert travel-pricing analyst. Your task is to extract every lodging rate and ancillary service from the supplied documents into a strictly-typed structure.
COPY NAMES FROM THE SOURCE - do not invent resorts, rooms, or services that the documents do not mention.
Group pricing by geographic location, then by resort. Keep every price in the currency the document states; never convert.
Classify each resort's pricing style: "Bundle" when one inclusive rate covers lodging plus amenities (included amenities get price 0 and isIncluded true), "Component" when lodging and services are priced independently (each service keeps its own price and isIncluded false unless the document states it is bundled into the rate).`,
		Fields: []SchemaField{
			{
				Name:        "locations",
				Type:        `[{"name": string, "resorts": [...]}]`,
				Description: "One entry per country or region mentioned in the documents",
				Required:    true,
			},
			{
				Name:        "resorts",
				Type:        `[{"resortName": string, "currency": string, "locationType": string, "rooms": [...], "activities": [...]}]`,
				Description: "One entry per resort; currency is the ISO code or symbol the document uses",
				Required:    true,
			},
			{
				Name:        "locationType",
				Type:        "string",
				Description: `"Bundle" for inclusive-rate pricing, "Component" for itemized pricing`,
				Required:    true,
				Enum:        []string{"Bundle", "Component"},
			},
			{
				Name:        "rooms",
				Type:        `[{"type": string, "price": number}]`,
				Description: "Lodging rates and stay packages; price is non-negative",
				Required:    true,
			},
			{
				Name:        "activities",
				Type:        `[{"name": string, "price": number, "isIncluded": boolean}]`,
				Description: "Ancillary services: transfers, excursions, meals, spa, supplements",
				Required:    true,
			},
		},
		JSONSchema: extractionResultSchema,
	}
}

// Validate checks candidate JSON against the embedded schema and returns the
// raw gojsonschema result. Callers classify the failures; this layer only
// reports them.
func Validate(candidate []byte) (*gojsonschema.Result, error) {
	schemaLoader := gojsonschema.NewStringLoader(extractionResultSchema)
	documentLoader := gojsonschema.NewBytesLoader(candidate)
	return gojsonschema.Validate(schemaLoader, documentLoader)
}
