package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikael/pricebook/internal/prompts"
	"github.com/mikael/pricebook/internal/schemas"
	"github.com/mikael/pricebook/internal/types"
)

// Extractor is the collaborator boundary the pipeline depends on: documents
// plus the schema contract in, raw candidate JSON out. Implementations make
// exactly one provider call per Extract invocation.
type Extractor interface {
	Extract(ctx context.Context, docs []types.Document, schema schemas.ExtractionSchema) ([]byte, error)
}

// GeminiExtractor extracts pricing data through a Gemini client.
type GeminiExtractor struct {
	client Client
	tier   ModelTier
}

// NewGeminiExtractor creates an extractor for the given API key. The standard
// tier is used unless overridden with WithTier.
func NewGeminiExtractor(ctx context.Context, config *Config, apiKey string) (*GeminiExtractor, error) {
	client, err := NewGeminiClient(ctx, config, apiKey)
	if err != nil {
		return nil, err
	}
	return &GeminiExtractor{client: client, tier: TierStandard}, nil
}

// WithTier overrides the model tier used for extraction calls.
func (e *GeminiExtractor) WithTier(tier ModelTier) *GeminiExtractor {
	e.tier = tier
	return e
}

// Extract submits the whole batch in one call with the schema contract as an
// output constraint and returns the raw candidate JSON. No validation happens
// here; the collaborator is not trusted to honor the contract.
func (e *GeminiExtractor) Extract(ctx context.Context, docs []types.Document, schema schemas.ExtractionSchema) ([]byte, error) {
	prompt := BuildExtractionPrompt(schema)

	text, err := e.client.GenerateJSON(ctx, prompt, docs, e.tier)
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	return []byte(text), nil
}

// Close releases the underlying client.
func (e *GeminiExtractor) Close() error {
	return e.client.Close()
}

// BuildExtractionPrompt constructs the model prompt from the schema contract.
func BuildExtractionPrompt(schema schemas.ExtractionSchema) string {
	var fields strings.Builder
	fields.WriteString("{\n")
	for i, field := range schema.Fields {
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		fields.WriteString(fmt.Sprintf("  %q: %s%s", field.Name, field.Type, requiredHint))
		if len(field.Enum) > 0 {
			fields.WriteString(fmt.Sprintf(" // one of: %s", strings.Join(field.Enum, ", ")))
		} else if field.Description != "" {
			fields.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			fields.WriteString(",")
		}
		fields.WriteString("\n")
	}
	fields.WriteString("}")

	template := prompts.MustGet("extraction.json", "extract-pricing")
	return prompts.Format(template, map[string]string{
		"TaskDescription": schema.Description,
		"FieldList":       fields.String(),
		"JSONSchema":      schema.JSONSchema,
	})
}
