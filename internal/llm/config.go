// Package llm provides the extraction collaborator: an abstraction over
// generative-model providers that turns raw document bytes into candidate
// structured pricing data. The rest of the system treats it as opaque and
// validates whatever comes back.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for cheap checks: single small documents, smoke tests
	TierLite ModelTier = "lite"
	// TierStandard is the default for document pricing extraction
	TierStandard ModelTier = "standard"
	// TierAdvanced is for large multi-document batches that need more reasoning
	TierAdvanced ModelTier = "advanced"
)

// Config holds the model configuration for the extraction collaborator
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a given tier, falling back to standard
// and then lite when the tier is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}
