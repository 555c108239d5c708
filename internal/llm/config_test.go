package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "gemini-2.5-flash-lite", config.Models[TierLite])
	assert.Equal(t, "gemini-2.5-flash", config.Models[TierStandard])
	assert.Equal(t, "gemini-2.5-pro", config.Models[TierAdvanced])
}

func TestConfig_GetModel(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		tier     ModelTier
		expected string
	}{
		{
			name:     "Configured tier",
			config:   DefaultConfig(),
			tier:     TierAdvanced,
			expected: "gemini-2.5-pro",
		},
		{
			name:     "Unknown tier falls back to standard",
			config:   DefaultConfig(),
			tier:     ModelTier("experimental"),
			expected: "gemini-2.5-flash",
		},
		{
			name:     "Missing standard falls back to lite",
			config:   &Config{Models: map[ModelTier]string{TierLite: "gemini-2.5-flash-lite"}},
			tier:     TierAdvanced,
			expected: "gemini-2.5-flash-lite",
		},
		{
			name:     "Empty config yields empty model",
			config:   &Config{},
			tier:     TierStandard,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.GetModel(tt.tier))
		})
	}
}
