package ai

import (
	"errors"

	"github.com/hrygo/rift/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM LLMConfig
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string // gemini, openai
	Model       string // gemini-2.0-flash
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // default: 0

	// RequestsPerSecond paces outgoing calls. Zero disables pacing.
	RequestsPerSecond float64
	Burst             int
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsLLMEnabled(),
		LLM: LLMConfig{
			Provider:          p.LLMProvider,
			Model:             p.LLMModel,
			MaxTokens:         1024,
			Temperature:       0,
			RequestsPerSecond: 5,
			Burst:             5,
		},
	}

	switch p.LLMProvider {
	case "gemini":
		cfg.LLM.APIKey = p.GeminiAPIKey
	case "openai":
		cfg.LLM.APIKey = p.OpenAIAPIKey
		cfg.LLM.BaseURL = p.OpenAIBaseURL
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}

	return nil
}
