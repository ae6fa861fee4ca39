// Package config loads NoScope's runtime settings from the environment
// and an optional .env file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Provider names the default LLM backend.
type Provider string

// The two supported providers.
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Settings holds NoScope's configuration, sourced from NOSCOPE_-prefixed
// environment variables (and the same variables without the prefix, as a
// fallback for API keys).
type Settings struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	DefaultProvider Provider
	DefaultModel    string
	DefaultTimebox  string
	DangerMode      bool
}

// Load reads .env (if present) into the process environment and builds
// Settings from it. It returns an error if neither an Anthropic nor an
// OpenAI API key is available.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{
		AnthropicAPIKey: firstNonEmpty(os.Getenv("NOSCOPE_ANTHROPIC_API_KEY"), os.Getenv("ANTHROPIC_API_KEY")),
		OpenAIAPIKey:    firstNonEmpty(os.Getenv("NOSCOPE_OPENAI_API_KEY"), os.Getenv("OPENAI_API_KEY")),
		DefaultProvider: Provider(os.Getenv("NOSCOPE_DEFAULT_PROVIDER")),
		DefaultModel:    os.Getenv("NOSCOPE_DEFAULT_MODEL"),
		DefaultTimebox:  os.Getenv("NOSCOPE_DEFAULT_TIMEBOX"),
		DangerMode:      os.Getenv("NOSCOPE_DANGER_MODE") == "true" || os.Getenv("NOSCOPE_DANGER_MODE") == "1",
	}
	if s.DefaultTimebox == "" {
		s.DefaultTimebox = "30m"
	}
	if s.DefaultProvider == "" && s.AnthropicAPIKey != "" {
		s.DefaultProvider = ProviderAnthropic
	} else if s.DefaultProvider == "" && s.OpenAIAPIKey != "" {
		s.DefaultProvider = ProviderOpenAI
	}

	if s.AnthropicAPIKey == "" && s.OpenAIAPIKey == "" {
		return nil, fmt.Errorf(
			"at least one API key is required: set NOSCOPE_ANTHROPIC_API_KEY (or ANTHROPIC_API_KEY) " +
				"or NOSCOPE_OPENAI_API_KEY (or OPENAI_API_KEY)",
		)
	}
	return s, nil
}

// DefaultModelForProvider returns the hardcoded default model for whichever
// provider is active, used when DefaultModel is unset.
func (s *Settings) DefaultModelForProvider() string {
	if s.DefaultModel != "" {
		return s.DefaultModel
	}
	if s.DefaultProvider == ProviderOpenAI {
		return "gpt-4o"
	}
	return "claude-sonnet-4-20250514"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
