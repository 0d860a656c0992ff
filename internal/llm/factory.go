package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/qualigate/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch ProviderName(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ProviderName returns the canonical name of a configured provider
func ProviderName(name string) string {
	name = strings.ToLower(name)
	if name == "claude" {
		return "anthropic"
	}
	return name
}

// ConfigFromModel converts one configured provider to llm.Config
func ConfigFromModel(p model.ProviderConfig, shared model.LLMConfig) Config {
	return Config{
		Provider:   p.Name,
		Model:      p.Model,
		APIKey:     p.APIKey,
		BaseURL:    p.BaseURL,
		Timeout:    shared.Timeout,
		HTTPProxy:  shared.HTTPProxy,
		HTTPSProxy: shared.HTTPSProxy,
		NoProxy:    shared.NoProxy,
	}
}

// NewProviders builds every configured provider in priority order.
// Providers that cannot be constructed (e.g. missing key) are reported, not fatal.
func NewProviders(cfg model.LLMConfig) ([]Provider, []error) {
	var providers []Provider
	var errs []error
	for _, pc := range cfg.Providers {
		p, err := NewProvider(ConfigFromModel(pc, cfg))
		if err != nil {
			errs = append(errs, fmt.Errorf("provider %s: %w", pc.Name, err))
			continue
		}
		providers = append(providers, p)
	}
	return providers, errs
}
