package llm

import (
	"context"
	"errors"
	"time"
)

// ErrNoProviders is returned when no configured provider could produce a response
var ErrNoProviders = errors.New("no AI provider available")

// Provider defines the interface for text generation providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces a completion for a single prompt
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Ping checks that the provider is configured and reachable
	Ping(ctx context.Context) error
}

// GenerateRequest contains the input for a single generation
type GenerateRequest struct {
	// Prompt is the user message
	Prompt string

	// System is an optional system instruction
	System string

	// Model overrides the provider's configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// GenerateResponse contains the provider output
type GenerateResponse struct {
	// Text is the generated text, trimmed
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// ProviderState is a point-in-time view of one provider, in priority order
type ProviderState struct {
	Name      string    `json:"name"`
	Available bool      `json:"available"`
	Errors    int       `json:"error_count"`
	LastError string    `json:"last_error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: 1000,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) maxTokens(requested int) int {
	if requested > 0 {
		return requested
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}

func (c Config) model(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}
