package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ppiankov/qualigate/internal/logger"
	"github.com/ppiankov/qualigate/internal/model"
	"github.com/ppiankov/qualigate/internal/worker"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxErrors disables a provider after this many consecutive failures
const DefaultMaxErrors = 3

// Gateway fronts the configured providers in priority order. A provider that
// keeps failing is disabled until ResetErrorState is called.
type Gateway struct {
	providers []Provider
	log       *logger.Logger
	limiter   *worker.Limiter
	probeRate float64
	status    *gocache.Cache
	maxErrors int
	now       func() time.Time

	mu        sync.Mutex
	errors    map[string]int
	lastError map[string]string
}

// GatewayOption configures a Gateway
type GatewayOption func(*Gateway)

// WithLogger sets the gateway logger
func WithLogger(log *logger.Logger) GatewayOption {
	return func(g *Gateway) { g.log = log }
}

// WithProbeLimit rate-limits availability probes per provider
func WithProbeLimit(perSecond float64, burst int) GatewayOption {
	return func(g *Gateway) {
		g.limiter = worker.NewLimiter(perSecond, burst)
		g.probeRate = perSecond
	}
}

// WithStatusTTL sets how long a probe result is reused
func WithStatusTTL(ttl time.Duration) GatewayOption {
	return func(g *Gateway) { g.status = gocache.New(ttl, 2*ttl) }
}

// WithMaxErrors sets the failure count that disables a provider
func WithMaxErrors(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.maxErrors = n
		}
	}
}

// NewGateway creates a gateway over already constructed providers
func NewGateway(providers []Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		providers: providers,
		log:       logger.Nop(),
		limiter:   worker.NewLimiter(0, 1),
		status:    gocache.New(30*time.Second, time.Minute),
		maxErrors: DefaultMaxErrors,
		now:       time.Now,
		errors:    make(map[string]int),
		lastError: make(map[string]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGatewayFromConfig builds the providers listed in cfg. Providers that
// cannot be constructed are logged and skipped.
func NewGatewayFromConfig(cfg model.LLMConfig, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	providers, errs := NewProviders(cfg)
	for _, err := range errs {
		log.Warn("AI provider disabled", "error", err)
	}

	opts := []GatewayOption{WithLogger(log), WithProbeLimit(cfg.ProbeRate, cfg.ProbeBurst)}
	if cfg.StatusTTL > 0 {
		opts = append(opts, WithStatusTTL(cfg.StatusTTL))
	}
	g := NewGateway(providers, opts...)

	for _, pc := range cfg.Providers {
		if pc.ProbeRate > 0 || pc.ProbeBurst > 0 {
			g.SetProbeLimit(ProviderName(pc.Name), pc.ProbeRate, pc.ProbeBurst)
		}
	}
	return g
}

// SetProbeLimit overrides the probe rate of one provider. A rate of zero
// keeps the shared rate.
func (g *Gateway) SetProbeLimit(name string, perSecond float64, burst int) {
	if perSecond <= 0 {
		perSecond = g.probeRate
	}
	g.limiter.SetRate(name, perSecond, burst)
}

// Providers returns provider names in priority order
func (g *Gateway) Providers() []string {
	names := make([]string, len(g.providers))
	for i, p := range g.providers {
		names[i] = p.Name()
	}
	return names
}

// ResetErrorState re-enables every provider and drops cached probe results
func (g *Gateway) ResetErrorState() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.errors = make(map[string]int)
	g.lastError = make(map[string]string)
	g.status.Flush()
	g.log.Info("AI provider error state reset", "providers", len(g.providers))
}

// ProviderStatus probes every provider concurrently and reports them in priority order
func (g *Gateway) ProviderStatus(ctx context.Context) []ProviderState {
	states := make([]ProviderState, len(g.providers))

	eg, egctx := errgroup.WithContext(ctx)
	for i, p := range g.providers {
		eg.Go(func() error {
			states[i] = g.probe(egctx, p)
			return nil
		})
	}
	_ = eg.Wait()

	return states
}

func (g *Gateway) probe(ctx context.Context, p Provider) ProviderState {
	name := p.Name()
	state := ProviderState{Name: name, CheckedAt: g.now().UTC()}

	g.mu.Lock()
	state.Errors = g.errors[name]
	state.LastError = g.lastError[name]
	g.mu.Unlock()

	if state.Errors >= g.maxErrors {
		return state
	}

	if cached, ok := g.status.Get(name); ok {
		c := cached.(ProviderState)
		c.Errors = state.Errors
		c.LastError = firstNonEmpty(state.LastError, c.LastError)
		return c
	}

	if err := g.limiter.Wait(ctx, name); err != nil {
		state.LastError = err.Error()
		return state
	}

	if err := p.Ping(ctx); err != nil {
		g.log.Warn("AI provider unavailable", "provider", name, "error", err)
		state.LastError = err.Error()
	} else {
		state.Available = true
	}
	g.status.SetDefault(name, state)

	return state
}

// Generate tries each enabled provider in priority order and returns the first answer
func (g *Gateway) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var errs []error
	for _, p := range g.providers {
		name := p.Name()
		if g.disabled(name) {
			continue
		}

		resp, err := p.Generate(ctx, GenerateRequest{Prompt: prompt, MaxTokens: maxTokens})
		if err != nil {
			g.recordError(name, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		g.recordSuccess(name)
		g.log.Debug("AI generation completed", "provider", name, "model", resp.Model, "tokens", resp.TokensUsed)
		return resp.Text, nil
	}

	if len(errs) == 0 {
		return "", ErrNoProviders
	}
	return "", fmt.Errorf("%w: %w", ErrNoProviders, errors.Join(errs...))
}

// Health summarizes provider availability
type Health struct {
	Status    string          `json:"status"` // healthy, degraded or unavailable
	Total     int             `json:"total_providers"`
	Available int             `json:"available_providers"`
	Providers []ProviderState `json:"providers"`
}

// Health probes all providers and summarizes the result
func (g *Gateway) Health(ctx context.Context) Health {
	states := g.ProviderStatus(ctx)
	h := Health{Total: len(states), Providers: states}
	for _, s := range states {
		if s.Available {
			h.Available++
		}
	}

	switch {
	case h.Available == 0:
		h.Status = "unavailable"
	case h.Available < h.Total:
		h.Status = "degraded"
	default:
		h.Status = "healthy"
	}
	return h
}

func (g *Gateway) disabled(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errors[name] >= g.maxErrors
}

func (g *Gateway) recordError(name string, err error) {
	g.mu.Lock()
	g.errors[name]++
	count := g.errors[name]
	g.lastError[name] = err.Error()
	g.mu.Unlock()

	g.status.Delete(name)
	g.log.Warn("AI provider call failed", "provider", name, "errors", count, "error", err)
}

func (g *Gateway) recordSuccess(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.errors, name)
	delete(g.lastError, name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
