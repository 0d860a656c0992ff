package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/qualigate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name    string
	text    string
	genErr  error
	pingErr error
	calls   atomic.Int32
	pings   atomic.Int32
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	f.calls.Add(1)
	if f.genErr != nil {
		return nil, f.genErr
	}
	return &GenerateResponse{Text: f.text, Model: f.name + "-model"}, nil
}

func (f *fakeProvider) Ping(context.Context) error {
	f.pings.Add(1)
	return f.pingErr
}

func TestGateway_GenerateFallsThrough(t *testing.T) {
	first := &fakeProvider{name: "openai", genErr: errors.New("quota exceeded")}
	second := &fakeProvider{name: "anthropic", text: "resposta"}
	g := NewGateway([]Provider{first, second})

	text, err := g.Generate(context.Background(), "prompt", 100)
	require.NoError(t, err)
	assert.Equal(t, "resposta", text)
	assert.EqualValues(t, 1, first.calls.Load())
	assert.EqualValues(t, 1, second.calls.Load())
}

func TestGateway_DisablesFailingProvider(t *testing.T) {
	failing := &fakeProvider{name: "openai", genErr: errors.New("boom")}
	g := NewGateway([]Provider{failing}, WithMaxErrors(2))

	for i := 0; i < 3; i++ {
		_, err := g.Generate(context.Background(), "p", 10)
		assert.ErrorIs(t, err, ErrNoProviders)
	}
	assert.EqualValues(t, 2, failing.calls.Load(), "provider should be skipped once disabled")

	states := g.ProviderStatus(context.Background())
	require.Len(t, states, 1)
	assert.False(t, states[0].Available)
	assert.Equal(t, 2, states[0].Errors)
	assert.Equal(t, "boom", states[0].LastError)
	assert.EqualValues(t, 0, failing.pings.Load(), "disabled provider is not probed")

	g.ResetErrorState()
	states = g.ProviderStatus(context.Background())
	assert.True(t, states[0].Available)
	assert.Equal(t, 0, states[0].Errors)
}

func TestGateway_NoProviders(t *testing.T) {
	g := NewGateway(nil)

	_, err := g.Generate(context.Background(), "p", 10)
	assert.ErrorIs(t, err, ErrNoProviders)
	assert.Empty(t, g.ProviderStatus(context.Background()))
	assert.Equal(t, "unavailable", g.Health(context.Background()).Status)
}

func TestGateway_ProviderStatusOrderAndCache(t *testing.T) {
	a := &fakeProvider{name: "ollama", pingErr: errors.New("connection refused")}
	b := &fakeProvider{name: "openai"}
	c := &fakeProvider{name: "anthropic"}
	g := NewGateway([]Provider{a, b, c}, WithStatusTTL(time.Minute))

	states := g.ProviderStatus(context.Background())
	require.Len(t, states, 3)
	assert.Equal(t, []string{"ollama", "openai", "anthropic"}, []string{states[0].Name, states[1].Name, states[2].Name})
	assert.False(t, states[0].Available)
	assert.Equal(t, "connection refused", states[0].LastError)
	assert.True(t, states[1].Available)
	assert.True(t, states[2].Available)

	g.ProviderStatus(context.Background())
	assert.EqualValues(t, 1, b.pings.Load(), "second probe should hit the status cache")

	g.ResetErrorState()
	g.ProviderStatus(context.Background())
	assert.EqualValues(t, 2, b.pings.Load(), "reset should drop cached probes")
}

func TestGateway_Health(t *testing.T) {
	tests := []struct {
		desc      string
		providers []Provider
		want      string
		available int
	}{
		{"all up", []Provider{&fakeProvider{name: "a"}, &fakeProvider{name: "b"}}, "healthy", 2},
		{"one down", []Provider{&fakeProvider{name: "a", pingErr: errors.New("x")}, &fakeProvider{name: "b"}}, "degraded", 1},
		{"all down", []Provider{&fakeProvider{name: "a", pingErr: errors.New("x")}}, "unavailable", 0},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			h := NewGateway(tt.providers).Health(context.Background())
			assert.Equal(t, tt.want, h.Status)
			assert.Equal(t, tt.available, h.Available)
			assert.Equal(t, len(tt.providers), h.Total)
		})
	}
}

func TestNewGatewayFromConfig(t *testing.T) {
	cfg := model.DefaultConfig().LLM
	cfg.Providers = []model.ProviderConfig{
		{Name: "openai"},
		{Name: "ollama", Model: "mistral"},
		{Name: "anthropic", APIKey: "k"},
	}

	g := NewGatewayFromConfig(cfg, nil)

	assert.Equal(t, []string{"ollama", "anthropic"}, g.Providers())
}

func TestGateway_PerProviderRateOverride(t *testing.T) {
	slow := &fakeProvider{name: "openai"}
	fast := &fakeProvider{name: "ollama"}
	g := NewGateway([]Provider{slow, fast}, WithProbeLimit(0.01, 1))
	g.SetProbeLimit("ollama", 100, 5)

	status := func() []ProviderState {
		g.status.Flush()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		return g.ProviderStatus(ctx)
	}

	states := status()
	assert.True(t, states[0].Available)
	assert.True(t, states[1].Available)

	// the shared budget is spent, the override is not
	states = status()
	assert.False(t, states[0].Available)
	assert.NotEmpty(t, states[0].LastError)
	assert.True(t, states[1].Available)
	assert.EqualValues(t, 1, slow.pings.Load())
	assert.EqualValues(t, 2, fast.pings.Load())
}

func TestProviderName(t *testing.T) {
	assert.Equal(t, "anthropic", ProviderName("Claude"))
	assert.Equal(t, "anthropic", ProviderName("anthropic"))
	assert.Equal(t, "ollama", ProviderName("OLLAMA"))
}
