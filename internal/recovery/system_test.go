package recovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/qualigate/internal/audit"
	"github.com/ppiankov/qualigate/internal/llm"
	"github.com/ppiankov/qualigate/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeGateway struct {
	states    []llm.ProviderState
	text      string
	genErr    error
	panicking bool

	resets    int
	prompt    string
	maxTokens int
}

func (g *fakeGateway) ResetErrorState() { g.resets++ }

func (g *fakeGateway) ProviderStatus(context.Context) []llm.ProviderState {
	if g.panicking {
		panic("status unavailable")
	}
	return g.states
}

func (g *fakeGateway) Generate(_ context.Context, prompt string, maxTokens int) (string, error) {
	g.prompt = prompt
	g.maxTokens = maxTokens
	return g.text, g.genErr
}

type failingSink struct{}

func (failingSink) RecordStep(string, any, string) error { return errors.New("disk full") }
func (failingSink) RecordError(string, error, any) error { return errors.New("disk full") }

func newTestSystem(opts ...Option) *System {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewSystem(model.DefaultConfig().Recovery, opts...)
}

func TestRecover_AIManagerReset(t *testing.T) {
	gw := &fakeGateway{
		states: []llm.ProviderState{
			{Name: "openai", Available: false},
			{Name: "anthropic", Available: true},
		},
		text: strings.Repeat("é", 300),
	}
	s := newTestSystem(WithGateway(gw))

	out := s.Recover(context.Background(),
		errors.New("'AIManager' object has no attribute '_try_fallback'"),
		map[string]any{"segmento": "saúde"}, "")

	assert.True(t, out.RecoverySuccessful)
	assert.Equal(t, model.StrategyAIManager, out.Strategy)
	assert.Equal(t, "ai_manager_reset", out.Method)
	assert.Equal(t, "anthropic", out.AvailableProvider)
	assert.Equal(t, strings.Repeat("é", 200), out.TestResponse)
	assert.Equal(t, []string{"no_attribute"}, out.MatchedPatterns)
	assert.Equal(t, 1, gw.resets)
	assert.Equal(t, "Gere análise básica para saúde", gw.prompt)
	assert.Equal(t, 500, gw.maxTokens)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, fixedNow, out.Timestamp)
}

func TestRecover_AIManagerFallback(t *testing.T) {
	tests := []struct {
		name string
		gw   *fakeGateway
	}{
		{"no gateway", nil},
		{"no available provider", &fakeGateway{states: []llm.ProviderState{{Name: "openai"}}}},
		{"generation error", &fakeGateway{
			states: []llm.ProviderState{{Name: "openai", Available: true}},
			genErr: errors.New("quota exceeded"),
		}},
		{"empty response", &fakeGateway{states: []llm.ProviderState{{Name: "openai", Available: true}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.gw != nil {
				opts = append(opts, WithGateway(tt.gw))
			}
			s := newTestSystem(opts...)

			out := s.Recover(context.Background(), NewError(KindAIProvider, "", errors.New("no providers")), nil, "")

			assert.False(t, out.RecoverySuccessful)
			assert.Equal(t, "ai_manager_fallback", out.Method)
			assert.Contains(t, out.FallbackContent, "ANÁLISE BÁSICA DE RECUPERAÇÃO - NEGÓCIOS")
			assert.Contains(t, out.FallbackContent, "Profissional de negócios")
			assert.Empty(t, out.AvailableProvider)
		})
	}
}

func TestRecover_MissingMethod(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantMethod string
		wantOK     bool
		wantObject string
		wantCap    string
	}{
		{"fallback routine", errors.New("'Gateway' object has no attribute '_try_fallback'"), "add_missing_method", true, "Gateway", "_try_fallback"},
		{"chat interface", errors.New("'Client' object has no attribute 'chat'"), "add_chat_interface", true, "Client", "chat"},
		{"typed chat", MissingCapability("Client", "chat"), "add_chat_interface", true, "Client", "chat"},
		{"unknown capability", errors.New("'Client' object has no attribute 'stream'"), "missing_method_fallback", false, "", ""},
	}

	s := newTestSystem()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.Recover(context.Background(), tt.err, nil, "")

			assert.Equal(t, model.StrategyMissingMethod, out.Strategy)
			assert.Equal(t, tt.wantMethod, out.Method)
			assert.Equal(t, tt.wantOK, out.RecoverySuccessful)
			assert.Equal(t, tt.wantObject, out.Object)
			assert.Equal(t, tt.wantCap, out.MissingMethod)
			if !tt.wantOK {
				assert.Equal(t, tt.err.Error(), out.ErrorDetails)
			}
		})
	}
}

func TestRecover_DataStructure(t *testing.T) {
	s := newTestSystem()

	data := map[string]any{"segmento": "saúde"}
	out := s.Recover(context.Background(), errors.New("list indices must be integers or slices, not str"), data, "")
	assert.True(t, out.RecoverySuccessful)
	assert.Equal(t, "data_structure_normalization", out.Method)
	assert.Equal(t, data, out.OriginalContext)
	assert.Equal(t, data, out.NormalizedContext)

	out = s.Recover(context.Background(), MalformedStructure("proofs", "texto solto", errors.New("not a list")), data, "")
	assert.Equal(t, "texto solto", out.OriginalContext)
	assert.Equal(t, map[string]any{"content": "texto solto", "type": "string"}, out.NormalizedContext)
	assert.Equal(t, "proofs", out.Component)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1}, normalize(map[string]any{"a": 1}))
	assert.Equal(t, map[string]any{"items": []any{"a", "b"}, "count": 2}, normalize([]any{"a", "b"}))
	assert.Equal(t, map[string]any{"value": "42", "type": "int"}, normalize(42))
}

func TestRecover_ComponentFallback(t *testing.T) {
	tests := []struct {
		component string
		key       string
	}{
		{"drivers_mentais", "drivers_customizados"},
		{"visual_proofs", "arsenal_provis_completo"},
		{"anti_objection_system", "objecoes_universais"},
	}

	s := newTestSystem()
	for _, tt := range tests {
		t.Run(tt.component, func(t *testing.T) {
			out := s.Recover(context.Background(), errors.New("boom"), map[string]any{"segmento": "saúde"}, tt.component)

			assert.True(t, out.RecoverySuccessful)
			assert.Equal(t, "component_fallback", out.Method)
			assert.Equal(t, tt.component, out.Component)
			require.Contains(t, out.FallbackData, tt.key)
			assert.Equal(t, true, out.FallbackData["recovery_applied"])
			assert.Contains(t, model.Text(out.FallbackData), "saúde")
		})
	}

	drivers := s.Recover(context.Background(), errors.New("boom"), nil, "drivers_mentais")
	items, ok := model.AsList(drivers.FallbackData["drivers_customizados"])
	require.True(t, ok)
	assert.Len(t, items, 3)
	assert.Contains(t, model.Text(items[0]), "Urgência negócios")
}

func TestRecover_ComponentGenericPlaceholder(t *testing.T) {
	s := newTestSystem()

	out := s.Recover(context.Background(), NewError(KindComponentFailure, "avatar", errors.New("timeout")), nil, "")

	assert.Equal(t, "component_fallback", out.Method)
	assert.Equal(t, "avatar", out.Component)
	assert.Equal(t, map[string]any{
		"component_name":   "avatar",
		"status":           "recovered",
		"data":             "Dados básicos para avatar",
		"context":          "negócios",
		"recovery_applied": true,
		"timestamp":        "2026-03-01T12:00:00Z",
	}, out.FallbackData)
}

func TestRecover_ValidationBypass(t *testing.T) {
	s := newTestSystem()

	out := s.Recover(context.Background(), errors.New("invalid driver score"), nil, "avatar")

	assert.True(t, out.RecoverySuccessful)
	assert.Equal(t, "validation_bypass", out.Method)
	assert.True(t, out.ValidationRelaxed)
	assert.Equal(t, "invalid driver score", out.OriginalError)
}

func TestRecover_Generic(t *testing.T) {
	s := newTestSystem()

	data := map[string]any{"segmento": "saúde", "step": 3}
	out := s.Recover(context.Background(), errors.New("boom"), data, "")

	assert.True(t, out.RecoverySuccessful)
	assert.Equal(t, model.StrategyGeneric, out.Strategy)
	assert.Equal(t, "generic_recovery", out.Method)
	assert.Equal(t, "*errors.errorString", out.ErrorType)
	assert.Equal(t, "boom", out.ErrorMessage)
	assert.Equal(t, data, out.ContextPreserved)
	assert.Equal(t, "Dados básicos para componente", out.FallbackData["content"])
	assert.Equal(t, "recovered_with_basic_data", out.FallbackData["status"])

	out = s.Recover(context.Background(), errors.New("boom"), nil, "avatar")
	assert.Equal(t, "Dados básicos para avatar", out.FallbackData["content"])
	assert.Equal(t, map[string]any{}, out.ContextPreserved)
}

func TestRecover_EmergencyOnPanic(t *testing.T) {
	gw := &fakeGateway{panicking: true}
	s := newTestSystem(WithGateway(gw))

	data := map[string]any{"segmento": "saúde"}
	var out *model.RecoveryOutcome
	assert.NotPanics(t, func() {
		out = s.Recover(context.Background(), NewError(KindAIProvider, "drivers_mentais", errors.New("down")), data, "")
	})

	assert.False(t, out.RecoverySuccessful)
	assert.Equal(t, model.StrategyEmergency, out.Strategy)
	assert.Equal(t, "emergency_recovery", out.Method)
	assert.Equal(t, "ai_provider", out.ErrorType)
	assert.Equal(t, true, out.ContextPreserved)
	assert.Equal(t, "emergency_mode", out.EmergencyData["status"])
	assert.Equal(t, "drivers_mentais", out.EmergencyData["component"])
	assert.Equal(t, data, out.EmergencyData["context"])
	assert.Len(t, out.EmergencyData["next_steps"], 4)
}

// panickingError fails while rendering its own message
type panickingError struct {
	detail *string
}

func (e panickingError) Error() string { return *e.detail }

func TestRecover_NeverPanics(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		component    string
		wantStrategy string
		wantType     string
	}{
		{
			name:         "nil error",
			err:          nil,
			wantStrategy: model.StrategyGeneric,
			wantType:     "<nil>",
		},
		{
			name:         "typed nil recovery error",
			err:          error((*Error)(nil)),
			wantStrategy: model.StrategyGeneric,
			wantType:     "*recovery.Error",
		},
		{
			name:         "wrapped typed nil recovery error",
			err:          fmt.Errorf("step failed: %w", (*Error)(nil)),
			component:    "avatar",
			wantStrategy: model.StrategyGeneric,
			wantType:     "*fmt.wrapError",
		},
		{
			name:         "error message panics",
			err:          panickingError{},
			component:    "drivers_mentais",
			wantStrategy: model.StrategyEmergency,
			wantType:     "recovery.panickingError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSystem(WithSink(audit.NewMemorySink()))

			var out *model.RecoveryOutcome
			require.NotPanics(t, func() {
				out = s.Recover(context.Background(), tt.err, nil, tt.component)
			})

			require.NotNil(t, out)
			assert.Equal(t, tt.wantStrategy, out.Strategy)
			assert.Equal(t, tt.wantType, out.ErrorType)
		})
	}
}

func TestRecover_PanickingErrorMessage(t *testing.T) {
	s := newTestSystem()

	out := s.Recover(context.Background(), panickingError{}, map[string]any{"segmento": "saúde"}, "drivers_mentais")

	assert.False(t, out.RecoverySuccessful)
	assert.Contains(t, out.ErrorMessage, "Error() panicked")
	assert.Equal(t, "drivers_mentais", out.EmergencyData["component"])
	assert.Equal(t, map[string]any{"segmento": "saúde"}, out.EmergencyData["context"])
}

func TestClassify_TypedNil(t *testing.T) {
	assert.Empty(t, Classify((*Error)(nil), ""))
	assert.Equal(t, model.StrategyComponent, Classify((*Error)(nil), "visual_proofs"))

	_, _, ok := missingCapability((*Error)(nil))
	assert.False(t, ok)
}

func TestRecover_AuditTrail(t *testing.T) {
	sink := audit.NewMemorySink()
	s := newTestSystem(WithSink(sink))

	s.Recover(context.Background(), errors.New("invalid score"), map[string]any{"segmento": "saúde"}, "avatar")
	s.Recover(context.Background(), errors.New("boom"), nil, "")

	entries, err := sink.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, audit.KindError, entries[0].Kind)
	assert.Equal(t, "recovery_avatar", entries[0].Label)
	assert.Equal(t, "invalid score", entries[0].Error)

	assert.Equal(t, audit.KindStep, entries[1].Kind)
	assert.Equal(t, "recovery_result_avatar", entries[1].Label)
	assert.Equal(t, AuditCategory, entries[1].Category)
	assert.Contains(t, string(entries[1].Payload), "validation_bypass")

	// generic recovery records only the error
	assert.Equal(t, audit.KindError, entries[2].Kind)
	assert.Equal(t, "recovery_unknown", entries[2].Label)
}

func TestRecover_SinkFailureDoesNotPropagate(t *testing.T) {
	s := newTestSystem(WithSink(failingSink{}))

	out := s.Recover(context.Background(), errors.New("invalid score"), nil, "avatar")

	assert.True(t, out.RecoverySuccessful)
	assert.Equal(t, "validation_bypass", out.Method)
}

func TestNewSystem_Defaults(t *testing.T) {
	s := NewSystem(model.RecoveryConfig{})

	assert.Equal(t, "negócios", s.cfg.DefaultSegment)
	assert.Equal(t, 500, s.cfg.ProbeMaxTokens)
	assert.Equal(t, 200, s.cfg.PreviewChars)
	assert.Len(t, s.strategies, 5)
}
