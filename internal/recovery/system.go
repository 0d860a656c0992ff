// Package recovery turns failures of analysis components into structured,
// usually usable, recovery outcomes instead of aborting the analysis.
package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/qualigate/internal/audit"
	"github.com/ppiankov/qualigate/internal/llm"
	"github.com/ppiankov/qualigate/internal/logger"
	"github.com/ppiankov/qualigate/internal/model"
)

// Gateway is the slice of the AI provider gateway the recovery system needs
type Gateway interface {
	ResetErrorState()
	ProviderStatus(ctx context.Context) []llm.ProviderState
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// AuditCategory is the category recovery results are recorded under
const AuditCategory = "erros"

type strategyFunc func(ctx context.Context, err error, data map[string]any, component string) (*model.RecoveryOutcome, error)

// System recovers from component failures
type System struct {
	cfg        model.RecoveryConfig
	sink       audit.Sink
	gateway    Gateway
	log        *logger.Logger
	now        func() time.Time
	newID      func() string
	strategies map[string]strategyFunc
}

// Option configures a System
type Option func(*System)

// WithSink sets where raw errors and recovery results are recorded
func WithSink(sink audit.Sink) Option {
	return func(s *System) { s.sink = sink }
}

// WithGateway sets the AI gateway used by AI provider recovery
func WithGateway(g Gateway) Option {
	return func(s *System) { s.gateway = g }
}

// WithLogger sets the logger
func WithLogger(log *logger.Logger) Option {
	return func(s *System) { s.log = log }
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *System) { s.now = now }
}

// NewSystem creates a recovery system. Without a sink nothing is recorded;
// without a gateway AI provider recovery always falls back to templated content.
func NewSystem(cfg model.RecoveryConfig, opts ...Option) *System {
	if cfg.DefaultSegment == "" {
		cfg.DefaultSegment = model.DefaultConfig().Recovery.DefaultSegment
	}
	if cfg.ProbeMaxTokens <= 0 {
		cfg.ProbeMaxTokens = 500
	}
	if cfg.PreviewChars <= 0 {
		cfg.PreviewChars = 200
	}

	s := &System{
		cfg:   cfg,
		sink:  audit.Nop{},
		log:   logger.Nop(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.strategies = map[string]strategyFunc{
		model.StrategyAIManager:     s.recoverAIManager,
		model.StrategyMissingMethod: s.recoverMissingMethod,
		model.StrategyDataStructure: s.recoverDataStructure,
		model.StrategyComponent:     s.recoverComponent,
		model.StrategyValidation:    s.recoverValidation,
	}

	s.log.Debug("error recovery system initialized", "strategies", len(s.strategies))
	return s
}

// Recover classifies err and applies the matching strategy. It never panics:
// any failure inside recovery yields an emergency outcome.
func (s *System) Recover(ctx context.Context, err error, data map[string]any, component string) (out *model.RecoveryOutcome) {
	if data == nil {
		data = map[string]any{}
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("error recovery failed", "component", component, "panic", r)
			out = s.emergency(err, data, component)
		}
	}()

	if re := asError(err); component == "" && re != nil {
		component = re.Component
	}

	label := component
	if label == "" {
		label = "unknown"
	}

	s.log.Info("starting error recovery", "error_type", errorType(err), "component", label)
	if rerr := s.sink.RecordError("recovery_"+label, err, data); rerr != nil {
		s.log.Warn("failed to record error", "component", label, "error", rerr)
	}

	strategy := Classify(err, component)
	if strategy == "" {
		s.log.Warn("no recovery strategy matched", "error_type", errorType(err), "component", label)
		return s.generic(err, data, component)
	}

	s.log.Info("applying recovery strategy", "strategy", strategy, "component", label)
	out, herr := s.strategies[strategy](ctx, err, data, component)
	if herr != nil {
		s.log.Error("recovery strategy failed", "strategy", strategy, "component", label, "error", herr)
		return s.emergency(err, data, component)
	}
	out.MatchedPatterns = MatchPatterns(message(err))
	if out.Component == "" {
		out.Component = component
	}

	if rerr := s.sink.RecordStep("recovery_result_"+label, out, AuditCategory); rerr != nil {
		s.log.Warn("failed to record recovery result", "component", label, "error", rerr)
	}
	return out
}

// outcome starts a new outcome with the common fields set
func (s *System) outcome(strategy, method string, successful bool) *model.RecoveryOutcome {
	return &model.RecoveryOutcome{
		ID:                 s.newID(),
		RecoverySuccessful: successful,
		Method:             method,
		Strategy:           strategy,
		Timestamp:          s.now().UTC(),
	}
}

// generic handles errors no strategy claims. The context is echoed back.
func (s *System) generic(err error, data map[string]any, component string) *model.RecoveryOutcome {
	name := component
	if name == "" {
		name = "componente"
	}

	out := s.outcome(model.StrategyGeneric, "generic_recovery", true)
	out.ErrorType = errorType(err)
	out.ErrorMessage = message(err)
	out.MatchedPatterns = MatchPatterns(out.ErrorMessage)
	out.ContextPreserved = data
	out.Component = component
	out.FallbackData = map[string]any{
		"status":         "recovered_with_basic_data",
		"content":        "Dados básicos para " + name,
		"recommendation": "Verifique configuração e execute novamente",
	}
	out.Recommendation = "Check the configuration and run the analysis again"
	return out
}

// emergency is the last resort when recovery itself fails
func (s *System) emergency(err error, data map[string]any, component string) *model.RecoveryOutcome {
	out := s.outcome(model.StrategyEmergency, "emergency_recovery", false)
	out.ErrorType = safeType(err)
	out.ErrorMessage = safeMessage(err)
	out.ContextPreserved = true
	out.EmergencyData = map[string]any{
		"status":     "emergency_mode",
		"message":    "Sistema em modo de emergência - dados preservados",
		"context":    data,
		"component":  component,
		"next_steps": append([]string(nil), emergencySteps...),
	}
	out.Recommendation = "Recovery failed; inspect the error log before running the analysis again"
	return out
}

func errorType(err error) string {
	if re := asError(err); re != nil {
		return re.Kind.String()
	}
	return fmt.Sprintf("%T", err)
}

func message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// safeType is errorType for the emergency path, where err itself may panic
func safeType(err error) (name string) {
	defer func() {
		if recover() != nil {
			name = fmt.Sprintf("%T", err)
		}
	}()
	return errorType(err)
}

// safeMessage is message for the emergency path
func safeMessage(err error) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("%T: Error() panicked: %v", err, r)
		}
	}()
	return message(err)
}
