package recovery

import (
	"context"
	"fmt"

	"github.com/ppiankov/qualigate/internal/model"
)

// recoverAIManager resets the gateway and checks that one provider answers
func (s *System) recoverAIManager(ctx context.Context, _ error, data map[string]any, _ string) (*model.RecoveryOutcome, error) {
	segment := s.segment(data)

	if s.gateway != nil {
		s.gateway.ResetErrorState()

		var available string
		for _, st := range s.gateway.ProviderStatus(ctx) {
			if st.Available {
				available = st.Name
				break
			}
		}

		if available != "" {
			text, err := s.gateway.Generate(ctx, "Gere análise básica para "+segment, s.cfg.ProbeMaxTokens)
			if err != nil {
				s.log.Warn("AI provider trial generation failed", "provider", available, "error", err)
			} else if text != "" {
				out := s.outcome(model.StrategyAIManager, "ai_manager_reset", true)
				out.AvailableProvider = available
				out.TestResponse = preview(text, s.cfg.PreviewChars)
				out.Recommendation = "AI provider recovered; continue the analysis"
				return out, nil
			}
		}
	}

	out := s.outcome(model.StrategyAIManager, "ai_manager_fallback", false)
	out.FallbackContent = aiFallbackContent(segment)
	out.Recommendation = "Configure AI provider APIs for full functionality"
	return out, nil
}

// recoverMissingMethod reports the capabilities that have a known substitute
func (s *System) recoverMissingMethod(_ context.Context, err error, _ map[string]any, _ string) (*model.RecoveryOutcome, error) {
	object, capability, ok := missingCapability(err)
	if ok {
		s.log.Info("recovering missing capability", "object", object, "capability", capability)

		var out *model.RecoveryOutcome
		switch capability {
		case "_try_fallback":
			out = s.outcome(model.StrategyMissingMethod, "add_missing_method", true)
			out.Recommendation = "Provider fallback routine is now available on the AI gateway"
		case "chat":
			out = s.outcome(model.StrategyMissingMethod, "add_chat_interface", true)
			out.Recommendation = "Chat interface is now available on the client"
		}
		if out != nil {
			out.MissingMethod = capability
			out.Object = object
			return out, nil
		}
	}

	out := s.outcome(model.StrategyMissingMethod, "missing_method_fallback", false)
	out.ErrorDetails = message(err)
	out.Recommendation = "Check the implementation of the missing method"
	return out, nil
}

// recoverDataStructure normalizes the offending payload, or the context when there is none
func (s *System) recoverDataStructure(_ context.Context, err error, data map[string]any, _ string) (*model.RecoveryOutcome, error) {
	var original any = data
	if re := asError(err); re != nil && re.Payload != nil {
		original = re.Payload
	}

	out := s.outcome(model.StrategyDataStructure, "data_structure_normalization", true)
	out.OriginalContext = original
	out.NormalizedContext = normalize(original)
	out.Recommendation = "Continue the analysis with the normalized context"
	return out, nil
}

// recoverComponent substitutes templated data for a failed component
func (s *System) recoverComponent(_ context.Context, _ error, data map[string]any, component string) (*model.RecoveryOutcome, error) {
	segment := s.segment(data)

	var fallback map[string]any
	switch {
	case containsAny(component, []string{"driver"}):
		fallback = basicDrivers(segment)
	case containsAny(component, []string{"visual"}):
		fallback = basicVisualProofs(segment)
	case containsAny(component, []string{"anti_objection"}):
		fallback = basicAntiObjection(segment)
	default:
		fallback = genericComponentData(component, segment, s.now())
	}

	out := s.outcome(model.StrategyComponent, "component_fallback", true)
	out.Component = component
	out.FallbackData = fallback
	out.Recommendation = fmt.Sprintf("Component %s recovered with basic data", component)
	return out, nil
}

// recoverValidation relaxes validation for the failing step
func (s *System) recoverValidation(_ context.Context, err error, _ map[string]any, _ string) (*model.RecoveryOutcome, error) {
	out := s.outcome(model.StrategyValidation, "validation_bypass", true)
	out.ValidationRelaxed = true
	out.OriginalError = message(err)
	out.Recommendation = "Relaxed validation applied; proceed with caution"
	return out, nil
}

// preview returns the first n characters of s
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
