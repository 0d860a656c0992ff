package model

import "time"

// Recovery strategy names
const (
	StrategyAIManager     = "ai_manager_fallback"
	StrategyMissingMethod = "missing_method"
	StrategyDataStructure = "invalid_data_structure"
	StrategyComponent     = "component_failure"
	StrategyValidation    = "validation_failure"
	StrategyGeneric       = "generic_recovery"
	StrategyEmergency     = "emergency_recovery"
)

// RecoveryOutcome is produced once per recovery attempt.
// Strategy names the handler that ran; Method names what it actually did.
type RecoveryOutcome struct {
	ID                 string    `json:"id"`
	RecoverySuccessful bool      `json:"recovery_successful"`
	Method             string    `json:"method"`
	Strategy           string    `json:"strategy"`
	Component          string    `json:"component_name,omitempty"`
	ErrorType          string    `json:"error_type,omitempty"`
	ErrorMessage       string    `json:"error_message,omitempty"`
	MatchedPatterns    []string  `json:"matched_patterns,omitempty"` // Diagnostic error-pattern hits
	Recommendation     string    `json:"recommendation"`
	Timestamp          time.Time `json:"timestamp"`

	// ai_manager_fallback
	AvailableProvider string `json:"available_provider,omitempty"`
	TestResponse      string `json:"test_response,omitempty"`
	FallbackContent   string `json:"fallback_content,omitempty"`

	// missing_method
	MissingMethod string `json:"missing_method,omitempty"`
	Object        string `json:"object,omitempty"`
	ErrorDetails  string `json:"error_details,omitempty"`

	// invalid_data_structure
	OriginalContext   any            `json:"original_context,omitempty"`
	NormalizedContext map[string]any `json:"normalized_context,omitempty"`

	// validation_failure
	ValidationRelaxed bool   `json:"validation_relaxed,omitempty"`
	OriginalError     string `json:"original_error,omitempty"`

	// component_failure and generic_recovery
	FallbackData map[string]any `json:"fallback_data,omitempty"`

	// generic_recovery echoes the context; emergency_recovery only flags it
	ContextPreserved any `json:"context_preserved,omitempty"`

	// emergency_recovery
	EmergencyData map[string]any `json:"emergency_data,omitempty"`
}

// AutoFixResult reports which structural repairs were applied
type AutoFixResult struct {
	AutoFixSuccessful bool     `json:"auto_fix_successful"`
	FixesApplied      []string `json:"fixes_applied"`
	FixedData         Record   `json:"fixed_data,omitempty"`
	OriginalData      Record   `json:"original_data,omitempty"` // Set only when the fix failed
	OriginalIssues    int      `json:"original_issues"`
	Error             string   `json:"error,omitempty"`
	Recommendation    string   `json:"recommendation"`
}

// Data returns the record a caller should continue with
func (r *AutoFixResult) Data() Record {
	if r.AutoFixSuccessful {
		return r.FixedData
	}
	return r.OriginalData
}
