package recovery

import (
	"errors"
	"fmt"

	"github.com/ppiankov/qualigate/internal/model"
)

// Kind tags an Error with the recovery it needs
type Kind int

const (
	KindUnknown Kind = iota
	KindAIProvider
	KindMissingCapability
	KindMalformedStructure
	KindComponentFailure
	KindValidationFailure
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindAIProvider:         "ai_provider",
	KindMissingCapability:  "missing_capability",
	KindMalformedStructure: "malformed_structure",
	KindComponentFailure:   "component_failure",
	KindValidationFailure:  "validation_failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// strategy maps a kind to its recovery strategy, "" when none applies
func (k Kind) strategy() string {
	switch k {
	case KindAIProvider:
		return model.StrategyAIManager
	case KindMissingCapability:
		return model.StrategyMissingMethod
	case KindMalformedStructure:
		return model.StrategyDataStructure
	case KindComponentFailure:
		return model.StrategyComponent
	case KindValidationFailure:
		return model.StrategyValidation
	default:
		return ""
	}
}

// Error is a failure raised by an analysis component that knows how it
// should be recovered. Callers that can classify their own failures should
// return one instead of relying on message matching.
type Error struct {
	Kind       Kind
	Component  string // component that failed, used when Recover gets none
	Object     string // owner of a missing capability
	Capability string // name of a missing capability
	Payload    any    // offending data for KindMalformedStructure
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var msg string
	switch {
	case e.Kind == KindMissingCapability && e.Capability != "":
		msg = fmt.Sprintf("%s: missing capability %s", e.Kind, e.Capability)
		if e.Object != "" {
			msg = fmt.Sprintf("%s: %s has no capability %s", e.Kind, e.Object, e.Capability)
		}
	case e.Component != "":
		msg = fmt.Sprintf("%s in %s", e.Kind, e.Component)
	default:
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// asError returns the first non-nil *Error in err's chain
func asError(err error) *Error {
	var re *Error
	if errors.As(err, &re) && re != nil {
		return re
	}
	return nil
}

// NewError wraps err with a recovery kind
func NewError(kind Kind, component string, err error) *Error {
	return &Error{Kind: kind, Component: component, Err: err}
}

// MissingCapability reports that object lacks the named capability
func MissingCapability(object, capability string) *Error {
	return &Error{Kind: KindMissingCapability, Object: object, Capability: capability}
}

// MalformedStructure reports data that does not have the expected shape
func MalformedStructure(component string, payload any, err error) *Error {
	return &Error{Kind: KindMalformedStructure, Component: component, Payload: payload, Err: err}
}
