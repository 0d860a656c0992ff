package recovery

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/qualigate/internal/model"
)

// Diagnostic error patterns. They are reported on the outcome but do not
// drive classification.
var errorPatterns = map[string]*regexp.Regexp{
	"no_attribute":     regexp.MustCompile(`'(\w+)' object has no attribute '(\w+)'`),
	"list_indices":     regexp.MustCompile(`list indices must be integers or slices, not (\w+)`),
	"takes_positional": regexp.MustCompile(`(\w+)\(\) takes (\d+) positional arguments but (\d+) were given`),
	"json_decode":      regexp.MustCompile(`Expecting value: line (\d+) column (\d+)`),
	"key_error":        regexp.MustCompile(`KeyError: '(\w+)'`),
}

// MatchPatterns returns the names of the diagnostic patterns found in msg, sorted
func MatchPatterns(msg string) []string {
	var matched []string
	for name, re := range errorPatterns {
		if re.MatchString(msg) {
			matched = append(matched, name)
		}
	}
	sort.Strings(matched)
	return matched
}

// Components whose failures get templated replacement data
var templatedComponents = []string{"driver", "visual", "anti_objection"}

// Classify picks the recovery strategy for err. It returns "" when only
// generic recovery applies.
func Classify(err error, component string) string {
	if re := asError(err); re != nil {
		if s := re.Kind.strategy(); s != "" {
			return s
		}
	}

	msg := ""
	if err != nil {
		msg = err.Error()
	}

	switch {
	case strings.Contains(msg, "'AIManager' object has no attribute"):
		return model.StrategyAIManager
	case strings.Contains(msg, "object has no attribute"):
		return model.StrategyMissingMethod
	case strings.Contains(msg, "list indices must be integers"):
		return model.StrategyDataStructure
	case strings.Contains(msg, "takes") && strings.Contains(msg, "positional arguments"):
		return model.StrategyDataStructure
	case component != "" && containsAny(component, templatedComponents):
		return model.StrategyComponent
	}

	lower := strings.ToLower(msg)
	if strings.Contains(lower, "validation") || strings.Contains(lower, "invalid") {
		return model.StrategyValidation
	}
	return ""
}

// missingCapability extracts the object and capability names of a missing-method failure
func missingCapability(err error) (object, capability string, ok bool) {
	if re := asError(err); re != nil && re.Kind == KindMissingCapability && re.Capability != "" {
		return re.Object, re.Capability, true
	}
	if err == nil {
		return "", "", false
	}
	m := errorPatterns["no_attribute"].FindStringSubmatch(err.Error())
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
