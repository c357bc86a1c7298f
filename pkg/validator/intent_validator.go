package validator

import (
	"fmt"
	"strings"

	"github.com/hrstack/queryintent/internal/domain"
)

// IntentValidator performs the terminal structural check on a canonicalized
// intent. It runs after every normalization and canonicalization stage, so a
// failure here means the pipeline produced something the downstream query
// builder cannot execute.
type IntentValidator struct{}

// NewIntentValidator creates a new intent validator
func NewIntentValidator() *IntentValidator {
	return &IntentValidator{}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}

// Err collapses the result into a single error, nil when valid.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("invalid intent structure: %s", strings.Join(msgs, "; "))
}

// Validate checks the final shape of an intent. The _meta diagnostics block
// is ignored entirely.
func (iv *IntentValidator) Validate(intent domain.Intent) ValidationResult {
	result := ValidationResult{IsValid: true, Errors: []ValidationError{}}
	fail := func(field, msg string, value any) {
		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{Field: field, Message: msg, Value: value})
	}

	switch intent.Action {
	case domain.ActionSingle, domain.ActionList, domain.ActionAggregate:
	default:
		fail("action", fmt.Sprintf("action must be one of single, list, aggregate; got %q", intent.Action), intent.Action)
	}

	if strings.TrimSpace(intent.Doctype) == "" {
		fail("doctype", "doctype is required", nil)
	}

	if intent.Action != domain.ActionAggregate && len(intent.Fields) == 0 {
		fail("fields", "fields must be non-empty for single and list intents", nil)
	}
	for i, f := range intent.Fields {
		if strings.TrimSpace(f) == "" {
			fail(fmt.Sprintf("fields[%d]", i), "field name must be non-empty", f)
			continue
		}
		if err := ValidateFieldPath(f); err != nil {
			fail(fmt.Sprintf("fields[%d]", i), err.Error(), f)
		}
	}

	for i, f := range intent.Filters {
		label := fmt.Sprintf("filters[%d]", i)
		if strings.TrimSpace(f.Field) == "" {
			fail(label, "filter field must be non-empty", nil)
		}
		if !domain.CanonicalOps[f.Op] {
			fail(label, fmt.Sprintf("operator %q is not canonical", f.Op), f.Op)
		}
		if f.Op == domain.OpBetween {
			if vals, ok := f.Value.([]any); !ok || len(vals) != 2 {
				fail(label, "between filter value must be a two-element list", f.Value)
			}
		}
		if f.Op == domain.OpIn {
			if _, ok := f.Value.([]any); !ok {
				fail(label, "in filter value must be a list", f.Value)
			}
		}
	}

	for i, j := range intent.Joins {
		label := fmt.Sprintf("joins[%d]", i)
		if strings.TrimSpace(j.Doctype) == "" {
			fail(label, "join doctype must be non-empty", nil)
		}
		if strings.TrimSpace(j.Field) == "" {
			fail(label, "join field must be non-empty", nil)
		}
		if strings.TrimSpace(j.Condition) == "" {
			fail(label, "join condition must be non-empty", nil)
		}
	}

	if intent.Action == domain.ActionAggregate {
		if intent.Aggregate == nil {
			fail("aggregate", "aggregate intents must carry an aggregate", nil)
		} else {
			if !domain.AggregateFuncs[intent.Aggregate.Function] {
				fail("aggregate.function", fmt.Sprintf("function %q is not supported", intent.Aggregate.Function), intent.Aggregate.Function)
			}
			if strings.TrimSpace(intent.Aggregate.Field) == "" {
				fail("aggregate.field", "aggregate field must be non-empty", nil)
			}
		}
	} else {
		if intent.Aggregate != nil {
			fail("aggregate", "only aggregate intents may carry an aggregate", nil)
		}
		if len(intent.GroupBy) > 0 {
			fail("group_by", "group_by is only valid on aggregate intents", intent.GroupBy)
		}
	}

	if intent.Confidence < 0 || intent.Confidence > 1 {
		fail("confidence", fmt.Sprintf("confidence %v is outside [0, 1]", intent.Confidence), intent.Confidence)
	}

	return result
}
