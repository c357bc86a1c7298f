package validator

import (
	"strings"
	"testing"

	"github.com/hrstack/queryintent/internal/domain"
)

func validListIntent() domain.Intent {
	return domain.Intent{
		Action:  domain.ActionList,
		Doctype: "Employee",
		Fields:  []string{"name", "employee_name", "department.department_name"},
		Filters: []domain.Filter{
			{Field: "status", Op: domain.OpEquals, Value: "Active"},
		},
		Joins: []domain.Join{
			{Doctype: "Department", Field: "department", Condition: "Employee.department = Department.name"},
		},
		Confidence: 0.85,
	}
}

func failedField(result ValidationResult, field string) bool {
	for _, e := range result.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateAcceptsCompleteIntent(t *testing.T) {
	result := NewIntentValidator().Validate(validListIntent())
	if !result.IsValid {
		t.Fatalf("expected valid, got errors: %+v", result.Errors)
	}
	if err := result.Err(); err != nil {
		t.Errorf("Err should be nil when valid, got %v", err)
	}
}

func TestValidateRejectsUnknownAction(t *testing.T) {
	intent := validListIntent()
	intent.Action = "browse"

	result := NewIntentValidator().Validate(intent)
	if result.IsValid || !failedField(result, "action") {
		t.Fatalf("expected action error, got %+v", result.Errors)
	}
}

func TestValidateRequiresDoctype(t *testing.T) {
	intent := validListIntent()
	intent.Doctype = "  "

	result := NewIntentValidator().Validate(intent)
	if result.IsValid || !failedField(result, "doctype") {
		t.Fatalf("expected doctype error, got %+v", result.Errors)
	}
}

func TestValidateRequiresFieldsForListIntents(t *testing.T) {
	intent := validListIntent()
	intent.Fields = nil
	intent.Joins = nil

	result := NewIntentValidator().Validate(intent)
	if result.IsValid || !failedField(result, "fields") {
		t.Fatalf("expected fields error, got %+v", result.Errors)
	}

	// Aggregate intents may omit fields.
	agg := domain.Intent{
		Action:     domain.ActionAggregate,
		Doctype:    "Employee",
		Aggregate:  &domain.Aggregate{Function: domain.AggCount, Field: "name"},
		Confidence: 0.9,
	}
	if result := NewIntentValidator().Validate(agg); !result.IsValid {
		t.Errorf("aggregate without fields should be valid, got %+v", result.Errors)
	}
}

func TestValidateRejectsMalformedFieldPaths(t *testing.T) {
	intent := validListIntent()
	intent.Fields = append(intent.Fields, "a.b.c", "Employee Name")

	result := NewIntentValidator().Validate(intent)
	if result.IsValid {
		t.Fatalf("expected invalid result")
	}
	if !failedField(result, "fields[3]") || !failedField(result, "fields[4]") {
		t.Errorf("expected errors on both malformed paths, got %+v", result.Errors)
	}
}

func TestValidateFilterShapes(t *testing.T) {
	cases := []struct {
		name   string
		filter domain.Filter
		valid  bool
	}{
		{"canonical equality", domain.Filter{Field: "status", Op: domain.OpEquals, Value: "Active"}, true},
		{"synonym operator", domain.Filter{Field: "status", Op: "like", Value: "Act"}, false},
		{"empty field", domain.Filter{Field: "", Op: domain.OpEquals, Value: "x"}, false},
		{"between pair", domain.Filter{Field: "attendance_date", Op: domain.OpBetween, Value: []any{"2024-03-01", "2024-03-31"}}, true},
		{"between scalar", domain.Filter{Field: "attendance_date", Op: domain.OpBetween, Value: "2024-03-01"}, false},
		{"between triple", domain.Filter{Field: "attendance_date", Op: domain.OpBetween, Value: []any{"a", "b", "c"}}, false},
		{"in list", domain.Filter{Field: "status", Op: domain.OpIn, Value: []any{"Present", "Absent"}}, true},
		{"in scalar", domain.Filter{Field: "status", Op: domain.OpIn, Value: "Present"}, false},
	}
	for _, tc := range cases {
		intent := validListIntent()
		intent.Filters = []domain.Filter{tc.filter}
		result := NewIntentValidator().Validate(intent)
		if result.IsValid != tc.valid {
			t.Errorf("%s: IsValid = %v, want %v (%+v)", tc.name, result.IsValid, tc.valid, result.Errors)
		}
	}
}

func TestValidateJoinsNeedAllParts(t *testing.T) {
	intent := validListIntent()
	intent.Joins = []domain.Join{{Doctype: "Department", Field: "department"}}

	result := NewIntentValidator().Validate(intent)
	if result.IsValid || !failedField(result, "joins[0]") {
		t.Fatalf("expected join error, got %+v", result.Errors)
	}
}

func TestValidateAggregateGating(t *testing.T) {
	// Aggregate action without an aggregate block.
	intent := domain.Intent{Action: domain.ActionAggregate, Doctype: "Employee", Confidence: 0.9}
	result := NewIntentValidator().Validate(intent)
	if result.IsValid || !failedField(result, "aggregate") {
		t.Fatalf("expected aggregate error, got %+v", result.Errors)
	}

	// Unsupported function.
	intent.Aggregate = &domain.Aggregate{Function: "median", Field: "gross_pay"}
	result = NewIntentValidator().Validate(intent)
	if result.IsValid || !failedField(result, "aggregate.function") {
		t.Fatalf("expected function error, got %+v", result.Errors)
	}

	// List intent carrying aggregate leftovers.
	leftover := validListIntent()
	leftover.Aggregate = &domain.Aggregate{Function: domain.AggCount, Field: "name"}
	leftover.GroupBy = []string{"department"}
	result = NewIntentValidator().Validate(leftover)
	if result.IsValid || !failedField(result, "aggregate") || !failedField(result, "group_by") {
		t.Fatalf("expected aggregate and group_by errors, got %+v", result.Errors)
	}
}

func TestValidateConfidenceRange(t *testing.T) {
	for _, c := range []float64{-0.1, 1.1} {
		intent := validListIntent()
		intent.Confidence = c
		result := NewIntentValidator().Validate(intent)
		if result.IsValid || !failedField(result, "confidence") {
			t.Errorf("confidence %v should fail, got %+v", c, result.Errors)
		}
	}
}

func TestValidationResultErr(t *testing.T) {
	intent := validListIntent()
	intent.Doctype = ""

	err := NewIntentValidator().Validate(intent).Err()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.HasPrefix(err.Error(), "invalid intent structure: ") {
		t.Errorf("unexpected error text: %v", err)
	}
}
