package planner

import (
	"testing"

	"github.com/hrstack/queryintent/internal/domain"
	"github.com/hrstack/queryintent/internal/logger"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(DefaultNormalizerConfig(), logger.NewNop())
}

func TestNormalizeActionSynonyms(t *testing.T) {
	n := testNormalizer()

	cases := []struct {
		in   domain.Action
		want domain.Action
	}{
		{"read", domain.ActionList},
		{"select", domain.ActionSingle},
		{"count", domain.ActionAggregate},
		{"sum", domain.ActionAggregate},
		{domain.ActionList, domain.ActionList},
	}
	for _, tc := range cases {
		out := n.Normalize(domain.Intent{Action: tc.in, Doctype: "Department", Confidence: 0.9}, "list departments")
		if out.Action != tc.want {
			t.Errorf("action %q normalized to %q, want %q", tc.in, out.Action, tc.want)
		}
	}
}

func TestDisambiguateCheckinOverridesAttendance(t *testing.T) {
	n := testNormalizer()

	intent := domain.Intent{
		Action:     domain.ActionList,
		Doctype:    "Attendance",
		Fields:     []string{"employee", "time"},
		Joins:      []domain.Join{{Doctype: "Employee", Field: "employee"}},
		Confidence: 0.9,
	}
	out := n.Normalize(intent, "when did HR-EMP-00003 check in today")

	if out.Doctype != "Employee Checkin" {
		t.Fatalf("doctype = %q, want Employee Checkin", out.Doctype)
	}
	if len(out.Joins) != 0 {
		t.Errorf("joins should be cleared on doctype switch, got %+v", out.Joins)
	}
}

func TestDisambiguateAttendanceKeywordForcesAttendance(t *testing.T) {
	n := testNormalizer()

	intent := domain.Intent{
		Action:     domain.ActionList,
		Doctype:    "Employee Checkin",
		Fields:     []string{"employee", "status"},
		Confidence: 0.9,
	}
	out := n.Normalize(intent, "was HR-EMP-00003 absent yesterday")

	if out.Doctype != "Attendance" {
		t.Fatalf("doctype = %q, want Attendance", out.Doctype)
	}
}

func TestDisambiguateLeavesOtherDoctypesAlone(t *testing.T) {
	n := testNormalizer()

	out := n.Normalize(domain.Intent{
		Action:     domain.ActionList,
		Doctype:    "Leave Application",
		Fields:     []string{"employee"},
		Confidence: 0.9,
	}, "leave applications with attendance issues")

	if out.Doctype != "Leave Application" {
		t.Errorf("doctype = %q, want Leave Application", out.Doctype)
	}
}

func TestPreferEmployeeMasterForProfileQuestions(t *testing.T) {
	n := testNormalizer()

	intent := domain.Intent{
		Action:     domain.ActionSingle,
		Doctype:    "Salary Slip",
		Fields:     []string{"employee.department", "employee.designation"},
		Joins:      []domain.Join{{Doctype: "Employee", Field: "employee"}},
		Confidence: 0.9,
	}
	out := n.Normalize(intent, "which department does HR-EMP-00003 work in")

	if out.Doctype != "Employee" {
		t.Fatalf("doctype = %q, want Employee", out.Doctype)
	}
	if out.Fields[0] != "department" || out.Fields[1] != "designation" {
		t.Errorf("fields should lose qualification, got %v", out.Fields)
	}
	if len(out.Joins) != 0 {
		t.Errorf("joins should be cleared, got %+v", out.Joins)
	}
}

func TestPreferEmployeeMasterSkipsTemporalQueries(t *testing.T) {
	n := testNormalizer()

	intent := domain.Intent{
		Action:     domain.ActionList,
		Doctype:    "Attendance",
		Fields:     []string{"employee_name"},
		Confidence: 0.9,
	}
	out := n.Normalize(intent, "employee names present today")

	if out.Doctype != "Attendance" {
		t.Errorf("temporal query should keep transactional doctype, got %q", out.Doctype)
	}
}

func TestPreferEmployeeMasterSkipsMixedFields(t *testing.T) {
	n := testNormalizer()

	intent := domain.Intent{
		Action:     domain.ActionList,
		Doctype:    "Salary Slip",
		Fields:     []string{"employee.department", "gross_pay"},
		Confidence: 0.9,
	}
	out := n.Normalize(intent, "gross pay by department")

	if out.Doctype != "Salary Slip" {
		t.Errorf("mixed field list should keep original doctype, got %q", out.Doctype)
	}
}

func TestNormalizeFilterShape(t *testing.T) {
	n := testNormalizer()

	intent := domain.Intent{
		Action:  domain.ActionList,
		Doctype: "Department",
		Fields:  []string{"name"},
		Filters: []domain.Filter{
			{Field: "company", Value: "Acme"},
			{Field: "name", Value: []any{"HR", "Finance"}},
			{Field: "", Value: "orphan"},
		},
		Confidence: 0.9,
	}
	out := n.Normalize(intent, "list departments")

	if len(out.Filters) != 2 {
		t.Fatalf("expected 2 filters, got %+v", out.Filters)
	}
	if out.Filters[0].Op != domain.OpEquals {
		t.Errorf("scalar value op = %q, want =", out.Filters[0].Op)
	}
	if out.Filters[1].Op != domain.OpIn {
		t.Errorf("list value op = %q, want in", out.Filters[1].Op)
	}
}

func TestAddMandatoryFilters(t *testing.T) {
	n := testNormalizer()

	out := n.Normalize(domain.Intent{
		Action:     domain.ActionList,
		Doctype:    "Employee",
		Fields:     []string{"name", "employee_name"},
		Confidence: 0.9,
	}, "list employees")

	if !out.HasFilterOn("status") {
		t.Fatalf("expected injected status filter, got %+v", out.Filters)
	}

	// An existing filter on the field is never overridden.
	out = n.Normalize(domain.Intent{
		Action:     domain.ActionList,
		Doctype:    "Employee",
		Fields:     []string{"name"},
		Filters:    []domain.Filter{{Field: "status", Op: domain.OpEquals, Value: "Left"}},
		Confidence: 0.9,
	}, "list former employees")

	count := 0
	for _, f := range out.Filters {
		if f.Field == "status" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one status filter, got %+v", out.Filters)
	}
	if out.Filters[0].Value != "Left" {
		t.Errorf("user filter overridden: %+v", out.Filters[0])
	}
}

func TestCleanJoinsDropsUnreferencedJoins(t *testing.T) {
	n := testNormalizer()

	intent := domain.Intent{
		Action:  domain.ActionList,
		Doctype: "Attendance",
		Fields:  []string{"employee.employee_name", "attendance_date"},
		Joins: []domain.Join{
			{Doctype: "Employee", Field: "employee"},
			{Doctype: "Shift Type", Field: "shift"},
		},
		Confidence: 0.9,
	}
	out := n.Normalize(intent, "employee names and dates")

	if len(out.Joins) != 1 || out.Joins[0].Field != "employee" {
		t.Fatalf("expected only the referenced join, got %+v", out.Joins)
	}
}

func TestNormalizeSkipsPanickingRule(t *testing.T) {
	n := testNormalizer()
	n.rules = append([]rule{{
		name: "explode",
		transform: func(domain.Intent) (domain.Intent, error) {
			panic("boom")
		},
	}}, n.rules...)

	out := n.Normalize(domain.Intent{
		Action:     "read",
		Doctype:    "Employee",
		Fields:     []string{"name"},
		Confidence: 0.9,
	}, "list employees")

	if out.Action != domain.ActionList {
		t.Errorf("later rules should still run after a panic, action = %q", out.Action)
	}
	if !out.HasFilterOn("status") {
		t.Errorf("mandatory filters should still be injected after a panic")
	}
}

func TestRequireClarificationGatesLowConfidence(t *testing.T) {
	n := testNormalizer()

	if clar := n.RequireClarification(domain.Intent{Confidence: 0.5}); clar == nil {
		t.Fatalf("expected clarification below the threshold")
	} else if clar.Message != "I need more details to answer this accurately." {
		t.Errorf("unexpected message: %q", clar.Message)
	}

	if clar := n.RequireClarification(domain.Intent{Confidence: 0.6}); clar != nil {
		t.Errorf("threshold value should pass, got %+v", clar)
	}
}
