package llm

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/hrstack/queryintent/internal/domain"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"action": "list"}`, `{"action": "list"}`},
		{"markdown fence", "```json\n{\"action\": \"list\"}\n```", `{"action": "list"}`},
		{"surrounding prose", `Sure! Here is the intent: {"action": "list"} Hope this helps.`, `{"action": "list"}`},
		{"nested objects", `{"a": {"b": {"c": 1}}}`, `{"a": {"b": {"c": 1}}}`},
		{"braces inside strings", `{"msg": "use {curly} braces \" fine"}`, `{"msg": "use {curly} braces \" fine"}`},
		{"no object", "no json here", ""},
		{"unbalanced", `{"action": "list"`, ""},
	}
	for _, tc := range cases {
		if got := ExtractJSON(tc.in); got != tc.want {
			t.Errorf("%s: ExtractJSON = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDecodeIntentObjectFilters(t *testing.T) {
	intent, err := DecodeIntent([]byte(`{
		"action": "list",
		"doctype": "Employee",
		"fields": ["name", "employee_name", ""],
		"filters": [
			{"field": "status", "op": "=", "value": "Active"},
			{"field": "", "op": "=", "value": "dropped"}
		],
		"confidence": 0.82
	}`))
	if err != nil {
		t.Fatalf("DecodeIntent: %v", err)
	}

	if intent.Action != domain.ActionList || intent.Doctype != "Employee" {
		t.Errorf("header decoded wrong: %+v", intent)
	}
	if !reflect.DeepEqual(intent.Fields, []string{"name", "employee_name"}) {
		t.Errorf("empty field strings should be dropped, got %v", intent.Fields)
	}
	if len(intent.Filters) != 1 || intent.Filters[0].Field != "status" {
		t.Errorf("filters = %+v", intent.Filters)
	}
	if intent.Confidence != 0.82 {
		t.Errorf("confidence = %v", intent.Confidence)
	}
}

func TestDecodeIntentMapFilters(t *testing.T) {
	intent, err := DecodeIntent([]byte(`{
		"action": "list",
		"doctype": "Attendance",
		"fields": ["name"],
		"filters": {"status": ["Present", "Half Day"], "employee": "HR-EMP-00001"},
		"confidence": 0.9
	}`))
	if err != nil {
		t.Fatalf("DecodeIntent: %v", err)
	}

	want := []domain.Filter{
		{Field: "employee", Op: domain.OpEquals, Value: "HR-EMP-00001"},
		{Field: "status", Op: domain.OpIn, Value: []any{"Present", "Half Day"}},
	}
	if !reflect.DeepEqual(intent.Filters, want) {
		t.Errorf("filters = %+v, want %+v", intent.Filters, want)
	}
}

func TestDecodeIntentTupleFilters(t *testing.T) {
	intent, err := DecodeIntent([]byte(`{
		"action": "list",
		"doctype": "Salary Slip",
		"fields": ["name"],
		"filters": [["gross_pay", ">", 50000], ["bad", "tuple"]],
		"confidence": 0.7
	}`))
	if err != nil {
		t.Fatalf("DecodeIntent: %v", err)
	}

	if len(intent.Filters) != 1 {
		t.Fatalf("filters = %+v", intent.Filters)
	}
	f := intent.Filters[0]
	if f.Field != "gross_pay" || f.Op != domain.OpGreater || f.Value != float64(50000) {
		t.Errorf("tuple filter decoded wrong: %+v", f)
	}
}

func TestDecodeIntentDropsMalformedJoins(t *testing.T) {
	intent, err := DecodeIntent([]byte(`{
		"action": "list",
		"doctype": "Attendance",
		"fields": ["name"],
		"joins": "Employee",
		"confidence": 0.8
	}`))
	if err != nil {
		t.Fatalf("DecodeIntent: %v", err)
	}
	if intent.Joins != nil {
		t.Errorf("malformed joins should decode to nil, got %+v", intent.Joins)
	}

	intent, err = DecodeIntent([]byte(`{
		"action": "list",
		"doctype": "Attendance",
		"fields": ["name"],
		"joins": [{"doctype": "Employee", "field": "employee"}, {"doctype": "", "field": "x"}],
		"confidence": 0.8
	}`))
	if err != nil {
		t.Fatalf("DecodeIntent: %v", err)
	}
	if len(intent.Joins) != 1 || intent.Joins[0].Doctype != "Employee" {
		t.Errorf("joins = %+v", intent.Joins)
	}
}

func TestDecodeIntentCoercesConfidence(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`0.75`, 0.75},
		{`"0.75"`, 0.75},
		{`"high"`, 0},
		{`null`, 0},
	}
	for _, tc := range cases {
		intent, err := DecodeIntent([]byte(`{"action":"list","doctype":"Employee","fields":["name"],"confidence":` + tc.raw + `}`))
		if err != nil {
			t.Fatalf("DecodeIntent(%s): %v", tc.raw, err)
		}
		if intent.Confidence != tc.want {
			t.Errorf("confidence %s = %v, want %v", tc.raw, intent.Confidence, tc.want)
		}
	}
}

func TestDecodeIntentAggregate(t *testing.T) {
	intent, err := DecodeIntent([]byte(`{
		"action": "aggregate",
		"doctype": "Employee",
		"aggregate": {"function": "count", "field": "name"},
		"group_by": ["department"],
		"confidence": 0.9
	}`))
	if err != nil {
		t.Fatalf("DecodeIntent: %v", err)
	}
	if intent.Aggregate == nil || intent.Aggregate.Function != domain.AggCount {
		t.Fatalf("aggregate = %+v", intent.Aggregate)
	}
	if !reflect.DeepEqual(intent.GroupBy, []string{"department"}) {
		t.Errorf("group_by = %v", intent.GroupBy)
	}
}

// fakeProvider returns a canned completion.
type fakeProvider struct {
	text string
	err  error
}

func (p *fakeProvider) Complete(context.Context, string, string) (*Completion, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &Completion{
		Text:      p.text,
		Usage:     Usage{PromptTokens: 120, CompletionTokens: 40, TotalTokens: 160},
		LatencyMs: 250,
	}, nil
}

func (p *fakeProvider) Model() string { return "test/model" }

func TestParseIntentAttachesMeta(t *testing.T) {
	provider := &fakeProvider{text: "```json\n" + `{"action":"list","doctype":"Employee","fields":["name"],"confidence":0.8}` + "\n```"}

	intent, err := ParseIntent(context.Background(), provider, "DocType: Employee", "list employees")
	if err != nil {
		t.Fatalf("ParseIntent: %v", err)
	}
	if intent.Meta == nil {
		t.Fatalf("expected call metadata")
	}
	if intent.Meta.Model != "test/model" || intent.Meta.TotalTokens != 160 {
		t.Errorf("meta = %+v", intent.Meta)
	}
}

func TestParseIntentErrors(t *testing.T) {
	if _, err := ParseIntent(context.Background(), &fakeProvider{text: "   "}, "s", "q"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("blank response: %v", err)
	}
	if _, err := ParseIntent(context.Background(), &fakeProvider{text: "I cannot answer that."}, "s", "q"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("prose response: %v", err)
	}
	boom := errors.New("transport down")
	if _, err := ParseIntent(context.Background(), &fakeProvider{err: boom}, "s", "q"); !errors.Is(err, boom) {
		t.Errorf("provider error: %v", err)
	}
}
