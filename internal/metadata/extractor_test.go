package metadata

import (
	"testing"

	"github.com/hrstack/queryintent/internal/domain"
)

func testExtractor() *Extractor {
	return NewExtractor(DefaultExtractorConfig())
}

func TestExtractFiltersSystemAndLayoutFields(t *testing.T) {
	raw := &domain.RawDoctype{
		Name: "Attendance",
		Fields: []domain.RawField{
			{Fieldname: "owner", Fieldtype: "Data"},
			{Fieldname: "section_main", Fieldtype: "Section Break"},
			{Fieldname: "photo", Fieldtype: "Attach Image"},
			{Fieldname: "attendance_date", Label: "Attendance Date", Fieldtype: "Date"},
		},
	}

	schema := testExtractor().Extract(raw)

	if _, ok := schema.FieldByName("owner"); ok {
		t.Errorf("system field owner should be dropped")
	}
	if _, ok := schema.FieldByName("section_main"); ok {
		t.Errorf("layout field should be dropped")
	}
	if _, ok := schema.FieldByName("photo"); ok {
		t.Errorf("attachment field should be dropped")
	}
	if _, ok := schema.FieldByName("attendance_date"); !ok {
		t.Fatalf("date field should survive extraction")
	}
}

func TestExtractSynthesizesNameField(t *testing.T) {
	raw := &domain.RawDoctype{
		Name:   "Department",
		Fields: []domain.RawField{{Fieldname: "department_name", Fieldtype: "Data"}},
	}

	schema := testExtractor().Extract(raw)

	if len(schema.Fields) == 0 || schema.Fields[0].Fieldname != "name" {
		t.Fatalf("expected synthesized name field first, got %+v", schema.Fields)
	}
	if !schema.Fields[0].CommonlyFiltered {
		t.Errorf("synthesized name field should be commonly filtered")
	}
}

func TestExtractSynthesizesDocstatusForSubmittable(t *testing.T) {
	raw := &domain.RawDoctype{
		Name:          "Leave Application",
		IsSubmittable: true,
		Fields:        []domain.RawField{{Fieldname: "employee", Fieldtype: "Link", Options: "Employee"}},
	}

	schema := testExtractor().Extract(raw)

	if len(schema.Fields) < 2 || schema.Fields[1].Fieldname != "docstatus" {
		t.Fatalf("expected docstatus at position 1, got %+v", schema.Fields)
	}
	if schema.Fields[1].Options != "0=Draft,1=Submitted,2=Cancelled" {
		t.Errorf("unexpected docstatus options: %q", schema.Fields[1].Options)
	}

	// Non-submittable doctypes get no docstatus.
	plain := testExtractor().Extract(&domain.RawDoctype{
		Name:   "Department",
		Fields: []domain.RawField{{Fieldname: "department_name", Fieldtype: "Data"}},
	})
	if _, ok := plain.FieldByName("docstatus"); ok {
		t.Errorf("non-submittable doctype should not get docstatus")
	}
}

func TestExtractCapturesLinksAndChildTables(t *testing.T) {
	raw := &domain.RawDoctype{
		Name: "Payroll Entry",
		Fields: []domain.RawField{
			{Fieldname: "department", Label: "Department", Fieldtype: "Link", Options: "Department"},
			{Fieldname: "employees", Label: "Employees", Fieldtype: "Table", Options: "Payroll Employee Detail"},
		},
	}

	schema := testExtractor().Extract(raw)

	target, ok := schema.LinkTarget("department")
	if !ok || target != "Department" {
		t.Fatalf("expected link department -> Department, got %q (%v)", target, ok)
	}
	if _, ok := schema.FieldByName("employees"); ok {
		t.Errorf("child table field should not appear as a queryable field")
	}
	if len(schema.ChildTables) != 1 || schema.ChildTables[0].ChildDoctype != "Payroll Employee Detail" {
		t.Fatalf("expected one child table, got %+v", schema.ChildTables)
	}
}

func TestClassifyFieldtype(t *testing.T) {
	cases := []struct {
		ft   domain.FieldType
		want domain.FieldClass
	}{
		{domain.FieldTypeCurrency, domain.ClassNumeric},
		{domain.FieldTypeDatetime, domain.ClassTemporal},
		{domain.FieldTypeLongText, domain.ClassText},
		{domain.FieldTypeLink, domain.ClassReference},
		{domain.FieldTypeSelect, domain.ClassCategorical},
		{domain.FieldType("Geolocation"), domain.ClassOther},
	}
	for _, tc := range cases {
		if got := ClassifyFieldtype(tc.ft); got != tc.want {
			t.Errorf("ClassifyFieldtype(%s) = %s, want %s", tc.ft, got, tc.want)
		}
	}
}

func TestDescribeFieldPriority(t *testing.T) {
	cases := []struct {
		name        string
		fieldname   string
		label       string
		description string
		want        string
	}{
		{"explicit description wins", "from_date", "From Date", "Leave start", "Leave start"},
		{"date pattern", "posting_date", "Posting Date", "", "Date-related field"},
		{"amount pattern", "total_deduction", "Total Deduction", "", "Monetary amount field"},
		{"status pattern", "status", "Status", "", "Status indicator field"},
		{"label fallback", "shift", "Shift", "", "Shift field"},
		{"fieldname fallback", "device_id", "", "", "device id field"},
	}
	for _, tc := range cases {
		if got := describeField(tc.fieldname, tc.label, tc.description); got != tc.want {
			t.Errorf("%s: describeField = %q, want %q", tc.name, got, tc.want)
		}
	}
}
