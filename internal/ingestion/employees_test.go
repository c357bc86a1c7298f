package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeEmployees records directory upserts.
type fakeEmployees struct {
	upserts map[string]string
	err     error
}

func (f *fakeEmployees) Upsert(_ context.Context, id, displayName string) error {
	if f.err != nil {
		return f.err
	}
	if f.upserts == nil {
		f.upserts = map[string]string{}
	}
	f.upserts[id] = displayName
	return nil
}

func TestIngestEmployees(t *testing.T) {
	repo := &fakeEmployees{}
	svc := NewEmployeeService(repo)

	csv := "name,employee_name\nHR-EMP-00001,Aisha Khan\nHR-EMP-00002,Rahul Khanna\nHR-EMP-00003,\n"
	summary, err := svc.IngestEmployees(context.Background(), Request{
		FileName: "employees.csv",
		Data:     strings.NewReader(csv),
	})
	if err != nil {
		t.Fatalf("IngestEmployees: %v", err)
	}

	if summary.Employees != 2 || summary.SkippedRows != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if repo.upserts["HR-EMP-00001"] != "Aisha Khan" {
		t.Errorf("upserts = %v", repo.upserts)
	}
}

func TestIngestEmployeesRejectsMissingColumns(t *testing.T) {
	svc := NewEmployeeService(&fakeEmployees{})

	_, err := svc.IngestEmployees(context.Background(), Request{
		FileName: "employees.csv",
		Data:     strings.NewReader("name,department\nHR-EMP-00001,Sales\n"),
	})
	if err == nil || !strings.Contains(err.Error(), "employee_name") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestIngestEmployeesPropagatesRepositoryErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := NewEmployeeService(&fakeEmployees{err: boom})

	_, err := svc.IngestEmployees(context.Background(), Request{
		FileName: "employees.csv",
		Data:     strings.NewReader("name,employee_name\nHR-EMP-00001,Aisha Khan\n"),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected repository error, got %v", err)
	}
}
