package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hrstack/queryintent/internal/repository"
)

// EmployeeService loads the employee directory used for entity resolution.
// The upload is tabular like the catalog import: one row per employee with
// an id column and a display-name column.
type EmployeeService struct {
	employees repository.EmployeeRepository
}

// NewEmployeeService creates a new employee directory loader.
func NewEmployeeService(employees repository.EmployeeRepository) *EmployeeService {
	return &EmployeeService{employees: employees}
}

// EmployeeSummary reports what a directory upload changed.
type EmployeeSummary struct {
	Employees   int `json:"employees"`
	SkippedRows int `json:"skipped_rows"`
}

// IngestEmployees parses the upload and upserts every employee row.
func (s *EmployeeService) IngestEmployees(ctx context.Context, req Request) (EmployeeSummary, error) {
	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return EmployeeSummary{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return EmployeeSummary{}, errors.New("uploaded file is empty")
	}

	records, err := parseTable(req.FileName, payload)
	if err != nil {
		return EmployeeSummary{}, err
	}
	if len(records) == 0 {
		return EmployeeSummary{}, errors.New("no rows found in file")
	}

	idCol, nameCol := -1, -1
	for i, cell := range records[0] {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "name", "id", "employee":
			idCol = i
		case "employee_name", "display_name", "full_name":
			nameCol = i
		}
	}
	if idCol < 0 || nameCol < 0 {
		return EmployeeSummary{}, errors.New("missing required columns: name, employee_name")
	}

	summary := EmployeeSummary{}
	for _, row := range records[1:] {
		var id, displayName string
		if idCol < len(row) {
			id = strings.TrimSpace(row[idCol])
		}
		if nameCol < len(row) {
			displayName = strings.TrimSpace(row[nameCol])
		}
		if id == "" && displayName == "" {
			continue // blank row
		}
		if id == "" || displayName == "" {
			summary.SkippedRows++
			continue
		}
		if err := s.employees.Upsert(ctx, id, displayName); err != nil {
			return EmployeeSummary{}, err
		}
		summary.Employees++
	}
	if summary.Employees == 0 {
		return EmployeeSummary{}, errors.New("no employee rows found in file")
	}
	return summary, nil
}

// EmployeeHandler exposes directory ingestion as an HTTP endpoint.
type EmployeeHandler struct {
	service *EmployeeService
}

// NewEmployeeHTTPHandler wraps the service with a POST endpoint.
func NewEmployeeHTTPHandler(service *EmployeeService) http.Handler {
	return &EmployeeHandler{service: service}
}

func (h *EmployeeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	summary, err := h.service.IngestEmployees(r.Context(), Request{
		FileName: header.Filename,
		Data:     file,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
