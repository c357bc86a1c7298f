package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hrstack/queryintent/internal/metadata"
)

const (
	doctypeSheet = "Doctypes"
	fieldSheet   = "Fields"
)

// Service renders the derived schema catalog as an xlsx workbook, one sheet
// for entity types and one for their query-relevant fields.
type Service struct {
	provider metadata.Provider
	now      func() time.Time
}

type Option func(*Service)

// WithNow overrides the timestamp written into the workbook properties.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(provider metadata.Provider, opts ...Option) *Service {
	service := &Service{
		provider: provider,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// BuildWorkbook loads every known schema and writes the catalog workbook.
// The caller owns the returned file and must Close it.
func (s *Service) BuildWorkbook(ctx context.Context) (*excelize.File, error) {
	doctypes, err := s.provider.Doctypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctypes: %w", err)
	}

	f := excelize.NewFile()
	cleanup := true
	defer func() {
		if cleanup {
			_ = f.Close()
		}
	}()

	if err := f.SetSheetName("Sheet1", doctypeSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(fieldSheet); err != nil {
		return nil, fmt.Errorf("create field sheet: %w", err)
	}

	doctypeHeaders := []any{"Doctype", "Module", "Description", "Submittable", "Fields", "Links", "Child Tables"}
	if err := f.SetSheetRow(doctypeSheet, "A1", &doctypeHeaders); err != nil {
		return nil, fmt.Errorf("write doctype header: %w", err)
	}
	fieldHeaders := []any{"Doctype", "Fieldname", "Label", "Type", "Class", "Description", "Commonly Filtered", "Options"}
	if err := f.SetSheetRow(fieldSheet, "A1", &fieldHeaders); err != nil {
		return nil, fmt.Errorf("write field header: %w", err)
	}

	doctypeRow := 2
	fieldRow := 2
	for _, dt := range doctypes {
		schema, err := s.provider.GetSchema(ctx, dt)
		if err != nil {
			return nil, fmt.Errorf("load schema for %q: %w", dt, err)
		}
		if schema == nil {
			continue
		}

		row := []any{
			schema.Doctype,
			schema.Module,
			schema.Description,
			schema.IsSubmittable,
			len(schema.Fields),
			len(schema.Links),
			len(schema.ChildTables),
		}
		cell, err := excelize.CoordinatesToCellName(1, doctypeRow)
		if err != nil {
			return nil, fmt.Errorf("doctype cell: %w", err)
		}
		if err := f.SetSheetRow(doctypeSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write doctype row: %w", err)
		}
		doctypeRow++

		for _, field := range schema.Fields {
			options := strings.ReplaceAll(field.Options, "\n", ", ")
			fr := []any{
				schema.Doctype,
				field.Fieldname,
				field.Label,
				string(field.Type),
				string(field.Class),
				field.Description,
				field.CommonlyFiltered,
				options,
			}
			cell, err := excelize.CoordinatesToCellName(1, fieldRow)
			if err != nil {
				return nil, fmt.Errorf("field cell: %w", err)
			}
			if err := f.SetSheetRow(fieldSheet, cell, &fr); err != nil {
				return nil, fmt.Errorf("write field row: %w", err)
			}
			fieldRow++
		}
	}

	created := s.now().UTC()
	_ = f.SetDocProps(&excelize.DocProperties{
		Title:   "Schema Catalog",
		Created: created.Format(time.RFC3339),
	})

	cleanup = false
	return f, nil
}

// FileName builds the attachment name for a catalog export.
func (s *Service) FileName() string {
	return fmt.Sprintf("schema-catalog-%s.xlsx", s.now().UTC().Format("20060102-150405"))
}
