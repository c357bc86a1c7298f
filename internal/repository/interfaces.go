package repository

import (
	"context"

	"github.com/hrstack/queryintent/internal/domain"
)

// CatalogRepository persists raw doctype metadata into the mirror tables the
// planner reads from.
type CatalogRepository interface {
	// ReplaceDoctype upserts the doctype row and replaces its field rows
	// atomically.
	ReplaceDoctype(ctx context.Context, raw domain.RawDoctype) error
	ListDoctypes(ctx context.Context) ([]string, error)
	DeleteDoctype(ctx context.Context, name string) error
}

// EmployeeRepository maintains the employee directory used for entity
// resolution.
type EmployeeRepository interface {
	Upsert(ctx context.Context, id, displayName string) error
}
