package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hrstack/queryintent/internal/domain"
)

// PostgresProvider reads the HR metadata mirror tables (doctypes, docfields,
// employees) maintained by the host system. All access is read-only.
type PostgresProvider struct {
	pool      *pgxpool.Pool
	extractor *Extractor
}

// NewPostgresProvider builds a provider over the given connection pool.
func NewPostgresProvider(pool *pgxpool.Pool, extractor *Extractor) *PostgresProvider {
	return &PostgresProvider{pool: pool, extractor: extractor}
}

// GetSchema loads and extracts one doctype, or returns (nil, nil) when the
// doctype is not mirrored.
func (p *PostgresProvider) GetSchema(ctx context.Context, doctype string) (*domain.Schema, error) {
	raw := domain.RawDoctype{Name: doctype}

	err := p.pool.QueryRow(ctx,
		`SELECT COALESCE(module, ''), COALESCE(description, ''), is_submittable
		 FROM hr_doctypes WHERE name = $1`,
		doctype,
	).Scan(&raw.Module, &raw.Description, &raw.IsSubmittable)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load doctype %s: %w", doctype, err)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT fieldname, COALESCE(label, ''), fieldtype, COALESCE(options, ''), COALESCE(description, '')
		 FROM hr_docfields WHERE parent = $1 ORDER BY idx`,
		doctype,
	)
	if err != nil {
		return nil, fmt.Errorf("load docfields for %s: %w", doctype, err)
	}
	defer rows.Close()

	for rows.Next() {
		var f domain.RawField
		if err := rows.Scan(&f.Fieldname, &f.Label, &f.Fieldtype, &f.Options, &f.Description); err != nil {
			return nil, fmt.Errorf("scan docfield for %s: %w", doctype, err)
		}
		raw.Fields = append(raw.Fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate docfields for %s: %w", doctype, err)
	}

	return p.extractor.Extract(&raw), nil
}

// Doctypes lists all mirrored doctype names.
func (p *PostgresProvider) Doctypes(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT name FROM hr_doctypes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list doctypes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan doctype name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// PostgresLookup resolves entity display names against the mirrored record
// tables. Only the Employee kind is backed today.
type PostgresLookup struct {
	pool *pgxpool.Pool
}

// NewPostgresLookup builds an entity lookup over the given pool.
func NewPostgresLookup(pool *pgxpool.Pool) *PostgresLookup {
	return &PostgresLookup{pool: pool}
}

// Find returns records of kind whose display name partially matches name.
func (l *PostgresLookup) Find(ctx context.Context, kind, fuzzyName string) ([]domain.EntityMatch, error) {
	if kind != "Employee" {
		return nil, nil
	}

	rows, err := l.pool.Query(ctx,
		`SELECT name, employee_name FROM hr_employees
		 WHERE employee_name ILIKE '%' || $1 || '%' ORDER BY name`,
		fuzzyName,
	)
	if err != nil {
		return nil, fmt.Errorf("lookup employees: %w", err)
	}
	defer rows.Close()

	var matches []domain.EntityMatch
	for rows.Next() {
		var m domain.EntityMatch
		if err := rows.Scan(&m.ID, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("scan employee match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
