package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hrstack/queryintent/internal/db"
	"github.com/hrstack/queryintent/internal/domain"
)

// catalogRepository implements CatalogRepository over the metadata mirror
type catalogRepository struct {
	conn *db.Connection
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(conn *db.Connection) CatalogRepository {
	return &catalogRepository{conn: conn}
}

func (r *catalogRepository) ReplaceDoctype(ctx context.Context, raw domain.RawDoctype) error {
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO hr_doctypes (name, module, description, is_submittable)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO UPDATE SET
				module = EXCLUDED.module,
				description = EXCLUDED.description,
				is_submittable = EXCLUDED.is_submittable,
				updated_at = now()`,
			raw.Name, raw.Module, raw.Description, raw.IsSubmittable,
		)
		if err != nil {
			return fmt.Errorf("upsert doctype row: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM hr_docfields WHERE parent = $1`, raw.Name); err != nil {
			return fmt.Errorf("clear field rows: %w", err)
		}

		for idx, field := range raw.Fields {
			_, err := tx.Exec(ctx, `
				INSERT INTO hr_docfields (parent, fieldname, label, fieldtype, options, description, idx)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				raw.Name, field.Fieldname, field.Label, field.Fieldtype, field.Options, field.Description, idx,
			)
			if err != nil {
				return fmt.Errorf("insert field row %s.%s: %w", raw.Name, field.Fieldname, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace doctype %s: %w", raw.Name, err)
	}
	return nil
}

func (r *catalogRepository) ListDoctypes(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Pool.Query(ctx, `SELECT name FROM hr_doctypes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctypes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan doctype name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate doctype rows: %w", err)
	}
	return names, nil
}

func (r *catalogRepository) DeleteDoctype(ctx context.Context, name string) error {
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM hr_docfields WHERE parent = $1`, name); err != nil {
			return fmt.Errorf("delete field rows: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM hr_doctypes WHERE name = $1`, name); err != nil {
			return fmt.Errorf("delete doctype row: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete doctype %s: %w", name, err)
	}
	return nil
}

// employeeRepository implements EmployeeRepository
type employeeRepository struct {
	conn *db.Connection
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(conn *db.Connection) EmployeeRepository {
	return &employeeRepository{conn: conn}
}

func (r *employeeRepository) Upsert(ctx context.Context, id, displayName string) error {
	_, err := r.conn.Pool.Exec(ctx, `
		INSERT INTO hr_employees (name, employee_name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET employee_name = EXCLUDED.employee_name`,
		id, displayName,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert employee %s: %w", id, err)
	}
	return nil
}
