package planner

import (
	"context"
	"fmt"

	"github.com/hrstack/queryintent/internal/metadata"
)

// ResolveChildTable reports which child table of the parent doctype owns the
// given fieldname, or "" when none does. Child rows live in their own table,
// so a field that resolves here must be reached through the child doctype
// rather than through a link join.
func ResolveChildTable(ctx context.Context, provider metadata.Provider, parentDoctype, fieldname string) (string, error) {
	parent, err := provider.GetSchema(ctx, parentDoctype)
	if err != nil {
		return "", fmt.Errorf("load schema for %q: %w", parentDoctype, err)
	}
	if parent == nil {
		return "", nil
	}

	for _, ct := range parent.ChildTables {
		if ct.ChildDoctype == "" {
			continue
		}
		child, err := provider.GetSchema(ctx, ct.ChildDoctype)
		if err != nil {
			return "", fmt.Errorf("load schema for %q: %w", ct.ChildDoctype, err)
		}
		if child == nil {
			continue
		}
		if _, ok := child.FieldByName(fieldname); ok {
			return ct.ChildDoctype, nil
		}
	}
	return "", nil
}
