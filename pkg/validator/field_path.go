package validator

import (
	"fmt"
	"strings"
)

// Field paths are either bare fieldnames ("employee_name") or single-hop
// dot-qualified references ("department.department_name") where the prefix
// names a link field on the base entity.

// SplitFieldPath splits a path into its qualifier and fieldname. A bare
// fieldname returns an empty qualifier.
func SplitFieldPath(path string) (qualifier, fieldname string) {
	if i := strings.Index(path, "."); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

// IsQualified reports whether the path references a field through a link.
func IsQualified(path string) bool {
	return strings.Contains(path, ".")
}

// ValidateFieldPath checks that a path is a well-formed field reference:
// snake_case components, at most one qualification hop.
func ValidateFieldPath(path string) error {
	if path == "" {
		return fmt.Errorf("field path cannot be empty")
	}

	components := strings.Split(path, ".")
	if len(components) > 2 {
		return fmt.Errorf("field path %q has more than one qualification hop", path)
	}
	for i, component := range components {
		if component == "" {
			return fmt.Errorf("field path component %d is empty", i)
		}
		for _, char := range component {
			valid := char == '_' ||
				(char >= 'a' && char <= 'z') ||
				(char >= '0' && char <= '9')
			if !valid {
				return fmt.Errorf("field path component %d contains invalid character: %c", i, char)
			}
		}
	}
	return nil
}

// QualifiedFields returns the qualifiers referenced by the given paths,
// deduplicated in first-seen order.
func QualifiedFields(paths []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range paths {
		q, _ := SplitFieldPath(p)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}
