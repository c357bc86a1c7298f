package planner

import (
	"context"
	"regexp"
	"strings"

	"github.com/hrstack/queryintent/internal/domain"
	"github.com/hrstack/queryintent/internal/metadata"
)

// properNamePattern matches runs of consecutive capitalized words, the shape
// of a person's name inside a query.
var properNamePattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s[A-Z][a-z]+)*\b`)

// EntityResolver rewrites proper-noun references to canonical record ids
// before any model call is made. Ambiguity aborts the pipeline: paying for a
// completion the system cannot safely use is never worth it.
type EntityResolver struct {
	lookup metadata.EntityLookup
	kind   string
}

// NewEntityResolver builds a resolver for the given record kind.
func NewEntityResolver(lookup metadata.EntityLookup, kind string) *EntityResolver {
	if kind == "" {
		kind = "Employee"
	}
	return &EntityResolver{lookup: lookup, kind: kind}
}

// Resolve scans the query for name-like tokens. A single match rewrites the
// occurrence with the canonical id; multiple matches return a clarification
// listing them; zero matches leave the token alone.
func (r *EntityResolver) Resolve(ctx context.Context, query string) (string, *domain.Clarification, error) {
	candidates := properNamePattern.FindAllString(query, -1)

	for _, name := range candidates {
		matches, err := r.lookup.Find(ctx, r.kind, name)
		if err != nil {
			return "", nil, err
		}

		if len(matches) > 1 {
			return "", &domain.Clarification{
				ClarificationRequired: true,
				Message:               "Multiple " + r.kind + " records match \"" + name + "\".",
				Entity:                r.kind,
				Matches:               matches,
			}, nil
		}

		if len(matches) == 1 {
			query = strings.ReplaceAll(query, name, matches[0].ID)
		}
	}

	return query, nil, nil
}
