package planner

import (
	"context"
	"fmt"

	"github.com/hrstack/queryintent/internal/metadata"
)

// JoinGraph is the adjacency list of link-field edges between entity types:
// doctype -> link fieldname -> target doctype. It is built per request from
// the doctypes in play, never cached across requests.
type JoinGraph map[string]map[string]string

// BuildJoinGraph loads the schema of every listed doctype and records its
// outbound link edges. Unknown doctypes contribute no edges.
func BuildJoinGraph(ctx context.Context, provider metadata.Provider, doctypes []string) (JoinGraph, error) {
	graph := make(JoinGraph, len(doctypes))
	for _, dt := range doctypes {
		schema, err := provider.GetSchema(ctx, dt)
		if err != nil {
			return nil, fmt.Errorf("load schema for %q: %w", dt, err)
		}
		if schema == nil {
			continue
		}
		edges := make(map[string]string, len(schema.Links))
		for _, l := range schema.Links {
			if l.Fieldname != "" && l.LinkedDoctype != "" {
				edges[l.Fieldname] = l.LinkedDoctype
			}
		}
		graph[dt] = edges
	}
	return graph, nil
}
