package planner

import (
	"fmt"
	"sort"

	"github.com/hrstack/queryintent/internal/domain"
)

// maxJoinDepth caps how many hops a planned join path may take.
const maxJoinDepth = 2

type pathEdge struct {
	from  string
	field string
	to    string
}

// findJoinPath searches the graph breadth-first for the shortest link path
// from base to target, bounded by maxJoinDepth. Edges from each node are
// visited in field order so results are deterministic. Returns nil when no
// path exists within the bound.
func findJoinPath(base, target string, graph JoinGraph) []pathEdge {
	if base == target {
		return []pathEdge{}
	}

	type state struct {
		doctype string
		path    []pathEdge
	}
	queue := []state{{doctype: base}}
	visited := map[string]bool{base: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if len(cur.path) >= maxJoinDepth {
			continue
		}

		edges := graph[cur.doctype]
		fields := make([]string, 0, len(edges))
		for f := range edges {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		for _, field := range fields {
			next := edges[field]
			if visited[next] {
				continue
			}
			path := append(append([]pathEdge(nil), cur.path...), pathEdge{cur.doctype, field, next})
			if next == target {
				return path
			}
			visited[next] = true
			queue = append(queue, state{doctype: next, path: path})
		}
	}
	return nil
}

// BuildJoins plans joins from the base doctype to every required doctype.
// Paths are deduplicated edge-wise so shared hops appear once. When any
// target is unreachable the planner fails closed with a clarification
// instead of guessing a relationship.
func BuildJoins(base string, targets []string, graph JoinGraph) ([]domain.Join, *domain.Clarification) {
	sorted := append([]string(nil), targets...)
	sort.Strings(sorted)

	var joins []domain.Join
	seen := map[pathEdge]bool{}

	for _, target := range sorted {
		if target == base {
			continue
		}
		path := findJoinPath(base, target, graph)
		if path == nil {
			return nil, domain.NewClarification(
				fmt.Sprintf("Cannot determine join path from %s to %s", base, target))
		}
		for _, e := range path {
			if seen[e] {
				continue
			}
			seen[e] = true
			joins = append(joins, domain.Join{
				Doctype:   e.to,
				Field:     e.field,
				Condition: fmt.Sprintf("%s.%s = %s.name", e.from, e.field, e.to),
			})
		}
	}
	return joins, nil
}
