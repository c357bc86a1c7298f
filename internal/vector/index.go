// Package vector owns the schema similarity index. The planner only consumes
// Query; Rebuild is a maintenance operation triggered from the admin surface.
package vector

import (
	"context"
	"fmt"
	"math"
)

// Document is one indexable schema description.
type Document struct {
	ID       string
	Text     string
	Doctype  string
	Metadata map[string]any
}

// Candidate is one ranked result of a similarity query.
type Candidate struct {
	Doctype    string  `json:"doctype"`
	Similarity float64 `json:"similarity"`
}

// Index is the similarity store contract. Rebuild replaces the whole index;
// there is no incremental maintenance.
type Index interface {
	Query(ctx context.Context, text string, topK int) ([]Candidate, error)
	Rebuild(ctx context.Context, docs []Document) error
}

// Embedder turns text into a vector. The planner core never calls this; it
// exists only behind the index adapter.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CosineSimilarity computes the cosine similarity of two vectors.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
