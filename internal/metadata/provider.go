// Package metadata supplies entity schemas to the planner. The raw metadata
// source is read-only from this module's perspective; extraction and
// classification happen here, on top of whichever backend is configured.
package metadata

import (
	"context"
	"sync"

	"github.com/hrstack/queryintent/internal/domain"
)

// Provider resolves entity names to extracted schemas. GetSchema returns
// (nil, nil) for unknown or inaccessible entities and must be safe to call
// many times per request.
type Provider interface {
	GetSchema(ctx context.Context, doctype string) (*domain.Schema, error)
	Doctypes(ctx context.Context) ([]string, error)
}

// EntityLookup finds records of a given kind by fuzzy display-name match.
// The planner uses it only for the pre-model ambiguity check.
type EntityLookup interface {
	Find(ctx context.Context, kind, fuzzyName string) ([]domain.EntityMatch, error)
}

// cachedProvider memoizes GetSchema results. The planner builds one per
// request; schema extraction is idempotent, so a cold cache is always safe.
type cachedProvider struct {
	inner Provider

	mu      sync.Mutex
	schemas map[string]*domain.Schema
}

// WithCache wraps a provider with request-scoped memoization.
func WithCache(inner Provider) Provider {
	return &cachedProvider{
		inner:   inner,
		schemas: make(map[string]*domain.Schema),
	}
}

func (c *cachedProvider) GetSchema(ctx context.Context, doctype string) (*domain.Schema, error) {
	c.mu.Lock()
	if s, ok := c.schemas[doctype]; ok {
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	s, err := c.inner.GetSchema(ctx, doctype)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.schemas[doctype] = s
	c.mu.Unlock()
	return s, nil
}

func (c *cachedProvider) Doctypes(ctx context.Context) ([]string, error) {
	return c.inner.Doctypes(ctx)
}
