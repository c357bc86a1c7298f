package metadata

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hrstack/queryintent/internal/domain"
)

// StaticProvider serves schemas from an in-memory set of raw doctype records.
// Used by tests and by the YAML fixture backend in dev mode.
type StaticProvider struct {
	extractor *Extractor
	raws      map[string]*domain.RawDoctype
}

// NewStaticProvider builds a provider over the given raw records.
func NewStaticProvider(extractor *Extractor, raws []domain.RawDoctype) *StaticProvider {
	m := make(map[string]*domain.RawDoctype, len(raws))
	for i := range raws {
		raw := raws[i]
		m[raw.Name] = &raw
	}
	return &StaticProvider{extractor: extractor, raws: m}
}

// GetSchema extracts the schema for a known doctype, or returns (nil, nil).
func (p *StaticProvider) GetSchema(_ context.Context, doctype string) (*domain.Schema, error) {
	raw, ok := p.raws[doctype]
	if !ok {
		return nil, nil
	}
	return p.extractor.Extract(raw), nil
}

// Doctypes lists the known entity names in stable order.
func (p *StaticProvider) Doctypes(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(p.raws))
	for name := range p.raws {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type fixtureFile struct {
	Doctypes []domain.RawDoctype `yaml:"doctypes"`
}

// LoadFixture reads a YAML doctype catalog and returns a static provider
// over it.
func LoadFixture(path string, extractor *Extractor) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata fixture: %w", err)
	}

	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse metadata fixture: %w", err)
	}
	if len(file.Doctypes) == 0 {
		return nil, fmt.Errorf("metadata fixture %s contains no doctypes", path)
	}

	return NewStaticProvider(extractor, file.Doctypes), nil
}

// StaticLookup is an in-memory EntityLookup over display names, used by
// tests and the fixture backend.
type StaticLookup struct {
	records map[string][]domain.EntityMatch
}

// NewStaticLookup builds a lookup over records grouped by kind.
func NewStaticLookup(records map[string][]domain.EntityMatch) *StaticLookup {
	return &StaticLookup{records: records}
}

// Find returns all records of kind whose display name contains fuzzyName.
func (l *StaticLookup) Find(_ context.Context, kind, fuzzyName string) ([]domain.EntityMatch, error) {
	if strings.TrimSpace(fuzzyName) == "" {
		return nil, nil
	}
	needle := strings.ToLower(fuzzyName)
	var matches []domain.EntityMatch
	for _, rec := range l.records[kind] {
		if strings.Contains(strings.ToLower(rec.DisplayName), needle) {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}
