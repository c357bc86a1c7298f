package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hrstack/queryintent/internal/domain"
	"github.com/hrstack/queryintent/internal/llm"
	"github.com/hrstack/queryintent/internal/logger"
	"github.com/hrstack/queryintent/internal/metadata"
	"github.com/hrstack/queryintent/internal/vector"
	"github.com/hrstack/queryintent/pkg/validator"
)

// ErrEmptyQuery is returned when the request carries no usable question.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Service runs the full question-to-intent pipeline. Every stage between the
// model call and the terminal validation transforms an intent copy; the only
// early exits are clarifications, which are responses, not errors.
type Service struct {
	provider   metadata.Provider
	index      vector.Index
	completer  llm.CompletionProvider
	resolver   *EntityResolver
	trimmer    *Trimmer
	normalizer *Normalizer
	enhancer   *Enhancer
	validator  *validator.IntentValidator
	log        *logger.Logger

	normalizerCfg NormalizerConfig
	topK          int
	now           func() time.Time
}

type Option func(*Service)

// WithTopK sets how many schema candidates retrieval returns.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithNow overrides the clock used for date literal resolution.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithNormalizerConfig overrides the normalization tables.
func WithNormalizerConfig(cfg NormalizerConfig) Option {
	return func(s *Service) {
		s.normalizerCfg = cfg
	}
}

// WithTrimmerConfig overrides the trimming limits.
func WithTrimmerConfig(cfg TrimmerConfig) Option {
	return func(s *Service) {
		s.trimmer = NewTrimmer(cfg)
	}
}

func NewService(
	provider metadata.Provider,
	index vector.Index,
	completer llm.CompletionProvider,
	lookup metadata.EntityLookup,
	opts ...Option,
) *Service {
	service := &Service{
		provider:      provider,
		index:         index,
		completer:     completer,
		resolver:      NewEntityResolver(lookup, "Employee"),
		trimmer:       NewTrimmer(DefaultTrimmerConfig()),
		validator:     validator.NewIntentValidator(),
		log:           logger.NewNop(),
		normalizerCfg: DefaultNormalizerConfig(),
		topK:          3,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	service.normalizer = NewNormalizer(service.normalizerCfg, service.log)
	service.enhancer = NewEnhancer(service.now)
	return service
}

// PlanQuery turns a natural-language question into a validated query intent.
// Exactly one of the intent and the clarification is non-nil on success.
func (s *Service) PlanQuery(ctx context.Context, query string) (*domain.Intent, *domain.Clarification, error) {
	if query == "" {
		return nil, nil, ErrEmptyQuery
	}

	// Schemas fetched during this request are memoized so retrieval, join
	// planning and enhancement see one consistent snapshot.
	provider := metadata.WithCache(s.provider)

	resolved, clarification, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve entities: %w", err)
	}
	if clarification != nil {
		return nil, clarification, nil
	}

	schemas, err := s.retrieveSchemas(ctx, provider, resolved)
	if err != nil {
		return nil, nil, err
	}
	if len(schemas) == 0 {
		return nil, domain.NewClarification("I could not match this question to any HR records."), nil
	}

	trimmed := make([]*domain.Schema, len(schemas))
	for i, schema := range schemas {
		trimmed[i] = s.trimmer.Trim(schema, resolved)
	}
	schemaText := RenderSchemaPrompt(trimmed)

	intent, err := llm.ParseIntent(ctx, s.completer, schemaText, resolved)
	if err != nil {
		return nil, nil, fmt.Errorf("parse intent: %w", err)
	}
	meta := intent.Meta

	intent = s.normalizer.Normalize(intent, resolved)
	if c := s.normalizer.RequireClarification(intent); c != nil {
		return nil, c, nil
	}

	base, err := provider.GetSchema(ctx, intent.Doctype)
	if err != nil {
		return nil, nil, fmt.Errorf("load schema for %q: %w", intent.Doctype, err)
	}

	intent = s.enhancer.Enhance(intent, base)

	intent, clarification, err = s.planJoins(ctx, provider, intent, base)
	if err != nil {
		return nil, nil, err
	}
	if clarification != nil {
		return nil, clarification, nil
	}

	if result := s.validator.Validate(intent); !result.IsValid {
		return nil, nil, result.Err()
	}

	intent.Meta = meta
	return &intent, nil, nil
}

// retrieveSchemas runs similarity retrieval and loads the candidate schemas.
// Candidates unknown to the metadata provider are skipped.
func (s *Service) retrieveSchemas(ctx context.Context, provider metadata.Provider, query string) ([]*domain.Schema, error) {
	candidates, err := s.index.Query(ctx, query, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve schemas: %w", err)
	}

	schemas := make([]*domain.Schema, 0, len(candidates))
	for _, c := range candidates {
		schema, err := provider.GetSchema(ctx, c.Doctype)
		if err != nil {
			return nil, fmt.Errorf("load schema for %q: %w", c.Doctype, err)
		}
		if schema == nil {
			s.log.Warn("retrieval returned unknown doctype", "doctype", c.Doctype)
			continue
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}

// planJoins replaces the model's suggested joins with planned ones. Every
// field path the intent references (selected fields, filter fields, the
// aggregate field, group-by) contributes: dot-qualified paths and the
// model's join targets are planned over the full link graph, and bare
// fields that only exist on a child table add a parent join for that child.
func (s *Service) planJoins(ctx context.Context, provider metadata.Provider, intent domain.Intent, base *domain.Schema) (domain.Intent, *domain.Clarification, error) {
	if base == nil {
		return intent, nil, nil
	}

	refs := make([]string, 0, len(intent.Fields)+len(intent.Filters)+len(intent.GroupBy)+1)
	refs = append(refs, intent.Fields...)
	for _, f := range intent.Filters {
		refs = append(refs, f.Field)
	}
	if intent.Aggregate != nil {
		refs = append(refs, intent.Aggregate.Field)
	}
	refs = append(refs, intent.GroupBy...)

	targets := make(map[string]bool)
	for _, j := range intent.Joins {
		if j.Doctype != "" && j.Doctype != intent.Doctype {
			targets[j.Doctype] = true
		}
	}
	for _, q := range validator.QualifiedFields(refs) {
		if target, ok := base.LinkTarget(q); ok {
			targets[target] = true
		}
	}

	var childJoins []domain.Join
	checked := make(map[string]bool, len(refs))
	for _, f := range refs {
		if f == "" || validator.IsQualified(f) || checked[f] {
			continue
		}
		checked[f] = true
		if _, ok := base.FieldByName(f); ok {
			continue
		}
		child, err := ResolveChildTable(ctx, provider, intent.Doctype, f)
		if err != nil {
			return intent, nil, err
		}
		if child == "" {
			continue
		}
		childJoins = append(childJoins, domain.Join{
			Doctype:   child,
			Field:     "parent",
			Condition: fmt.Sprintf("%s.parent = %s.name", child, intent.Doctype),
		})
	}

	if len(targets) == 0 && len(childJoins) == 0 {
		intent.Joins = nil
		return intent, nil, nil
	}

	doctypes, err := provider.Doctypes(ctx)
	if err != nil {
		return intent, nil, fmt.Errorf("list doctypes: %w", err)
	}
	graph, err := BuildJoinGraph(ctx, provider, doctypes)
	if err != nil {
		return intent, nil, err
	}

	required := make([]string, 0, len(targets))
	for t := range targets {
		required = append(required, t)
	}
	joins, clarification := BuildJoins(intent.Doctype, required, graph)
	if clarification != nil {
		return intent, clarification, nil
	}

	seen := make(map[domain.Join]bool, len(joins))
	for _, j := range joins {
		seen[j] = true
	}
	for _, j := range childJoins {
		if !seen[j] {
			seen[j] = true
			joins = append(joins, j)
		}
	}
	intent.Joins = joins
	return intent, nil, nil
}
