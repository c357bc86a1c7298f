package planner

import (
	"strings"
	"time"

	"github.com/hrstack/queryintent/internal/domain"
)

const (
	datetimeLayout = "2006-01-02 15:04:05.000000"
	dateLayout     = "2006-01-02"
)

// Enhancer canonicalizes the normalized intent: action and operator synonyms
// collapse to the closed sets, date literals resolve to absolute ranges, and
// aggregate/group_by settle into their final shape. Every stage is
// idempotent, so re-enhancing an already canonical intent is a no-op.
type Enhancer struct {
	now func() time.Time
}

// NewEnhancer builds an enhancer. nowFn is injectable for tests; nil means
// the wall clock.
func NewEnhancer(nowFn func() time.Time) *Enhancer {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Enhancer{now: nowFn}
}

// Enhance runs all canonicalization stages in order. schema is the base
// entity's schema, used to type date filter values; it may be nil, in which
// case values resolve as datetimes.
func (e *Enhancer) Enhance(intent domain.Intent, schema *domain.Schema) domain.Intent {
	out := intent.Clone()
	out = e.normalizeAction(out)
	out = e.canonicalizeFilters(out)
	out = e.normalizeOperators(out)
	out = e.resolveFilters(out, schema)
	out = e.normalizeAggregate(out)
	out = e.normalizeGroupBy(out)
	return out
}

var actionAliases = map[string]domain.Action{
	"search":  domain.ActionList,
	"find":    domain.ActionList,
	"show":    domain.ActionList,
	"list":    domain.ActionList,
	"lookup":  domain.ActionSingle,
	"get":     domain.ActionSingle,
	"fetch":   domain.ActionSingle,
	"single":  domain.ActionSingle,
	"count":   domain.ActionAggregate,
	"sum":     domain.ActionAggregate,
	"average": domain.ActionAggregate,
	"avg":     domain.ActionAggregate,
}

func (e *Enhancer) normalizeAction(intent domain.Intent) domain.Intent {
	key := strings.ToLower(strings.TrimSpace(string(intent.Action)))
	if mapped, ok := actionAliases[key]; ok {
		intent.Action = mapped
	} else if key == string(domain.ActionAggregate) {
		intent.Action = domain.ActionAggregate
	}
	return intent
}

// canonicalizeFilters drops structurally unusable filters. The decode
// boundary and the normalizer already repair shape, so this is the last
// guard before operator work.
func (e *Enhancer) canonicalizeFilters(intent domain.Intent) domain.Intent {
	kept := intent.Filters[:0]
	for _, f := range intent.Filters {
		if f.Field == "" {
			continue
		}
		kept = append(kept, f)
	}
	intent.Filters = kept
	return intent
}

var operatorSynonyms = map[string]domain.FilterOp{
	"like":     domain.OpEquals,
	"equals":   domain.OpEquals,
	"equal":    domain.OpEquals,
	"is":       domain.OpEquals,
	"contains": domain.OpEquals,
	"matches":  domain.OpEquals,
	"==":       domain.OpEquals,
	"not like": domain.OpNotEqual,
	"not":      domain.OpNotEqual,
	"<>":       domain.OpNotEqual,
}

// normalizeOperators collapses operator synonyms to the canonical set. An
// operator that is neither canonical nor a known synonym becomes equality
// rather than failing the request.
func (e *Enhancer) normalizeOperators(intent domain.Intent) domain.Intent {
	for i, f := range intent.Filters {
		op := domain.FilterOp(strings.ToLower(strings.TrimSpace(string(f.Op))))
		if mapped, ok := operatorSynonyms[string(op)]; ok {
			op = mapped
		}
		if !domain.CanonicalOps[op] {
			op = domain.OpEquals
		}
		intent.Filters[i].Op = op
	}
	return intent
}

// resolveFilters turns recognized date and time-of-day literals into
// absolute between-ranges, rewriting the operator to between regardless of
// what the model chose. Values on Date fields are rendered date-only;
// everything else keeps full datetime precision.
func (e *Enhancer) resolveFilters(intent domain.Intent, schema *domain.Schema) domain.Intent {
	now := e.now()
	for i, f := range intent.Filters {
		s, ok := f.Value.(string)
		if !ok {
			continue
		}
		r, ok := ResolveDateLiteral(s, now)
		if !ok {
			continue
		}
		layout := datetimeLayout
		if schema != nil {
			if fld, found := schema.FieldByName(f.Field); found && fld.Type == domain.FieldTypeDate {
				layout = dateLayout
			}
		}
		intent.Filters[i].Op = domain.OpBetween
		intent.Filters[i].Value = []any{r.Start.Format(layout), r.End.Format(layout)}
	}
	return intent
}

// normalizeAggregate makes aggregate intents carry a usable aggregate and
// strips the aggregate from non-aggregate intents.
func (e *Enhancer) normalizeAggregate(intent domain.Intent) domain.Intent {
	if intent.Action != domain.ActionAggregate {
		intent.Aggregate = nil
		return intent
	}
	if intent.Aggregate == nil {
		intent.Aggregate = &domain.Aggregate{Function: domain.AggCount, Field: "name"}
		return intent
	}
	fn := domain.AggregateFunc(strings.ToLower(strings.TrimSpace(string(intent.Aggregate.Function))))
	if fn == "average" {
		fn = domain.AggAvg
	}
	if !domain.AggregateFuncs[fn] {
		fn = domain.AggCount
	}
	intent.Aggregate.Function = fn
	if intent.Aggregate.Field == "" {
		intent.Aggregate.Field = "name"
	}
	return intent
}

func (e *Enhancer) normalizeGroupBy(intent domain.Intent) domain.Intent {
	if intent.Action != domain.ActionAggregate {
		intent.GroupBy = nil
	}
	return intent
}
