package domain

// Action is the canonical query shape of an intent.
type Action string

const (
	ActionSingle    Action = "single"
	ActionList      Action = "list"
	ActionAggregate Action = "aggregate"
)

// FilterOp enumerates the canonical filter operators.
type FilterOp string

const (
	OpEquals   FilterOp = "="
	OpNotEqual FilterOp = "!="
	OpGreater  FilterOp = ">"
	OpLess     FilterOp = "<"
	OpGTE      FilterOp = ">="
	OpLTE      FilterOp = "<="
	OpIn       FilterOp = "in"
	OpBetween  FilterOp = "between"
)

// CanonicalOps is the closed set of operators the validator accepts.
var CanonicalOps = map[FilterOp]bool{
	OpEquals:   true,
	OpNotEqual: true,
	OpGreater:  true,
	OpLess:     true,
	OpGTE:      true,
	OpLTE:      true,
	OpIn:       true,
	OpBetween:  true,
}

// Filter is one predicate of an intent. Value stays loosely typed until
// filter resolution pins it down (date literals become two-element ranges).
type Filter struct {
	Field string   `json:"field"`
	Op    FilterOp `json:"op"`
	Value any      `json:"value"`
}

// Join is one planned relationship hop. Condition is a rendered equality
// expression of the form "From.field = To.name".
type Join struct {
	Doctype   string `json:"doctype"`
	Field     string `json:"field"`
	Condition string `json:"condition"`
}

// AggregateFunc enumerates the supported aggregate functions.
type AggregateFunc string

const (
	AggCount AggregateFunc = "count"
	AggSum   AggregateFunc = "sum"
	AggAvg   AggregateFunc = "avg"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
)

// AggregateFuncs is the closed set of functions the validator accepts.
var AggregateFuncs = map[AggregateFunc]bool{
	AggCount: true,
	AggSum:   true,
	AggAvg:   true,
	AggMin:   true,
	AggMax:   true,
}

// Aggregate describes the aggregation of an aggregate-shaped intent.
type Aggregate struct {
	Function AggregateFunc `json:"function"`
	Field    string        `json:"field"`
}

// CallMeta carries diagnostics of the model call. It is attached to the
// intent under a reserved key, ignored by validation and preserved through
// to the final output.
type CallMeta struct {
	Model            string  `json:"model"`
	LatencyMs        float64 `json:"latency_ms"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	TotalTokens      int     `json:"total_tokens,omitempty"`
}

// Intent is the structured query plan threaded through the whole pipeline.
// Stages take an intent and return an updated copy; Clone keeps the handoff
// between stages free of shared slice state.
type Intent struct {
	Action     Action     `json:"action"`
	Doctype    string     `json:"doctype"`
	Fields     []string   `json:"fields"`
	Filters    []Filter   `json:"filters"`
	Joins      []Join     `json:"joins"`
	Aggregate  *Aggregate `json:"aggregate,omitempty"`
	GroupBy    []string   `json:"group_by,omitempty"`
	Confidence float64    `json:"confidence"`
	Meta       *CallMeta  `json:"_meta,omitempty"`
}

// Clone returns a deep copy of the intent.
func (in Intent) Clone() Intent {
	out := in
	if in.Fields != nil {
		out.Fields = append([]string(nil), in.Fields...)
	}
	if in.Filters != nil {
		out.Filters = append([]Filter(nil), in.Filters...)
	}
	if in.Joins != nil {
		out.Joins = append([]Join(nil), in.Joins...)
	}
	if in.GroupBy != nil {
		out.GroupBy = append([]string(nil), in.GroupBy...)
	}
	if in.Aggregate != nil {
		agg := *in.Aggregate
		out.Aggregate = &agg
	}
	if in.Meta != nil {
		meta := *in.Meta
		out.Meta = &meta
	}
	return out
}

// HasFilterOn reports whether a filter on the given field already exists.
func (in Intent) HasFilterOn(field string) bool {
	for _, f := range in.Filters {
		if f.Field == field {
			return true
		}
	}
	return false
}

// EntityMatch is one candidate record returned by the entity lookup.
type EntityMatch struct {
	ID          string `json:"name"`
	DisplayName string `json:"employee_name"`
}

// Clarification is the terminal output used whenever the planner cannot
// proceed without more user input. It is a value, never an error.
type Clarification struct {
	ClarificationRequired bool          `json:"clarification_required"`
	Message               string        `json:"message,omitempty"`
	Entity                string        `json:"entity,omitempty"`
	Matches               []EntityMatch `json:"matches,omitempty"`
}

// NewClarification builds a clarification response with the given message.
func NewClarification(message string) *Clarification {
	return &Clarification{ClarificationRequired: true, Message: message}
}
