package planner

import (
	"fmt"
	"strings"

	"github.com/hrstack/queryintent/internal/domain"
	"github.com/hrstack/queryintent/internal/logger"
)

// NormalizerConfig carries the fixed keyword and filter tables the rules
// consult. Injected so tests can swap them.
type NormalizerConfig struct {
	// TemporalKeywords mark a query as time-scoped.
	TemporalKeywords []string
	// ProfileFields are employee-master attributes; queries asking only for
	// these, with no temporal language, target the Employee entity directly.
	ProfileFields map[string]bool
	// MandatoryFilters are injected per doctype regardless of user intent.
	MandatoryFilters map[string][]domain.Filter
	// Keyword sets disambiguating the raw punch-event entity from the daily
	// attendance record.
	CheckinKeywords    []string
	AttendanceKeywords []string

	EmployeeDoctype   string
	CheckinDoctype    string
	AttendanceDoctype string

	// ConfidenceThreshold gates low-confidence intents into a clarification.
	ConfidenceThreshold float64
}

// DefaultNormalizerConfig returns the production tables.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		TemporalKeywords: []string{
			"today", "yesterday", "last", "this", "current", "date", "shift",
		},
		ProfileFields: map[string]bool{
			"department":    true,
			"designation":   true,
			"company":       true,
			"reports_to":    true,
			"employee_name": true,
		},
		MandatoryFilters: map[string][]domain.Filter{
			"Employee": {
				{Field: "status", Op: domain.OpEquals, Value: "Active"},
			},
			"Attendance": {
				{Field: "docstatus", Op: domain.OpEquals, Value: 1},
			},
			"Leave Application": {
				{Field: "docstatus", Op: domain.OpEquals, Value: 1},
			},
			"Salary Slip": {
				{Field: "docstatus", Op: domain.OpEquals, Value: 1},
			},
		},
		CheckinKeywords: []string{
			"check in", "check-in", "checkin", "check out", "check-out",
			"punch", "clock in", "clock out", "biometric", "swipe",
		},
		AttendanceKeywords: []string{
			"attendance", "present", "absent", "half day", "on leave",
		},
		EmployeeDoctype:     "Employee",
		CheckinDoctype:      "Employee Checkin",
		AttendanceDoctype:   "Attendance",
		ConfidenceThreshold: 0.6,
	}
}

// HasTemporalContext reports whether the query contains temporal language.
func (c NormalizerConfig) HasTemporalContext(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range c.TemporalKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// rule is one normalization step. Exactly one of transform and
// transformWithQuery is set; needsQuery declares which.
type rule struct {
	name               string
	needsQuery         bool
	transform          func(domain.Intent) (domain.Intent, error)
	transformWithQuery func(domain.Intent, string) (domain.Intent, error)
}

// Normalizer repairs structural issues in the raw intent through an ordered
// rule sequence. Rules are best-effort: one failing is logged and skipped,
// and the pipeline continues from the pre-rule state. Normalization never
// aborts a request.
type Normalizer struct {
	cfg   NormalizerConfig
	rules []rule
	log   *logger.Logger
}

// NewNormalizer builds the rule engine. Rule order is load-bearing: the
// checkin/attendance disambiguation must run before the profile-field
// override, or the override wins incorrectly.
func NewNormalizer(cfg NormalizerConfig, log *logger.Logger) *Normalizer {
	n := &Normalizer{cfg: cfg, log: log}
	n.rules = []rule{
		{name: "normalize_action", transform: n.ruleNormalizeAction},
		{name: "disambiguate_attendance", needsQuery: true, transformWithQuery: n.ruleDisambiguateAttendance},
		{name: "prefer_employee_master", needsQuery: true, transformWithQuery: n.rulePreferEmployeeMaster},
		{name: "normalize_filter_shape", transform: n.ruleNormalizeFilterShape},
		{name: "add_mandatory_filters", transform: n.ruleAddMandatoryFilters},
		{name: "clean_joins", transform: n.ruleCleanJoins},
	}
	return n
}

// Normalize applies every rule in order against the intent.
func (n *Normalizer) Normalize(intent domain.Intent, query string) domain.Intent {
	for _, r := range n.rules {
		next, err := n.apply(r, intent, query)
		if err != nil {
			if n.log != nil {
				n.log.Warn("normalization rule skipped", "rule", r.name, "error", err)
			}
			continue
		}
		intent = next
	}
	return intent
}

// apply runs one rule against a clone of the intent, converting panics into
// errors so a broken rule can never take the request down.
func (n *Normalizer) apply(r rule, intent domain.Intent, query string) (out domain.Intent, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("rule panicked: %v", rec)
		}
	}()

	if r.needsQuery {
		return r.transformWithQuery(intent.Clone(), query)
	}
	return r.transform(intent.Clone())
}

// RequireClarification gates low-confidence intents. It runs once, after
// normalization and before canonicalization.
func (n *Normalizer) RequireClarification(intent domain.Intent) *domain.Clarification {
	if intent.Confidence < n.cfg.ConfidenceThreshold {
		return domain.NewClarification("I need more details to answer this accurately.")
	}
	return nil
}

var actionSynonyms = map[domain.Action]domain.Action{
	"read":   domain.ActionList,
	"select": domain.ActionSingle,
	"count":  domain.ActionAggregate,
	"sum":    domain.ActionAggregate,
}

func (n *Normalizer) ruleNormalizeAction(intent domain.Intent) (domain.Intent, error) {
	if mapped, ok := actionSynonyms[intent.Action]; ok {
		intent.Action = mapped
	}
	return intent, nil
}

// ruleDisambiguateAttendance settles the overlap between the raw time-clock
// event entity and the daily attendance record using explicit keyword sets.
// It only arbitrates between the two; unrelated doctypes are left alone.
func (n *Normalizer) ruleDisambiguateAttendance(intent domain.Intent, query string) (domain.Intent, error) {
	if intent.Doctype != n.cfg.CheckinDoctype && intent.Doctype != n.cfg.AttendanceDoctype {
		return intent, nil
	}

	q := strings.ToLower(query)
	for _, kw := range n.cfg.CheckinKeywords {
		if strings.Contains(q, kw) {
			intent.Doctype = n.cfg.CheckinDoctype
			intent.Joins = nil
			return intent, nil
		}
	}
	for _, kw := range n.cfg.AttendanceKeywords {
		if strings.Contains(q, kw) {
			intent.Doctype = n.cfg.AttendanceDoctype
			intent.Joins = nil
			return intent, nil
		}
	}
	return intent, nil
}

// rulePreferEmployeeMaster retargets purely profile-shaped questions at the
// employee master instead of a transactional doctype.
func (n *Normalizer) rulePreferEmployeeMaster(intent domain.Intent, query string) (domain.Intent, error) {
	if intent.Doctype == n.cfg.EmployeeDoctype || len(intent.Fields) == 0 {
		return intent, nil
	}
	if n.cfg.HasTemporalContext(query) {
		return intent, nil
	}

	for _, f := range intent.Fields {
		base := strings.SplitN(f, ".", 2)
		if !n.cfg.ProfileFields[base[len(base)-1]] {
			return intent, nil
		}
	}

	intent.Doctype = n.cfg.EmployeeDoctype
	intent.Joins = nil
	for i, f := range intent.Fields {
		parts := strings.Split(f, ".")
		intent.Fields[i] = parts[len(parts)-1]
	}
	return intent, nil
}

// ruleNormalizeFilterShape fills missing operators: a list value means
// membership, anything else equality. The decode boundary already produces
// this shape, so the rule is an idempotent guard.
func (n *Normalizer) ruleNormalizeFilterShape(intent domain.Intent) (domain.Intent, error) {
	kept := intent.Filters[:0]
	for _, f := range intent.Filters {
		if f.Field == "" {
			continue
		}
		if f.Op == "" {
			if _, isList := f.Value.([]any); isList {
				f.Op = domain.OpIn
			} else {
				f.Op = domain.OpEquals
			}
		}
		kept = append(kept, f)
	}
	intent.Filters = kept
	return intent, nil
}

func (n *Normalizer) ruleAddMandatoryFilters(intent domain.Intent) (domain.Intent, error) {
	for _, required := range n.cfg.MandatoryFilters[intent.Doctype] {
		if !intent.HasFilterOn(required.Field) {
			intent.Filters = append(intent.Filters, required)
		}
	}
	return intent, nil
}

// ruleCleanJoins drops joins whose field is not referenced by any
// dot-qualified entry in the field list.
func (n *Normalizer) ruleCleanJoins(intent domain.Intent) (domain.Intent, error) {
	kept := intent.Joins[:0]
	for _, j := range intent.Joins {
		prefix := j.Field + "."
		for _, f := range intent.Fields {
			if strings.HasPrefix(f, prefix) {
				kept = append(kept, j)
				break
			}
		}
	}
	intent.Joins = kept
	return intent, nil
}
