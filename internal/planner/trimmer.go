package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hrstack/queryintent/internal/domain"
)

// TrimmerConfig tunes how aggressively schemas are cut before prompting.
type TrimmerConfig struct {
	// MaxFields caps the scored fields per schema. Always-keep fields are
	// exempt from the cap.
	MaxFields int
	// TemporalKeywords mark a query as time-scoped for trimming purposes.
	TemporalKeywords []string
}

// DefaultTrimmerConfig returns the production limits.
func DefaultTrimmerConfig() TrimmerConfig {
	return TrimmerConfig{
		MaxFields: 12,
		TemporalKeywords: []string{
			"today", "yesterday", "last", "this", "current", "date", "shift",
		},
	}
}

// queryHints are coarse signals read off the raw question that steer which
// fields survive trimming.
type queryHints struct {
	wantsCount     bool
	hasTemporal    bool
	mentionsActive bool
}

// Trimmer shrinks retrieved schemas to the fields most likely to matter for
// the question, keeping the prompt inside a small, predictable budget.
type Trimmer struct {
	cfg TrimmerConfig
}

func NewTrimmer(cfg TrimmerConfig) *Trimmer {
	if cfg.MaxFields <= 0 {
		cfg.MaxFields = 12
	}
	return &Trimmer{cfg: cfg}
}

// Trim returns a copy of the schema reduced to the always-keep fields plus
// the top-scored fields up to the cap. The input schema is not modified.
func (t *Trimmer) Trim(schema *domain.Schema, query string) *domain.Schema {
	hints := t.analyzeQuery(query)

	var keep, scored []domain.Field
	for _, f := range schema.Fields {
		if t.isAlwaysKeep(f, hints) {
			keep = append(keep, f)
		} else {
			scored = append(scored, f)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scoreField(scored[i], hints) > scoreField(scored[j], hints)
	})
	budget := t.cfg.MaxFields - len(keep)
	if budget < 0 {
		budget = 0
	}
	if len(scored) > budget {
		scored = scored[:budget]
	}

	out := *schema
	out.Fields = make([]domain.Field, 0, len(keep)+len(scored))
	// Preserve the original field order in the output.
	kept := make(map[string]bool, len(keep)+len(scored))
	for _, f := range keep {
		kept[f.Fieldname] = true
	}
	for _, f := range scored {
		kept[f.Fieldname] = true
	}
	for _, f := range schema.Fields {
		if kept[f.Fieldname] {
			out.Fields = append(out.Fields, f)
		}
	}
	return &out
}

func (t *Trimmer) analyzeQuery(query string) queryHints {
	q := strings.ToLower(query)
	hints := queryHints{
		wantsCount: strings.Contains(q, "count") ||
			strings.Contains(q, "how many") ||
			strings.Contains(q, "number of"),
		mentionsActive: strings.Contains(q, "active"),
	}
	for _, kw := range t.cfg.TemporalKeywords {
		if strings.Contains(q, kw) {
			hints.hasTemporal = true
			break
		}
	}
	return hints
}

var (
	identityFields   = map[string]bool{"name": true, "employee": true, "employee_name": true}
	alwaysKeepFields = map[string]bool{"name": true, "docstatus": true, "status": true}
)

func (t *Trimmer) isAlwaysKeep(f domain.Field, hints queryHints) bool {
	switch {
	case identityFields[f.Fieldname], alwaysKeepFields[f.Fieldname]:
		return true
	case f.CommonlyFiltered:
		return true
	case hints.hasTemporal && f.Class == domain.ClassTemporal:
		return true
	case hints.wantsCount && f.Fieldname == "name":
		return true
	}
	return false
}

// scoreField ranks a field's likely relevance. The weights favor identity
// and frequently filtered fields; temporal and numeric data only score when
// the query itself is time-scoped or counting.
func scoreField(f domain.Field, hints queryHints) int {
	score := 0
	switch f.Fieldname {
	case "employee_name":
		score += 10
	case "first_name":
		score += 3
	}
	if f.CommonlyFiltered {
		score += 6
	}
	switch f.Class {
	case domain.ClassTemporal:
		if hints.hasTemporal {
			score += 5
		}
	case domain.ClassNumeric:
		if hints.wantsCount {
			score += 4
		}
	case domain.ClassReference:
		score += 3
	case domain.ClassText:
		score += 1
	}
	return score
}

// RenderSchemaPrompt formats trimmed schemas as the prompt block handed to
// the model. Select options are preserved so the model emits exact values.
func RenderSchemaPrompt(schemas []*domain.Schema) string {
	var b strings.Builder
	for i, s := range schemas {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "DocType: %s\n", s.Doctype)
		if s.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", s.Description)
		}
		b.WriteString("Fields:\n")
		for _, f := range s.Fields {
			fmt.Fprintf(&b, "- %s (%s, %s)", f.Fieldname, f.Type, f.Class)
			if f.Description != "" {
				fmt.Fprintf(&b, ": %s", f.Description)
			}
			if f.Type == domain.FieldTypeSelect && f.Options != "" {
				values := strings.Split(f.Options, "\n")
				fmt.Fprintf(&b, " [values: %s]", strings.Join(values, ", "))
			}
			b.WriteString("\n")
		}
		if len(s.Links) > 0 {
			b.WriteString("Relationships:\n")
			for _, l := range s.Links {
				fmt.Fprintf(&b, "- %s -> %s\n", l.Fieldname, l.LinkedDoctype)
			}
		}
		if len(s.ChildTables) > 0 {
			b.WriteString("Child Tables:\n")
			for _, c := range s.ChildTables {
				fmt.Fprintf(&b, "- %s -> %s\n", c.Fieldname, c.ChildDoctype)
			}
		}
	}
	return b.String()
}
