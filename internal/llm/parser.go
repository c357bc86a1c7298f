package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hrstack/queryintent/internal/domain"
)

// ExtractJSON returns the first balanced JSON object substring of text, which
// may be wrapped in prose or markdown fences. Returns "" when no object is
// found.
func ExtractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// ParseIntent sends the schema text and query to the completion provider and
// decodes the response into a draft intent with call metadata attached.
// Every failure here is terminal for the request.
func ParseIntent(ctx context.Context, provider CompletionProvider, schemaText, query string) (domain.Intent, error) {
	completion, err := provider.Complete(ctx, SystemPrompt, RenderUserPrompt(schemaText, query))
	if err != nil {
		return domain.Intent{}, err
	}

	if strings.TrimSpace(completion.Text) == "" {
		return domain.Intent{}, ErrEmptyResponse
	}

	jsonText := ExtractJSON(completion.Text)
	if jsonText == "" {
		return domain.Intent{}, ErrNoJSON
	}

	intent, err := DecodeIntent([]byte(jsonText))
	if err != nil {
		return domain.Intent{}, fmt.Errorf("model returned malformed JSON: %w", err)
	}

	intent.Meta = &domain.CallMeta{
		Model:            provider.Model(),
		LatencyMs:        completion.LatencyMs,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		TotalTokens:      completion.Usage.TotalTokens,
	}
	return intent, nil
}

type rawIntent struct {
	Action     string          `json:"action"`
	Doctype    string          `json:"doctype"`
	Fields     []any           `json:"fields"`
	Filters    json.RawMessage `json:"filters"`
	Joins      json.RawMessage `json:"joins"`
	Aggregate  json.RawMessage `json:"aggregate"`
	GroupBy    []any           `json:"group_by"`
	Confidence any             `json:"confidence"`
}

// DecodeIntent converts raw model JSON into a draft intent. All shape
// tolerance lives here: filters are accepted as a field-to-value map, a list
// of {field, op, value} objects, or a list of 3-element tuples; anything
// else is dropped. Downstream stages receive a structurally sound intent.
func DecodeIntent(data []byte) (domain.Intent, error) {
	var raw rawIntent
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Intent{}, err
	}

	intent := domain.Intent{
		Action:     domain.Action(strings.TrimSpace(raw.Action)),
		Doctype:    strings.TrimSpace(raw.Doctype),
		Confidence: coerceFloat(raw.Confidence),
	}

	for _, f := range raw.Fields {
		if s, ok := f.(string); ok && s != "" {
			intent.Fields = append(intent.Fields, s)
		}
	}
	for _, g := range raw.GroupBy {
		if s, ok := g.(string); ok && s != "" {
			intent.GroupBy = append(intent.GroupBy, s)
		}
	}

	intent.Filters = decodeFilters(raw.Filters)
	intent.Joins = decodeJoins(raw.Joins)

	if len(raw.Aggregate) > 0 && string(raw.Aggregate) != "null" {
		var agg domain.Aggregate
		if err := json.Unmarshal(raw.Aggregate, &agg); err == nil && agg.Function != "" {
			intent.Aggregate = &agg
		}
	}

	return intent, nil
}

func decodeFilters(raw json.RawMessage) []domain.Filter {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	// Map shape: {"field": value}. A list value means membership.
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err == nil {
		keys := make([]string, 0, len(asMap))
		for k := range asMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		filters := make([]domain.Filter, 0, len(keys))
		for _, k := range keys {
			v := asMap[k]
			if list, ok := v.([]any); ok {
				filters = append(filters, domain.Filter{Field: k, Op: domain.OpIn, Value: list})
			} else {
				filters = append(filters, domain.Filter{Field: k, Op: domain.OpEquals, Value: v})
			}
		}
		return filters
	}

	var asList []json.RawMessage
	if err := json.Unmarshal(raw, &asList); err != nil {
		return nil
	}

	var filters []domain.Filter
	for _, item := range asList {
		var f domain.Filter
		if err := json.Unmarshal(item, &f); err == nil && f.Field != "" {
			filters = append(filters, f)
			continue
		}

		// Tuple shape: [field, op, value].
		var tuple []any
		if err := json.Unmarshal(item, &tuple); err == nil && len(tuple) == 3 {
			field, fok := tuple[0].(string)
			op, ook := tuple[1].(string)
			if fok && ook {
				filters = append(filters, domain.Filter{Field: field, Op: domain.FilterOp(op), Value: tuple[2]})
			}
		}
	}
	return filters
}

func decodeJoins(raw json.RawMessage) []domain.Join {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var joins []domain.Join
	if err := json.Unmarshal(raw, &joins); err != nil {
		return nil
	}
	out := joins[:0]
	for _, j := range joins {
		if j.Doctype != "" && j.Field != "" {
			out = append(out, j)
		}
	}
	return out
}

func coerceFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	}
	return 0
}
