package metadata

import (
	"strings"

	"github.com/hrstack/queryintent/internal/domain"
)

// ExtractorConfig holds the fixed tables that drive field filtering and the
// commonly-filtered heuristic. Injected so tests can swap them.
type ExtractorConfig struct {
	// SystemFields are internal bookkeeping fields that never survive
	// extraction regardless of type.
	SystemFields map[string]bool
	// NonQueryTypes are layout markers, attachments and rich media types
	// that carry no queryable data.
	NonQueryTypes map[string]bool
	// QueryTypes is the allowlist of data-bearing field types.
	QueryTypes map[string]bool
	// FilterHints are fieldname substrings that mark a field as commonly
	// filtered.
	FilterHints []string
}

// DefaultExtractorConfig returns the production field tables.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		SystemFields: map[string]bool{
			"owner": true, "modified_by": true, "creation": true, "modified": true,
			"_user_tags": true, "_comments": true, "_assign": true, "_liked_by": true,
			"naming_series": true, "amended_from": true, "idx": true, "doctype": true,
		},
		NonQueryTypes: map[string]bool{
			"Column Break": true, "Section Break": true, "Tab Break": true,
			"HTML": true, "Heading": true, "Button": true, "Image": true, "Fold": true,
			"Attach": true, "Attach Image": true, "Signature": true,
			"Password": true, "Barcode": true, "Color": true, "Icon": true, "Rating": true,
			"Code": true, "JSON": true, "Geolocation": true,
			"Table": true, "Table MultiSelect": true,
		},
		QueryTypes: map[string]bool{
			"Data": true, "Small Text": true, "Text Editor": true, "Long Text": true, "Text": true,
			"Int": true, "Float": true, "Currency": true, "Percent": true,
			"Date": true, "Datetime": true, "Time": true,
			"Link": true, "Dynamic Link": true,
			"Select": true, "Check": true,
		},
		FilterHints: []string{
			"status", "state", "enabled",
			"date", "from", "to", "posting",
			"employee", "company", "department", "designation",
			"docstatus", "workflow", "name",
			"type", "category", "group",
		},
	}
}

// Extractor turns raw doctype metadata into query-relevant schemas.
type Extractor struct {
	cfg ExtractorConfig
}

// NewExtractor builds an extractor with the given field tables.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract derives the Schema for one raw doctype record. It is a pure
// function of its input; callers may invoke it any number of times.
func (e *Extractor) Extract(raw *domain.RawDoctype) *domain.Schema {
	if raw == nil {
		return nil
	}

	schema := &domain.Schema{
		Doctype:       raw.Name,
		Module:        raw.Module,
		Description:   raw.Description,
		IsSubmittable: raw.IsSubmittable,
	}
	if schema.Description == "" {
		schema.Description = "Manages " + raw.Name + " records"
	}

	for _, rf := range raw.Fields {
		// Child tables are a relationship, not a queryable field.
		if rf.Fieldtype == "Table" && rf.Options != "" {
			schema.ChildTables = append(schema.ChildTables, domain.ChildTable{
				Fieldname:    rf.Fieldname,
				Label:        rf.Label,
				ChildDoctype: rf.Options,
			})
		}

		if !e.isQueryRelevant(rf.Fieldname, rf.Fieldtype) {
			continue
		}

		ft := domain.FieldType(rf.Fieldtype)
		field := domain.Field{
			Fieldname:        rf.Fieldname,
			Label:            rf.Label,
			Type:             ft,
			Class:            ClassifyFieldtype(ft),
			Description:      describeField(rf.Fieldname, rf.Label, rf.Description),
			CommonlyFiltered: e.isCommonlyFiltered(rf.Fieldname, rf.Fieldtype),
		}
		if (rf.Fieldtype == "Link" || rf.Fieldtype == "Select") && rf.Options != "" {
			field.Options = rf.Options
		}
		schema.Fields = append(schema.Fields, field)

		if rf.Fieldtype == "Link" && rf.Options != "" {
			schema.Links = append(schema.Links, domain.Link{
				Fieldname:     rf.Fieldname,
				Label:         rf.Label,
				LinkedDoctype: rf.Options,
			})
		}
	}

	if _, ok := schema.FieldByName("name"); !ok {
		schema.Fields = append([]domain.Field{{
			Fieldname:        "name",
			Label:            "ID",
			Type:             domain.FieldTypeData,
			Class:            domain.ClassText,
			Description:      "Unique identifier",
			CommonlyFiltered: true,
		}}, schema.Fields...)
	}

	if raw.IsSubmittable {
		if _, ok := schema.FieldByName("docstatus"); !ok {
			docstatus := domain.Field{
				Fieldname:        "docstatus",
				Label:            "Status",
				Type:             domain.FieldTypeInt,
				Class:            domain.ClassCategorical,
				Description:      "Document status",
				CommonlyFiltered: true,
				Options:          "0=Draft,1=Submitted,2=Cancelled",
			}
			fields := make([]domain.Field, 0, len(schema.Fields)+1)
			fields = append(fields, schema.Fields[0], docstatus)
			fields = append(fields, schema.Fields[1:]...)
			schema.Fields = fields
		}
	}

	schema.EmbeddingText = schema.BuildEmbeddingText()
	return schema
}

func (e *Extractor) isQueryRelevant(fieldname, fieldtype string) bool {
	if e.cfg.SystemFields[fieldname] {
		return false
	}
	if e.cfg.NonQueryTypes[fieldtype] {
		return false
	}
	return e.cfg.QueryTypes[fieldtype]
}

func (e *Extractor) isCommonlyFiltered(fieldname, fieldtype string) bool {
	fname := strings.ToLower(fieldname)
	for _, hint := range e.cfg.FilterHints {
		if strings.Contains(fname, hint) {
			return true
		}
	}
	switch fieldtype {
	case "Date", "Datetime", "Select":
		return true
	}
	return false
}

// ClassifyFieldtype maps a declared field type to its query class.
func ClassifyFieldtype(ft domain.FieldType) domain.FieldClass {
	switch ft {
	case domain.FieldTypeInt, domain.FieldTypeFloat, domain.FieldTypeCurrency, domain.FieldTypePercent:
		return domain.ClassNumeric
	case domain.FieldTypeDate, domain.FieldTypeDatetime, domain.FieldTypeTime:
		return domain.ClassTemporal
	case domain.FieldTypeData, domain.FieldTypeText, domain.FieldTypeSmallText, domain.FieldTypeLongText, "Text Editor":
		return domain.ClassText
	case domain.FieldTypeLink, "Dynamic Link":
		return domain.ClassReference
	case domain.FieldTypeSelect, domain.FieldTypeCheck:
		return domain.ClassCategorical
	}
	return domain.ClassOther
}

// describeField picks a field description by priority: explicit description,
// fieldname pattern, label, then a humanized fieldname fallback.
func describeField(fieldname, label, description string) string {
	if d := strings.TrimSpace(description); d != "" {
		return d
	}
	lname := strings.ToLower(fieldname)
	switch {
	case strings.Contains(lname, "date"):
		return "Date-related field"
	case strings.Contains(lname, "qty"), strings.Contains(lname, "quantity"):
		return "Quantity field"
	case strings.Contains(lname, "total"), strings.Contains(lname, "amount"):
		return "Monetary amount field"
	case strings.Contains(lname, "status"):
		return "Status indicator field"
	}
	if label != "" {
		return label + " field"
	}
	return strings.ToLower(strings.ReplaceAll(fieldname, "_", " ")) + " field"
}
