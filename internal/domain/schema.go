package domain

import (
	"fmt"
	"strings"
)

// FieldType enumerates the declared field types of the host HR system.
type FieldType string

const (
	FieldTypeData      FieldType = "Data"
	FieldTypeSmallText FieldType = "Small Text"
	FieldTypeText      FieldType = "Text"
	FieldTypeLongText  FieldType = "Long Text"
	FieldTypeInt       FieldType = "Int"
	FieldTypeFloat     FieldType = "Float"
	FieldTypeCurrency  FieldType = "Currency"
	FieldTypePercent   FieldType = "Percent"
	FieldTypeDate      FieldType = "Date"
	FieldTypeDatetime  FieldType = "Datetime"
	FieldTypeTime      FieldType = "Time"
	FieldTypeLink      FieldType = "Link"
	FieldTypeSelect    FieldType = "Select"
	FieldTypeCheck     FieldType = "Check"
	FieldTypeTable     FieldType = "Table"
)

// FieldClass is the derived query-oriented classification of a field.
type FieldClass string

const (
	ClassNumeric     FieldClass = "numeric"
	ClassTemporal    FieldClass = "temporal"
	ClassText        FieldClass = "text"
	ClassReference   FieldClass = "reference"
	ClassCategorical FieldClass = "categorical"
	ClassOther       FieldClass = "other"
)

// Field is one query-relevant field of an entity schema.
type Field struct {
	Fieldname        string     `json:"fieldname"`
	Label            string     `json:"label"`
	Type             FieldType  `json:"type"`
	Class            FieldClass `json:"class"`
	Description      string     `json:"description"`
	CommonlyFiltered bool       `json:"commonly_filtered"`
	// Options carries the allowed values for Select fields (newline separated)
	// or the target entity name for Link fields.
	Options string `json:"options,omitempty"`
}

// Link is an outbound foreign-key style relationship.
type Link struct {
	Fieldname     string `json:"fieldname"`
	Label         string `json:"label"`
	LinkedDoctype string `json:"linked_doctype"`
}

// ChildTable is a one-to-many owned relationship.
type ChildTable struct {
	Fieldname    string `json:"fieldname"`
	Label        string `json:"label"`
	ChildDoctype string `json:"child_doctype"`
}

// Schema is the query-relevant shape of one entity type, derived from raw
// metadata and cached per request. It is never persisted by the planner.
type Schema struct {
	Doctype       string       `json:"doctype"`
	Module        string       `json:"module,omitempty"`
	Description   string       `json:"description"`
	IsSubmittable bool         `json:"is_submittable"`
	Fields        []Field      `json:"fields"`
	Links         []Link       `json:"links"`
	ChildTables   []ChildTable `json:"child_tables"`
	EmbeddingText string       `json:"embedding_text,omitempty"`
}

// FieldByName returns the field with the given fieldname and whether it exists.
func (s *Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Fieldname == name {
			return f, true
		}
	}
	return Field{}, false
}

// LinkTarget returns the entity linked through the given field, if any.
func (s *Schema) LinkTarget(fieldname string) (string, bool) {
	for _, l := range s.Links {
		if l.Fieldname == fieldname {
			return l.LinkedDoctype, true
		}
	}
	return "", false
}

// BuildEmbeddingText renders the deterministic serialization of a schema used
// as input to the vector index. It is regenerable at any time and is never
// treated as ground truth elsewhere.
func (s *Schema) BuildEmbeddingText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "DocType: %s\n", s.Doctype)
	fmt.Fprintf(&b, "Description: %s\n", s.Description)
	b.WriteString("Fields:\n")
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "- %s (%s, %s)", f.Fieldname, f.Type, f.Class)
		if f.Options != "" {
			fmt.Fprintf(&b, " -> %s", f.Options)
		}
		b.WriteString("\n")
	}
	if len(s.Links) > 0 {
		b.WriteString("Relationships:\n")
		for _, l := range s.Links {
			fmt.Fprintf(&b, "- %s.%s -> %s\n", s.Doctype, l.Fieldname, l.LinkedDoctype)
		}
	}
	if len(s.ChildTables) > 0 {
		b.WriteString("Child Tables:\n")
		for _, ct := range s.ChildTables {
			fmt.Fprintf(&b, "- %s.%s -> %s\n", s.Doctype, ct.Fieldname, ct.ChildDoctype)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RawField is one field definition as reported by the host metadata source,
// before filtering and classification.
type RawField struct {
	Fieldname   string `json:"fieldname" yaml:"fieldname"`
	Label       string `json:"label" yaml:"label"`
	Fieldtype   string `json:"fieldtype" yaml:"fieldtype"`
	Options     string `json:"options,omitempty" yaml:"options,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// RawDoctype is the unprocessed metadata record for one entity type.
type RawDoctype struct {
	Name          string     `json:"name" yaml:"name"`
	Module        string     `json:"module,omitempty" yaml:"module,omitempty"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty"`
	IsSubmittable bool       `json:"is_submittable" yaml:"is_submittable"`
	Fields        []RawField `json:"fields" yaml:"fields"`
}
