package schema

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType is the column type of a table field.
type FieldType string

// Field type constants (typed).
const (
	TypeIncrements FieldType = "increments"
	TypeString     FieldType = "string"
	TypeTimestamp  FieldType = "timestamp"
	TypeDateTime   FieldType = "dateTime"
	TypeBoolean    FieldType = "boolean"
	TypeInteger    FieldType = "integer"
	TypeJSONB      FieldType = "jsonb"
)

// ReferentialAction is the action taken on a foreign key when the referenced row changes.
type ReferentialAction string

const (
	ActionCascade    ReferentialAction = "CASCADE"
	ActionSetNull    ReferentialAction = "SET NULL"
	ActionRestrict   ReferentialAction = "RESTRICT"
	ActionNoAction   ReferentialAction = "NO ACTION"
	ActionSetDefault ReferentialAction = "SET DEFAULT"
)

// Table names
const (
	TableUsers        = "users"
	TableContent      = "content"
	TableAllTypes     = "all-types"
	TableLive         = "live"
	TableSchedule     = "schedule"
	TableApplications = "applications"
)

// ContentTablePrefix prefixes the per content type revision tables.
const ContentTablePrefix = "content-type--"

// ForeignKey describes a reference to another table's column.
type ForeignKey struct {
	Reference string            `json:"reference"` // "table.column"
	OnDelete  ReferentialAction `json:"delete,omitempty"`
	OnUpdate  ReferentialAction `json:"update,omitempty"`
}

// Table returns the referenced table name.
func (fk ForeignKey) Table() string {
	table, _, _ := strings.Cut(fk.Reference, ".")
	return table
}

// Column returns the referenced column name.
func (fk ForeignKey) Column() string {
	_, column, _ := strings.Cut(fk.Reference, ".")
	return column
}

// Field is a single column definition.
type Field struct {
	Name    string      `json:"name"`
	Type    FieldType   `json:"type"`
	Index   bool        `json:"index,omitempty"`
	Foreign *ForeignKey `json:"foreign,omitempty"`
}

// Table is a named, ordered list of fields.
type Table struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Field returns the field with the given name.
func (t Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in declaration order.
func (t Table) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate checks that field names are unique and foreign references are well formed.
func (t Table) Validate() error {
	if t.Name == "" {
		return errors.New("table name is required")
	}
	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if f.Name == "" {
			return fmt.Errorf("table %s: field name is required", t.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("table %s: duplicate field %s", t.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Foreign != nil && (f.Foreign.Table() == "" || f.Foreign.Column() == "") {
			return fmt.Errorf("table %s: field %s has malformed reference %q", t.Name, f.Name, f.Foreign.Reference)
		}
	}
	return nil
}

func cloneFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
		if f.Foreign != nil {
			fk := *f.Foreign
			out[i].Foreign = &fk
		}
	}
	return out
}
