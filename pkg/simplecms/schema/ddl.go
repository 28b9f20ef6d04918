package schema

import (
	"fmt"
	"strings"
)

var columnTypes = map[FieldType]string{
	TypeIncrements: "SERIAL PRIMARY KEY",
	TypeString:     "VARCHAR(255)",
	TypeTimestamp:  "TIMESTAMPTZ NOT NULL DEFAULT now()",
	TypeDateTime:   "TIMESTAMPTZ",
	TypeBoolean:    "BOOLEAN NOT NULL DEFAULT false",
	TypeInteger:    "INTEGER",
	TypeJSONB:      "JSONB",
}

// QuoteIdent quotes a Postgres identifier. Table and column names contain hyphens.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnList returns the quoted, comma separated column names of fields.
func ColumnList(fields []Field) string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = QuoteIdent(f.Name)
	}
	return strings.Join(cols, ", ")
}

// CreateTableSQL returns the CREATE TABLE statement for t.
func CreateTableSQL(t Table) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		colType, ok := columnTypes[f.Type]
		if !ok {
			return "", fmt.Errorf("table %s: unsupported field type %q for %s", t.Name, f.Type, f.Name)
		}
		line := fmt.Sprintf("\t%s %s", QuoteIdent(f.Name), colType)
		if fk := f.Foreign; fk != nil {
			line += fmt.Sprintf(" REFERENCES %s (%s)", QuoteIdent(fk.Table()), QuoteIdent(fk.Column()))
			if fk.OnDelete != "" {
				line += " ON DELETE " + string(fk.OnDelete)
			}
			if fk.OnUpdate != "" {
				line += " ON UPDATE " + string(fk.OnUpdate)
			}
		}
		lines = append(lines, line)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", QuoteIdent(t.Name), strings.Join(lines, ",\n")), nil
}

// IndexSQL returns CREATE INDEX statements for indexed, non primary key fields of t.
func IndexSQL(t Table) []string {
	var stmts []string
	for _, f := range t.Fields {
		if !f.Index || f.Type == TypeIncrements {
			continue
		}
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			QuoteIdent(t.Name+"_"+f.Name+"_idx"), QuoteIdent(t.Name), QuoteIdent(f.Name)))
	}
	return stmts
}

// MigrationSQL returns the statements creating every given table and its indexes, in order.
func MigrationSQL(tables ...Table) ([]string, error) {
	var stmts []string
	for _, t := range tables {
		create, err := CreateTableSQL(t)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, create)
		stmts = append(stmts, IndexSQL(t)...)
	}
	return stmts, nil
}
