package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTables_Order(t *testing.T) {
	var names []string
	for _, table := range Tables() {
		names = append(names, table.Name)
		assert.NoError(t, table.Validate(), table.Name)
	}
	assert.Equal(t, []string{"users", "content", "all-types", "live", "schedule", "applications"}, names)
}

func TestAPIFields_Derivation(t *testing.T) {
	names := Table{Fields: APIFields()}.FieldNames()

	for _, dropped := range []string{"created", "author", "approval", "publishable", "sunrise-timezone", "sunset-timezone", "value"} {
		assert.NotContains(t, names, dropped)
	}
	assert.Contains(t, names, "attributes")

	// revision only appears once, as the appended integer
	count := 0
	for _, n := range names {
		if n == "revision" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	require.GreaterOrEqual(t, len(names), 5)
	assert.Equal(t, []string{"revision", "type", "type-slug", "key", "key-slug"}, names[len(names)-5:])
	assert.Equal(t, []string{"id", "language", "sunrise", "sunset", "attributes", "audit"}, names[:len(names)-5])

	for _, f := range APIFields() {
		assert.False(t, f.Index, f.Name)
	}
	rev, _ := Table{Fields: APIFields()}.Field("revision")
	assert.Equal(t, TypeInteger, rev.Type)
}

func TestAPIFields_DoesNotMutateContent(t *testing.T) {
	_ = APIFields()
	content := Table{Fields: ContentFields()}
	assert.Contains(t, content.FieldNames(), "value")
	assert.NotContains(t, content.FieldNames(), "attributes")

	rev, ok := content.Field("revision")
	require.True(t, ok)
	assert.True(t, rev.Index)
	assert.Equal(t, TypeIncrements, rev.Type)
}

func TestTables_IndependentCopies(t *testing.T) {
	first := Tables()
	first[1].Fields[0].Name = "changed"
	first[3].Fields[0].Name = "changed"

	second := Tables()
	assert.Equal(t, "revision", second[1].Fields[0].Name)
	assert.Equal(t, "id", second[3].Fields[0].Name)
	assert.Equal(t, second[3].Fields, second[4].Fields)
}

func TestLookup(t *testing.T) {
	live, ok := Lookup("live")
	require.True(t, ok)
	schedule, ok := Lookup("schedule")
	require.True(t, ok)
	assert.Equal(t, live.Fields, schedule.Fields)

	_, ok = Lookup("missing")
	assert.False(t, ok)
}

func TestContentTable(t *testing.T) {
	table := ContentTable("articles")
	assert.Equal(t, "content-type--articles", table.Name)
	author, ok := table.Field("author")
	require.True(t, ok)
	require.NotNil(t, author.Foreign)
	assert.Equal(t, "users", author.Foreign.Table())
	assert.Equal(t, "id", author.Foreign.Column())
	assert.Equal(t, ActionSetNull, author.Foreign.OnDelete)
}

func TestTable_Validate(t *testing.T) {
	dup := Table{Name: "t", Fields: []Field{{Name: "a", Type: TypeString}, {Name: "a", Type: TypeString}}}
	assert.Error(t, dup.Validate())

	bad := Table{Name: "t", Fields: []Field{{Name: "a", Type: TypeInteger, Foreign: &ForeignKey{Reference: "users"}}}}
	assert.Error(t, bad.Validate())

	assert.Error(t, Table{}.Validate())
}

func TestCreateTableSQL(t *testing.T) {
	stmt, err := CreateTableSQL(ContentTable("articles"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stmt, `CREATE TABLE IF NOT EXISTS "content-type--articles" (`))
	assert.Contains(t, stmt, `"revision" SERIAL PRIMARY KEY`)
	assert.Contains(t, stmt, `"sunrise-timezone" VARCHAR(255)`)
	assert.Contains(t, stmt, `"value" JSONB`)
	assert.Contains(t, stmt, `"author" INTEGER REFERENCES "users" ("id") ON DELETE SET NULL ON UPDATE CASCADE`)
}

func TestCreateTableSQL_UnsupportedType(t *testing.T) {
	_, err := CreateTableSQL(Table{Name: "t", Fields: []Field{{Name: "a", Type: "float"}}})
	assert.Error(t, err)
}

func TestIndexSQL(t *testing.T) {
	table := Table{Name: "t", Fields: []Field{
		{Name: "id", Type: TypeIncrements, Index: true},
		{Name: "email", Type: TypeString, Index: true},
	}}
	assert.Equal(t, []string{`CREATE INDEX IF NOT EXISTS "t_email_idx" ON "t" ("email")`}, IndexSQL(table))
}

func TestMigrationSQL(t *testing.T) {
	stmts, err := MigrationSQL(Tables()...)
	require.NoError(t, err)
	require.Len(t, stmts, 6)
	assert.Contains(t, stmts[0], `"users"`)
	assert.Contains(t, stmts[5], `"client-secret" VARCHAR(255)`)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"key-slug"`, QuoteIdent("key-slug"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
}
