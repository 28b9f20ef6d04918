package schema

// contentFields is the revision table of an individual content type.
var contentFields = []Field{
	{Name: "revision", Type: TypeIncrements, Index: true},
	{Name: "id", Type: TypeString},
	{Name: "created", Type: TypeTimestamp},
	{Name: "language", Type: TypeString},
	{Name: "sunrise", Type: TypeDateTime},
	{Name: "sunrise-timezone", Type: TypeString},
	{Name: "sunset", Type: TypeDateTime},
	{Name: "sunset-timezone", Type: TypeString},
	{Name: "approval", Type: TypeInteger},
	{Name: "publishable", Type: TypeBoolean},
	{Name: "value", Type: TypeJSONB},
	{
		Name: "author",
		Type: TypeInteger,
		Foreign: &ForeignKey{
			Reference: "users.id",
			OnDelete:  ActionSetNull,
			OnUpdate:  ActionCascade,
		},
	},
	{Name: "audit", Type: TypeJSONB},
}

// allTypesFields stores versioned snapshots of every content type definition.
var allTypesFields = []Field{
	{Name: "version", Type: TypeIncrements, Index: true},
	{Name: "created", Type: TypeTimestamp},
	{Name: "value", Type: TypeJSONB},
}

var usersFields = []Field{
	{Name: "id", Type: TypeIncrements, Index: true},
	{Name: "email", Type: TypeString},
	{Name: "password", Type: TypeString},
	{Name: "role", Type: TypeString},
	{Name: "access", Type: TypeJSONB},
	{Name: "created", Type: TypeTimestamp},
	{Name: "updated", Type: TypeTimestamp},
}

var applicationsFields = []Field{
	{Name: "id", Type: TypeIncrements, Index: true},
	{Name: "name", Type: TypeString},
	{Name: "live-endpoint", Type: TypeString},
	{Name: "updated-endpoint", Type: TypeString},
	{Name: "sunset-endpoint", Type: TypeString},
	{Name: "client-id", Type: TypeString},
	{Name: "client-secret", Type: TypeString},
	{Name: "responses", Type: TypeJSONB},
	{Name: "created", Type: TypeTimestamp},
	{Name: "updated", Type: TypeTimestamp},
}

// apiIgnores are the administrative content fields that never reach the public API tables.
var apiIgnores = map[string]bool{
	"created":          true,
	"author":           true,
	"revision":         true,
	"approval":         true,
	"publishable":      true,
	"sunrise-timezone": true,
	"sunset-timezone":  true,
}

var apiAppended = []Field{
	{Name: "revision", Type: TypeInteger},
	{Name: "type", Type: TypeString},
	{Name: "type-slug", Type: TypeString},
	{Name: "key", Type: TypeString},
	{Name: "key-slug", Type: TypeString},
}

// ContentFields returns the field list of a content revision table.
func ContentFields() []Field {
	return cloneFields(contentFields)
}

// APIFields derives the field list shared by the live and schedule tables
// from the content fields. The content definition is never modified.
func APIFields() []Field {
	fields := make([]Field, 0, len(contentFields)+len(apiAppended))
	for _, f := range cloneFields(contentFields) {
		if apiIgnores[f.Name] {
			continue
		}
		f.Index = false
		if f.Name == "value" {
			f.Name = "attributes"
		}
		fields = append(fields, f)
	}
	return append(fields, cloneFields(apiAppended)...)
}

// Tables returns the registry in creation order. Every call returns
// independently owned values.
func Tables() []Table {
	api := APIFields()
	return []Table{
		{Name: TableUsers, Fields: cloneFields(usersFields)},
		{Name: TableContent, Fields: ContentFields()},
		{Name: TableAllTypes, Fields: cloneFields(allTypesFields)},
		{Name: TableLive, Fields: api},
		{Name: TableSchedule, Fields: cloneFields(api)},
		{Name: TableApplications, Fields: cloneFields(applicationsFields)},
	}
}

// Lookup returns the registered table with the given name.
func Lookup(name string) (Table, bool) {
	for _, t := range Tables() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// ContentTable returns the revision table for a single content type.
func ContentTable(typeID string) Table {
	return Table{Name: ContentTablePrefix + typeID, Fields: ContentFields()}
}
