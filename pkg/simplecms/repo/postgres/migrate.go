package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/schema"
)

var (
	_ simplecms.Repository   = (*Repository)(nil)
	_ simplecms.TypeMigrator = (*Repository)(nil)
)

// constraintSQL holds the unique keys the upserts and lookups rely on.
var constraintSQL = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS "live_id_key" ON "live" ("id")`,
	`CREATE INDEX IF NOT EXISTS "live_type_key-slug_idx" ON "live" ("type", "key-slug")`,
	`CREATE UNIQUE INDEX IF NOT EXISTS "schedule_id_revision_key" ON "schedule" ("id", "revision")`,
	`CREATE INDEX IF NOT EXISTS "schedule_sunrise_idx" ON "schedule" ("sunrise")`,
	`CREATE UNIQUE INDEX IF NOT EXISTS "users_email_key" ON "users" ("email")`,
	`CREATE UNIQUE INDEX IF NOT EXISTS "applications_client-id_key" ON "applications" ("client-id")`,
}

// Statements returns every statement Migrate runs for the given content types.
func Statements(typeIDs ...string) ([]string, error) {
	tables := schema.Tables()
	for _, id := range typeIDs {
		tables = append(tables, schema.ContentTable(id))
	}
	stmts, err := schema.MigrationSQL(tables...)
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, constraintSQL...)
	for _, id := range typeIDs {
		table := schema.ContentTable(id).Name
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			schema.QuoteIdent(table+"_id_idx"), schema.QuoteIdent(table), schema.QuoteIdent("id")))
	}
	return stmts, nil
}

// Migrate creates the registry tables and one revision table per content
// type. Every statement is idempotent.
func Migrate(ctx context.Context, db DBTX, typeIDs ...string) error {
	stmts, err := Statements(typeIDs...)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, stmt)
		}
	}
	slog.Info("Database migrated", "statements", len(stmts), "content_types", len(typeIDs))
	return nil
}
