package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
	"github.com/tendant/simple-cms/pkg/simplecms/schema"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simplecms.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// EnsureTypes creates the revision tables of the given content types.
func (r *Repository) EnsureTypes(ctx context.Context, typeIDs ...string) error {
	return Migrate(ctx, r.db, typeIDs...)
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", simplecms.ErrDuplicate, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: referenced record not found", simplecms.ErrInvalidRequest)
		case "23502": // not_null_violation
			return fmt.Errorf("%w: required field %s is missing", simplecms.ErrInvalidRequest, pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("%s: table does not exist - database migration required: %w", operation, err)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func revisionTable(typeID string) string {
	return schema.QuoteIdent(schema.ContentTable(typeID).Name)
}

const revisionColumns = `"revision", "id", "created", COALESCE("language", ''), "sunrise",
	COALESCE("sunrise-timezone", ''), "sunset", COALESCE("sunset-timezone", ''),
	COALESCE("approval", 0), "publishable", "value", "author", "audit"`

func scanRevision(row pgx.Row, typeID string) (*simplecms.Revision, error) {
	var (
		rev   simplecms.Revision
		id    string
		value []byte
		audit []byte
	)
	err := row.Scan(&rev.Revision, &id, &rev.Created, &rev.Language, &rev.Sunrise,
		&rev.SunriseTimezone, &rev.Sunset, &rev.SunsetTimezone,
		&rev.Approval, &rev.Publishable, &value, &rev.Author, &audit)
	if err != nil {
		return nil, err
	}
	if rev.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid content id %q: %w", id, err)
	}
	if err := unmarshalJSON(value, &rev.Value); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(audit, &rev.Audit); err != nil {
		return nil, err
	}
	rev.Type = typeID
	return &rev, nil
}

func (r *Repository) queryRevisions(ctx context.Context, op, typeID, query string, args ...interface{}) ([]*simplecms.Revision, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError(op, err)
	}
	defer rows.Close()

	var result []*simplecms.Revision
	for rows.Next() {
		rev, err := scanRevision(rows, typeID)
		if err != nil {
			return nil, err
		}
		result = append(result, rev)
	}
	return result, rows.Err()
}

// Revision operations

func (r *Repository) CreateRevision(ctx context.Context, typeID string, rev *simplecms.Revision) error {
	value, err := json.Marshal(rev.Value)
	if err != nil {
		return err
	}
	audit, err := json.Marshal(rev.Audit)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			"id", "language", "sunrise", "sunrise-timezone", "sunset", "sunset-timezone",
			"approval", "publishable", "value", "author", "audit"
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING "revision", "created"`, revisionTable(typeID))

	err = r.db.QueryRow(ctx, query,
		rev.ID.String(), rev.Language, rev.Sunrise, rev.SunriseTimezone, rev.Sunset, rev.SunsetTimezone,
		rev.Approval, rev.Publishable, value, rev.Author, audit,
	).Scan(&rev.Revision, &rev.Created)
	if err != nil {
		return r.handlePostgresError("create revision", err)
	}
	rev.Type = typeID
	return nil
}

func (r *Repository) GetRevision(ctx context.Context, typeID string, revision int) (*simplecms.Revision, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE "revision" = $1`, revisionColumns, revisionTable(typeID))

	rev, err := scanRevision(r.db.QueryRow(ctx, query, revision), typeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s revision %d", simplecms.ErrRevisionNotFound, typeID, revision)
		}
		return nil, r.handlePostgresError("get revision", err)
	}
	return rev, nil
}

func (r *Repository) GetLatest(ctx context.Context, typeID string, id uuid.UUID) (*simplecms.Revision, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE "id" = $1 ORDER BY "revision" DESC LIMIT 1`,
		revisionColumns, revisionTable(typeID))

	rev, err := scanRevision(r.db.QueryRow(ctx, query, id.String()), typeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", simplecms.ErrContentNotFound, id)
		}
		return nil, r.handlePostgresError("get latest revision", err)
	}
	return rev, nil
}

func (r *Repository) ListRevisions(ctx context.Context, typeID string, id uuid.UUID) ([]*simplecms.Revision, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE "id" = $1 ORDER BY "revision" DESC`,
		revisionColumns, revisionTable(typeID))
	return r.queryRevisions(ctx, "list revisions", typeID, query, id.String())
}

func (r *Repository) ListLatest(ctx context.Context, typeID string) ([]*simplecms.Revision, error) {
	table := revisionTable(typeID)
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE "revision" IN (SELECT MAX("revision") FROM %s GROUP BY "id")
		ORDER BY "revision" DESC`, revisionColumns, table, table)
	return r.queryRevisions(ctx, "list latest revisions", typeID, query)
}

func (r *Repository) UpdateApproval(ctx context.Context, typeID string, rev *simplecms.Revision, expected int) error {
	audit, err := json.Marshal(rev.Audit)
	if err != nil {
		return err
	}
	table := revisionTable(typeID)
	query := fmt.Sprintf(`UPDATE %s SET "approval" = $2, "publishable" = $3, "audit" = $4
		WHERE "revision" = $1 AND "approval" = $5 AND NOT "publishable"`, table)

	tag, err := r.db.Exec(ctx, query, rev.Revision, rev.Approval, rev.Publishable, audit, expected)
	if err != nil {
		return r.handlePostgresError("update approval", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE "revision" = $1)`, table), rev.Revision).
		Scan(&exists)
	if err != nil {
		return r.handlePostgresError("update approval", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s revision %d", simplecms.ErrRevisionNotFound, typeID, rev.Revision)
	}
	return fmt.Errorf("%w: %s revision %d", simplecms.ErrConflict, typeID, rev.Revision)
}

// Live and schedule operations

const recordColumns = `"id", COALESCE("language", ''), "sunrise", "sunset", "attributes", "audit",
	COALESCE("revision", 0), "type", COALESCE("type-slug", ''), COALESCE("key", ''), COALESCE("key-slug", '')`

func scanRecord(row pgx.Row) (*simplecms.APIRecord, error) {
	var (
		rec        simplecms.APIRecord
		id         string
		attributes []byte
		audit      []byte
	)
	err := row.Scan(&id, &rec.Language, &rec.Sunrise, &rec.Sunset, &attributes, &audit,
		&rec.Revision, &rec.Type, &rec.TypeSlug, &rec.Key, &rec.KeySlug)
	if err != nil {
		return nil, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid content id %q: %w", id, err)
	}
	if err := unmarshalJSON(attributes, &rec.Attributes); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(audit, &rec.Audit); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) queryRecords(ctx context.Context, op, query string, args ...interface{}) ([]*simplecms.APIRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError(op, err)
	}
	defer rows.Close()

	var result []*simplecms.APIRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *Repository) upsertRecord(ctx context.Context, table, conflict string, rec *simplecms.APIRecord) error {
	attributes, err := json.Marshal(rec.Attributes)
	if err != nil {
		return err
	}
	audit, err := json.Marshal(rec.Audit)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			"id", "language", "sunrise", "sunset", "attributes", "audit",
			"revision", "type", "type-slug", "key", "key-slug"
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (%s) DO UPDATE SET
			"language" = EXCLUDED."language", "sunrise" = EXCLUDED."sunrise",
			"sunset" = EXCLUDED."sunset", "attributes" = EXCLUDED."attributes",
			"audit" = EXCLUDED."audit", "revision" = EXCLUDED."revision",
			"type" = EXCLUDED."type", "type-slug" = EXCLUDED."type-slug",
			"key" = EXCLUDED."key", "key-slug" = EXCLUDED."key-slug"`,
		schema.QuoteIdent(table), conflict)

	_, err = r.db.Exec(ctx, query,
		rec.ID.String(), rec.Language, rec.Sunrise, rec.Sunset, attributes, audit,
		rec.Revision, rec.Type, rec.TypeSlug, rec.Key, rec.KeySlug)
	if err != nil {
		return r.handlePostgresError("upsert "+table, err)
	}
	return nil
}

func (r *Repository) UpsertLive(ctx context.Context, rec *simplecms.APIRecord) error {
	return r.upsertRecord(ctx, schema.TableLive, `"id"`, rec)
}

func (r *Repository) GetLive(ctx context.Context, typeID string, id uuid.UUID) (*simplecms.APIRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM "live" WHERE "type" = $1 AND "id" = $2`, recordColumns)

	rec, err := scanRecord(r.db.QueryRow(ctx, query, typeID, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", simplecms.ErrContentNotFound, id)
		}
		return nil, r.handlePostgresError("get live", err)
	}
	return rec, nil
}

func (r *Repository) GetLiveByKey(ctx context.Context, typeID, keySlug string) (*simplecms.APIRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM "live" WHERE "type" = $1 AND "key-slug" = $2
		ORDER BY "revision" DESC LIMIT 1`, recordColumns)

	rec, err := scanRecord(r.db.QueryRow(ctx, query, typeID, keySlug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", simplecms.ErrContentNotFound, keySlug)
		}
		return nil, r.handlePostgresError("get live by key", err)
	}
	return rec, nil
}

func (r *Repository) ListLive(ctx context.Context, typeID string) ([]*simplecms.APIRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM "live" WHERE "type" = $1 ORDER BY lower("key"), "id"`, recordColumns)
	return r.queryRecords(ctx, "list live", query, typeID)
}

func (r *Repository) DeleteLive(ctx context.Context, typeID string, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM "live" WHERE "type" = $1 AND "id" = $2`, typeID, id.String())
	if err != nil {
		return r.handlePostgresError("delete live", err)
	}
	return nil
}

func (r *Repository) ListExpiredLive(ctx context.Context, now time.Time) ([]*simplecms.APIRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM "live" WHERE "sunset" IS NOT NULL AND "sunset" <= $1
		ORDER BY "sunset"`, recordColumns)
	return r.queryRecords(ctx, "list expired live", query, now)
}

func (r *Repository) UpsertSchedule(ctx context.Context, rec *simplecms.APIRecord) error {
	return r.upsertRecord(ctx, schema.TableSchedule, `"id", "revision"`, rec)
}

func (r *Repository) ListDueSchedule(ctx context.Context, now time.Time) ([]*simplecms.APIRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM "schedule" WHERE "sunrise" IS NULL OR "sunrise" <= $1
		ORDER BY "sunrise" NULLS FIRST, "revision"`, recordColumns)
	return r.queryRecords(ctx, "list due schedule", query, now)
}

func (r *Repository) DeleteSchedule(ctx context.Context, typeID string, id uuid.UUID, revision int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM "schedule" WHERE "type" = $1 AND "id" = $2 AND "revision" = $3`,
		typeID, id.String(), revision)
	if err != nil {
		return r.handlePostgresError("delete schedule", err)
	}
	return nil
}

// User operations

const userColumns = `"id", "email", COALESCE("password", ''), COALESCE("role", ''), "access", "created", "updated"`

func scanUser(row pgx.Row) (*simplecms.User, error) {
	var (
		user   simplecms.User
		role   string
		access []byte
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &role, &access, &user.Created, &user.Updated); err != nil {
		return nil, err
	}
	user.Role = simplecms.Role(role)
	if err := unmarshalJSON(access, &user.Access); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *simplecms.User) error {
	access, err := json.Marshal(user.Access)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO "users" ("email", "password", "role", "access", "created", "updated")
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING "id"`

	err = r.db.QueryRow(ctx, query,
		user.Email, user.Password, string(user.Role), access, user.Created, user.Updated,
	).Scan(&user.ID)
	if err != nil {
		return r.handlePostgresError("create user", err)
	}
	return nil
}

func (r *Repository) getUser(ctx context.Context, where string, arg interface{}) (*simplecms.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM "users" WHERE %s = $1`, userColumns, where)

	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %v", simplecms.ErrUserNotFound, arg)
		}
		return nil, r.handlePostgresError("get user", err)
	}
	return user, nil
}

func (r *Repository) GetUser(ctx context.Context, id int) (*simplecms.User, error) {
	return r.getUser(ctx, `"id"`, id)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*simplecms.User, error) {
	return r.getUser(ctx, `"email"`, email)
}

func (r *Repository) ListUsers(ctx context.Context) ([]*simplecms.User, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM "users" ORDER BY "id"`, userColumns))
	if err != nil {
		return nil, r.handlePostgresError("list users", err)
	}
	defer rows.Close()

	var result []*simplecms.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *Repository) UpdateUser(ctx context.Context, user *simplecms.User) error {
	access, err := json.Marshal(user.Access)
	if err != nil {
		return err
	}
	query := `
		UPDATE "users" SET "email" = $2, "password" = $3, "role" = $4, "access" = $5, "updated" = $6
		WHERE "id" = $1`

	tag, err := r.db.Exec(ctx, query, user.ID, user.Email, user.Password, string(user.Role), access, user.Updated)
	if err != nil {
		return r.handlePostgresError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", simplecms.ErrUserNotFound, user.ID)
	}
	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM "users" WHERE "id" = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", simplecms.ErrUserNotFound, id)
	}
	return nil
}

// Application operations

const applicationColumns = `"id", "name", COALESCE("live-endpoint", ''), COALESCE("updated-endpoint", ''),
	COALESCE("sunset-endpoint", ''), "client-id", COALESCE("client-secret", ''), "responses", "created", "updated"`

func scanApplication(row pgx.Row) (*simplecms.Application, error) {
	var (
		app       simplecms.Application
		responses []byte
	)
	err := row.Scan(&app.ID, &app.Name, &app.LiveEndpoint, &app.UpdatedEndpoint, &app.SunsetEndpoint,
		&app.ClientID, &app.ClientSecret, &responses, &app.Created, &app.Updated)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(responses, &app.Responses); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *Repository) CreateApplication(ctx context.Context, app *simplecms.Application) error {
	responses, err := json.Marshal(app.Responses)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO "applications" (
			"name", "live-endpoint", "updated-endpoint", "sunset-endpoint",
			"client-id", "client-secret", "responses", "created", "updated"
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING "id"`

	err = r.db.QueryRow(ctx, query,
		app.Name, app.LiveEndpoint, app.UpdatedEndpoint, app.SunsetEndpoint,
		app.ClientID, app.ClientSecret, responses, app.Created, app.Updated,
	).Scan(&app.ID)
	if err != nil {
		return r.handlePostgresError("create application", err)
	}
	return nil
}

func (r *Repository) getApplication(ctx context.Context, where string, arg interface{}) (*simplecms.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM "applications" WHERE %s = $1`, applicationColumns, where)

	app, err := scanApplication(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %v", simplecms.ErrApplicationNotFound, arg)
		}
		return nil, r.handlePostgresError("get application", err)
	}
	return app, nil
}

func (r *Repository) GetApplication(ctx context.Context, id int) (*simplecms.Application, error) {
	return r.getApplication(ctx, `"id"`, id)
}

func (r *Repository) GetApplicationByClientID(ctx context.Context, clientID string) (*simplecms.Application, error) {
	return r.getApplication(ctx, `"client-id"`, clientID)
}

func (r *Repository) ListApplications(ctx context.Context) ([]*simplecms.Application, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM "applications" ORDER BY "id"`, applicationColumns))
	if err != nil {
		return nil, r.handlePostgresError("list applications", err)
	}
	defer rows.Close()

	var result []*simplecms.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	return result, rows.Err()
}

func (r *Repository) UpdateApplication(ctx context.Context, app *simplecms.Application) error {
	responses, err := json.Marshal(app.Responses)
	if err != nil {
		return err
	}
	query := `
		UPDATE "applications" SET
			"name" = $2, "live-endpoint" = $3, "updated-endpoint" = $4, "sunset-endpoint" = $5,
			"client-secret" = $6, "responses" = $7, "updated" = $8
		WHERE "id" = $1`

	tag, err := r.db.Exec(ctx, query,
		app.ID, app.Name, app.LiveEndpoint, app.UpdatedEndpoint, app.SunsetEndpoint,
		app.ClientSecret, responses, app.Updated)
	if err != nil {
		return r.handlePostgresError("update application", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", simplecms.ErrApplicationNotFound, app.ID)
	}
	return nil
}

func (r *Repository) UpdateApplicationResponse(ctx context.Context, id int, event simplecms.EventType, resp simplecms.NotificationResponse) error {
	value, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	query := `
		UPDATE "applications" SET
			"responses" = COALESCE("responses", '{}'::jsonb) || jsonb_build_object($2::text, $3::jsonb)
		WHERE "id" = $1`

	tag, err := r.db.Exec(ctx, query, id, string(event), value)
	if err != nil {
		return r.handlePostgresError("update application response", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", simplecms.ErrApplicationNotFound, id)
	}
	return nil
}

// Content type snapshots

func (r *Repository) SaveTypes(ctx context.Context, types []contenttype.ContentType) (*simplecms.TypesSnapshot, error) {
	value, err := json.Marshal(types)
	if err != nil {
		return nil, err
	}
	snapshot := &simplecms.TypesSnapshot{Value: types}
	err = r.db.QueryRow(ctx, `INSERT INTO "all-types" ("value") VALUES ($1) RETURNING "version", "created"`, value).
		Scan(&snapshot.Version, &snapshot.Created)
	if err != nil {
		return nil, r.handlePostgresError("save types", err)
	}
	return snapshot, nil
}

func (r *Repository) LatestTypes(ctx context.Context) (*simplecms.TypesSnapshot, error) {
	var (
		snapshot simplecms.TypesSnapshot
		value    []byte
	)
	err := r.db.QueryRow(ctx, `SELECT "version", "created", "value" FROM "all-types" ORDER BY "version" DESC LIMIT 1`).
		Scan(&snapshot.Version, &snapshot.Created, &value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no content type snapshot", simplecms.ErrTypeNotFound)
		}
		return nil, r.handlePostgresError("latest types", err)
	}
	if err := unmarshalJSON(value, &snapshot.Value); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func unmarshalJSON(data []byte, v interface{}) error {
	if len(data) == 0 || strings.TrimSpace(string(data)) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode column: %w", err)
	}
	return nil
}
