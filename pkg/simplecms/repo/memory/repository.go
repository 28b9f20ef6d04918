package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
)

type scheduleKey struct {
	id       uuid.UUID
	revision int
}

// Repository implements simplecms.Repository using in-memory storage
type Repository struct {
	mu            sync.RWMutex
	revisions     map[string]map[int]*simplecms.Revision // type -> revision -> row
	nextRevision  map[string]int
	live          map[uuid.UUID]*simplecms.APIRecord
	schedule      map[scheduleKey]*simplecms.APIRecord
	users         map[int]*simplecms.User
	nextUser      int
	applications  map[int]*simplecms.Application
	nextApp       int
	typeSnapshots []*simplecms.TypesSnapshot
}

// New creates a new in-memory repository
func New() simplecms.Repository {
	return &Repository{
		revisions:    make(map[string]map[int]*simplecms.Revision),
		nextRevision: make(map[string]int),
		live:         make(map[uuid.UUID]*simplecms.APIRecord),
		schedule:     make(map[scheduleKey]*simplecms.APIRecord),
		users:        make(map[int]*simplecms.User),
		applications: make(map[int]*simplecms.Application),
	}
}

// Revision operations

func (r *Repository) CreateRevision(ctx context.Context, typeID string, rev *simplecms.Revision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.revisions[typeID] == nil {
		r.revisions[typeID] = make(map[int]*simplecms.Revision)
	}
	r.nextRevision[typeID]++
	rev.Revision = r.nextRevision[typeID]
	rev.Type = typeID
	if rev.Created.IsZero() {
		rev.Created = time.Now().UTC()
	}

	// Store a copy to avoid external modifications
	r.revisions[typeID][rev.Revision] = copyRevision(rev)
	return nil
}

func (r *Repository) GetRevision(ctx context.Context, typeID string, revision int) (*simplecms.Revision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rev, ok := r.revisions[typeID][revision]
	if !ok {
		return nil, fmt.Errorf("%w: %s revision %d", simplecms.ErrRevisionNotFound, typeID, revision)
	}
	return copyRevision(rev), nil
}

func (r *Repository) GetLatest(ctx context.Context, typeID string, id uuid.UUID) (*simplecms.Revision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *simplecms.Revision
	for _, rev := range r.revisions[typeID] {
		if rev.ID == id && (latest == nil || rev.Revision > latest.Revision) {
			latest = rev
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: %s", simplecms.ErrContentNotFound, id)
	}
	return copyRevision(latest), nil
}

func (r *Repository) ListRevisions(ctx context.Context, typeID string, id uuid.UUID) ([]*simplecms.Revision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simplecms.Revision
	for _, rev := range r.revisions[typeID] {
		if rev.ID == id {
			result = append(result, copyRevision(rev))
		}
	}
	sortRevisions(result)
	return result, nil
}

func (r *Repository) ListLatest(ctx context.Context, typeID string) ([]*simplecms.Revision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[uuid.UUID]*simplecms.Revision)
	for _, rev := range r.revisions[typeID] {
		if cur, ok := latest[rev.ID]; !ok || rev.Revision > cur.Revision {
			latest[rev.ID] = rev
		}
	}

	result := make([]*simplecms.Revision, 0, len(latest))
	for _, rev := range latest {
		result = append(result, copyRevision(rev))
	}
	sortRevisions(result)
	return result, nil
}

func (r *Repository) UpdateApproval(ctx context.Context, typeID string, rev *simplecms.Revision, expected int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.revisions[typeID][rev.Revision]
	if !ok {
		return fmt.Errorf("%w: %s revision %d", simplecms.ErrRevisionNotFound, typeID, rev.Revision)
	}
	if stored.Publishable || stored.Approval != expected {
		return fmt.Errorf("%w: %s revision %d has %d approvals left", simplecms.ErrConflict, typeID, rev.Revision, stored.Approval)
	}
	stored.Approval = rev.Approval
	stored.Publishable = rev.Publishable
	stored.Audit = append([]simplecms.AuditEntry(nil), rev.Audit...)
	return nil
}

// Live operations

func (r *Repository) UpsertLive(ctx context.Context, rec *simplecms.APIRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.live[rec.ID] = copyRecord(rec)
	return nil
}

func (r *Repository) GetLive(ctx context.Context, typeID string, id uuid.UUID) (*simplecms.APIRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.live[id]
	if !ok || rec.Type != typeID {
		return nil, fmt.Errorf("%w: %s", simplecms.ErrContentNotFound, id)
	}
	return copyRecord(rec), nil
}

func (r *Repository) GetLiveByKey(ctx context.Context, typeID, keySlug string) (*simplecms.APIRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *simplecms.APIRecord
	for _, rec := range r.live {
		if rec.Type == typeID && rec.KeySlug == keySlug && (found == nil || rec.Revision > found.Revision) {
			found = rec
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", simplecms.ErrContentNotFound, keySlug)
	}
	return copyRecord(found), nil
}

func (r *Repository) ListLive(ctx context.Context, typeID string) ([]*simplecms.APIRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simplecms.APIRecord
	for _, rec := range r.live {
		if rec.Type == typeID {
			result = append(result, copyRecord(rec))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Key != result[j].Key {
			return strings.ToLower(result[i].Key) < strings.ToLower(result[j].Key)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (r *Repository) DeleteLive(ctx context.Context, typeID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.live[id]; ok && rec.Type == typeID {
		delete(r.live, id)
	}
	return nil
}

func (r *Repository) ListExpiredLive(ctx context.Context, now time.Time) ([]*simplecms.APIRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simplecms.APIRecord
	for _, rec := range r.live {
		if rec.Sunset != nil && !rec.Sunset.After(now) {
			result = append(result, copyRecord(rec))
		}
	}
	sortBySunset(result)
	return result, nil
}

// Schedule operations

func (r *Repository) UpsertSchedule(ctx context.Context, rec *simplecms.APIRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.schedule[scheduleKey{rec.ID, rec.Revision}] = copyRecord(rec)
	return nil
}

func (r *Repository) ListDueSchedule(ctx context.Context, now time.Time) ([]*simplecms.APIRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simplecms.APIRecord
	for _, rec := range r.schedule {
		if rec.Sunrise == nil || !rec.Sunrise.After(now) {
			result = append(result, copyRecord(rec))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		switch {
		case a.Sunrise == nil && b.Sunrise == nil:
			return a.Revision < b.Revision
		case a.Sunrise == nil:
			return true
		case b.Sunrise == nil:
			return false
		case !a.Sunrise.Equal(*b.Sunrise):
			return a.Sunrise.Before(*b.Sunrise)
		}
		return a.Revision < b.Revision
	})
	return result, nil
}

func (r *Repository) DeleteSchedule(ctx context.Context, typeID string, id uuid.UUID, revision int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scheduleKey{id, revision}
	if rec, ok := r.schedule[key]; ok && rec.Type == typeID {
		delete(r.schedule, key)
	}
	return nil
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *simplecms.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: email %s", simplecms.ErrDuplicate, user.Email)
		}
	}
	r.nextUser++
	user.ID = r.nextUser
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id int) (*simplecms.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", simplecms.ErrUserNotFound, id)
	}
	return copyUser(user), nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*simplecms.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", simplecms.ErrUserNotFound, email)
}

func (r *Repository) ListUsers(ctx context.Context) ([]*simplecms.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simplecms.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, copyUser(user))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *simplecms.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("%w: %d", simplecms.ErrUserNotFound, user.ID)
	}
	for _, u := range r.users {
		if u.ID != user.ID && u.Email == user.Email {
			return fmt.Errorf("%w: email %s", simplecms.ErrDuplicate, user.Email)
		}
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("%w: %d", simplecms.ErrUserNotFound, id)
	}
	delete(r.users, id)

	// authors are set to null on delete
	for _, revs := range r.revisions {
		for _, rev := range revs {
			if rev.Author != nil && *rev.Author == id {
				rev.Author = nil
			}
		}
	}
	return nil
}

// Application operations

func (r *Repository) CreateApplication(ctx context.Context, app *simplecms.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.applications {
		if a.ClientID == app.ClientID {
			return fmt.Errorf("%w: client id %s", simplecms.ErrDuplicate, app.ClientID)
		}
	}
	r.nextApp++
	app.ID = r.nextApp
	r.applications[app.ID] = copyApplication(app)
	return nil
}

func (r *Repository) GetApplication(ctx context.Context, id int) (*simplecms.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.applications[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", simplecms.ErrApplicationNotFound, id)
	}
	return copyApplication(app), nil
}

func (r *Repository) GetApplicationByClientID(ctx context.Context, clientID string) (*simplecms.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, app := range r.applications {
		if app.ClientID == clientID {
			return copyApplication(app), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", simplecms.ErrApplicationNotFound, clientID)
}

func (r *Repository) ListApplications(ctx context.Context) ([]*simplecms.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simplecms.Application, 0, len(r.applications))
	for _, app := range r.applications {
		result = append(result, copyApplication(app))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *Repository) UpdateApplication(ctx context.Context, app *simplecms.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.applications[app.ID]; !ok {
		return fmt.Errorf("%w: %d", simplecms.ErrApplicationNotFound, app.ID)
	}
	r.applications[app.ID] = copyApplication(app)
	return nil
}

func (r *Repository) UpdateApplicationResponse(ctx context.Context, id int, event simplecms.EventType, resp simplecms.NotificationResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.applications[id]
	if !ok {
		return fmt.Errorf("%w: %d", simplecms.ErrApplicationNotFound, id)
	}
	if app.Responses == nil {
		app.Responses = map[simplecms.EventType]simplecms.NotificationResponse{}
	}
	app.Responses[event] = resp
	return nil
}

// Content type snapshots

func (r *Repository) SaveTypes(ctx context.Context, types []contenttype.ContentType) (*simplecms.TypesSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := &simplecms.TypesSnapshot{
		Version: len(r.typeSnapshots) + 1,
		Created: time.Now().UTC(),
		Value:   append([]contenttype.ContentType(nil), types...),
	}
	r.typeSnapshots = append(r.typeSnapshots, snapshot)

	out := *snapshot
	return &out, nil
}

func (r *Repository) LatestTypes(ctx context.Context) (*simplecms.TypesSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.typeSnapshots) == 0 {
		return nil, fmt.Errorf("%w: no content type snapshot", simplecms.ErrTypeNotFound)
	}
	out := *r.typeSnapshots[len(r.typeSnapshots)-1]
	out.Value = append([]contenttype.ContentType(nil), out.Value...)
	return &out, nil
}

// Helpers

func sortRevisions(revs []*simplecms.Revision) {
	sort.Slice(revs, func(i, j int) bool { return revs[i].Revision > revs[j].Revision })
}

func sortBySunset(recs []*simplecms.APIRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Sunset.Before(*recs[j].Sunset) })
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyRevision(rev *simplecms.Revision) *simplecms.Revision {
	c := *rev
	c.Sunrise = copyTime(rev.Sunrise)
	c.Sunset = copyTime(rev.Sunset)
	c.Value = rev.Value.Clone()
	c.Audit = append([]simplecms.AuditEntry(nil), rev.Audit...)
	if rev.Author != nil {
		author := *rev.Author
		c.Author = &author
	}
	return &c
}

func copyRecord(rec *simplecms.APIRecord) *simplecms.APIRecord {
	c := *rec
	c.Sunrise = copyTime(rec.Sunrise)
	c.Sunset = copyTime(rec.Sunset)
	c.Attributes = rec.Attributes.Clone()
	c.Audit = append([]simplecms.AuditEntry(nil), rec.Audit...)
	return &c
}

func copyUser(user *simplecms.User) *simplecms.User {
	c := *user
	c.Access = append([]string(nil), user.Access...)
	return &c
}

func copyApplication(app *simplecms.Application) *simplecms.Application {
	c := *app
	if app.Responses != nil {
		c.Responses = make(map[simplecms.EventType]simplecms.NotificationResponse, len(app.Responses))
		for k, v := range app.Responses {
			c.Responses[k] = v
		}
	}
	return &c
}
