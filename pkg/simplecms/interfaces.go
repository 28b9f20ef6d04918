package simplecms

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
)

// BlobStore defines the interface for storage backends
type BlobStore interface {
	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// RevisionStore persists content revisions in per-type tables.
type RevisionStore interface {
	// CreateRevision stores rev and assigns its revision number and created time
	CreateRevision(ctx context.Context, typeID string, rev *Revision) error
	GetRevision(ctx context.Context, typeID string, revision int) (*Revision, error)
	// GetLatest returns the newest revision of a content item
	GetLatest(ctx context.Context, typeID string, id uuid.UUID) (*Revision, error)
	// ListRevisions returns every revision of a content item, newest first
	ListRevisions(ctx context.Context, typeID string, id uuid.UUID) ([]*Revision, error)
	// ListLatest returns the newest revision of every item of a type, newest first
	ListLatest(ctx context.Context, typeID string) ([]*Revision, error)
	// UpdateApproval stores the approval state of rev if the stored revision
	// is not yet publishable and still has expected approvals left, and
	// returns ErrConflict otherwise
	UpdateApproval(ctx context.Context, typeID string, rev *Revision, expected int) error
}

// PublishStore persists the live and schedule tables.
type PublishStore interface {
	// UpsertLive replaces the live record of rec.ID
	UpsertLive(ctx context.Context, rec *APIRecord) error
	GetLive(ctx context.Context, typeID string, id uuid.UUID) (*APIRecord, error)
	GetLiveByKey(ctx context.Context, typeID, keySlug string) (*APIRecord, error)
	ListLive(ctx context.Context, typeID string) ([]*APIRecord, error)
	DeleteLive(ctx context.Context, typeID string, id uuid.UUID) error
	// ListExpiredLive returns live records whose sunset is not after now
	ListExpiredLive(ctx context.Context, now time.Time) ([]*APIRecord, error)

	// UpsertSchedule stores rec keyed by id and revision
	UpsertSchedule(ctx context.Context, rec *APIRecord) error
	// ListDueSchedule returns scheduled records whose sunrise is not after now, oldest sunrise first
	ListDueSchedule(ctx context.Context, now time.Time) ([]*APIRecord, error)
	DeleteSchedule(ctx context.Context, typeID string, id uuid.UUID, revision int) error
}

// UserStore persists admin users.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id int) error
}

// ApplicationStore persists delivery API applications.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app *Application) error
	GetApplication(ctx context.Context, id int) (*Application, error)
	GetApplicationByClientID(ctx context.Context, clientID string) (*Application, error)
	ListApplications(ctx context.Context) ([]*Application, error)
	UpdateApplication(ctx context.Context, app *Application) error
	// UpdateApplicationResponse records the last delivery result for one
	// event without touching the rest of the application
	UpdateApplicationResponse(ctx context.Context, id int, event EventType, resp NotificationResponse) error
}

// TypesStore keeps versioned snapshots of the content type definitions.
type TypesStore interface {
	SaveTypes(ctx context.Context, types []contenttype.ContentType) (*TypesSnapshot, error)
	LatestTypes(ctx context.Context) (*TypesSnapshot, error)
}

// Repository defines the interface for content persistence
type Repository interface {
	RevisionStore
	PublishStore
	UserStore
	ApplicationStore
	TypesStore
}

// Notifier delivers publication events to the registered applications.
type Notifier interface {
	Notify(ctx context.Context, event EventType, rec *APIRecord) error
}
