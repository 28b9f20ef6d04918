package simplecms

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms/content"
	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
)

// Service defines the main interface for the simple-cms library
type Service interface {
	// Content type operations
	Types() []contenttype.ContentType
	Type(id string) (contenttype.ContentType, error)
	// ReplaceTypes swaps the registered types and stores a snapshot of them
	ReplaceTypes(ctx context.Context, types []contenttype.ContentType) (*TypesSnapshot, error)
	LatestTypes(ctx context.Context) (*TypesSnapshot, error)

	// Content operations
	SaveContent(ctx context.Context, req SaveContentRequest) (*Revision, error)
	GetContent(ctx context.Context, typeID string, id uuid.UUID) (*Revision, error)
	GetRevision(ctx context.Context, typeID string, id uuid.UUID, revision int) (*Revision, error)
	ListRevisions(ctx context.Context, typeID string, id uuid.UUID) ([]*Revision, error)
	ListContent(ctx context.Context, typeID string) ([]*Revision, error)

	// Workflow operations
	Approve(ctx context.Context, req ApproveRequest) (*Revision, error)
	RunSchedule(ctx context.Context) (*ScheduleResult, error)

	// File operations
	UploadFile(ctx context.Context, req UploadFileRequest) (*content.FileValue, error)
	DownloadFile(ctx context.Context, relative string) (io.ReadCloser, *ObjectMeta, error)
	PublicRoot() string

	// Delivery operations, reading the live table only
	Live(ctx context.Context, typeID string, id uuid.UUID) (*APIRecord, error)
	LiveByKey(ctx context.Context, typeID, keySlug string) (*APIRecord, error)
	ListLive(ctx context.Context, typeID string) ([]*APIRecord, error)

	// User operations
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, id int) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// Application operations
	CreateApplication(ctx context.Context, req CreateApplicationRequest) (*Application, *Credentials, error)
	GetApplication(ctx context.Context, id int) (*Application, error)
	ListApplications(ctx context.Context) ([]*Application, error)
	ResetSecret(ctx context.Context, id int) (*Credentials, error)
	AuthenticateClient(ctx context.Context, clientID, secret string) (*Application, error)
}
