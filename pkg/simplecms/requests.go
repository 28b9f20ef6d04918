package simplecms

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms/content"
)

// Request DTOs

// SaveContentRequest contains parameters for saving a new revision.
// A zero ID creates a new content item.
type SaveContentRequest struct {
	TypeID          string         `json:"-"`
	ID              uuid.UUID      `json:"id"`
	Language        string         `json:"language"`
	Sunrise         *time.Time     `json:"sunrise,omitempty"`
	SunriseTimezone string         `json:"sunrise-timezone,omitempty"`
	Sunset          *time.Time     `json:"sunset,omitempty"`
	SunsetTimezone  string         `json:"sunset-timezone,omitempty"`
	Value           content.Values `json:"value"`
	Author          *int           `json:"-"`
}

// ApproveRequest contains parameters for approving a revision
type ApproveRequest struct {
	TypeID   string
	ID       uuid.UUID
	Revision int
	Author   *int
}

// UploadFileRequest contains parameters for uploading a file for a file input
type UploadFileRequest struct {
	TypeID   string
	FileName string
	MimeType string
	Reader   io.Reader
}

// CreateUserRequest contains parameters for creating a user
type CreateUserRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     Role     `json:"role"`
	Access   []string `json:"access,omitempty"`
}

// CreateApplicationRequest contains parameters for registering an application
type CreateApplicationRequest struct {
	Name            string `json:"name"`
	LiveEndpoint    string `json:"live-endpoint,omitempty"`
	UpdatedEndpoint string `json:"updated-endpoint,omitempty"`
	SunsetEndpoint  string `json:"sunset-endpoint,omitempty"`
}
