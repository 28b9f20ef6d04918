package simplecms

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
)

// Error types
var (
	// ErrContentNotFound indicates a content item was not found
	ErrContentNotFound = errors.New("content not found")

	// ErrRevisionNotFound indicates a revision was not found
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrTypeNotFound indicates a content type is not registered
	ErrTypeNotFound = contenttype.ErrTypeNotFound

	// ErrUserNotFound indicates a user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrApplicationNotFound indicates an application was not found
	ErrApplicationNotFound = errors.New("application not found")

	// ErrInvalidCredentials indicates a failed login or client authentication
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAlreadyApproved indicates the revision needs no further approval
	ErrAlreadyApproved = errors.New("revision already approved")

	// ErrConflict indicates a concurrent write changed the record first
	ErrConflict = errors.New("concurrent modification")

	// ErrNotPublishable indicates a revision cannot be published, for example
	// because a newer revision of the same item is already live
	ErrNotPublishable = errors.New("revision not publishable")

	// ErrInvalidRequest indicates request data failed validation
	ErrInvalidRequest = errors.New("invalid request")

	// ErrDuplicate indicates a unique value already exists
	ErrDuplicate = errors.New("duplicate value")

	// ErrObjectNotFound indicates a stored file was not found
	ErrObjectNotFound = errors.New("object not found")
)

// ContentError represents an error related to content operations
type ContentError struct {
	TypeID string
	ID     uuid.UUID
	Op     string
	Err    error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content operation %s failed for %s %s: %v", e.Op, e.TypeID, e.ID, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
