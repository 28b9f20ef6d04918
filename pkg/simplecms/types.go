package simplecms

import (
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms/content"
	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
)

// DefaultLanguage is used for revisions saved without a language.
const DefaultLanguage = "us-en"

// Role is the role of an admin user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleEditor    Role = "editor"
	RolePublisher Role = "publisher"
)

// EventType names a notification sent to applications.
type EventType string

const (
	EventLive    EventType = "live"
	EventUpdated EventType = "updated"
	EventSunset  EventType = "sunset"
)

// AuditEntry records an action taken on a revision.
type AuditEntry struct {
	Action string    `json:"action"`
	Author *int      `json:"author,omitempty"`
	Date   time.Time `json:"date"`
}

// Revision is one saved version of a content item.
type Revision struct {
	Revision        int            `json:"revision"`
	ID              uuid.UUID      `json:"id"`
	Type            string         `json:"type"`
	Created         time.Time      `json:"created"`
	Language        string         `json:"language"`
	Sunrise         *time.Time     `json:"sunrise,omitempty"`
	SunriseTimezone string         `json:"sunrise-timezone,omitempty"`
	Sunset          *time.Time     `json:"sunset,omitempty"`
	SunsetTimezone  string         `json:"sunset-timezone,omitempty"`
	Approval        int            `json:"approval"`
	Publishable     bool           `json:"publishable"`
	Value           content.Values `json:"value"`
	Author          *int           `json:"author,omitempty"`
	Audit           []AuditEntry   `json:"audit,omitempty"`
}

// APIRecord is a published revision as stored in the live and schedule tables.
type APIRecord struct {
	ID         uuid.UUID      `json:"id"`
	Language   string         `json:"language"`
	Sunrise    *time.Time     `json:"sunrise,omitempty"`
	Sunset     *time.Time     `json:"sunset,omitempty"`
	Attributes content.Values `json:"attributes"`
	Audit      []AuditEntry   `json:"audit,omitempty"`
	Revision   int            `json:"revision"`
	Type       string         `json:"type"`
	TypeSlug   string         `json:"type-slug"`
	Key        string         `json:"key"`
	KeySlug    string         `json:"key-slug"`
}

// User is an admin user. The password holds a bcrypt hash.
type User struct {
	ID       int       `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"-"`
	Role     Role      `json:"role"`
	Access   []string  `json:"access,omitempty"` // content type ids the user may edit; empty means all
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// CanAccess reports whether the user may work on the given content type.
func (u *User) CanAccess(typeID string) bool {
	if u.Role == RoleAdmin || len(u.Access) == 0 {
		return true
	}
	for _, id := range u.Access {
		if id == typeID {
			return true
		}
	}
	return false
}

// NotificationResponse is the outcome of the last notification of an event.
type NotificationResponse struct {
	Status    int       `json:"status"`
	Error     string    `json:"error,omitempty"`
	ContentID uuid.UUID `json:"content-id"`
	Date      time.Time `json:"date"`
}

// Application is a consumer of the delivery API. ClientSecret holds a bcrypt hash.
type Application struct {
	ID              int                                `json:"id"`
	Name            string                             `json:"name"`
	LiveEndpoint    string                             `json:"live-endpoint,omitempty"`
	UpdatedEndpoint string                             `json:"updated-endpoint,omitempty"`
	SunsetEndpoint  string                             `json:"sunset-endpoint,omitempty"`
	ClientID        string                             `json:"client-id"`
	ClientSecret    string                             `json:"-"`
	Responses       map[EventType]NotificationResponse `json:"responses,omitempty"`
	Created         time.Time                          `json:"created"`
	Updated         time.Time                          `json:"updated"`
}

// Endpoint returns the URL the application wants notified for event.
func (a *Application) Endpoint(event EventType) string {
	switch event {
	case EventLive:
		return a.LiveEndpoint
	case EventUpdated:
		return a.UpdatedEndpoint
	case EventSunset:
		return a.SunsetEndpoint
	}
	return ""
}

// Credentials are the client credentials of an application. The secret is
// only available when it is issued.
type Credentials struct {
	ClientID     string `json:"client-id"`
	ClientSecret string `json:"client-secret"`
}

// TypesSnapshot is a stored version of every content type definition.
type TypesSnapshot struct {
	Version int                       `json:"version"`
	Created time.Time                 `json:"created"`
	Value   []contenttype.ContentType `json:"value"`
}

// ScheduleResult summarizes a schedule run.
type ScheduleResult struct {
	Published int `json:"published"`
	Sunset    int `json:"sunset"`
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
