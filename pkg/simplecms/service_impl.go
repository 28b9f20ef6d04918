package simplecms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms/content"
	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
)

// DefaultPublicRoot is the URL prefix under which stored files are served.
const DefaultPublicRoot = "/files/"

// TypeMigrator is implemented by repositories that need storage prepared
// before revisions of a content type can be saved.
type TypeMigrator interface {
	EnsureTypes(ctx context.Context, typeIDs ...string) error
}

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	types      *contenttype.Registry
	notifier   Notifier
	publicRoot string
	now        func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the storage backend used for uploaded files
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithTypes sets the content type registry
func WithTypes(types *contenttype.Registry) Option {
	return func(s *service) {
		s.types = types
	}
}

// WithNotifier sets the notifier for publication events
func WithNotifier(notifier Notifier) Option {
	return func(s *service) {
		s.notifier = notifier
	}
}

// WithPublicRoot sets the prefix prepended to relative file paths
func WithPublicRoot(root string) Option {
	return func(s *service) {
		s.publicRoot = root
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		publicRoot: DefaultPublicRoot,
		now:        time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.types == nil {
		types, err := contenttype.NewRegistry()
		if err != nil {
			return nil, err
		}
		s.types = types
	}
	if s.notifier == nil {
		s.notifier = NewNoopNotifier()
	}

	return s, nil
}

func (s *service) clock() time.Time {
	return s.now().UTC()
}

// Content type operations

func (s *service) Types() []contenttype.ContentType {
	return s.types.List()
}

func (s *service) Type(id string) (contenttype.ContentType, error) {
	return s.types.Get(id)
}

func (s *service) ReplaceTypes(ctx context.Context, types []contenttype.ContentType) (*TypesSnapshot, error) {
	if err := s.types.Replace(types); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return s.snapshotTypes(ctx)
}

func (s *service) snapshotTypes(ctx context.Context) (*TypesSnapshot, error) {
	types := s.types.List()
	if m, ok := s.repository.(TypeMigrator); ok {
		ids := make([]string, len(types))
		for i, ct := range types {
			ids[i] = ct.ID
		}
		if err := m.EnsureTypes(ctx, ids...); err != nil {
			return nil, fmt.Errorf("failed to prepare content type storage: %w", err)
		}
	}
	snapshot, err := s.repository.SaveTypes(ctx, types)
	if err != nil {
		return nil, fmt.Errorf("failed to save content types: %w", err)
	}
	slog.Info("Content types saved", "version", snapshot.Version, "count", len(types))
	return snapshot, nil
}

func (s *service) LatestTypes(ctx context.Context) (*TypesSnapshot, error) {
	return s.repository.LatestTypes(ctx)
}

// Content operations

func (s *service) SaveContent(ctx context.Context, req SaveContentRequest) (*Revision, error) {
	ct, err := s.types.Get(req.TypeID)
	if err != nil {
		return nil, err
	}
	if err := validateValues(ct, req.Value); err != nil {
		return nil, err
	}
	if req.Sunrise != nil && req.Sunset != nil && !req.Sunset.After(*req.Sunrise) {
		return nil, invalid("sunset must be after sunrise")
	}

	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	language := req.Language
	if language == "" {
		language = DefaultLanguage
	}

	rev := &Revision{
		ID:              id,
		Type:            ct.ID,
		Language:        language,
		Sunrise:         utcPtr(req.Sunrise),
		SunriseTimezone: req.SunriseTimezone,
		Sunset:          utcPtr(req.Sunset),
		SunsetTimezone:  req.SunsetTimezone,
		Approval:        ct.Approvals(),
		Value:           req.Value.Clone(),
		Author:          req.Author,
		Audit:           []AuditEntry{{Action: "save", Author: req.Author, Date: s.clock()}},
	}
	if rev.Value == nil {
		rev.Value = content.Values{}
	}

	if err := s.repository.CreateRevision(ctx, ct.ID, rev); err != nil {
		return nil, &ContentError{TypeID: ct.ID, ID: id, Op: "save", Err: err}
	}
	slog.Info("Content revision saved", "type", ct.ID, "content_id", id, "revision", rev.Revision)

	return s.resolve(ct, rev), nil
}

func (s *service) GetContent(ctx context.Context, typeID string, id uuid.UUID) (*Revision, error) {
	ct, err := s.types.Get(typeID)
	if err != nil {
		return nil, err
	}
	rev, err := s.repository.GetLatest(ctx, ct.ID, id)
	if err != nil {
		return nil, err
	}
	return s.resolve(ct, rev), nil
}

func (s *service) GetRevision(ctx context.Context, typeID string, id uuid.UUID, revision int) (*Revision, error) {
	ct, err := s.types.Get(typeID)
	if err != nil {
		return nil, err
	}
	rev, err := s.getRevision(ctx, ct.ID, id, revision)
	if err != nil {
		return nil, err
	}
	return s.resolve(ct, rev), nil
}

func (s *service) getRevision(ctx context.Context, typeID string, id uuid.UUID, revision int) (*Revision, error) {
	rev, err := s.repository.GetRevision(ctx, typeID, revision)
	if err != nil {
		return nil, err
	}
	if rev.ID != id {
		return nil, fmt.Errorf("%w: %s revision %d", ErrRevisionNotFound, id, revision)
	}
	return rev, nil
}

func (s *service) ListRevisions(ctx context.Context, typeID string, id uuid.UUID) ([]*Revision, error) {
	ct, err := s.types.Get(typeID)
	if err != nil {
		return nil, err
	}
	revs, err := s.repository.ListRevisions(ctx, ct.ID, id)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrContentNotFound, id)
	}
	return s.resolveAll(ct, revs), nil
}

func (s *service) ListContent(ctx context.Context, typeID string) ([]*Revision, error) {
	ct, err := s.types.Get(typeID)
	if err != nil {
		return nil, err
	}
	revs, err := s.repository.ListLatest(ctx, ct.ID)
	if err != nil {
		return nil, err
	}
	return s.resolveAll(ct, revs), nil
}

// resolve returns a copy of rev whose file values carry absolute paths.
func (s *service) resolve(ct contenttype.ContentType, rev *Revision) *Revision {
	out := *rev
	out.Value = content.FilePaths(content.FileInputs(ct.Attributes), rev.Value, s.publicRoot)
	return &out
}

func (s *service) resolveAll(ct contenttype.ContentType, revs []*Revision) []*Revision {
	out := make([]*Revision, len(revs))
	for i, rev := range revs {
		out[i] = s.resolve(ct, rev)
	}
	return out
}

func (s *service) resolveRecord(rec *APIRecord) *APIRecord {
	out := *rec
	if ct, err := s.types.Get(rec.Type); err == nil {
		out.Attributes = content.FilePaths(content.FileInputs(ct.Attributes), rec.Attributes, s.publicRoot)
	}
	return &out
}

// validateValues rejects values for attributes or inputs the type does not declare.
func validateValues(ct contenttype.ContentType, values content.Values) error {
	for attrID, inputs := range values {
		attr, ok := ct.Attribute(attrID)
		if !ok {
			return invalid("unknown attribute %s for type %s", attrID, ct.ID)
		}
		for inputID, v := range inputs {
			if _, ok := attr.Inputs.Get(inputID); !ok {
				return invalid("unknown input %s for attribute %s", inputID, attrID)
			}
			if v.IsRepeating() && !attr.Repeatable {
				return invalid("attribute %s is not repeatable", attrID)
			}
		}
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrContentNotFound) || errors.Is(err, ErrRevisionNotFound)
}
