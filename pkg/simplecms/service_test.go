package simplecms_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/content"
	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
	repomemory "github.com/tendant/simple-cms/pkg/simplecms/repo/memory"
	memorystorage "github.com/tendant/simple-cms/pkg/simplecms/storage/memory"
)

type notification struct {
	event simplecms.EventType
	rec   *simplecms.APIRecord
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) Notify(ctx context.Context, event simplecms.EventType, rec *simplecms.APIRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{event, rec})
	return nil
}

func (n *recordingNotifier) types() []simplecms.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []simplecms.EventType
	for _, e := range n.events {
		out = append(out, e.event)
	}
	return out
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func articleType() contenttype.ContentType {
	return contenttype.ContentType{
		Name:       "Blog Articles",
		ID:         "articles",
		Identifier: "title",
		Workflow:   []string{"editor", "publisher"},
		Attributes: []contenttype.Attribute{
			{
				Type: "text", ID: "title", Name: "Title",
				Inputs: contenttype.NewInputs(contenttype.InputPair{ID: "text", Input: contenttype.Input{Type: "text"}}),
			},
			{
				Type: "file", ID: "image", Name: "Image",
				Inputs: contenttype.NewInputs(contenttype.InputPair{ID: "file", Input: contenttype.Input{Type: "file"}}),
			},
			{
				Type: "file", ID: "gallery", Name: "Gallery", Repeatable: true,
				Inputs: contenttype.NewInputs(contenttype.InputPair{ID: "file", Input: contenttype.Input{Type: "file"}}),
			},
		},
	}
}

type fixture struct {
	svc      simplecms.Service
	repo     simplecms.Repository
	store    *memorystorage.Backend
	notifier *recordingNotifier
	clock    *clock
}

// setup builds a service over a memory repository. wrap, when given, decorates
// the repository the service sees; f.repo stays the undecorated one.
func setup(t *testing.T, wrap ...func(simplecms.Repository) simplecms.Repository) *fixture {
	t.Helper()
	types, err := contenttype.NewRegistry(articleType())
	require.NoError(t, err)

	f := &fixture{
		repo:     repomemory.New(),
		store:    memorystorage.New(),
		notifier: &recordingNotifier{},
		clock:    &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	var repo simplecms.Repository = f.repo
	for _, w := range wrap {
		repo = w(repo)
	}
	f.svc, err = simplecms.New(
		simplecms.WithRepository(repo),
		simplecms.WithBlobStore(f.store),
		simplecms.WithTypes(types),
		simplecms.WithNotifier(f.notifier),
		simplecms.WithPublicRoot("https://cdn.example.com/"),
		simplecms.WithClock(f.clock.Now),
	)
	require.NoError(t, err)
	return f
}

func values(t *testing.T, title string, image string) content.Values {
	t.Helper()
	text, err := content.SingleValue(title)
	require.NoError(t, err)
	vals := content.Values{"title": {"text": text}}
	if image != "" {
		file, err := content.SingleValue(content.FileValue{Relative: image})
		require.NoError(t, err)
		vals["image"] = content.AttributeValue{"file": file}
	}
	return vals
}

func (f *fixture) approveAll(t *testing.T, rev *simplecms.Revision) *simplecms.Revision {
	t.Helper()
	var err error
	for rev.Approval > 0 {
		rev, err = f.svc.Approve(context.Background(), simplecms.ApproveRequest{
			TypeID: rev.Type, ID: rev.ID, Revision: rev.Revision,
		})
		require.NoError(t, err)
	}
	return rev
}

func TestNew_RequiresRepository(t *testing.T) {
	_, err := simplecms.New()
	assert.Error(t, err)
}

func TestSaveContent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rev, err := f.svc.SaveContent(ctx, simplecms.SaveContentRequest{
		TypeID: "articles",
		Value:  values(t, "Hello World", "articles/1/photo.png"),
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rev.ID)
	assert.Equal(t, 1, rev.Revision)
	assert.Equal(t, 2, rev.Approval, "one approval per workflow step")
	assert.False(t, rev.Publishable)
	assert.Equal(t, simplecms.DefaultLanguage, rev.Language)

	fv, ok := rev.Value["image"]["file"].Single.File()
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/articles/1/photo.png", fv.Absolute)

	// stored values keep only the relative path
	stored, err := f.repo.GetRevision(ctx, "articles", rev.Revision)
	require.NoError(t, err)
	raw, _ := stored.Value["image"]["file"].Single.File()
	assert.Empty(t, raw.Absolute)

	next, err := f.svc.SaveContent(ctx, simplecms.SaveContentRequest{
		TypeID: "articles",
		ID:     rev.ID,
		Value:  values(t, "Hello again", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, rev.ID, next.ID)
	assert.Equal(t, 2, next.Revision)

	latest, err := f.svc.GetContent(ctx, "articles", rev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Revision)

	revs, err := f.svc.ListRevisions(ctx, "articles", rev.ID)
	require.NoError(t, err)
	assert.Len(t, revs, 2)

	all, err := f.svc.ListContent(ctx, "articles")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveContent_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SaveContent(ctx, simplecms.SaveContentRequest{TypeID: "missing"})
	assert.ErrorIs(t, err, simplecms.ErrTypeNotFound)

	unknown, err := content.SingleValue("x")
	require.NoError(t, err)
	_, err = f.svc.SaveContent(ctx, simplecms.SaveContentRequest{
		TypeID: "articles",
		Value:  content.Values{"nope": {"text": unknown}},
	})
	assert.ErrorIs(t, err, simplecms.ErrInvalidRequest)

	repeated, err := content.RepeatingValue("a", "b")
	require.NoError(t, err)
	_, err = f.svc.SaveContent(ctx, simplecms.SaveContentRequest{
		TypeID: "articles",
		Value:  content.Values{"title": {"text": repeated}},
	})
	assert.ErrorIs(t, err, simplecms.ErrInvalidRequest, "title is not repeatable")

	sunrise := f.clock.now
	sunset := sunrise.Add(-time.Hour)
	_, err = f.svc.SaveContent(ctx, simplecms.SaveContentRequest{
		TypeID: "articles", Sunrise: &sunrise, Sunset: &sunset,
	})
	assert.ErrorIs(t, err, simplecms.ErrInvalidRequest)
}

func TestGetRevision_WrongID(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rev, err := f.svc.SaveContent(ctx, simplecms.SaveContentRequest{TypeID: "articles", Value: values(t, "A", "")})
	require.NoError(t, err)

	_, err = f.svc.GetRevision(ctx, "articles", uuid.New(), rev.Revision)
	assert.ErrorIs(t, err, simplecms.ErrRevisionNotFound)

	got, err := f.svc.GetRevision(ctx, "articles", rev.ID, rev.Revision)
	require.NoError(t, err)
	assert.Equal(t, rev.ID, got.ID)
}

func TestApprove_PublishesToLive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rev, err := f.svc.SaveContent(ctx, simplecms.SaveContentRequest{
		TypeID: "articles",
		Value:  values(t, "Hello World", "articles/1/photo.png"),
	})
	require.NoError(t, err)

	once, err := f.svc.Approve(ctx, simplecms.ApproveRequest{TypeID: "articles", ID: rev.ID, Revision: rev.Revision})
	require.NoError(t, err)
	assert.Equal(t, 1, once.Approval)
	assert.False(t, once.Publishable)

	_, err = f.svc.Live(ctx, "articles", rev.ID)
	assert.ErrorIs(t, err, simplecms.ErrContentNotFound, "not live before the last approval")

	done := f.approveAll(t, once)
	assert.True(t, done.Publishable)

	live, err := f.svc.Live(ctx, "articles", rev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", live.Key)
	assert.Equal(t, "hello-world", live.KeySlug)
	assert.Equal(t, "blog-articles", live.TypeSlug)
	fv, ok := live.Attributes["image"]["file"].Single.File()
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/articles/1/photo.png", fv.Absolute)

	byKey, err := f.svc.LiveByKey(ctx, "articles", "hello-world")
	require.NoError(t, err)
	assert.Equal(t, rev.ID, byKey.ID)

	assert.Equal(t, []simplecms.EventType{simplecms.EventLive}, f.notifier.types())

	_, err = f.svc.Approve(ctx, simplecms.ApproveRequest{TypeID: "articles", ID: rev.ID, Revision: rev.Revision})
	assert.ErrorIs(t, err, simplecms.ErrAlreadyApproved)
}

func TestApprove_UpdatesLiveAndRejectsStaleRevisions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.SaveContent(ctx, simplecms.SaveContentRequest{TypeID: "articles", Value: values(t, "One", "")})
	require.NoError(t, err)
	stale, err := f.svc.SaveContent(ctx, simplecms.SaveContentRequest{TypeID: "articles", ID: first.ID, Value: values(t, "Two", "")})
	require.NoError(t, err)
	newest, err := f.svc.SaveContent(ctx, simplecms.SaveContentRequest{TypeID: "articles", ID: first.ID, Value: values(t, "Three", "")})
	require.NoError(t, err)

	f.approveAll(t, first)
	f.approveAll(t, newest)

	live, err := f.svc.Live(ctx, "articles", first.ID)
	require.NoError(t, err)
	assert.Equal(t, newest.Revision, live.Revision)
	assert.Equal(t, []simplecms.EventType{simplecms.EventLive, simplecms.EventUpdated}, f.notifier.types())

	_, err = f.svc.Approve(ctx, simplecms.ApproveRequest{TypeID: "articles", ID: stale.ID, Revision: stale.Revision})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, simplecms.ApproveRequest{TypeID: "articles", ID: stale.ID, Revision: stale.Revision})
	assert.ErrorIs(t, err, simplecms.ErrNotPublishable)
}

// flakyLive fails the first UpsertLive
type flakyLive struct {
	simplecms.Repository
	failed bool
}

func (r *flakyLive) UpsertLive(ctx context.Context, rec *simplecms.APIRecord) error {
	if !r.failed {
		r.failed = true
		return errors.New("connection reset")
	}
	return r.Repository.UpsertLive(ctx, rec)
}

func TestApprove_RetriesAfterFailedPublish(t *testing.T) {
	flaky := &flakyLive{}
	f := setup(t, func(repo simplecms.Repository) simplecms.Repository {
		flaky.Repository = repo
		return flaky
	})
	ctx := context.Background()

	rev, err := f.svc.SaveContent(ctx, simplecms.SaveContentRequest{TypeID: "articles", Value: values(t, "Hello", "")})
	require.NoError(t, err)
	req := simplecms.ApproveRequest{TypeID: "articles", ID: rev.ID, Revision: rev.Revision}
	_, err = f.svc.Approve(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	stored, err := f.repo.GetRevision(ctx, "articles", rev.Revision)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Approval, "a failed publish keeps the approval pending")
	assert.False(t, stored.Publishable)

	done, err := f.svc.Approve(ctx, req)
	require.NoError(t, err)
	assert.True(t, done.Publishable)

	live, err := f.svc.Live(ctx, "articles", rev.ID)
	require.NoError(t, err)
	assert.Equal(t, rev.Revision, live.Revision)
	assert.Equal(t, []simplecms.EventType{simplecms.EventLive}, f.notifier.types())
}

// gatedReads holds the first n revision reads until all n have happened
type gatedReads struct {
	simplecms.Repository
	mu      sync.Mutex
	n       int
	reads   int
	release chan struct{}
}

func (r *gatedReads) GetRevision(ctx context.Context, typeID string, revision int) (*simplecms.Revision, error) {
	rev, err := r.Repository.GetRevision(ctx, typeID, revision)
	r.mu.Lock()
	r.reads++
	gated := r.reads <= r.n
	if r.reads == r.n {
		close(r.release)
	}
	r.mu.Unlock()
	if gated {
		<-r.release
	}
	return rev, err
}

func TestApprove_ConcurrentApprovalsAreNotLost(t *testing.T) {
	gate := &gatedReads{n: 2, release: make(chan struct{})}
	f := setup(t, func(repo simplecms.Repository) simplecms.Repository {
		gate.Repository = repo
		return gate
	})
	ctx := context.Background()

	rev, err := f.svc.SaveContent(ctx, simplecms.SaveContentRequest{TypeID: "articles", Value: values(t, "Hello", "")})
	require.NoError(t, err)
	require.Equal(t, 2, rev.Approval)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(ctx, simplecms.ApproveRequest{TypeID: "articles", ID: rev.ID, Revision: rev.Revision})
		}(i)
	}
	wg.Wait()
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])

	stored, err := f.repo.GetRevision(ctx, "articles", rev.Revision)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Approval)
	assert.True(t, stored.Publishable)

	live, err := f.svc.Live(ctx, "articles", rev.ID)
	require.NoError(t, err)
	assert.Equal(t, rev.Revision, live.Revision)
}

func TestRunSchedule(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sunrise := f.clock.now.Add(time.Hour)
	sunset := f.clock.now.Add(2 * time.Hour)
	rev, err := f.svc.SaveContent(ctx, simplecms.SaveContentRequest{
		TypeID:  "articles",
		Sunrise: &sunrise,
		Sunset:  &sunset,
		Value:   values(t, "Scheduled", ""),
	})
	require.NoError(t, err)
	f.approveAll(t, rev)

	_, err = f.svc.Live(ctx, "articles", rev.ID)
	assert.ErrorIs(t, err, simplecms.ErrContentNotFound, "future sunrise goes to schedule")

	result, err := f.svc.RunSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, simplecms.ScheduleResult{}, *result)

	f.clock.now = sunrise
	result, err = f.svc.RunSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Published)

	live, err := f.svc.Live(ctx, "articles", rev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Scheduled", live.Key)

	f.clock.now = sunset.Add(time.Minute)
	result, err = f.svc.RunSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sunset)

	_, err = f.svc.Live(ctx, "articles", rev.ID)
	assert.ErrorIs(t, err, simplecms.ErrContentNotFound)
	assert.Equal(t, []simplecms.EventType{simplecms.EventLive, simplecms.EventSunset}, f.notifier.types())
}

func TestUploadAndDownloadFile(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	fv, err := f.svc.UploadFile(ctx, simplecms.UploadFileRequest{
		TypeID:   "articles",
		FileName: "Café photo.png",
		Reader:   bytes.NewBufferString("png-bytes"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Café photo.png", fv.Original)
	assert.Equal(t, "Cafe photo.png", fv.Name)
	assert.Equal(t, "image/png", fv.Type)
	assert.Regexp(t, `^articles/[0-9a-f-]{36}/Cafe photo\.png$`, fv.Relative)
	assert.Equal(t, "https://cdn.example.com/"+fv.Relative, fv.Absolute)

	rc, meta, err := f.svc.DownloadFile(ctx, fv.Relative)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", meta.ContentType)

	_, _, err = f.svc.DownloadFile(ctx, "../secret")
	assert.ErrorIs(t, err, simplecms.ErrInvalidRequest)

	_, _, err = f.svc.DownloadFile(ctx, "articles/none.png")
	assert.ErrorIs(t, err, simplecms.ErrObjectNotFound)

	_, err = f.svc.UploadFile(ctx, simplecms.UploadFileRequest{TypeID: "articles", FileName: "", Reader: bytes.NewBufferString("x")})
	assert.ErrorIs(t, err, simplecms.ErrInvalidRequest)
}

func TestUsers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	user, err := f.svc.CreateUser(ctx, simplecms.CreateUserRequest{Email: " Editor@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "editor@example.com", user.Email)
	assert.Equal(t, simplecms.RoleEditor, user.Role)
	assert.NotEqual(t, "correct horse", user.Password)

	_, err = f.svc.CreateUser(ctx, simplecms.CreateUserRequest{Email: "editor@example.com", Password: "another one"})
	assert.ErrorIs(t, err, simplecms.ErrDuplicate)

	_, err = f.svc.CreateUser(ctx, simplecms.CreateUserRequest{Email: "x@example.com", Password: "short"})
	assert.ErrorIs(t, err, simplecms.ErrInvalidRequest)

	_, err = f.svc.CreateUser(ctx, simplecms.CreateUserRequest{Email: "y@example.com", Password: "long enough", Role: "root"})
	assert.ErrorIs(t, err, simplecms.ErrInvalidRequest)

	got, err := f.svc.Authenticate(ctx, "editor@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.svc.Authenticate(ctx, "editor@example.com", "wrong")
	assert.ErrorIs(t, err, simplecms.ErrInvalidCredentials)
	_, err = f.svc.Authenticate(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, simplecms.ErrInvalidCredentials)

	users, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestApplications(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	app, creds, err := f.svc.CreateApplication(ctx, simplecms.CreateApplicationRequest{
		Name:         "Website",
		LiveEndpoint: "https://example.com/hooks/live",
	})
	require.NoError(t, err)
	assert.NoError(t, uuid.Validate(creds.ClientID))
	assert.Len(t, creds.ClientSecret, 64)
	assert.NotEqual(t, creds.ClientSecret, app.ClientSecret, "only the hash is stored")

	authed, err := f.svc.AuthenticateClient(ctx, creds.ClientID, creds.ClientSecret)
	require.NoError(t, err)
	assert.Equal(t, app.ID, authed.ID)

	reset, err := f.svc.ResetSecret(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, creds.ClientID, reset.ClientID)

	_, err = f.svc.AuthenticateClient(ctx, creds.ClientID, creds.ClientSecret)
	assert.ErrorIs(t, err, simplecms.ErrInvalidCredentials, "old secret is revoked")
	_, err = f.svc.AuthenticateClient(ctx, creds.ClientID, reset.ClientSecret)
	assert.NoError(t, err)
	_, err = f.svc.AuthenticateClient(ctx, "unknown", reset.ClientSecret)
	assert.ErrorIs(t, err, simplecms.ErrInvalidCredentials)

	_, _, err = f.svc.CreateApplication(ctx, simplecms.CreateApplicationRequest{Name: "Bad", LiveEndpoint: "ftp://x"})
	assert.ErrorIs(t, err, simplecms.ErrInvalidRequest)
	_, _, err = f.svc.CreateApplication(ctx, simplecms.CreateApplicationRequest{})
	assert.ErrorIs(t, err, simplecms.ErrInvalidRequest)
}

func TestReplaceTypes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	pages := contenttype.ContentType{
		Name: "Pages",
		Attributes: []contenttype.Attribute{{
			ID:     "body",
			Inputs: contenttype.NewInputs(contenttype.InputPair{ID: "text", Input: contenttype.Input{Type: "textarea"}}),
		}},
	}
	snapshot, err := f.svc.ReplaceTypes(ctx, []contenttype.ContentType{articleType(), pages})
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Version)
	assert.Len(t, f.svc.Types(), 2)

	ct, err := f.svc.Type("pages")
	require.NoError(t, err)
	assert.Equal(t, "body", ct.Identifier)

	latest, err := f.svc.LatestTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)

	_, err = f.svc.ReplaceTypes(ctx, []contenttype.ContentType{{Name: ""}})
	assert.ErrorIs(t, err, simplecms.ErrInvalidRequest)
	assert.Len(t, f.svc.Types(), 2, "invalid definitions keep the previous types")
}
