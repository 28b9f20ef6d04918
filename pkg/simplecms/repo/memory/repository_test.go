package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/content"
	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/memory"
)

func textValues(t *testing.T, attr, text string) content.Values {
	t.Helper()
	v, err := content.SingleValue(text)
	require.NoError(t, err)
	return content.Values{attr: {"text": v}}
}

func TestMemoryRepository_Revisions(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	id := uuid.New()

	first := &simplecms.Revision{ID: id, Approval: 2, Value: textValues(t, "title", "One")}
	require.NoError(t, repo.CreateRevision(ctx, "articles", first))
	second := &simplecms.Revision{ID: id, Approval: 2, Value: textValues(t, "title", "Two")}
	require.NoError(t, repo.CreateRevision(ctx, "articles", second))
	other := &simplecms.Revision{ID: uuid.New(), Approval: 2}
	require.NoError(t, repo.CreateRevision(ctx, "articles", other))

	assert.Equal(t, 1, first.Revision)
	assert.Equal(t, 2, second.Revision)
	assert.Equal(t, 3, other.Revision)
	assert.False(t, first.Created.IsZero())

	t.Run("GetRevision", func(t *testing.T) {
		got, err := repo.GetRevision(ctx, "articles", 1)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "articles", got.Type)

		_, err = repo.GetRevision(ctx, "articles", 99)
		assert.ErrorIs(t, err, simplecms.ErrRevisionNotFound)

		_, err = repo.GetRevision(ctx, "other-type", 1)
		assert.ErrorIs(t, err, simplecms.ErrRevisionNotFound)
	})

	t.Run("GetLatest", func(t *testing.T) {
		got, err := repo.GetLatest(ctx, "articles", id)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Revision)

		_, err = repo.GetLatest(ctx, "articles", uuid.New())
		assert.ErrorIs(t, err, simplecms.ErrContentNotFound)
	})

	t.Run("ListRevisions newest first", func(t *testing.T) {
		revs, err := repo.ListRevisions(ctx, "articles", id)
		require.NoError(t, err)
		require.Len(t, revs, 2)
		assert.Equal(t, 2, revs[0].Revision)
		assert.Equal(t, 1, revs[1].Revision)
	})

	t.Run("ListLatest", func(t *testing.T) {
		revs, err := repo.ListLatest(ctx, "articles")
		require.NoError(t, err)
		require.Len(t, revs, 2)
		assert.Equal(t, 3, revs[0].Revision)
		assert.Equal(t, 2, revs[1].Revision)
	})

	t.Run("UpdateApproval", func(t *testing.T) {
		got, err := repo.GetRevision(ctx, "articles", 2)
		require.NoError(t, err)
		got.Approval = 0
		got.Publishable = true
		got.Audit = append(got.Audit, simplecms.AuditEntry{Action: "approve", Date: time.Now()})
		require.NoError(t, repo.UpdateApproval(ctx, "articles", got, 2))

		stored, err := repo.GetRevision(ctx, "articles", 2)
		require.NoError(t, err)
		assert.True(t, stored.Publishable)
		assert.Equal(t, 0, stored.Approval)
		assert.Len(t, stored.Audit, 1)

		missing := &simplecms.Revision{Revision: 42}
		assert.ErrorIs(t, repo.UpdateApproval(ctx, "articles", missing, 2), simplecms.ErrRevisionNotFound)
	})

	t.Run("UpdateApproval rejects stale approval counts", func(t *testing.T) {
		got, err := repo.GetRevision(ctx, "articles", 3)
		require.NoError(t, err)
		got.Approval = 1
		require.NoError(t, repo.UpdateApproval(ctx, "articles", got, 2))

		stale := *got
		stale.Approval = 1
		assert.ErrorIs(t, repo.UpdateApproval(ctx, "articles", &stale, 2), simplecms.ErrConflict)

		stored, err := repo.GetRevision(ctx, "articles", 3)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Approval)

		published, err := repo.GetRevision(ctx, "articles", 2)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.UpdateApproval(ctx, "articles", published, 0), simplecms.ErrConflict,
			"publishable revisions take no further approvals")
	})

	t.Run("returned values are copies", func(t *testing.T) {
		got, err := repo.GetRevision(ctx, "articles", 1)
		require.NoError(t, err)
		delete(got.Value, "title")

		again, err := repo.GetRevision(ctx, "articles", 1)
		require.NoError(t, err)
		assert.Contains(t, again.Value, "title")
	})
}

func TestMemoryRepository_LiveAndSchedule(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	live := &simplecms.APIRecord{ID: uuid.New(), Type: "articles", Revision: 1, Key: "Hello", KeySlug: "hello"}
	expired := &simplecms.APIRecord{ID: uuid.New(), Type: "articles", Revision: 2, Key: "Old", KeySlug: "old", Sunset: &past}
	require.NoError(t, repo.UpsertLive(ctx, live))
	require.NoError(t, repo.UpsertLive(ctx, expired))

	t.Run("GetLive", func(t *testing.T) {
		got, err := repo.GetLive(ctx, "articles", live.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hello", got.Key)

		_, err = repo.GetLive(ctx, "pages", live.ID)
		assert.ErrorIs(t, err, simplecms.ErrContentNotFound)
	})

	t.Run("UpsertLive replaces", func(t *testing.T) {
		updated := *live
		updated.Revision = 5
		require.NoError(t, repo.UpsertLive(ctx, &updated))

		got, err := repo.GetLive(ctx, "articles", live.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Revision)

		all, err := repo.ListLive(ctx, "articles")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("GetLiveByKey", func(t *testing.T) {
		got, err := repo.GetLiveByKey(ctx, "articles", "hello")
		require.NoError(t, err)
		assert.Equal(t, live.ID, got.ID)

		_, err = repo.GetLiveByKey(ctx, "articles", "nope")
		assert.ErrorIs(t, err, simplecms.ErrContentNotFound)
	})

	t.Run("ListExpiredLive", func(t *testing.T) {
		recs, err := repo.ListExpiredLive(ctx, now)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, expired.ID, recs[0].ID)

		require.NoError(t, repo.DeleteLive(ctx, "articles", expired.ID))
		recs, err = repo.ListExpiredLive(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("schedule", func(t *testing.T) {
		id := uuid.New()
		due := &simplecms.APIRecord{ID: id, Type: "articles", Revision: 3, Sunrise: &past}
		later := &simplecms.APIRecord{ID: id, Type: "articles", Revision: 4, Sunrise: &future}
		require.NoError(t, repo.UpsertSchedule(ctx, due))
		require.NoError(t, repo.UpsertSchedule(ctx, later))

		recs, err := repo.ListDueSchedule(ctx, now)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, 3, recs[0].Revision)

		require.NoError(t, repo.DeleteSchedule(ctx, "articles", id, 3))
		recs, err = repo.ListDueSchedule(ctx, future)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, 4, recs[0].Revision)
	})
}

func TestMemoryRepository_Users(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	user := &simplecms.User{Email: "editor@example.com", Password: "hash", Role: simplecms.RoleEditor}
	require.NoError(t, repo.CreateUser(ctx, user))
	assert.Equal(t, 1, user.ID)

	dup := &simplecms.User{Email: "editor@example.com"}
	assert.ErrorIs(t, repo.CreateUser(ctx, dup), simplecms.ErrDuplicate)

	got, err := repo.GetUserByEmail(ctx, "editor@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got.Role = simplecms.RoleAdmin
	require.NoError(t, repo.UpdateUser(ctx, got))
	again, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, simplecms.RoleAdmin, again.Role)

	author := user.ID
	rev := &simplecms.Revision{ID: uuid.New(), Author: &author}
	require.NoError(t, repo.CreateRevision(ctx, "articles", rev))

	require.NoError(t, repo.DeleteUser(ctx, user.ID))
	_, err = repo.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, simplecms.ErrUserNotFound)

	stored, err := repo.GetRevision(ctx, "articles", rev.Revision)
	require.NoError(t, err)
	assert.Nil(t, stored.Author, "author is cleared when the user is deleted")

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestMemoryRepository_Applications(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	app := &simplecms.Application{Name: "Site", ClientID: "client-1", ClientSecret: "hash"}
	require.NoError(t, repo.CreateApplication(ctx, app))
	assert.Equal(t, 1, app.ID)

	got, err := repo.GetApplicationByClientID(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "Site", got.Name)

	got.Responses = map[simplecms.EventType]simplecms.NotificationResponse{
		simplecms.EventLive: {Status: 200},
	}
	require.NoError(t, repo.UpdateApplication(ctx, got))

	again, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, again.Responses[simplecms.EventLive].Status)

	again.ClientSecret = "rotated"
	require.NoError(t, repo.UpdateApplication(ctx, again))
	require.NoError(t, repo.UpdateApplicationResponse(ctx, app.ID, simplecms.EventSunset,
		simplecms.NotificationResponse{Status: 202}))

	again, err = repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated", again.ClientSecret)
	assert.Equal(t, 200, again.Responses[simplecms.EventLive].Status)
	assert.Equal(t, 202, again.Responses[simplecms.EventSunset].Status)

	err = repo.UpdateApplicationResponse(ctx, 99, simplecms.EventLive, simplecms.NotificationResponse{})
	assert.ErrorIs(t, err, simplecms.ErrApplicationNotFound)

	_, err = repo.GetApplication(ctx, 99)
	assert.ErrorIs(t, err, simplecms.ErrApplicationNotFound)

	apps, err := repo.ListApplications(ctx)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestMemoryRepository_Types(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	_, err := repo.LatestTypes(ctx)
	assert.ErrorIs(t, err, simplecms.ErrTypeNotFound)

	first, err := repo.SaveTypes(ctx, []contenttype.ContentType{{Name: "Articles", ID: "articles"}})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := repo.SaveTypes(ctx, []contenttype.ContentType{{Name: "Pages", ID: "pages"}})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	latest, err := repo.LatestTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "pages", latest.Value[0].ID)
}
