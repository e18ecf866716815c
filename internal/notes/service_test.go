package notes_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsDongki/quicknotes/internal/devserver"
	"github.com/itsDongki/quicknotes/internal/devserver/deps"
	"github.com/itsDongki/quicknotes/internal/devserver/store/memory"
	"github.com/itsDongki/quicknotes/internal/logger"
	"github.com/itsDongki/quicknotes/internal/model"
	"github.com/itsDongki/quicknotes/internal/notes"
	"github.com/itsDongki/quicknotes/internal/remote"
	"github.com/itsDongki/quicknotes/internal/session"
)

// testClock hands out strictly increasing timestamps so creation order and
// timestamp order always agree. It starts an hour in the past, keeping seeded
// timestamps below anything stamped with the real clock later in a test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().UTC().Add(-time.Hour).Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type env struct {
	svc   *notes.Service
	owner string
}

// newEnv mounts the stand-in service on httptest and signs username in.
func newEnv(t *testing.T, username string) env {
	t.Helper()

	d := deps.Deps{
		Logger:    logger.New("error", false),
		StartTime: time.Now(),
		TimeNow:   newTestClock().Now,
		Store:     memory.New(),
		JWTSecret: []byte("test-secret"),
		TokenTTL:  2 * time.Hour,
	}
	srv := httptest.NewServer(devserver.Router(d, 1000, 1000))
	t.Cleanup(srv.Close)

	return signInAs(t, srv.URL, username)
}

// signInAs adds an identity against an already-running service instance.
func signInAs(t *testing.T, srvURL, username string) env {
	t.Helper()
	client, err := remote.New(remote.Options{BaseURL: srvURL, APIKey: "test-key"})
	require.NoError(t, err)

	sess, err := session.SignIn(context.Background(), client, username, "password")
	require.NoError(t, err)
	client.SetToken(sess.Token)
	return env{svc: notes.NewService(client), owner: sess.Owner}
}

func mustCreate(t *testing.T, e env, title, content string) model.Note {
	t.Helper()
	n, err := e.svc.Create(context.Background(), e.owner, model.Draft{Title: title, Content: content})
	require.NoError(t, err)
	return n
}

func TestCreateFillsServerFields(t *testing.T) {
	e := newEnv(t, "alice")

	created, err := e.svc.Create(context.Background(), e.owner, model.Draft{
		Title:   "groceries",
		Content: "milk, eggs",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, e.owner, created.Owner)
	assert.Equal(t, "groceries", created.Title)
	assert.Equal(t, model.DefaultColor, created.Color)
	assert.False(t, created.CreatedAt.IsZero())
	assert.True(t, created.UpdatedAt.Equal(created.CreatedAt))
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	e := newEnv(t, "alice")

	_, err := e.svc.Create(context.Background(), e.owner, model.Draft{Content: "no title"})
	require.Error(t, err)
}

func TestGetByID(t *testing.T) {
	e := newEnv(t, "alice")
	created := mustCreate(t, e, "findable", "body")

	got, found, err := e.svc.GetByID(context.Background(), created.ID, e.owner)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "findable", got.Title)
}

func TestGetByIDMissingIsNotAnError(t *testing.T) {
	e := newEnv(t, "alice")

	_, found, err := e.svc.GetByID(context.Background(), "no-such-id", e.owner)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListPagination(t *testing.T) {
	e := newEnv(t, "alice")
	for i := 0; i < 25; i++ {
		mustCreate(t, e, fmt.Sprintf("note %02d", i), "body")
	}

	page1, total, err := e.svc.List(context.Background(), e.owner, notes.ListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, page1, 10)

	page3, total, err := e.svc.List(context.Background(), e.owner, notes.ListParams{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, page3, 5)

	// Pages beyond the data are empty, not an error.
	page4, total, err := e.svc.List(context.Background(), e.owner, notes.ListParams{Page: 4, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Empty(t, page4)
}

func TestListPagesCoverEverythingOnce(t *testing.T) {
	e := newEnv(t, "alice")
	for i := 0; i < 12; i++ {
		mustCreate(t, e, fmt.Sprintf("note %02d", i), "body")
	}

	seen := make(map[string]int)
	for page := 1; page <= 3; page++ {
		items, _, err := e.svc.List(context.Background(), e.owner, notes.ListParams{Page: page, PageSize: 5})
		require.NoError(t, err)
		for _, n := range items {
			seen[n.ID]++
		}
	}

	assert.Len(t, seen, 12)
	for id, count := range seen {
		assert.Equal(t, 1, count, "note %s appeared %d times", id, count)
	}
}

func TestListSearchMatchesTitleAndContent(t *testing.T) {
	e := newEnv(t, "alice")
	inTitle := mustCreate(t, e, "buy MILK today", "nothing")
	inContent := mustCreate(t, e, "reminder", "get milk from the store")
	mustCreate(t, e, "unrelated", "no dairy here")

	items, total, err := e.svc.List(context.Background(), e.owner, notes.ListParams{SearchText: "milk"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	ids := map[string]bool{}
	for _, n := range items {
		ids[n.ID] = true
	}
	assert.True(t, ids[inTitle.ID])
	assert.True(t, ids[inContent.ID])
}

func TestListSearchTreatsMetacharactersLiterally(t *testing.T) {
	e := newEnv(t, "alice")
	exact := mustCreate(t, e, "progress: 50%", "body")
	mustCreate(t, e, "progress: 500", "body")

	items, total, err := e.svc.List(context.Background(), e.owner, notes.ListParams{SearchText: "50%"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, exact.ID, items[0].ID)
}

func TestListSortOrder(t *testing.T) {
	e := newEnv(t, "alice")
	first := mustCreate(t, e, "oldest", "body")
	mustCreate(t, e, "middle", "body")
	last := mustCreate(t, e, "newest", "body")

	asc, _, err := e.svc.List(context.Background(), e.owner, notes.ListParams{
		SortField: model.SortByCreatedAt,
		SortOrder: model.SortAsc,
	})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, first.ID, asc[0].ID)
	assert.Equal(t, last.ID, asc[2].ID)

	desc, _, err := e.svc.List(context.Background(), e.owner, notes.ListParams{
		SortField: model.SortByCreatedAt,
		SortOrder: model.SortDesc,
	})
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, last.ID, desc[0].ID)
	assert.Equal(t, first.ID, desc[2].ID)
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	e := newEnv(t, "alice")
	created := mustCreate(t, e, "title", "content")

	newTitle := "renamed"
	updated, err := e.svc.Update(context.Background(), created.ID, e.owner, model.Patch{Title: &newTitle})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "content", updated.Content)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
}

func TestUpdateRejectsEmptyPatch(t *testing.T) {
	e := newEnv(t, "alice")
	created := mustCreate(t, e, "title", "content")

	_, err := e.svc.Update(context.Background(), created.ID, e.owner, model.Patch{})
	require.Error(t, err)
}

func TestUpdateMissingNote(t *testing.T) {
	e := newEnv(t, "alice")

	newTitle := "renamed"
	_, err := e.svc.Update(context.Background(), "no-such-id", e.owner, model.Patch{Title: &newTitle})
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	e := newEnv(t, "alice")
	created := mustCreate(t, e, "doomed", "body")

	require.NoError(t, e.svc.Delete(context.Background(), created.ID, e.owner))

	err := e.svc.Delete(context.Background(), created.ID, e.owner)
	assert.ErrorIs(t, err, remote.ErrNotFound)

	_, found, err := e.svc.GetByID(context.Background(), created.ID, e.owner)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOwnerScopingIsAbsolute(t *testing.T) {
	d := deps.Deps{
		Logger:    logger.New("error", false),
		StartTime: time.Now(),
		TimeNow:   newTestClock().Now,
		Store:     memory.New(),
		JWTSecret: []byte("test-secret"),
		TokenTTL:  2 * time.Hour,
	}
	srv := httptest.NewServer(devserver.Router(d, 1000, 1000))
	t.Cleanup(srv.Close)

	alice := signInAs(t, srv.URL, "alice")
	bob := signInAs(t, srv.URL, "bob")
	require.NotEqual(t, alice.owner, bob.owner)

	secret := mustCreate(t, alice, "alice only", "hidden")

	// Bob cannot see, update or delete Alice's note through his own scope.
	_, found, err := bob.svc.GetByID(context.Background(), secret.ID, bob.owner)
	require.NoError(t, err)
	assert.False(t, found)

	items, total, err := bob.svc.List(context.Background(), bob.owner, notes.ListParams{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	newTitle := "hijacked"
	_, err = bob.svc.Update(context.Background(), secret.ID, bob.owner, model.Patch{Title: &newTitle})
	assert.ErrorIs(t, err, remote.ErrNotFound)

	assert.ErrorIs(t, bob.svc.Delete(context.Background(), secret.ID, bob.owner), remote.ErrNotFound)

	// The note is untouched.
	got, found, err := alice.svc.GetByID(context.Background(), secret.ID, alice.owner)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice only", got.Title)
}
