package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)
	return c
}

func TestNewRequiresBaseURLAndKey(t *testing.T) {
	_, err := New(Options{APIKey: "k"})
	require.Error(t, err)

	_, err = New(Options{BaseURL: "http://localhost"})
	require.Error(t, err)
}

func TestSelectSendsHeadersAndParsesTotal(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Range", "0-1/42")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"a","title":"one"},{"id":"b","title":"two"}]`))
	})
	c.SetToken("tok-123")

	q := Query{}.Eq("user_id", "owner-1").Order("updated_at", true).Range(0, 1)

	var items []row
	total, err := c.Select(context.Background(), "notes", q, &items)
	require.NoError(t, err)

	assert.Equal(t, 42, total)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)

	assert.Equal(t, "/rest/v1/notes", got.URL.Path)
	assert.Equal(t, "eq.owner-1", got.URL.Query().Get("user_id"))
	assert.Equal(t, "test-key", got.Header.Get("apikey"))
	assert.Equal(t, "Bearer tok-123", got.Header.Get("Authorization"))
	assert.Equal(t, "count=exact", got.Header.Get("Prefer"))
	assert.Equal(t, "items", got.Header.Get("Range-Unit"))
	assert.Equal(t, "0-1", got.Header.Get("Range"))
}

func TestSelectWithoutRangeReportsNoTotal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	var items []row
	total, err := c.Select(context.Background(), "notes", Query{}, &items)
	require.NoError(t, err)
	assert.Equal(t, -1, total)
}

func TestSelectOneMapsNoRowToNotFound(t *testing.T) {
	var accept string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusNotAcceptable)
		_, _ = w.Write([]byte(`{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`))
	})

	var dest row
	err := c.SelectOne(context.Background(), "notes", Query{}.Eq("id", "nope"), &dest)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "application/vnd.pgrst.object+json", accept)
}

func TestInsertOneAsksForRepresentation(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"new","title":"created"}`))
	})

	var created row
	err := c.InsertOne(context.Background(), "notes", map[string]string{"title": "created"}, &created)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "return=representation", got.Header.Get("Prefer"))
	assert.Equal(t, "new", created.ID)
}

func TestDeleteWhereCountsRemovedRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = w.Write([]byte(`[{"id":"a"},{"id":"b"}]`))
	})

	removed, err := c.DeleteWhere(context.Background(), "notes", Query{}.Eq("user_id", "o"))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}

func TestDeleteWhereZeroRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	removed, err := c.DeleteWhere(context.Background(), "notes", Query{}.Eq("id", "gone"))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestErrorResponseCarriesStatusAndMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"user_id filter does not match token subject"}`))
	})

	var items []row
	_, err := c.Select(context.Background(), "notes", Query{}, &items)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))

	var remoteErr *Error
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusForbidden, remoteErr.Status)
	assert.Contains(t, remoteErr.Message, "token subject")
}

func TestPing(t *testing.T) {
	status := http.StatusOK
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		w.WriteHeader(status)
	})

	require.NoError(t, c.Ping(context.Background()))

	status = http.StatusInternalServerError
	require.Error(t, c.Ping(context.Background()))
}

func TestSignIn(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600,"expires_at":1900000000}`))
	})

	tok, err := c.SignIn(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)
	assert.Equal(t, int64(3600), tok.ExpiresIn)
	assert.Equal(t, int64(1900000000), tok.ExpiresAt)
}

func TestSignInRejectsEmptyToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.SignIn(context.Background(), "alice", "pw")
	require.Error(t, err)
}
