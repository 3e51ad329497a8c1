package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenBackend struct {
	srv   *httptest.Server
	calls atomic.Int64
	token atomic.Value
	fail  atomic.Bool
}

func newTokenBackend(t *testing.T, token string) *tokenBackend {
	b := &tokenBackend{}
	b.token.Store(token)
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sanctum/csrf-cookie" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		b.calls.Add(1)
		if b.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: b.token.Load().(string), Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func setup(t *testing.T, b *tokenBackend) *Guard {
	client, err := NewClient(5 * time.Second)
	require.NoError(t, err)
	g, err := NewGuard(client, Options{
		HandshakeURL: b.srv.URL + "/sanctum/csrf-cookie",
		APIBaseURL:   b.srv.URL + "/api",
		CookieName:   "XSRF-TOKEN",
		HeaderName:   "X-XSRF-TOKEN",
	}, nil)
	require.NoError(t, err)
	return g
}

func TestEnsureToken_HandshakesOnlyWhenMissing(t *testing.T) {
	b := newTokenBackend(t, "tok-1")
	g := setup(t, b)
	ctx := context.Background()

	g.EnsureToken(ctx)
	assert.Equal(t, int64(1), b.calls.Load())
	assert.Equal(t, "tok-1", g.CurrentHeaders().Get("X-XSRF-TOKEN"))

	g.EnsureToken(ctx)
	g.EnsureToken(ctx)
	assert.Equal(t, int64(1), b.calls.Load(), "token present, no further handshakes expected")
	assert.Equal(t, int64(1), g.Handshakes())
}

func TestRefreshToken_AlwaysHandshakes(t *testing.T) {
	b := newTokenBackend(t, "tok-1")
	g := setup(t, b)
	ctx := context.Background()

	g.EnsureToken(ctx)
	b.token.Store("tok-2")
	g.RefreshToken(ctx)

	assert.Equal(t, int64(2), b.calls.Load())
	assert.Equal(t, "tok-2", g.CurrentHeaders().Get("X-XSRF-TOKEN"))
}

func TestCurrentHeaders_DecodesToken(t *testing.T) {
	b := newTokenBackend(t, "abc%3D%3D")
	g := setup(t, b)

	g.EnsureToken(context.Background())
	h := g.CurrentHeaders()

	assert.Equal(t, "abc==", h.Get("X-XSRF-TOKEN"))
	assert.Equal(t, "application/json", h.Get("Accept"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.Equal(t, "XMLHttpRequest", h.Get("X-Requested-With"))
}

func TestHandshakeFailure_DegradesToEmptyToken(t *testing.T) {
	b := newTokenBackend(t, "tok-1")
	b.fail.Store(true)
	g := setup(t, b)

	g.EnsureToken(context.Background())

	h := g.CurrentHeaders()
	_, present := h["X-Xsrf-Token"]
	assert.True(t, present, "token header should be present even when empty")
	assert.Equal(t, "", h.Get("X-XSRF-TOKEN"))
	assert.Equal(t, int64(1), b.calls.Load())
}

func TestHandshakeUnreachable_DoesNotPanic(t *testing.T) {
	b := newTokenBackend(t, "tok-1")
	g := setup(t, b)
	b.srv.Close()

	g.RefreshToken(context.Background())
	assert.Equal(t, "", g.CurrentHeaders().Get("X-XSRF-TOKEN"))
	assert.Equal(t, int64(1), g.Handshakes())
}

func TestNewGuard_RequiresJar(t *testing.T) {
	_, err := NewGuard(&http.Client{}, Options{
		HandshakeURL: "http://localhost/sanctum/csrf-cookie",
		APIBaseURL:   "http://localhost/api",
		CookieName:   "XSRF-TOKEN",
		HeaderName:   "X-XSRF-TOKEN",
	}, nil)
	assert.Error(t, err)
}
