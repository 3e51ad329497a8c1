// Package session keeps the anti-forgery token of one student session valid.
package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// Options configures where the token comes from and where it goes.
type Options struct {
	HandshakeURL string // GET endpoint that sets the token cookie
	APIBaseURL   string // backend the token is presented to
	CookieName   string
	HeaderName   string
}

// Guard is the only component allowed to read the token cookie. All methods
// are safe for concurrent use; handshakes are serialized per guard.
type Guard struct {
	client       *http.Client
	handshakeURL *url.URL
	apiURL       *url.URL
	cookieName   string
	headerName   string
	logger       *zap.Logger

	mu         sync.Mutex
	handshakes atomic.Int64
}

// NewClient builds an HTTP client with its own cookie jar. The jar is the
// session's client-side storage.
func NewClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: timeout}, nil
}

// NewGuard binds a guard to a jar-bearing client.
func NewGuard(client *http.Client, opts Options, logger *zap.Logger) (*Guard, error) {
	if client == nil || client.Jar == nil {
		return nil, fmt.Errorf("session guard requires a client with a cookie jar")
	}
	hs, err := url.Parse(opts.HandshakeURL)
	if err != nil || hs.Host == "" {
		return nil, fmt.Errorf("invalid token handshake url %q", opts.HandshakeURL)
	}
	api, err := url.Parse(opts.APIBaseURL)
	if err != nil || api.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", opts.APIBaseURL)
	}
	if opts.CookieName == "" || opts.HeaderName == "" {
		return nil, fmt.Errorf("token cookie and header names are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		client:       client,
		handshakeURL: hs,
		apiURL:       api,
		cookieName:   opts.CookieName,
		headerName:   opts.HeaderName,
		logger:       logger,
	}, nil
}

// EnsureToken runs the handshake only when no token is stored.
func (g *Guard) EnsureToken(ctx context.Context) {
	if g.token() != "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	// Another caller may have finished a handshake while we waited.
	if g.token() != "" {
		return
	}
	g.handshake(ctx)
}

// RefreshToken re-runs the handshake unconditionally.
func (g *Guard) RefreshToken(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handshake(ctx)
}

// CurrentHeaders returns the headers every backend request carries. The token
// header is present but empty when no token is stored.
func (g *Guard) CurrentHeaders() http.Header {
	h := make(http.Header, 4)
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	h.Set("X-Requested-With", "XMLHttpRequest")
	h.Set(g.headerName, g.token())
	return h
}

// Handshakes is the number of handshakes attempted so far.
func (g *Guard) Handshakes() int64 {
	return g.handshakes.Load()
}

// handshake failures are logged and swallowed; the next request will fail on
// its own with a regular HTTP error.
func (g *Guard) handshake(ctx context.Context) {
	g.handshakes.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.handshakeURL.String(), nil)
	if err != nil {
		g.logger.Warn("token handshake: failed to build request", zap.Error(err))
		return
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("token handshake failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Warn("token handshake rejected", zap.Int("status", resp.StatusCode))
		return
	}
	if g.token() == "" {
		g.logger.Warn("token handshake succeeded but no token cookie was set", zap.String("cookie", g.cookieName))
		return
	}
	g.logger.Debug("token handshake complete")
}

func (g *Guard) token() string {
	for _, u := range []*url.URL{g.apiURL, g.handshakeURL} {
		for _, c := range g.client.Jar.Cookies(u) {
			if c.Name != g.cookieName {
				continue
			}
			// The backend stores the token URL-encoded.
			if v, err := url.QueryUnescape(c.Value); err == nil {
				return v
			}
			return c.Value
		}
	}
	return ""
}
