// Package student wires the booking core together for each browser session.
package student

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"halaqat/models"
	"halaqat/resolvers"
	"halaqat/services/booking"
	"halaqat/services/fetcher"
	"halaqat/services/session"
	"halaqat/services/viewcache"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrSessionNotFound = errors.New("student session not found or expired")

// Config describes the backend every session talks to.
type Config struct {
	APIBaseURL     string
	HandshakeURL   string
	CookieName     string
	HeaderName     string
	RequestTimeout time.Duration
	IdleTimeout    time.Duration
}

// Session is one student's view of the backend: its own cookie jar and the
// components bound to it.
type Session struct {
	ID       string
	Guard    *session.Guard
	Fetcher  *fetcher.Fetcher
	Resolver *resolvers.PlanDetailResolver
	Booking  booking.BookingService
	Views    *viewcache.ViewCache

	lastSeen       atomic.Int64
	inflight       singleflight.Group
	attemptTimeout time.Duration
}

// callsPerAttempt bounds the backend calls of one booking attempt: two
// handshakes, the plan read, two submits and the two view refreshes.
const callsPerAttempt = 7

// Book runs one attempt per identical booking request at a time. A concurrent
// request with the same slot, plan and detail waits for and shares the running
// attempt's result. The shared attempt is detached from any one caller's
// cancellation and bounded by attemptTimeout instead.
func (s *Session) Book(ctx context.Context, scheduleID, planID, candidateDetailID int64) (models.BookingResult, bool) {
	key := fmt.Sprintf("%d:%d:%d", scheduleID, planID, candidateDetailID)
	v, _, shared := s.inflight.Do(key, func() (any, error) {
		attemptCtx := context.WithoutCancel(ctx)
		if s.attemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(attemptCtx, s.attemptTimeout)
			defer cancel()
		}
		return s.Booking.Book(attemptCtx, scheduleID, planID, candidateDetailID), nil
	})
	return v.(models.BookingResult), shared
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Registry owns all live student sessions.
type Registry struct {
	cfg    Config
	store  viewcache.Store
	logger *zap.Logger
	apiURL *url.URL
	hsURL  *url.URL

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(cfg Config, store viewcache.Store, logger *zap.Logger) (*Registry, error) {
	apiURL, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	hsURL, err := url.Parse(cfg.HandshakeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid token handshake url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		apiURL:   apiURL,
		hsURL:    hsURL,
		sessions: make(map[string]*Session),
	}, nil
}

// Create builds a new session. seed holds the browser's backend cookies
// (credentials established elsewhere) and is copied into the session's jar.
func (r *Registry) Create(seed []*http.Cookie) (*Session, error) {
	client, err := session.NewClient(r.cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	if len(seed) > 0 {
		cookies := make([]*http.Cookie, 0, len(seed))
		for _, c := range seed {
			cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
		}
		client.Jar.SetCookies(r.apiURL, cookies)
		if r.hsURL.Host != r.apiURL.Host {
			client.Jar.SetCookies(r.hsURL, cookies)
		}
	}

	id := uuid.New().String()
	log := r.logger.With(zap.String("sessionID", id))

	guard, err := session.NewGuard(client, session.Options{
		HandshakeURL: r.cfg.HandshakeURL,
		APIBaseURL:   r.cfg.APIBaseURL,
		CookieName:   r.cfg.CookieName,
		HeaderName:   r.cfg.HeaderName,
	}, log)
	if err != nil {
		return nil, err
	}
	f := fetcher.New(r.cfg.APIBaseURL, client, guard, log)
	resolver := resolvers.NewPlanDetailResolver(f, log)
	views := viewcache.New(id, f, r.store, log)

	s := &Session{
		ID:       id,
		Guard:    guard,
		Fetcher:  f,
		Resolver: resolver,
		Booking:  booking.NewOrchestrator(guard, f, resolver, views, log),
		Views:    views,

		attemptTimeout: r.cfg.RequestTimeout * callsPerAttempt,
	}
	s.touch(time.Now())

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	log.Info("student session created", zap.Int("seededCookies", len(seed)))
	return s, nil
}

// Get returns a live session and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(time.Now())
	return s, nil
}

// Remove drops a session and its cached views.
func (r *Registry) Remove(ctx context.Context, id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := s.Views.Clear(ctx); err != nil {
		r.logger.Warn("failed to clear session views", zap.String("sessionID", id), zap.Error(err))
	}
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle longer than the configured timeout.
func (r *Registry) Sweep(ctx context.Context, now time.Time) int {
	if r.cfg.IdleTimeout <= 0 {
		return 0
	}
	var expired []string
	r.mu.RLock()
	for id, s := range r.sessions {
		if s.idleSince(now) > r.cfg.IdleTimeout {
			expired = append(expired, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range expired {
		r.Remove(ctx, id)
	}
	if len(expired) > 0 {
		r.logger.Info("swept idle student sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// StartSweeper sweeps on a ticker until ctx is done.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.Sweep(ctx, now)
			}
		}
	}()
}
