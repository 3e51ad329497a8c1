package viewcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"halaqat/models"

	"github.com/go-redis/redis/v8"
)

// Store persists the cached projections of each student session.
// Load methods return nil, nil when nothing is cached.
type Store interface {
	SavePlans(ctx context.Context, sessionID string, page models.PlanPage) error
	LoadPlans(ctx context.Context, sessionID, planType string) (*models.PlanPage, error)
	SaveBookings(ctx context.Context, sessionID string, page models.BookingPage) error
	LoadBookings(ctx context.Context, sessionID string) (*models.BookingPage, error)
	Clear(ctx context.Context, sessionID string) error
}

const cacheKeyPrefix = "viewcache:"

func plansKey(sessionID, planType string) string {
	return fmt.Sprintf("%s%s:plans:%s", cacheKeyPrefix, sessionID, planType)
}

func bookingsKey(sessionID string) string {
	return fmt.Sprintf("%s%s:bookings", cacheKeyPrefix, sessionID)
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps projections in process memory.
type MemoryStore struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (m *MemoryStore) SavePlans(_ context.Context, sessionID string, page models.PlanPage) error {
	return m.set(plansKey(sessionID, page.Type), page)
}

func (m *MemoryStore) LoadPlans(_ context.Context, sessionID, planType string) (*models.PlanPage, error) {
	var page models.PlanPage
	ok, err := m.get(plansKey(sessionID, planType), &page)
	if err != nil || !ok {
		return nil, err
	}
	return &page, nil
}

func (m *MemoryStore) SaveBookings(_ context.Context, sessionID string, page models.BookingPage) error {
	return m.set(bookingsKey(sessionID), page)
}

func (m *MemoryStore) LoadBookings(_ context.Context, sessionID string) (*models.BookingPage, error) {
	var page models.BookingPage
	ok, err := m.get(bookingsKey(sessionID), &page)
	if err != nil || !ok {
		return nil, err
	}
	return &page, nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, plansKey(sessionID, models.PlanTypeAvailable))
	delete(m.entries, plansKey(sessionID, models.PlanTypeMyPlans))
	delete(m.entries, bookingsKey(sessionID))
	return nil
}

// Entries are stored serialized so callers never share slices with the cache.
func (m *MemoryStore) set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{data: data, expiresAt: time.Now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) get(key string, v any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if m.ttl > 0 && time.Now().After(e.expiresAt) {
		m.evictExpired(key)
		return false, nil
	}
	if err := json.Unmarshal(e.data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return true, nil
}

// RedisStore keeps projections in redis so they survive gateway restarts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) SavePlans(ctx context.Context, sessionID string, page models.PlanPage) error {
	return r.set(ctx, plansKey(sessionID, page.Type), page)
}

func (r *RedisStore) LoadPlans(ctx context.Context, sessionID, planType string) (*models.PlanPage, error) {
	var page models.PlanPage
	ok, err := r.get(ctx, plansKey(sessionID, planType), &page)
	if err != nil || !ok {
		return nil, err
	}
	return &page, nil
}

func (r *RedisStore) SaveBookings(ctx context.Context, sessionID string, page models.BookingPage) error {
	return r.set(ctx, bookingsKey(sessionID), page)
}

func (r *RedisStore) LoadBookings(ctx context.Context, sessionID string) (*models.BookingPage, error) {
	var page models.BookingPage
	ok, err := r.get(ctx, bookingsKey(sessionID), &page)
	if err != nil || !ok {
		return nil, err
	}
	return &page, nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx,
		plansKey(sessionID, models.PlanTypeAvailable),
		plansKey(sessionID, models.PlanTypeMyPlans),
		bookingsKey(sessionID),
	).Err()
}

func (r *RedisStore) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

func (r *RedisStore) get(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return true, nil
}

// evictExpired deletes key only if the entry stored now is still expired; a
// set may have replaced it since the caller dropped the read lock.
func (m *MemoryStore) evictExpired(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.entries[key]; ok && time.Now().After(cur.expiresAt) {
		delete(m.entries, key)
	}
}
