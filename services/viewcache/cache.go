// Package viewcache holds the last fetched page of plans and bookings for a
// student session. It is a disposable projection: every mutation re-fetches.
package viewcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"halaqat/models"
	"halaqat/services/fetcher"

	"go.uber.org/zap"
)

// Source reads listing endpoints from the backend.
type Source interface {
	Get(ctx context.Context, path string) (*fetcher.Response, error)
}

var planPaths = map[string]string{
	models.PlanTypeAvailable: "student/plans/available",
	models.PlanTypeMyPlans:   "student/plans/my-plans",
}

const bookingsPath = "student/plans/bookings"

// ViewCache is safe for concurrent use.
type ViewCache struct {
	sessionID string
	source    Source
	store     Store
	logger    *zap.Logger

	mu          sync.Mutex
	planType    string
	planPage    int
	bookingPage int

	planRefreshes    atomic.Int64
	bookingRefreshes atomic.Int64
}

func New(sessionID string, source Source, store Store, logger *zap.Logger) *ViewCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewCache{
		sessionID:   sessionID,
		source:      source,
		store:       store,
		logger:      logger.With(zap.String("sessionID", sessionID)),
		planType:    models.PlanTypeAvailable,
		planPage:    1,
		bookingPage: 1,
	}
}

// FetchPlans replaces the cached page for planType and makes it the current listing.
func (v *ViewCache) FetchPlans(ctx context.Context, page int, planType string) (*models.PlanPage, error) {
	path, ok := planPaths[planType]
	if !ok {
		return nil, fmt.Errorf("unknown plan listing type %q", planType)
	}
	if page < 1 {
		page = 1
	}

	resp, err := v.source.Get(ctx, fmt.Sprintf("%s?page=%d", path, page))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s plans: %w", planType, err)
	}

	items, pagination := parseListing(resp.Body)
	plans := make([]models.Plan, 0, len(items))
	for _, raw := range items {
		if plan, ok := normalizePlan(raw); ok {
			plans = append(plans, plan)
		}
	}
	result := models.PlanPage{Type: planType, Plans: plans, Pagination: pagination}

	if err := v.store.SavePlans(ctx, v.sessionID, result); err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.planType = planType
	v.planPage = page
	v.mu.Unlock()

	v.logger.Debug("plans cached",
		zap.String("type", planType),
		zap.Int("page", page),
		zap.Int("count", len(plans)),
	)
	return &result, nil
}

// FetchBookings replaces the cached bookings page.
func (v *ViewCache) FetchBookings(ctx context.Context, page int) (*models.BookingPage, error) {
	if page < 1 {
		page = 1
	}
	resp, err := v.source.Get(ctx, fmt.Sprintf("%s?page=%d", bookingsPath, page))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings: %w", err)
	}

	items, pagination := parseListing(resp.Body)
	bookings := make([]models.Booking, 0, len(items))
	for _, raw := range items {
		var b models.Booking
		if err := json.Unmarshal(raw, &b); err != nil {
			v.logger.Warn("skipping undecodable booking", zap.Error(err))
			continue
		}
		bookings = append(bookings, b)
	}
	result := models.BookingPage{Bookings: bookings, Pagination: pagination}

	if err := v.store.SaveBookings(ctx, v.sessionID, result); err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.bookingPage = page
	v.mu.Unlock()
	return &result, nil
}

// Refetch re-issues FetchPlans for the current page and type.
func (v *ViewCache) Refetch(ctx context.Context) error {
	v.planRefreshes.Add(1)
	v.mu.Lock()
	planType, page := v.planType, v.planPage
	v.mu.Unlock()
	_, err := v.FetchPlans(ctx, page, planType)
	return err
}

// RefetchBookings re-issues FetchBookings for the current page.
func (v *ViewCache) RefetchBookings(ctx context.Context) error {
	v.bookingRefreshes.Add(1)
	v.mu.Lock()
	page := v.bookingPage
	v.mu.Unlock()
	_, err := v.FetchBookings(ctx, page)
	return err
}

// Plans returns the cached page for planType without fetching.
func (v *ViewCache) Plans(ctx context.Context, planType string) (*models.PlanPage, error) {
	return v.store.LoadPlans(ctx, v.sessionID, planType)
}

// Bookings returns the cached bookings page without fetching.
func (v *ViewCache) Bookings(ctx context.Context) (*models.BookingPage, error) {
	return v.store.LoadBookings(ctx, v.sessionID)
}

// Clear drops every cached projection of the session.
func (v *ViewCache) Clear(ctx context.Context) error {
	return v.store.Clear(ctx, v.sessionID)
}

func (v *ViewCache) PlanRefreshes() int64    { return v.planRefreshes.Load() }
func (v *ViewCache) BookingRefreshes() int64 { return v.bookingRefreshes.Load() }
