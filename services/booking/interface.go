package booking

import (
	"context"

	"halaqat/models"
	"halaqat/services/fetcher"
)

// BookingService is what the HTTP layer needs from the orchestrator.
type BookingService interface {
	Book(ctx context.Context, scheduleID, planID, candidateDetailID int64) models.BookingResult
	Cancel(ctx context.Context, bookingID int64) models.BookingResult
}

// TokenRefresher forces a fresh anti-forgery token.
type TokenRefresher interface {
	RefreshToken(ctx context.Context)
}

// Mutator sends the booking mutations.
type Mutator interface {
	Post(ctx context.Context, path string, body any) (*fetcher.Response, error)
	Delete(ctx context.Context, path string) (*fetcher.Response, error)
}

// DetailResolver corrects stale plan detail ids before submission.
type DetailResolver interface {
	Resolve(ctx context.Context, planID, candidateDetailID int64) int64
}

// ViewRefresher re-fetches the views that depend on bookings.
type ViewRefresher interface {
	Refetch(ctx context.Context) error
	RefetchBookings(ctx context.Context) error
}
