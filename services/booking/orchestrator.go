// Package booking books and cancels schedule slots for a student session.
package booking

import (
	"context"
	"encoding/json"
	"fmt"

	"halaqat/models"
	"halaqat/services/fetcher"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a step of a single book or cancel attempt.
type State string

const (
	StateIdle         State = "idle"
	StateResolving    State = "resolving"
	StateTokenRefresh State = "token-refresh"
	StateSubmitting   State = "submitting"
	StateConfirmed    State = "confirmed"
	StateFailed       State = "failed"
)

// maxSubmitAttempts bounds the token-rejection retry: one submit plus one retry.
const maxSubmitAttempts = 2

// Orchestrator holds no per-attempt state and may run attempts for different
// slots in parallel. Callers must not start two attempts for the same slot at once.
type Orchestrator struct {
	Guard    TokenRefresher
	Fetcher  Mutator
	Resolver DetailResolver
	Views    ViewRefresher
	Logger   *zap.Logger

	// OnTransition, when set, observes every state change.
	OnTransition func(attemptID string, from, to State)
}

func NewOrchestrator(guard TokenRefresher, f Mutator, resolver DetailResolver, views ViewRefresher, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{Guard: guard, Fetcher: f, Resolver: resolver, Views: views, Logger: logger}
}

type attempt struct {
	id    string
	state State
	log   *zap.Logger
	o     *Orchestrator
}

func (o *Orchestrator) newAttempt(op string, fields ...zap.Field) *attempt {
	id := uuid.New().String()
	fields = append(fields, zap.String("op", op), zap.String("attemptID", id))
	return &attempt{id: id, state: StateIdle, log: o.Logger.With(fields...), o: o}
}

func (a *attempt) to(next State) {
	a.log.Debug("booking state", zap.String("from", string(a.state)), zap.String("to", string(next)))
	if a.o.OnTransition != nil {
		a.o.OnTransition(a.id, a.state, next)
	}
	a.state = next
}

func (a *attempt) fail(msg string, err error) models.BookingResult {
	a.to(StateFailed)
	a.log.Warn("booking attempt failed", zap.String("message", msg), zap.Error(err))
	return models.BookingResult{Success: false, Message: msg}
}

// Book refreshes the token, resolves the plan detail, and submits the booking.
// A token rejection is retried once with the same resolved detail.
func (o *Orchestrator) Book(ctx context.Context, scheduleID, planID, candidateDetailID int64) models.BookingResult {
	a := o.newAttempt("book",
		zap.Int64("scheduleID", scheduleID),
		zap.Int64("planID", planID),
		zap.Int64("candidateDetailID", candidateDetailID),
	)

	a.to(StateResolving)
	o.Guard.RefreshToken(ctx)
	detailID := o.Resolver.Resolve(ctx, planID, candidateDetailID)

	body := models.BookRequest{PlanID: planID, PlanDetailsID: detailID}
	path := fmt.Sprintf("student/plans/schedules/%d/book", scheduleID)

	var (
		resp *fetcher.Response
		err  error
	)
	for n := 1; n <= maxSubmitAttempts; n++ {
		if n > 1 {
			a.to(StateTokenRefresh)
			o.Guard.RefreshToken(ctx)
		}
		a.to(StateSubmitting)
		resp, err = o.Fetcher.Post(ctx, path, body)
		if !tokenRejected(err) {
			break
		}
		a.log.Warn("session token rejected", zap.Int("submit", n))
	}
	if err != nil {
		return a.fail(failureMessage(err, MsgBookFailed), err)
	}
	if rejectedByEnvelope(resp) {
		return a.fail(messageOr(resp.Envelope.Message, MsgBookFailed), nil)
	}

	a.to(StateConfirmed)
	a.log.Info("booking confirmed", zap.Int64("planDetailsID", detailID))
	o.refreshViews(ctx, a)

	return models.BookingResult{
		Success: true,
		Message: messageOr(resp.Envelope.Message, MsgBooked),
		Booking: decodeBooking(resp, a.log),
	}
}

// Cancel refreshes the token and sends a single cancellation.
func (o *Orchestrator) Cancel(ctx context.Context, bookingID int64) models.BookingResult {
	a := o.newAttempt("cancel", zap.Int64("bookingID", bookingID))

	a.to(StateTokenRefresh)
	o.Guard.RefreshToken(ctx)

	a.to(StateSubmitting)
	resp, err := o.Fetcher.Delete(ctx, fmt.Sprintf("student/plans/bookings/%d", bookingID))
	if err != nil {
		return a.fail(failureMessage(err, MsgCancelFailed), err)
	}
	if rejectedByEnvelope(resp) {
		return a.fail(messageOr(resp.Envelope.Message, MsgCancelFailed), nil)
	}

	a.to(StateConfirmed)
	a.log.Info("booking cancelled")
	o.refreshViews(ctx, a)

	return models.BookingResult{
		Success: true,
		Message: messageOr(resp.Envelope.Message, MsgCancelled),
		Booking: decodeBooking(resp, a.log),
	}
}

// refreshViews runs strictly after a confirmed mutation and before the result
// is returned. Refresh errors do not undo the mutation.
func (o *Orchestrator) refreshViews(ctx context.Context, a *attempt) {
	if o.Views == nil {
		return
	}
	if err := o.Views.Refetch(ctx); err != nil {
		a.log.Warn("plan view refresh failed", zap.Error(err))
	}
	if err := o.Views.RefetchBookings(ctx); err != nil {
		a.log.Warn("booking view refresh failed", zap.Error(err))
	}
}

// rejectedByEnvelope catches 2xx responses that carry {"success": false}.
func rejectedByEnvelope(resp *fetcher.Response) bool {
	return resp.Envelope.Success != nil && !*resp.Envelope.Success
}

func decodeBooking(resp *fetcher.Response, log *zap.Logger) *models.Booking {
	if len(resp.Envelope.Data) == 0 || string(resp.Envelope.Data) == "null" {
		return nil
	}
	var b models.Booking
	if err := json.Unmarshal(resp.Envelope.Data, &b); err != nil {
		log.Debug("booking payload not decodable", zap.Error(err))
		return nil
	}
	return &b
}
