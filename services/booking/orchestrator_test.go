package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"halaqat/models"
	"halaqat/services/fetcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder keeps the order of backend interactions.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

type fakeGuard struct {
	rec       *recorder
	refreshes int
}

func (g *fakeGuard) RefreshToken(context.Context) {
	g.refreshes++
	g.rec.add("refresh")
}

type reply struct {
	status int
	body   string
}

type fakeMutator struct {
	rec     *recorder
	replies []reply
	posts   int
	deletes int
	bodies  []models.BookRequest
	paths   []string
}

func (m *fakeMutator) next() (*fetcher.Response, error) {
	r := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	if r.status == 0 {
		return nil, &fetcher.RequestError{Err: errors.New("connection reset")}
	}
	var env models.Envelope
	_ = json.Unmarshal([]byte(r.body), &env)
	if r.status < 200 || r.status >= 300 {
		return nil, &fetcher.RequestError{Status: r.status, Message: env.Message, FieldErrors: env.Errors.Map()}
	}
	return &fetcher.Response{Status: r.status, Body: []byte(r.body), Envelope: env}, nil
}

func (m *fakeMutator) Post(_ context.Context, path string, body any) (*fetcher.Response, error) {
	m.posts++
	m.rec.add("submit")
	m.paths = append(m.paths, path)
	m.bodies = append(m.bodies, body.(models.BookRequest))
	return m.next()
}

func (m *fakeMutator) Delete(_ context.Context, path string) (*fetcher.Response, error) {
	m.deletes++
	m.rec.add("delete")
	m.paths = append(m.paths, path)
	return m.next()
}

type fakeResolver struct {
	rec     *recorder
	details []int64
	calls   int
}

func (r *fakeResolver) Resolve(_ context.Context, _ int64, candidate int64) int64 {
	r.calls++
	r.rec.add("resolve")
	if len(r.details) == 0 {
		return candidate
	}
	for _, id := range r.details {
		if id == candidate {
			return candidate
		}
	}
	return r.details[0]
}

type fakeViews struct {
	rec             *recorder
	plans, bookings int
	err             error
}

func (v *fakeViews) Refetch(context.Context) error {
	v.plans++
	v.rec.add("refetch-plans")
	return v.err
}

func (v *fakeViews) RefetchBookings(context.Context) error {
	v.bookings++
	v.rec.add("refetch-bookings")
	return v.err
}

type fixture struct {
	rec      *recorder
	guard    *fakeGuard
	mutator  *fakeMutator
	resolver *fakeResolver
	views    *fakeViews
	o        *Orchestrator
	states   []State
}

func setup(replies ...reply) *fixture {
	rec := &recorder{}
	f := &fixture{
		rec:      rec,
		guard:    &fakeGuard{rec: rec},
		mutator:  &fakeMutator{rec: rec, replies: replies},
		resolver: &fakeResolver{rec: rec, details: []int64{101, 102, 103}},
		views:    &fakeViews{rec: rec},
	}
	f.o = NewOrchestrator(f.guard, f.mutator, f.resolver, f.views, nil)
	f.o.OnTransition = func(_ string, _, to State) { f.states = append(f.states, to) }
	return f
}

func TestBook_ResolvesStaleDetailAndSucceeds(t *testing.T) {
	f := setup(reply{200, `{"message":"تم الحجز بنجاح","data":{"id":77,"status":"pending","plan_id":42}}`})

	res := f.o.Book(context.Background(), 5, 42, 999)

	assert.True(t, res.Success)
	assert.Equal(t, "تم الحجز بنجاح", res.Message)
	require.NotNil(t, res.Booking)
	assert.Equal(t, int64(77), res.Booking.ID)
	assert.Equal(t, []models.BookRequest{{PlanID: 42, PlanDetailsID: 101}}, f.mutator.bodies)
	assert.Equal(t, "student/plans/schedules/5/book", f.mutator.paths[0])
	assert.Equal(t, []State{StateResolving, StateSubmitting, StateConfirmed}, f.states)
}

func TestBook_RetriesOnceAfterTokenRejection(t *testing.T) {
	f := setup(reply{419, `{"message":"CSRF token mismatch."}`}, reply{200, `{}`})

	res := f.o.Book(context.Background(), 5, 42, 102)

	assert.True(t, res.Success)
	assert.Equal(t, MsgBooked, res.Message, "default message when the body has none")
	assert.Equal(t, 2, f.mutator.posts)
	assert.Equal(t, 2, f.guard.refreshes)
	assert.Equal(t, 1, f.resolver.calls, "retry must not re-resolve")
	assert.Equal(t, f.mutator.bodies[0], f.mutator.bodies[1])
	assert.Equal(t, []State{
		StateResolving, StateSubmitting, StateTokenRefresh, StateSubmitting, StateConfirmed,
	}, f.states)
}

func TestBook_GivesUpAfterSecondTokenRejection(t *testing.T) {
	f := setup(reply{419, `{}`})

	res := f.o.Book(context.Background(), 5, 42, 102)

	assert.False(t, res.Success)
	assert.Equal(t, MsgSessionExpired, res.Message)
	assert.Equal(t, 2, f.mutator.posts)
	assert.Equal(t, 2, f.guard.refreshes)
	assert.Zero(t, f.views.plans)
	assert.Zero(t, f.views.bookings)
	assert.Equal(t, StateFailed, f.states[len(f.states)-1])
}

func TestBook_ValidationErrorIsNotRetried(t *testing.T) {
	f := setup(reply{422, `{"message":"The given data was invalid.","errors":{"plan_details_id":["غير صالح"]}}`})

	res := f.o.Book(context.Background(), 5, 42, 101)

	assert.False(t, res.Success)
	assert.Equal(t, "غير صالح", res.Message)
	assert.Equal(t, 1, f.mutator.posts)
	assert.Equal(t, 1, f.guard.refreshes)
	assert.Nil(t, res.Booking)
}

func TestBook_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		r    reply
		want string
	}{
		{"server message", reply{409, `{"message":"الحلقة ممتلئة"}`}, "الحلقة ممتلئة"},
		{"server error without body", reply{500, ``}, MsgServer},
		{"client error without body", reply{404, ``}, MsgBookFailed},
		{"network", reply{0, ``}, MsgNetwork},
		{"2xx with success false", reply{200, `{"success":false,"message":"لا توجد أماكن"}`}, "لا توجد أماكن"},
		{"2xx with success false and no message", reply{200, `{"success":false}`}, MsgBookFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(tt.r)
			res := f.o.Book(context.Background(), 1, 42, 101)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Message)
			assert.Equal(t, 1, f.mutator.posts)
			assert.Zero(t, f.views.plans)
		})
	}
}

func TestBook_RefreshesBothViewsAfterSuccess(t *testing.T) {
	f := setup(reply{200, `{"success":true,"message":"ok"}`})

	res := f.o.Book(context.Background(), 5, 42, 101)

	require.True(t, res.Success)
	assert.Equal(t, 1, f.views.plans)
	assert.Equal(t, 1, f.views.bookings)
	assert.Equal(t, []string{"refresh", "resolve", "submit", "refetch-plans", "refetch-bookings"}, f.rec.calls)
}

func TestBook_RefreshErrorKeepsSuccess(t *testing.T) {
	f := setup(reply{200, `{"message":"ok"}`})
	f.views.err = &fetcher.RequestError{Status: http.StatusBadGateway}

	res := f.o.Book(context.Background(), 5, 42, 101)

	assert.True(t, res.Success)
	assert.Equal(t, 1, f.views.plans)
	assert.Equal(t, 1, f.views.bookings)
}

func TestCancel(t *testing.T) {
	f := setup(reply{200, `{}`})

	res := f.o.Cancel(context.Background(), 77)

	assert.True(t, res.Success)
	assert.Equal(t, MsgCancelled, res.Message)
	assert.Equal(t, "student/plans/bookings/77", f.mutator.paths[0])
	assert.Equal(t, []string{"refresh", "delete", "refetch-plans", "refetch-bookings"}, f.rec.calls)
}

func TestCancel_SingleAttemptOnTokenRejection(t *testing.T) {
	f := setup(reply{419, `{}`}, reply{200, `{}`})

	res := f.o.Cancel(context.Background(), 77)

	assert.False(t, res.Success)
	assert.Equal(t, MsgSessionExpired, res.Message)
	assert.Equal(t, 1, f.mutator.deletes)
	assert.Zero(t, f.views.plans)
	assert.Zero(t, f.views.bookings)
}

func TestCancel_ServerMessage(t *testing.T) {
	f := setup(reply{403, `{"message":"لا يمكن إلغاء هذا الحجز"}`})

	res := f.o.Cancel(context.Background(), 77)

	assert.False(t, res.Success)
	assert.Equal(t, "لا يمكن إلغاء هذا الحجز", res.Message)
}
