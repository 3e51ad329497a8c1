package resolvers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"halaqat/services/fetcher"

	"github.com/stretchr/testify/assert"
)

type fakePlans struct {
	body  string
	err   error
	calls atomic.Int64
	path  string
}

func (f *fakePlans) Get(_ context.Context, path string) (*fetcher.Response, error) {
	f.calls.Add(1)
	f.path = path
	if f.err != nil {
		return nil, f.err
	}
	return &fetcher.Response{Status: 200, Body: []byte(f.body)}, nil
}

func TestResolve_ExactMatch(t *testing.T) {
	plans := &fakePlans{body: `{"id":42,"details":[{"id":101},{"id":102},{"id":103}]}`}
	r := NewPlanDetailResolver(plans, nil)

	assert.Equal(t, int64(102), r.Resolve(context.Background(), 42, 102))
	assert.Equal(t, int64(1), plans.calls.Load())
	assert.Equal(t, "plans/42", plans.path)
}

func TestResolve_SubstitutesFirstDetail(t *testing.T) {
	plans := &fakePlans{body: `{"data":{"id":1,"details":[{"id":7},{"id":9},{"id":12}]}}`}
	r := NewPlanDetailResolver(plans, nil)

	for _, candidate := range []int64{0, 8, 999, -1} {
		assert.Equal(t, int64(7), r.Resolve(context.Background(), 1, candidate), "candidate %d", candidate)
	}
	assert.Equal(t, int64(4), plans.calls.Load(), "one plan read per resolve")
}

func TestResolve_FetchFailureKeepsCandidate(t *testing.T) {
	plans := &fakePlans{err: &fetcher.RequestError{Status: 500}}
	r := NewPlanDetailResolver(plans, nil)

	assert.Equal(t, int64(999), r.Resolve(context.Background(), 42, 999))

	plans.err = errors.New("connection refused")
	assert.Equal(t, int64(5), r.Resolve(context.Background(), 42, 5))
}

func TestResolve_EmptyDetailsKeepsCandidate(t *testing.T) {
	for _, body := range []string{
		`{"id":42,"details":[]}`,
		`{"id":42}`,
		`{"data":[]}`,
		`not json`,
	} {
		r := NewPlanDetailResolver(&fakePlans{body: body}, nil)
		assert.Equal(t, int64(999), r.Resolve(context.Background(), 42, 999), body)
	}
}

func TestResolve_NullDetailsKeySubstitutesFromNextKey(t *testing.T) {
	plans := &fakePlans{body: `{"id":42,"details":null,"plan_details":[{"id":101}]}`}
	r := NewPlanDetailResolver(plans, nil)

	assert.Equal(t, int64(101), r.Resolve(context.Background(), 42, 999))
}
