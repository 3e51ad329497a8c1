package resolvers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlanPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		shape   PlanShape
		wantIDs []int64
	}{
		{
			name:    "bare object with details list",
			payload: `{"id":42,"details":[{"id":101},{"id":102},{"id":103}]}`,
			shape:   ShapeObjectWithID,
			wantIDs: []int64{101, 102, 103},
		},
		{
			name:    "object wrapped in data",
			payload: `{"success":true,"data":{"id":"42","plan_details":{"data":[{"id":7},{"id":9}]}}}`,
			shape:   ShapeObjectWithID,
			wantIDs: []int64{7, 9},
		},
		{
			name:    "paginated list, first element with id",
			payload: `{"data":[{"name":"no id"},{"id":42,"planDetails":[12,"13",12]}],"current_page":1}`,
			shape:   ShapePaginatedWithID,
			wantIDs: []int64{12, 13},
		},
		{
			name:    "paginated list without ids",
			payload: `{"data":[{"details":[{"id":5}]}]}`,
			shape:   ShapePaginatedNonEmpty,
			wantIDs: []int64{5},
		},
		{
			name:    "bare list",
			payload: `[{"id":1,"details":{"data":[{"id":3}]}}]`,
			shape:   ShapePaginatedWithID,
			wantIDs: []int64{3},
		},
		{name: "empty data list", payload: `{"data":[]}`, shape: ShapeNotFound},
		{name: "null data", payload: `{"data":null}`, shape: ShapeNotFound},
		{name: "object without id or data", payload: `{"message":"x"}`, shape: ShapeNotFound},
		{name: "not json", payload: `<html>`, shape: ShapeNotFound},
		{name: "empty body", payload: ``, shape: ShapeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, shape := NormalizePlanPayload([]byte(tt.payload))
			assert.Equal(t, tt.shape, shape, shape.String())
			if tt.shape == ShapeNotFound {
				assert.Nil(t, plan)
				return
			}
			assert.Equal(t, tt.wantIDs, DetailIDs(plan))
		})
	}
}

func TestDetailIDs_MissingOrMalformed(t *testing.T) {
	plan, _ := NormalizePlanPayload([]byte(`{"id":1,"details":"n/a"}`))
	assert.Empty(t, DetailIDs(plan))

	plan, _ = NormalizePlanPayload([]byte(`{"id":1}`))
	assert.Empty(t, DetailIDs(plan))

	plan, _ = NormalizePlanPayload([]byte(`{"id":1,"details":[{"id":null},{"id":"x"},{"id":4}]}`))
	assert.Equal(t, []int64{4}, DetailIDs(plan))
}

func TestDetailIDs_NullKeyFallsThrough(t *testing.T) {
	plan, _ := NormalizePlanPayload([]byte(`{"id":42,"details":null,"plan_details":[{"id":101}]}`))
	assert.Equal(t, []int64{101}, DetailIDs(plan))

	plan, _ = NormalizePlanPayload([]byte(`{"id":42,"details":{"data":null},"planDetails":{"data":[{"id":7}]}}`))
	assert.Equal(t, []int64{7}, DetailIDs(plan))
}
