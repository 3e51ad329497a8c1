package resolvers

import (
	"encoding/json"
	"strings"

	"halaqat/models"
)

// PlanShape records which rule of NormalizePlanPayload matched.
type PlanShape int

const (
	ShapeNotFound PlanShape = iota
	ShapeObjectWithID
	ShapePaginatedWithID
	ShapePaginatedNonEmpty
)

func (s PlanShape) String() string {
	switch s {
	case ShapeObjectWithID:
		return "object-with-id"
	case ShapePaginatedWithID:
		return "paginated-with-id"
	case ShapePaginatedNonEmpty:
		return "paginated-nonempty"
	default:
		return "not-found"
	}
}

// detailKeys are the plan fields that may carry the detail list, in lookup order.
var detailKeys = []string{"details", "plan_details", "planDetails"}

// NormalizePlanPayload extracts the plan object from a GET /plans/{id} body.
// Rules, first match wins:
//  1. an object with an id, either bare or under "data"
//  2. a list (bare or under "data") containing an object with an id: the first such object
//  3. a non-empty list: its first object
//  4. not found
func NormalizePlanPayload(raw []byte) (map[string]json.RawMessage, PlanShape) {
	raw = []byte(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return nil, ShapeNotFound
	}

	var list []json.RawMessage
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		if hasID(obj) {
			return obj, ShapeObjectWithID
		}
		data, ok := obj["data"]
		if !ok {
			return nil, ShapeNotFound
		}
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil {
			if hasID(inner) {
				return inner, ShapeObjectWithID
			}
			return nil, ShapeNotFound
		}
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, ShapeNotFound
		}
	} else if err := json.Unmarshal(raw, &list); err != nil {
		return nil, ShapeNotFound
	}

	var first map[string]json.RawMessage
	for _, item := range list {
		var o map[string]json.RawMessage
		if err := json.Unmarshal(item, &o); err != nil {
			continue
		}
		if hasID(o) {
			return o, ShapePaginatedWithID
		}
		if first == nil {
			first = o
		}
	}
	if first != nil {
		return first, ShapePaginatedNonEmpty
	}
	return nil, ShapeNotFound
}

// DetailIDs lists the plan's current detail identifiers in server order,
// without duplicates. The list may be bare or wrapped in {"data": [...]}, and
// items may be objects with an id or bare ids.
func DetailIDs(plan map[string]json.RawMessage) []int64 {
	for _, key := range detailKeys {
		raw, ok := plan[key]
		if !ok {
			continue
		}
		items, ok := unwrapList(raw)
		if !ok || items == nil {
			continue
		}
		return collectIDs(items)
	}
	return nil
}

func unwrapList(raw json.RawMessage) ([]json.RawMessage, bool) {
	if strings.TrimSpace(string(raw)) == "null" {
		return nil, false
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}
	var wrapper struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Data != nil {
		return wrapper.Data, true
	}
	return nil, false
}

func collectIDs(items []json.RawMessage) []int64 {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		id, ok := itemID(item)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func itemID(item json.RawMessage) (int64, bool) {
	var o map[string]json.RawMessage
	if err := json.Unmarshal(item, &o); err == nil {
		return models.ParseID(o["id"])
	}
	return models.ParseID(item)
}

func hasID(o map[string]json.RawMessage) bool {
	_, ok := models.ParseID(o["id"])
	return ok
}
