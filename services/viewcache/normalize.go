package viewcache

import (
	"encoding/json"
	"strings"

	"halaqat/models"
)

// scheduleKeys are the plan fields that may carry the schedule summary, in lookup order.
var scheduleKeys = []string{"schedules", "schedule_summary", "available_schedules"}

// planFields is models.Plan without the summary, which needs normalizing first.
type planFields struct {
	ID           json.RawMessage `json:"id"`
	Name         string          `json:"name"`
	PlanName     string          `json:"plan_name"`
	CenterID     json.RawMessage `json:"center_id"`
	CenterName   string          `json:"center_name"`
	TotalMonths  int             `json:"total_months"`
	DetailsCount int             `json:"details_count"`
}

// normalizePlan decodes one listing item. Items without a usable id are dropped.
func normalizePlan(raw json.RawMessage) (models.Plan, bool) {
	var fields planFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Plan{}, false
	}
	id, ok := models.ParseID(fields.ID)
	if !ok {
		return models.Plan{}, false
	}
	plan := models.Plan{
		ID:           id,
		Name:         fields.Name,
		CenterName:   fields.CenterName,
		TotalMonths:  fields.TotalMonths,
		DetailsCount: fields.DetailsCount,
	}
	if plan.Name == "" {
		plan.Name = fields.PlanName
	}
	plan.CenterID, _ = models.ParseID(fields.CenterID)

	var obj map[string]json.RawMessage
	_ = json.Unmarshal(raw, &obj)
	plan.Schedules = emptySummary()
	for _, key := range scheduleKeys {
		if v, ok := obj[key]; ok {
			plan.Schedules = NormalizeScheduleSummary(v)
			return plan, true
		}
	}
	// The summary may also be flattened onto the plan itself.
	if _, ok := obj["schedule_items"]; ok {
		plan.Schedules = summaryFromObject(obj)
	}
	return plan, true
}

// NormalizeScheduleSummary maps every known summary shape onto
// {schedule_items, total_schedules}:
//   - absent, null or empty: no items
//   - {"schedule_items": [...], "total_schedules": n}: taken as is
//   - a single slot object: one item
//   - a list holding one summary object: that summary
//   - a list of slots: those items
//
// total_schedules falls back to the number of items.
func NormalizeScheduleSummary(raw json.RawMessage) models.ScheduleSummary {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return emptySummary()
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		if _, ok := obj["schedule_items"]; ok {
			return summaryFromObject(obj)
		}
		if slot, ok := decodeSlot(raw); ok {
			return models.ScheduleSummary{ScheduleItems: []models.ScheduleSlot{slot}, TotalSchedules: 1}
		}
		return emptySummary()
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return emptySummary()
	}
	if len(list) == 1 {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(list[0], &inner); err == nil {
			if _, ok := inner["schedule_items"]; ok {
				return summaryFromObject(inner)
			}
		}
	}
	items := decodeSlots(list)
	return models.ScheduleSummary{ScheduleItems: items, TotalSchedules: len(items)}
}

func summaryFromObject(obj map[string]json.RawMessage) models.ScheduleSummary {
	var list []json.RawMessage
	if raw, ok := obj["schedule_items"]; ok {
		if err := json.Unmarshal(raw, &list); err != nil {
			// A lone slot where a list was expected.
			if slot, ok := decodeSlot(raw); ok {
				items := []models.ScheduleSlot{slot}
				return models.ScheduleSummary{ScheduleItems: items, TotalSchedules: totalOr(obj, len(items))}
			}
		}
	}
	items := decodeSlots(list)
	return models.ScheduleSummary{ScheduleItems: items, TotalSchedules: totalOr(obj, len(items))}
}

func totalOr(obj map[string]json.RawMessage, fallback int) int {
	if raw, ok := obj["total_schedules"]; ok {
		if n, ok := models.ParseID(raw); ok && n >= 0 {
			return int(n)
		}
	}
	return fallback
}

func decodeSlots(list []json.RawMessage) []models.ScheduleSlot {
	items := make([]models.ScheduleSlot, 0, len(list))
	for _, raw := range list {
		if slot, ok := decodeSlot(raw); ok {
			items = append(items, slot)
		}
	}
	return items
}

// slotFields is models.ScheduleSlot as the backend may send it: ids and
// counts as numbers or numeric strings, availability as a bool, 0/1 or a string.
type slotFields struct {
	ID             json.RawMessage `json:"id"`
	PlanID         json.RawMessage `json:"plan_id"`
	CircleID       json.RawMessage `json:"circle_id"`
	CircleName     string          `json:"circle_name"`
	PlanDetailsID  json.RawMessage `json:"plan_details_id"`
	Date           string          `json:"date"`
	StartTime      string          `json:"start_time"`
	EndTime        string          `json:"end_time"`
	IsAvailable    json.RawMessage `json:"is_available"`
	BookedStudents json.RawMessage `json:"booked_students"`
	MaxStudents    json.RawMessage `json:"max_students"`
}

func decodeSlot(raw json.RawMessage) (models.ScheduleSlot, bool) {
	var f slotFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return models.ScheduleSlot{}, false
	}
	id, ok := models.ParseID(f.ID)
	if !ok || id == 0 {
		return models.ScheduleSlot{}, false
	}
	slot := models.ScheduleSlot{
		ID:          id,
		CircleName:  f.CircleName,
		Date:        f.Date,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		IsAvailable: parseFlag(f.IsAvailable),
	}
	slot.PlanID, _ = models.ParseID(f.PlanID)
	slot.CircleID, _ = models.ParseID(f.CircleID)
	slot.PlanDetailsID, _ = models.ParseID(f.PlanDetailsID)
	booked, _ := models.ParseID(f.BookedStudents)
	capacity, _ := models.ParseID(f.MaxStudents)
	slot.BookedStudents, slot.MaxStudents = int(booked), int(capacity)
	return slot, true
}

// parseFlag reads true, 1, "1", "true" and "yes" as set; anything else is unset.
func parseFlag(raw json.RawMessage) bool {
	s := strings.ToLower(strings.Trim(strings.TrimSpace(string(raw)), `"`))
	switch s {
	case "true", "1", "yes":
		return true
	}
	if n, ok := models.ParseID(raw); ok {
		return n != 0
	}
	return false
}

func emptySummary() models.ScheduleSummary {
	return models.ScheduleSummary{ScheduleItems: []models.ScheduleSlot{}, TotalSchedules: 0}
}

// listing is the union of the paginated shapes the listing endpoints return.
type listing struct {
	Data        json.RawMessage    `json:"data"`
	CurrentPage int                `json:"current_page"`
	LastPage    int                `json:"last_page"`
	Total       int                `json:"total"`
	PerPage     int                `json:"per_page"`
	Meta        *models.Pagination `json:"meta"`
}

// parseListing returns the items and pagination of a listing body. It accepts
// a bare list, a Laravel paginator, a paginator with "meta", and any of those
// wrapped once more in a success envelope.
func parseListing(raw []byte) ([]json.RawMessage, models.Pagination) {
	return parseListingDepth(raw, 0)
}

func parseListingDepth(raw []byte, depth int) ([]json.RawMessage, models.Pagination) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, singlePage(len(items))
	}

	var l listing
	if err := json.Unmarshal(raw, &l); err != nil || len(l.Data) == 0 {
		return nil, singlePage(0)
	}
	if err := json.Unmarshal(l.Data, &items); err != nil {
		if depth > 0 {
			return nil, singlePage(0)
		}
		return parseListingDepth(l.Data, depth+1)
	}

	p := models.Pagination{CurrentPage: l.CurrentPage, LastPage: l.LastPage, Total: l.Total, PerPage: l.PerPage}
	if l.Meta != nil {
		p = *l.Meta
	}
	if p.CurrentPage == 0 && p.LastPage == 0 && p.Total == 0 {
		p = singlePage(len(items))
	}
	return items, p
}

func singlePage(n int) models.Pagination {
	return models.Pagination{CurrentPage: 1, LastPage: 1, Total: n, PerPage: n}
}
