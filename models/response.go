package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Envelope is the backend's common response wrapper.
type Envelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Errors  FieldErrors     `json:"errors,omitempty"`
}

// FieldErrors maps a request field to its validation messages.
type FieldErrors map[string]FieldMessages

// Map returns the errors as plain string slices.
func (e FieldErrors) Map() map[string][]string {
	if len(e) == 0 {
		return nil
	}
	out := make(map[string][]string, len(e))
	for field, msgs := range e {
		out[field] = []string(msgs)
	}
	return out
}

// FieldMessages accepts a single message or a list of them. Values of any
// other type decode to no messages.
type FieldMessages []string

func (m *FieldMessages) UnmarshalJSON(data []byte) error {
	*m = nil
	var one string
	if isString(data) && json.Unmarshal(data, &one) == nil {
		*m = FieldMessages{one}
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil || list == nil {
		return nil
	}
	msgs := make(FieldMessages, 0, len(list))
	for _, item := range list {
		var msg string
		if isString(item) && json.Unmarshal(item, &msg) == nil {
			msgs = append(msgs, msg)
		}
	}
	*m = msgs
	return nil
}

func isString(raw []byte) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, `"`)
}

// Pagination mirrors the Laravel paginator metadata.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
}

// PlanPage is one cached page of a plan listing.
type PlanPage struct {
	Type       string     `json:"type"`
	Plans      []Plan     `json:"plans"`
	Pagination Pagination `json:"pagination"`
}

// BookingPage is one cached page of the student's bookings.
type BookingPage struct {
	Bookings   []Booking  `json:"bookings"`
	Pagination Pagination `json:"pagination"`
}

// ParseID reads an identifier that may arrive as a JSON number or a numeric string.
func ParseID(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	s = strings.Trim(s, `"`)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some endpoints serialize ids as floats ("12.0").
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		id = int64(f)
	}
	return id, true
}
