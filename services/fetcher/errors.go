package fetcher

import (
	"fmt"
	"net/http"
	"sort"
)

// StatusTokenMismatch is the backend's "page expired" status, sent when the
// anti-forgery token is missing or stale.
const StatusTokenMismatch = 419

// RequestError is returned for every request that did not end in a 2xx.
// Status is 0 when no response was received.
type RequestError struct {
	Status      int
	Message     string
	FieldErrors map[string][]string
	Err         error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, http.StatusText(e.Status))
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// TokenRejected reports whether the backend refused the session token.
func (e *RequestError) TokenRejected() bool {
	return e.Status == StatusTokenMismatch
}

// FirstFieldError returns the first message of the field-error map. Fields are
// visited in lexical order so the choice is stable.
func (e *RequestError) FirstFieldError() string {
	if len(e.FieldErrors) == 0 {
		return ""
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		for _, msg := range e.FieldErrors[f] {
			if msg != "" {
				return msg
			}
		}
	}
	return ""
}
