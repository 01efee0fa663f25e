package status

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotConfigured     = errors.New("config: admin API base URL is not configured")
	ErrInFlight          = errors.New("inflight: an operation for this item is already in progress")
	ErrNotFound          = errors.New("list: item not found")
	ErrTicketNotPaid     = errors.New("check-in: ticket is not paid")
	ErrAlreadyCheckedIn  = errors.New("check-in: ticket is already checked in")
	ErrPaymentNotPending = errors.New("payment: payment is no longer pending")
)

// NetworkError means the request never produced a usable HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a response the admin API answered but did not accept:
// a non-2xx status, success=false, a missing data field or an undecodable body.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// ValidationError collects per-field form errors found before any network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Field returns the message recorded for field, or "".
func (e *ValidationError) Field(name string) string {
	return e.Fields[name]
}

// Message returns the text an admin should see for err.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "Could not reach the admin API. Check your connection and try again."
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return "Please fix the highlighted fields."
	}

	switch {
	case errors.Is(err, ErrNotConfigured):
		return "API URL not configured"
	case errors.Is(err, ErrInFlight):
		return "Already processing, please wait"
	case errors.Is(err, ErrTicketNotPaid):
		return "Only paid tickets can be checked in"
	case errors.Is(err, ErrAlreadyCheckedIn):
		return "Ticket is already checked in"
	case errors.Is(err, ErrPaymentNotPending):
		return "Payment has already been reviewed"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	}
	return "An unknown error occurred"
}
