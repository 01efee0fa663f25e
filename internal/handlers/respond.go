// Package handlers exposes the dashboard as JSON endpoints on the
// PocketBase router.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"event-admin/internal/actor"
	"event-admin/internal/listview"
	"event-admin/internal/status"

	"github.com/pocketbase/pocketbase/core"
)

type errorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusCode maps a dashboard error to the HTTP status of the local
// endpoint. Errors of the remote API surface as gateway errors.
func statusCode(err error) int {
	var (
		valErr *status.ValidationError
		netErr *status.NetworkError
		apiErr *status.APIError
	)
	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.Is(err, actor.ErrNoActor):
		return http.StatusUnauthorized
	case errors.Is(err, status.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, status.ErrInFlight),
		errors.Is(err, status.ErrAlreadyCheckedIn),
		errors.Is(err, status.ErrPaymentNotPending):
		return http.StatusConflict
	case errors.Is(err, status.ErrTicketNotPaid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, status.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &netErr):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(e *core.RequestEvent, err error) error {
	body := errorResponse{Error: status.Message(err)}

	var valErr *status.ValidationError
	if errors.As(err, &valErr) {
		body.Fields = valErr.Fields
	}
	if errors.Is(err, actor.ErrNoActor) {
		body.Error = "Sign in as an admin to do this"
	}
	return e.JSON(statusCode(err), body)
}

// requestContext carries the signed-in admin to the actor provider.
func requestContext(e *core.RequestEvent) context.Context {
	ctx := e.Request.Context()
	if e.Auth != nil {
		ctx = actor.WithRecord(ctx, e.Auth)
	}
	return ctx
}

// queryFrom reads the declared filters and the search term from the URL.
func queryFrom(e *core.RequestEvent, filters []string) listview.Query {
	values := e.Request.URL.Query()
	q := listview.Query{Filters: map[string]string{}, Search: values.Get("search")}
	for _, f := range filters {
		if v := values.Get(f); v != "" {
			q.Filters[f] = v
		}
	}
	return q
}

func wantsRefresh(e *core.RequestEvent) bool {
	switch e.Request.URL.Query().Get("refresh") {
	case "1", "true", "yes":
		return true
	}
	return false
}

type listPage[T any] struct {
	Success  bool                `json:"success"`
	Data     []T                 `json:"data"`
	Total    int                 `json:"total"`
	Options  map[string][]string `json:"options,omitempty"`
	Summary  any                 `json:"summary,omitempty"`
	LoadedAt time.Time           `json:"loaded_at"`
}

// page projects the controller's snapshot through the request's filters.
func page[T any, K comparable](e *core.RequestEvent, c *listview.Controller[T, K], filters []string) listPage[T] {
	options := make(map[string][]string, len(filters))
	for _, f := range filters {
		options[f] = c.Options(f)
	}
	return listPage[T]{
		Success:  true,
		Data:     c.View(queryFrom(e, filters)),
		Total:    c.Len(),
		Options:  options,
		LoadedAt: c.LoadedAt(),
	}
}
