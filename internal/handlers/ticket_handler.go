package handlers

import (
	"context"
	"net/http"

	"event-admin/internal/services"
	"event-admin/internal/tabs"
	"event-admin/models"

	"github.com/pocketbase/pocketbase/core"
)

var ticketFilters = []string{"ticket_type", "payment_status", "checked_in"}

type TicketHandler struct {
	dash *services.Dashboard
}

func NewTicketHandler(dash *services.Dashboard) *TicketHandler {
	return &TicketHandler{dash: dash}
}

// ListTickets - filtered ticket rows
func (h *TicketHandler) ListTickets(e *core.RequestEvent) error {
	if err := ensureLoaded(requestContext(e), h.dash, tabs.Tickets, h.dash.Tickets.List.Loaded(), wantsRefresh(e)); err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusOK, page(e, h.dash.Tickets.List, ticketFilters))
}

// GetTicket - ticket detail from the API
func (h *TicketHandler) GetTicket(e *core.RequestEvent) error {
	ticket, err := h.dash.Tickets.Lookup(requestContext(e), e.Request.PathValue("code"))
	if err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusOK, itemResponse[models.Ticket]{Success: true, Data: ticket})
}

// CheckIn - check in a paid ticket
func (h *TicketHandler) CheckIn(e *core.RequestEvent) error {
	ticket, err := h.dash.Tickets.CheckIn(requestContext(e), e.Request.PathValue("code"))
	if err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusOK, itemResponse[models.Ticket]{
		Success: true,
		Data:    ticket,
		Message: "Ticket checked in successfully",
	})
}

type itemResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// ensureLoaded reads the tab's collection when it was never loaded or the
// caller asked for a refresh.
func ensureLoaded(ctx context.Context, dash *services.Dashboard, tab tabs.Tab, loaded, refresh bool) error {
	if loaded && !refresh {
		return nil
	}
	return dash.Load(ctx, tab)
}
