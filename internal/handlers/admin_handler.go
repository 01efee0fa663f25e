package handlers

import (
	"io"
	"net/http"

	"event-admin/internal/services"
	"event-admin/internal/status"
	"event-admin/internal/tabs"
	"event-admin/models"

	"github.com/pocketbase/pocketbase/core"
)

var waitlistFilters = []string{"referral"}

// AdminHandler serves the read-only parts of the dashboard: the event
// catalog and the waitlist.
type AdminHandler struct {
	dash *services.Dashboard
}

func NewAdminHandler(dash *services.Dashboard) *AdminHandler {
	return &AdminHandler{dash: dash}
}

type ticketTypeView struct {
	models.TicketType
	Remaining int `json:"remaining"`
}

// eventView adds the figures the overview and analytics tabs show.
type eventView struct {
	models.Event
	TicketTypes []ticketTypeView `json:"ticket_types"`
	Currency    string           `json:"currency"`
	SellThrough float64          `json:"sell_through"`
}

func newEventView(ev models.Event) eventView {
	types := make([]ticketTypeView, 0, len(ev.TicketTypes))
	for _, tt := range ev.TicketTypes {
		types = append(types, ticketTypeView{TicketType: tt, Remaining: tt.Remaining()})
	}
	return eventView{
		Event:       ev,
		TicketTypes: types,
		Currency:    ev.Currency(),
		SellThrough: ev.Analytics.SellThrough(),
	}
}

// ListEvents - the event catalog
func (h *AdminHandler) ListEvents(e *core.RequestEvent) error {
	events := h.dash.Catalog.Events()
	views := make([]eventView, 0, len(events))
	for _, ev := range events {
		views = append(views, newEventView(ev))
	}
	return e.JSON(http.StatusOK, listPage[eventView]{Success: true, Data: views, Total: len(views)})
}

// GetEvent - overview, ticket types, analytics and metadata of one event
func (h *AdminHandler) GetEvent(e *core.RequestEvent) error {
	ev, ok := h.dash.Event(e.Request.PathValue("eventId"))
	if !ok {
		return respondError(e, status.ErrNotFound)
	}
	return e.JSON(http.StatusOK, itemResponse[eventView]{Success: true, Data: newEventView(ev)})
}

// ListWaitlist - waitlist signups
func (h *AdminHandler) ListWaitlist(e *core.RequestEvent) error {
	list := h.dash.Waitlist
	if err := ensureLoaded(requestContext(e), h.dash, tabs.Waitlist, list.Loaded(), wantsRefresh(e)); err != nil {
		return respondError(e, err)
	}
	p := page(e, list, waitlistFilters)
	p.Summary = map[string]int{"referrals": list.Len() - list.Count("referral")[models.NoReferral]}
	return e.JSON(http.StatusOK, p)
}

// bindOptional decodes the request body when there is one.
func bindOptional(e *core.RequestEvent, dst any) error {
	if e.Request.Body == nil || e.Request.Body == http.NoBody || e.Request.ContentLength == 0 {
		return nil
	}
	if err := e.BindBody(dst); err != nil && err != io.EOF {
		return &status.ValidationError{Fields: map[string]string{"body": "Request body must be a JSON object"}}
	}
	return nil
}
