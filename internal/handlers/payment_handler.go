package handlers

import (
	"net/http"

	"event-admin/internal/services"
	"event-admin/internal/tabs"

	"github.com/pocketbase/pocketbase/core"
)

var paymentFilters = []string{"payment_status", "ticket_type"}

type PaymentHandler struct {
	dash *services.Dashboard
}

func NewPaymentHandler(dash *services.Dashboard) *PaymentHandler {
	return &PaymentHandler{dash: dash}
}

type reviewRequest struct {
	AdminNotes string `json:"admin_notes"`
}

// ListPayments - manual payments with the review summary
func (h *PaymentHandler) ListPayments(e *core.RequestEvent) error {
	list := h.dash.Payments.List
	if err := ensureLoaded(requestContext(e), h.dash, tabs.Payments, list.Loaded(), wantsRefresh(e)); err != nil {
		return respondError(e, err)
	}
	p := page(e, list, paymentFilters)
	p.Summary = h.dash.Payments.Summary()
	return e.JSON(http.StatusOK, p)
}

// ConfirmPayment - approve a pending manual payment
func (h *PaymentHandler) ConfirmPayment(e *core.RequestEvent) error {
	var req reviewRequest
	if err := bindOptional(e, &req); err != nil {
		return respondError(e, err)
	}
	out, err := h.dash.Payments.Confirm(requestContext(e), e.Request.PathValue("ref"), req.AdminNotes)
	if err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusOK, itemResponse[services.ReviewOutcome]{Success: true, Data: out, Message: out.Message})
}

// RejectPayment - decline a pending manual payment
func (h *PaymentHandler) RejectPayment(e *core.RequestEvent) error {
	var req reviewRequest
	if err := bindOptional(e, &req); err != nil {
		return respondError(e, err)
	}
	out, err := h.dash.Payments.Reject(requestContext(e), e.Request.PathValue("ref"), req.AdminNotes)
	if err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusOK, itemResponse[services.ReviewOutcome]{Success: true, Data: out, Message: out.Message})
}
