package handlers

import (
	"net/http"

	"event-admin/internal/services"
	"event-admin/internal/status"
	"event-admin/internal/tabs"
	"event-admin/models"

	"github.com/pocketbase/pocketbase/core"
)

var promoFilters = []string{"discount_type", "state"}

type PromoHandler struct {
	dash *services.Dashboard
}

func NewPromoHandler(dash *services.Dashboard) *PromoHandler {
	return &PromoHandler{dash: dash}
}

// ListPromos - promo codes with their state
func (h *PromoHandler) ListPromos(e *core.RequestEvent) error {
	list := h.dash.Promos.List
	if err := ensureLoaded(requestContext(e), h.dash, tabs.Promos, list.Loaded(), wantsRefresh(e)); err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusOK, page(e, list, promoFilters))
}

// CreatePromo - validate and create a promo code
func (h *PromoHandler) CreatePromo(e *core.RequestEvent) error {
	draft := h.dash.Promos.Draft()
	if err := e.BindBody(&draft); err != nil {
		return respondError(e, &status.ValidationError{Fields: map[string]string{
			"body": "Request body must be a promo code object",
		}})
	}

	created, err := h.dash.Promos.Create(requestContext(e), draft)
	if err != nil {
		return respondError(e, err)
	}
	return e.JSON(http.StatusCreated, itemResponse[models.PromoCode]{
		Success: true,
		Data:    created.Promo,
		Message: created.Message,
	})
}

// SuggestPromo - a random unused-looking code and the form defaults
func (h *PromoHandler) SuggestPromo(e *core.RequestEvent) error {
	code, err := h.dash.Promos.SuggestCode()
	if err != nil {
		return respondError(e, err)
	}
	draft := h.dash.Promos.Draft()
	draft.Code = code
	return e.JSON(http.StatusOK, itemResponse[models.PromoDraft]{Success: true, Data: draft})
}
