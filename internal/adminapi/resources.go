package adminapi

import (
	"context"
	"encoding/json"
	"net/http"

	"event-admin/internal/status"
	"event-admin/models"
)

// Resource kinds as used in logs and metrics.
const (
	ResourceTickets  = "tickets"
	ResourcePayments = "manual_payments"
	ResourcePromos   = "promo_codes"
	ResourceWaitlist = "waitlist"
)

func (c *Client) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	r := request{
		resource:  ResourceTickets,
		operation: "list",
		method:    http.MethodGet,
		path:      "/admin/tickets",
		fallback:  "Failed to fetch tickets",
	}
	return call(ctx, c, r, decodeData[[]models.Ticket](r))
}

// GetTicket loads the detail of one ticket by its code.
func (c *Client) GetTicket(ctx context.Context, code string) (models.Ticket, error) {
	r := request{
		resource:  ResourceTickets,
		operation: "get",
		method:    http.MethodGet,
		path:      "/check-ticket/" + segment(code),
		fallback:  "Failed to load ticket details",
	}
	return call(ctx, c, r, decodeData[models.Ticket](r))
}

type checkInRequest struct {
	CheckedInBy string `json:"checked_in_by"`
}

// CheckIn records the ticket as checked in by checkedInBy. The API may
// answer with the updated ticket; when it does not, the result is nil.
func (c *Client) CheckIn(ctx context.Context, code, checkedInBy string) (*models.Ticket, error) {
	r := request{
		resource:  ResourceTickets,
		operation: "check_in",
		method:    http.MethodPost,
		path:      "/check-in/" + segment(code),
		body:      checkInRequest{CheckedInBy: checkedInBy},
		fallback:  "Failed to check in ticket",
	}
	return call(ctx, c, r, func(env *envelope) (*models.Ticket, error) {
		if !env.hasData() {
			return nil, nil
		}
		ticket, err := decodeData[models.Ticket](r)(env)
		if err != nil {
			return nil, err
		}
		return &ticket, nil
	})
}

func (c *Client) ListManualPayments(ctx context.Context) ([]models.ManualPayment, error) {
	r := request{
		resource:  ResourcePayments,
		operation: "list",
		method:    http.MethodGet,
		path:      "/admin/manual-payments",
		fallback:  "Failed to fetch manual payments",
	}
	return call(ctx, c, r, decodeData[[]models.ManualPayment](r))
}

// Review is the body of a confirm or reject call.
type Review struct {
	ConfirmedBy string `json:"confirmed_by"`
	AdminNotes  string `json:"admin_notes"`
}

type ReviewResult struct {
	// TicketCode is the ticket the API issued on confirmation, if any.
	TicketCode string
	Message    string
}

func (c *Client) ConfirmManualPayment(ctx context.Context, reference string, review Review) (ReviewResult, error) {
	return c.review(ctx, request{
		resource:  ResourcePayments,
		operation: "confirm",
		method:    http.MethodPost,
		path:      "/admin/confirm-manual-payment/" + segment(reference),
		body:      review,
		fallback:  "Failed to confirm payment",
	})
}

func (c *Client) RejectManualPayment(ctx context.Context, reference string, review Review) (ReviewResult, error) {
	return c.review(ctx, request{
		resource:  ResourcePayments,
		operation: "reject",
		method:    http.MethodPost,
		path:      "/admin/reject-manual-payment/" + segment(reference),
		body:      review,
		fallback:  "Failed to reject payment",
	})
}

func (c *Client) review(ctx context.Context, r request) (ReviewResult, error) {
	return call(ctx, c, r, func(env *envelope) (ReviewResult, error) {
		if err := requireSuccess(r, env); err != nil {
			return ReviewResult{}, err
		}
		return ReviewResult{TicketCode: env.TicketCode, Message: env.Message}, nil
	})
}

func (c *Client) ListPromoCodes(ctx context.Context) ([]models.PromoCode, error) {
	r := request{
		resource:  ResourcePromos,
		operation: "list",
		method:    http.MethodGet,
		path:      "/admin/promo-codes",
		fallback:  "Failed to fetch promo codes",
	}
	return call(ctx, c, r, decodeData[[]models.PromoCode](r))
}

type CreatedPromo struct {
	Promo   models.PromoCode
	Message string
}

// createPromoRequest sends discount_value as a JSON number.
type createPromoRequest struct {
	Code          string              `json:"code"`
	DiscountType  models.DiscountType `json:"discount_type"`
	DiscountValue json.Number         `json:"discount_value"`
	MaxUses       int                 `json:"max_uses"`
	ValidUntil    string              `json:"valid_until"`
}

// CreatePromoCode sends the draft as is; validation is the caller's job.
// An accepted response without the created record is a failure.
func (c *Client) CreatePromoCode(ctx context.Context, draft models.PromoDraft) (CreatedPromo, error) {
	r := request{
		resource:  ResourcePromos,
		operation: "create",
		method:    http.MethodPost,
		path:      "/admin/promo-codes",
		body: createPromoRequest{
			Code:          draft.Code,
			DiscountType:  draft.DiscountType,
			DiscountValue: json.Number(draft.DiscountValue.String()),
			MaxUses:       draft.MaxUses,
			ValidUntil:    draft.ValidUntil,
		},
		fallback: "Failed to create promo code",
	}
	return call(ctx, c, r, func(env *envelope) (CreatedPromo, error) {
		if !env.hasData() {
			return CreatedPromo{}, &status.APIError{
				Op:      r.op(),
				Message: "The API did not return the new promo code. Refresh the list to see whether it was created.",
				Err:     errMissingData,
			}
		}
		promo, err := decodeData[models.PromoCode](r)(env)
		if err != nil {
			return CreatedPromo{}, err
		}
		return CreatedPromo{Promo: promo, Message: env.Message}, nil
	})
}

func (c *Client) ListWaitlist(ctx context.Context) ([]models.WaitlistEntry, error) {
	r := request{
		resource:  ResourceWaitlist,
		operation: "list",
		method:    http.MethodGet,
		path:      "/waitlist",
		fallback:  "Failed to fetch waitlist",
	}
	return call(ctx, c, r, decodeData[[]models.WaitlistEntry](r))
}
