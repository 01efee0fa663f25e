package models

import (
	"github.com/shopspring/decimal"
)

type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewConfirmed ReviewStatus = "confirmed"
	ReviewRejected  ReviewStatus = "rejected"
)

// Terminal reports whether no further review transition is allowed.
func (s ReviewStatus) Terminal() bool {
	return s == ReviewConfirmed || s == ReviewRejected
}

// ManualPayment is a mobile-money payment submitted by a buyer that an
// admin has to confirm or reject by hand.
type ManualPayment struct {
	ID             int             `json:"id"`
	UserEmail      string          `json:"user_email"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	TicketType     string          `json:"ticket_type"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	PromoCode      *string         `json:"promo_code"`
	ReferenceCode  string          `json:"reference_code"`
	PaymentStatus  ReviewStatus    `json:"payment_status"`
	MomoNumber     string          `json:"momo_number"`
	AdminNotes     *string         `json:"admin_notes"`
	ConfirmedBy    *string         `json:"confirmed_by"`
	ConfirmedAt    Timestamp       `json:"confirmed_at"`
	CreatedAt      Timestamp       `json:"created_at"`
}

func (p ManualPayment) IsPending() bool {
	return p.PaymentStatus == ReviewPending
}

func (p ManualPayment) HasDiscount() bool {
	return p.DiscountAmount.IsPositive()
}

// Reviewed returns a copy of p moved to the terminal status to. A payment
// that is already terminal is returned unchanged.
func (p ManualPayment) Reviewed(to ReviewStatus, by, notes string, at Timestamp) ManualPayment {
	if p.PaymentStatus.Terminal() || !to.Terminal() {
		return p
	}
	p.PaymentStatus = to
	p.ConfirmedBy = &by
	p.AdminNotes = &notes
	p.ConfirmedAt = at
	return p
}
