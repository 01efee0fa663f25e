package models

import (
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentFailed  PaymentStatus = "failed"
)

// Ticket is both a row of /admin/tickets and the body of /check-ticket/{code}.
// The API sends checked_in as 0 or 1.
type Ticket struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	TicketType     string          `json:"ticket_type"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TicketCode     string          `json:"ticket_code"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	CheckedIn      int             `json:"checked_in"`
	CheckedInBy    *string         `json:"checked_in_by"`
	CheckedInAt    Timestamp       `json:"checked_in_at"`
	PromoCode      *string         `json:"promo_code"`
	CreatedAt      Timestamp       `json:"created_at"`
}

func (t Ticket) IsCheckedIn() bool {
	return t.CheckedIn != 0
}

func (t Ticket) IsPaid() bool {
	return t.PaymentStatus == PaymentPaid
}

// CanCheckIn mirrors the guard the dashboard applies before offering
// the check-in action. The server still has the final word.
func (t Ticket) CanCheckIn() bool {
	return t.IsPaid() && !t.IsCheckedIn()
}

// CheckedInLabel is "yes" or "no"; it doubles as the checked_in filter value.
func (t Ticket) CheckedInLabel() string {
	if t.IsCheckedIn() {
		return "yes"
	}
	return "no"
}

// MarkCheckedIn returns a copy of t recorded as checked in. It never
// clears an existing check-in.
func (t Ticket) MarkCheckedIn(by string, at Timestamp) Ticket {
	if t.IsCheckedIn() {
		return t
	}
	t.CheckedIn = 1
	t.CheckedInBy = &by
	t.CheckedInAt = at
	return t
}

// StringValue dereferences an optional string field.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
