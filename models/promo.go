package models

import (
	"strings"
	"time"

	"event-admin/internal/status"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

const (
	promoDateLayout    = "2006-01-02"
	promoMinCodeLength = 3
	promoDefaultDays   = 30
)

var hundred = decimal.NewFromInt(100)

type PromoCode struct {
	ID            int             `json:"id"`
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MaxUses       int             `json:"max_uses"`
	UsedCount     int             `json:"used_count"`
	ValidUntil    Timestamp       `json:"valid_until"`
	CreatedAt     Timestamp       `json:"created_at"`
}

// Unlimited reports whether the code has no usage cap (max_uses 0).
func (p PromoCode) Unlimited() bool {
	return p.MaxUses == 0
}

// Expired compares valid_until against the calendar day of now.
func (p PromoCode) Expired(now time.Time) bool {
	if !p.ValidUntil.Valid() {
		return false
	}
	return p.ValidUntil.Format(promoDateLayout) < now.Format(promoDateLayout)
}

// Exhausted reports whether a capped code has been used up.
func (p PromoCode) Exhausted() bool {
	return !p.Unlimited() && p.UsedCount >= p.MaxUses
}

// Active is the state label shown next to a code.
func (p PromoCode) Active(now time.Time) bool {
	return !p.Expired(now) && !p.Exhausted()
}

// PromoDraft is the create-promo form. ValidUntil is a YYYY-MM-DD date.
type PromoDraft struct {
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MaxUses       int             `json:"max_uses"`
	ValidUntil    string          `json:"valid_until"`
}

// NewPromoDraft returns the form defaults: a percentage discount usable
// once and valid for thirty days.
func NewPromoDraft(now time.Time) PromoDraft {
	return PromoDraft{
		DiscountType: DiscountPercentage,
		MaxUses:      1,
		ValidUntil:   now.AddDate(0, 0, promoDefaultDays).Format(promoDateLayout),
	}
}

// Normalize trims the code and upper-cases it the way codes are stored.
func (d PromoDraft) Normalize() PromoDraft {
	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	d.ValidUntil = strings.TrimSpace(d.ValidUntil)
	return d
}

// Validate checks the draft against the rules the API enforces, so an
// invalid form never leaves the dashboard. It returns nil or a
// *status.ValidationError keyed by JSON field name.
func (d PromoDraft) Validate(now time.Time) error {
	fields := map[string]string{}

	code := strings.TrimSpace(d.Code)
	switch {
	case code == "":
		fields["code"] = "Promo code is required"
	case len(code) < promoMinCodeLength:
		fields["code"] = "Promo code must be at least 3 characters"
	}

	switch d.DiscountType {
	case DiscountPercentage, DiscountFixed:
	default:
		fields["discount_type"] = "Discount type must be percentage or fixed"
	}

	switch {
	case !d.DiscountValue.IsPositive():
		fields["discount_value"] = "Discount value must be greater than 0"
	case d.DiscountType == DiscountPercentage && d.DiscountValue.GreaterThan(hundred):
		fields["discount_value"] = "Percentage discount cannot exceed 100%"
	}

	if d.MaxUses < 1 {
		fields["max_uses"] = "Max uses must be at least 1"
	}

	validUntil := strings.TrimSpace(d.ValidUntil)
	if validUntil == "" {
		fields["valid_until"] = "Valid until date is required"
	} else if day, err := time.ParseInLocation(promoDateLayout, validUntil, now.Location()); err != nil {
		fields["valid_until"] = "Valid until date must be a date (YYYY-MM-DD)"
	} else if day.Format(promoDateLayout) < now.Format(promoDateLayout) {
		fields["valid_until"] = "Valid until date must be in the future"
	}

	if len(fields) == 0 {
		return nil
	}
	return &status.ValidationError{Fields: fields}
}
