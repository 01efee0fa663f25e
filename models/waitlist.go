package models

type WaitlistEntry struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Referral  *string   `json:"referral"`
	CreatedAt Timestamp `json:"created_at"`
}

// NoReferral is the referral filter value for signups without one.
const NoReferral = "none"

// ReferralLabel is the referral source, or NoReferral.
func (w WaitlistEntry) ReferralLabel() string {
	if w.Referral == nil || *w.Referral == "" {
		return NoReferral
	}
	return *w.Referral
}
