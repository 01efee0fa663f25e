package models

import (
	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCompleted EventStatus = "completed"
	EventCanceled  EventStatus = "canceled"
)

type TicketType struct {
	ID                string          `json:"id" yaml:"id"`
	Name              string          `json:"name" yaml:"name"`
	Price             decimal.Decimal `json:"price" yaml:"price"`
	Currency          string          `json:"currency" yaml:"currency"`
	QuantityAvailable int             `json:"quantity_available" yaml:"quantity_available"`
	QuantitySold      int             `json:"quantity_sold" yaml:"quantity_sold"`
	MaxPerPerson      *int            `json:"max_per_person,omitempty" yaml:"max_per_person,omitempty"`
	SalesStart        Timestamp       `json:"sales_start" yaml:"sales_start,omitempty"`
	SalesEnd          Timestamp       `json:"sales_end" yaml:"sales_end,omitempty"`
}

// Remaining is how many tickets of this type can still be sold.
func (t TicketType) Remaining() int {
	if left := t.QuantityAvailable - t.QuantitySold; left > 0 {
		return left
	}
	return 0
}

type Analytics struct {
	TotalTickets     int             `json:"total_tickets" yaml:"total_tickets"`
	TicketsSold      int             `json:"tickets_sold" yaml:"tickets_sold"`
	RevenueGenerated decimal.Decimal `json:"revenue_generated" yaml:"revenue_generated"`
	BuyersCount      int             `json:"buyers_count" yaml:"buyers_count"`
}

// SellThrough is tickets sold as a percentage of total tickets.
func (a Analytics) SellThrough() float64 {
	if a.TotalTickets <= 0 {
		return 0
	}
	return float64(a.TicketsSold) * 100 / float64(a.TotalTickets)
}

type Event struct {
	ID             string       `json:"id" yaml:"id"`
	Title          string       `json:"title" yaml:"title"`
	Slug           string       `json:"slug" yaml:"slug"`
	Description    string       `json:"description" yaml:"description"`
	Venue          string       `json:"venue" yaml:"venue"`
	BannerImageURL string       `json:"banner_image_url" yaml:"banner_image_url"`
	StartDate      Timestamp    `json:"start_date" yaml:"start_date"`
	EndDate        Timestamp    `json:"end_date" yaml:"end_date"`
	Status         EventStatus  `json:"status" yaml:"status"`
	TicketTypes    []TicketType `json:"ticket_types" yaml:"ticket_types"`
	Analytics      Analytics    `json:"analytics" yaml:"analytics"`
	CreatedBy      string       `json:"created_by" yaml:"created_by"`
	CreatedAt      Timestamp    `json:"created_at" yaml:"created_at"`
	UpdatedAt      Timestamp    `json:"updated_at" yaml:"updated_at"`
}

// Currency is the currency of the event's first ticket type, or "" for
// an event without ticket types.
func (e Event) Currency() string {
	if len(e.TicketTypes) == 0 {
		return ""
	}
	return e.TicketTypes[0].Currency
}
