package services

import (
	"context"
	"fmt"
	"strings"

	"event-admin/internal/adminapi"
	"event-admin/internal/inflight"
	"event-admin/internal/listview"
	"event-admin/internal/status"
	"event-admin/models"
)

const mutationCheckIn = "ticket_check_in"

var ticketFields = listview.Fields[models.Ticket]{
	"ticket_type":    func(t models.Ticket) string { return t.TicketType },
	"payment_status": func(t models.Ticket) string { return string(t.PaymentStatus) },
	"checked_in":     func(t models.Ticket) string { return t.CheckedInLabel() },
	"ticket_code":    func(t models.Ticket) string { return t.TicketCode },
	"name":           func(t models.Ticket) string { return t.Name },
	"email":          func(t models.Ticket) string { return t.Email },
	"phone":          func(t models.Ticket) string { return t.Phone },
}

// TicketSearch lists the fields the ticket search box matches.
var TicketSearch = []string{"ticket_code", "name", "email", "phone"}

type TicketService struct {
	deps Deps
	List *listview.Controller[models.Ticket, string]
}

func NewTicketService(deps Deps) *TicketService {
	deps = deps.withDefaults()
	return &TicketService{
		deps: deps,
		List: listview.NewController(listview.Config[models.Ticket, string]{
			Resource: adminapi.ResourceTickets,
			Key:      func(t models.Ticket) string { return t.TicketCode },
			Fields:   ticketFields,
			Search:   TicketSearch,
			Load:     deps.API.ListTickets,
		}),
	}
}

// Lookup fetches the detail of one ticket from the API.
func (s *TicketService) Lookup(ctx context.Context, code string) (models.Ticket, error) {
	code, err := ticketCode(code)
	if err != nil {
		return models.Ticket{}, err
	}
	return s.deps.API.GetTicket(ctx, code)
}

// CheckIn checks in a paid ticket that is not checked in yet. The row is
// patched only after the API accepted the check-in.
func (s *TicketService) CheckIn(ctx context.Context, code string) (ticket models.Ticket, err error) {
	var who string
	defer func() { s.deps.finish(mutationCheckIn, code, who, err) }()

	code, err = ticketCode(code)
	if err != nil {
		return models.Ticket{}, err
	}

	current, err := s.resolve(ctx, code)
	if err != nil {
		return models.Ticket{}, err
	}
	if !current.IsPaid() {
		return models.Ticket{}, fmt.Errorf("ticket %s: %w", code, status.ErrTicketNotPaid)
	}
	if current.IsCheckedIn() {
		return models.Ticket{}, fmt.Errorf("ticket %s: %w", code, status.ErrAlreadyCheckedIn)
	}

	who, err = s.deps.Actor.ActorName(ctx)
	if err != nil {
		return models.Ticket{}, err
	}

	err = inflight.Guard(ctx, s.deps.Tracker, inflight.Key("ticket", code), func(ctx context.Context) error {
		returned, err := s.deps.API.CheckIn(ctx, code, who)
		if err != nil {
			return err
		}
		ticket = s.checkedIn(current, returned, who)
		s.List.Patch(code, func(row models.Ticket) models.Ticket {
			return s.checkedIn(row, returned, who)
		})
		return nil
	})
	if err != nil {
		return models.Ticket{}, err
	}

	s.deps.announce(ctx, Activity{
		Kind:   ActivityTicketCheckedIn,
		Key:    code,
		Actor:  who,
		Detail: ticket.Name,
	})
	return ticket, nil
}

// resolve prefers the loaded row and falls back to the detail endpoint.
func (s *TicketService) resolve(ctx context.Context, code string) (models.Ticket, error) {
	if t, ok := s.List.Get(code); ok {
		return t, nil
	}
	return s.deps.API.GetTicket(ctx, code)
}

// checkedIn marks row as checked in, taking who and when from the API's
// answer when it sent one.
func (s *TicketService) checkedIn(row models.Ticket, returned *models.Ticket, who string) models.Ticket {
	at := models.NewTimestamp(s.deps.Clock())
	if returned != nil && returned.IsCheckedIn() {
		if by := strings.TrimSpace(models.StringValue(returned.CheckedInBy)); by != "" {
			who = by
		}
		if returned.CheckedInAt.Valid() {
			at = returned.CheckedInAt
		}
	}
	return row.MarkCheckedIn(who, at)
}

func ticketCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", &status.ValidationError{Fields: map[string]string{
			"ticket_code": "Ticket code is required",
		}}
	}
	return code, nil
}
