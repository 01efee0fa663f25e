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

const (
	mutationConfirm = "payment_confirm"
	mutationReject  = "payment_reject"

	// DefaultRejectNote is sent when an admin rejects without a note.
	DefaultRejectNote = "Payment rejected"
)

var paymentFields = listview.Fields[models.ManualPayment]{
	"payment_status": func(p models.ManualPayment) string { return string(p.PaymentStatus) },
	"ticket_type":    func(p models.ManualPayment) string { return p.TicketType },
	"reference_code": func(p models.ManualPayment) string { return p.ReferenceCode },
	"name":           func(p models.ManualPayment) string { return p.Name },
	"user_email":     func(p models.ManualPayment) string { return p.UserEmail },
}

var PaymentSearch = []string{"reference_code", "name", "user_email"}

// PaymentSummary counts manual payments per review status.
type PaymentSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Rejected  int `json:"rejected"`
}

// ReviewOutcome is the result of a confirm or reject.
type ReviewOutcome struct {
	Payment models.ManualPayment `json:"payment"`
	// TicketCode is set when the API issued a ticket on confirmation.
	TicketCode string `json:"ticket_code,omitempty"`
	Message    string `json:"message"`
}

type PaymentService struct {
	deps Deps
	List *listview.Controller[models.ManualPayment, string]
}

func NewPaymentService(deps Deps) *PaymentService {
	deps = deps.withDefaults()
	return &PaymentService{
		deps: deps,
		List: listview.NewController(listview.Config[models.ManualPayment, string]{
			Resource: adminapi.ResourcePayments,
			Key:      func(p models.ManualPayment) string { return p.ReferenceCode },
			Fields:   paymentFields,
			Search:   PaymentSearch,
			Load:     deps.API.ListManualPayments,
		}),
	}
}

func (s *PaymentService) Summary() PaymentSummary {
	counts := s.List.Count("payment_status")
	return PaymentSummary{
		Total:     s.List.Len(),
		Pending:   counts[string(models.ReviewPending)],
		Confirmed: counts[string(models.ReviewConfirmed)],
		Rejected:  counts[string(models.ReviewRejected)],
	}
}

// Busy reports whether a review of reference is in progress.
func (s *PaymentService) Busy(ctx context.Context, reference string) bool {
	return s.deps.Tracker.Busy(ctx, inflight.Key("payment", strings.TrimSpace(reference)))
}

// Confirm approves a pending payment. The API issues the ticket.
func (s *PaymentService) Confirm(ctx context.Context, reference, notes string) (ReviewOutcome, error) {
	return s.review(ctx, reference, models.ReviewConfirmed, strings.TrimSpace(notes))
}

// Reject declines a pending payment. An empty note becomes
// DefaultRejectNote.
func (s *PaymentService) Reject(ctx context.Context, reference, notes string) (ReviewOutcome, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		notes = DefaultRejectNote
	}
	return s.review(ctx, reference, models.ReviewRejected, notes)
}

func (s *PaymentService) review(ctx context.Context, reference string, to models.ReviewStatus, notes string) (out ReviewOutcome, err error) {
	kind, call, activity := mutationConfirm, s.deps.API.ConfirmManualPayment, ActivityPaymentConfirmed
	if to == models.ReviewRejected {
		kind, call, activity = mutationReject, s.deps.API.RejectManualPayment, ActivityPaymentRejected
	}

	reference = strings.TrimSpace(reference)
	var who string
	defer func() { s.deps.finish(kind, reference, who, err) }()

	if reference == "" {
		return ReviewOutcome{}, &status.ValidationError{Fields: map[string]string{
			"reference_code": "Reference code is required",
		}}
	}

	current, err := s.resolve(ctx, reference)
	if err != nil {
		return ReviewOutcome{}, err
	}
	if !current.IsPending() {
		return ReviewOutcome{}, fmt.Errorf("payment %s is %s: %w", reference, current.PaymentStatus, status.ErrPaymentNotPending)
	}

	who, err = s.deps.Actor.ActorName(ctx)
	if err != nil {
		return ReviewOutcome{}, err
	}

	err = inflight.Guard(ctx, s.deps.Tracker, inflight.Key("payment", reference), func(ctx context.Context) error {
		res, err := call(ctx, reference, adminapi.Review{ConfirmedBy: who, AdminNotes: notes})
		if err != nil {
			return err
		}
		at := models.NewTimestamp(s.deps.Clock())
		s.List.Patch(reference, func(p models.ManualPayment) models.ManualPayment {
			return p.Reviewed(to, who, notes, at)
		})
		out = ReviewOutcome{
			Payment:    current.Reviewed(to, who, notes, at),
			TicketCode: res.TicketCode,
			Message:    reviewMessage(to, res),
		}
		return nil
	})
	if err != nil {
		return ReviewOutcome{}, err
	}

	s.deps.announce(ctx, Activity{
		Kind:   activity,
		Key:    reference,
		Actor:  who,
		Detail: out.TicketCode,
	})
	return out, nil
}

// resolve finds reference in the snapshot. A payment submitted after the
// last read is not in it, so a miss on a loaded snapshot rereads once.
func (s *PaymentService) resolve(ctx context.Context, reference string) (models.ManualPayment, error) {
	stale := s.List.Loaded()
	if err := s.List.EnsureLoaded(ctx); err != nil {
		return models.ManualPayment{}, err
	}
	if p, ok := s.List.Get(reference); ok {
		return p, nil
	}
	if stale {
		if err := s.List.Refresh(ctx); err != nil {
			return models.ManualPayment{}, err
		}
		if p, ok := s.List.Get(reference); ok {
			return p, nil
		}
	}
	return models.ManualPayment{}, fmt.Errorf("payment %s: %w", reference, status.ErrNotFound)
}

func reviewMessage(to models.ReviewStatus, res adminapi.ReviewResult) string {
	if m := strings.TrimSpace(res.Message); m != "" {
		return m
	}
	if to == models.ReviewRejected {
		return "Payment rejected"
	}
	if res.TicketCode != "" {
		return "Payment confirmed. Ticket " + res.TicketCode + " issued."
	}
	return "Payment confirmed"
}
