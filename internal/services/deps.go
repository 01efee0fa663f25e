// Package services holds the dashboard's read and mutation flows. Each
// tab is a listview.Controller over one remote collection; mutations go
// through the admin API first and patch the local rows only once the API
// has accepted them.
package services

import (
	"context"
	"errors"
	"time"

	"event-admin/internal/actor"
	"event-admin/internal/adminapi"
	"event-admin/internal/inflight"
	"event-admin/internal/status"
	"event-admin/models"
	"event-admin/monitoring"

	"go.uber.org/zap"
)

// AdminAPI is the part of the remote admin API the dashboard uses.
type AdminAPI interface {
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	GetTicket(ctx context.Context, code string) (models.Ticket, error)
	CheckIn(ctx context.Context, code, checkedInBy string) (*models.Ticket, error)
	ListManualPayments(ctx context.Context) ([]models.ManualPayment, error)
	ConfirmManualPayment(ctx context.Context, reference string, review adminapi.Review) (adminapi.ReviewResult, error)
	RejectManualPayment(ctx context.Context, reference string, review adminapi.Review) (adminapi.ReviewResult, error)
	ListPromoCodes(ctx context.Context) ([]models.PromoCode, error)
	CreatePromoCode(ctx context.Context, draft models.PromoDraft) (adminapi.CreatedPromo, error)
	ListWaitlist(ctx context.Context) ([]models.WaitlistEntry, error)
}

var _ AdminAPI = (*adminapi.Client)(nil)

// Deps are shared by every service. Zero fields get working defaults; a
// nil API makes every call fail with status.ErrNotConfigured.
type Deps struct {
	API      AdminAPI
	Tracker  inflight.Tracker
	Actor    actor.Provider
	Notifier Notifier
	Log      *zap.Logger
	Clock    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.API == nil {
		d.API = unconfigured{}
	}
	if d.Tracker == nil {
		d.Tracker = inflight.NewMemory()
	}
	if d.Actor == nil {
		d.Actor = actor.Static(actor.DefaultName)
	}
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// announce publishes a after a successful mutation. Failures are logged
// and never reach the caller.
func (d Deps) announce(ctx context.Context, a Activity) {
	if a.At.IsZero() {
		a.At = d.Clock()
	}
	if err := d.Notifier.Notify(context.WithoutCancel(ctx), a); err != nil {
		d.Log.Warn("publish activity failed",
			zap.String("kind", a.Kind),
			zap.String("key", a.Key),
			zap.Error(err),
		)
	}
}

// finish records the outcome of a mutation in logs and metrics.
func (d Deps) finish(kind, key, who string, err error) {
	outcome := mutationOutcome(err)
	monitoring.TrackMutation(kind, outcome)

	fields := []zap.Field{
		zap.String("kind", kind),
		zap.String("key", key),
		zap.String("outcome", outcome),
	}
	if who != "" {
		fields = append(fields, zap.String("actor", who))
	}
	if err != nil {
		d.Log.Info("mutation not applied", append(fields, zap.Error(err))...)
		return
	}
	d.Log.Info("mutation applied", fields...)
}

func mutationOutcome(err error) string {
	var (
		valErr *status.ValidationError
		netErr *status.NetworkError
		apiErr *status.APIError
	)
	switch {
	case err == nil:
		return monitoring.OutcomeSuccess
	case errors.As(err, &valErr):
		return monitoring.OutcomeInvalid
	case errors.Is(err, status.ErrInFlight):
		return monitoring.OutcomeInFlight
	case errors.As(err, &netErr):
		return monitoring.OutcomeNetwork
	case errors.As(err, &apiErr):
		return monitoring.OutcomeAPIError
	}
	return monitoring.OutcomeRejected
}

// unconfigured stands in for the API client when no base URL is set.
type unconfigured struct{}

func (unconfigured) ListTickets(context.Context) ([]models.Ticket, error) {
	return nil, status.ErrNotConfigured
}

func (unconfigured) GetTicket(context.Context, string) (models.Ticket, error) {
	return models.Ticket{}, status.ErrNotConfigured
}

func (unconfigured) CheckIn(context.Context, string, string) (*models.Ticket, error) {
	return nil, status.ErrNotConfigured
}

func (unconfigured) ListManualPayments(context.Context) ([]models.ManualPayment, error) {
	return nil, status.ErrNotConfigured
}

func (unconfigured) ConfirmManualPayment(context.Context, string, adminapi.Review) (adminapi.ReviewResult, error) {
	return adminapi.ReviewResult{}, status.ErrNotConfigured
}

func (unconfigured) RejectManualPayment(context.Context, string, adminapi.Review) (adminapi.ReviewResult, error) {
	return adminapi.ReviewResult{}, status.ErrNotConfigured
}

func (unconfigured) ListPromoCodes(context.Context) ([]models.PromoCode, error) {
	return nil, status.ErrNotConfigured
}

func (unconfigured) CreatePromoCode(context.Context, models.PromoDraft) (adminapi.CreatedPromo, error) {
	return adminapi.CreatedPromo{}, status.ErrNotConfigured
}

func (unconfigured) ListWaitlist(context.Context) ([]models.WaitlistEntry, error) {
	return nil, status.ErrNotConfigured
}
