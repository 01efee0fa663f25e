package services

import (
	"context"
	"fmt"
	"time"

	"event-admin/internal/adminapi"
	"event-admin/internal/catalog"
	"event-admin/internal/listview"
	"event-admin/internal/tabs"
	"event-admin/models"
	"event-admin/monitoring"

	"go.uber.org/zap"
)

var waitlistFields = listview.Fields[models.WaitlistEntry]{
	"referral": func(w models.WaitlistEntry) string { return w.ReferralLabel() },
	"name":     func(w models.WaitlistEntry) string { return w.Name },
	"email":    func(w models.WaitlistEntry) string { return w.Email },
	"phone":    func(w models.WaitlistEntry) string { return w.Phone },
}

var WaitlistSearch = []string{"name", "email", "phone"}

// Dashboard is everything both the HTTP and the terminal surface need.
type Dashboard struct {
	Catalog  *catalog.Catalog
	Tickets  *TicketService
	Payments *PaymentService
	Promos   *PromoService
	Waitlist *listview.Controller[models.WaitlistEntry, int]

	deps Deps
}

func NewDashboard(deps Deps, cat *catalog.Catalog) *Dashboard {
	deps = deps.withDefaults()
	if cat == nil {
		cat = catalog.New(nil)
	}
	return &Dashboard{
		Catalog:  cat,
		Tickets:  NewTicketService(deps),
		Payments: NewPaymentService(deps),
		Promos:   NewPromoService(deps),
		Waitlist: listview.NewController(listview.Config[models.WaitlistEntry, int]{
			Resource: adminapi.ResourceWaitlist,
			Key:      func(w models.WaitlistEntry) int { return w.ID },
			Fields:   waitlistFields,
			Search:   WaitlistSearch,
			Load:     deps.API.ListWaitlist,
		}),
		deps: deps,
	}
}

// Load reads the remote collection behind tab. Tabs rendered from the
// event catalog have nothing to load.
func (d *Dashboard) Load(ctx context.Context, tab tabs.Tab) error {
	switch tab {
	case tabs.Tickets:
		return d.refresh(ctx, d.Tickets.List.Resource(), d.Tickets.List.Refresh, d.Tickets.List.Len)
	case tabs.Payments:
		return d.refresh(ctx, d.Payments.List.Resource(), d.Payments.List.Refresh, d.Payments.List.Len)
	case tabs.Promos:
		return d.refresh(ctx, d.Promos.List.Resource(), d.Promos.List.Refresh, d.Promos.List.Len)
	case tabs.Waitlist:
		return d.refresh(ctx, d.Waitlist.Resource(), d.Waitlist.Refresh, d.Waitlist.Len)
	case tabs.Overview, tabs.Types:
		return nil
	}
	return fmt.Errorf("load: unknown tab %q", tab)
}

func (d *Dashboard) refresh(ctx context.Context, resource string, fn func(context.Context) error, size func() int) error {
	start := time.Now()
	if err := fn(ctx); err != nil {
		d.deps.Log.Warn("refresh failed", zap.String("resource", resource), zap.Error(err))
		return err
	}
	n := size()
	monitoring.SetListItems(resource, n)
	d.deps.Log.Debug("refreshed",
		zap.String("resource", resource),
		zap.Int("items", n),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Event returns the catalog event by id or slug, or the first event when
// idOrSlug is empty.
func (d *Dashboard) Event(idOrSlug string) (models.Event, bool) {
	if idOrSlug == "" {
		return d.Catalog.First()
	}
	return d.Catalog.Find(idOrSlug)
}

// Now is the dashboard clock.
func (d *Dashboard) Now() time.Time {
	return d.deps.Clock()
}

// Configured reports whether an admin API is wired in. Without one every
// remote read and mutation fails with status.ErrNotConfigured.
func (d *Dashboard) Configured() bool {
	_, missing := d.deps.API.(unconfigured)
	return !missing
}
