package handlers

import (
	"net/http"

	"event-admin/internal/services"
	"event-admin/utils"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// AdminCollection is the auth collection dashboard staff sign in with.
const AdminCollection = "admins"

type RouteOptions struct {
	// Limiter guards mutation routes; nil leaves them unlimited.
	Limiter *hook.Handler[*core.RequestEvent]
	// Redis is pinged by /health when set.
	Redis         redis.Cmdable
	EnableMetrics bool
}

// Register mounts the dashboard routes on r.
func Register(r *router.Router[*core.RequestEvent], dash *services.Dashboard, opts RouteOptions) {
	admin := NewAdminHandler(dash)
	tickets := NewTicketHandler(dash)
	payments := NewPaymentHandler(dash)
	promos := NewPromoHandler(dash)

	g := r.Group("/api/admin")
	g.Bind(apis.RequireAuth(AdminCollection))

	mutation := func(route *router.Route[*core.RequestEvent]) {
		if opts.Limiter != nil {
			route.Bind(opts.Limiter)
		}
	}

	g.GET("/events", admin.ListEvents)
	g.GET("/events/{eventId}", admin.GetEvent)
	g.GET("/waitlist", admin.ListWaitlist)

	g.GET("/tickets", tickets.ListTickets)
	g.GET("/tickets/{code}", tickets.GetTicket)
	mutation(g.POST("/tickets/{code}/check-in", tickets.CheckIn))

	g.GET("/manual-payments", payments.ListPayments)
	mutation(g.POST("/manual-payments/{ref}/confirm", payments.ConfirmPayment))
	mutation(g.POST("/manual-payments/{ref}/reject", payments.RejectPayment))

	g.GET("/promo-codes", promos.ListPromos)
	g.GET("/promo-codes/suggest", promos.SuggestPromo)
	mutation(g.POST("/promo-codes", promos.CreatePromo))

	if opts.EnableMetrics {
		r.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
	}
	r.GET("/health", Health(opts.Redis))
}

// Health reports liveness and, when Redis is in use, its reachability.
func Health(client redis.Cmdable) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if client != nil {
			if err := utils.RedisHealthCheck(e.Request.Context(), client); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
		}
		return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	}
}
