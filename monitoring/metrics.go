package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_api_requests_total",
			Help: "Requests sent to the admin API",
		},
		[]string{"resource", "operation", "outcome"},
	)

	apiDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admin_api_request_duration_seconds",
			Help:    "Duration of admin API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource", "operation"},
	)

	mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_mutations_total",
			Help: "Dashboard mutations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	listItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admin_list_items",
			Help: "Items in the last loaded snapshot per resource",
		},
		[]string{"resource"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admin_api_breaker_state",
			Help: "Admin API circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	inflightMarkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "admin_inflight_markers",
			Help: "Mutation markers currently held in Redis",
		},
	)
)

// Outcomes recorded for admin API requests and mutations.
const (
	OutcomeSuccess  = "success"
	OutcomeAPIError = "api_error"
	OutcomeNetwork  = "network_error"
	OutcomeInvalid  = "invalid"
	OutcomeInFlight = "in_flight"
	OutcomeRejected = "rejected"
)

// TrackAPIRequest records one admin API call.
func TrackAPIRequest(resource, operation, outcome string, duration time.Duration) {
	apiRequests.WithLabelValues(resource, operation, outcome).Inc()
	apiDuration.WithLabelValues(resource, operation).Observe(duration.Seconds())
}

// TrackMutation records the outcome of a check-in, payment review or
// promo creation.
func TrackMutation(kind, outcome string) {
	mutations.WithLabelValues(kind, outcome).Inc()
}

func SetListItems(resource string, n int) {
	listItems.WithLabelValues(resource).Set(float64(n))
}

func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// Monitor periodically samples state that lives outside the process.
type Monitor struct {
	redis  redis.Cmdable
	prefix string
	log    *zap.Logger
}

func NewMonitor(redisClient redis.Cmdable, markerPrefix string, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{redis: redisClient, prefix: markerPrefix, log: log}
}

// Run collects metrics every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectInflightMetrics(ctx)
		}
	}
}

func (m *Monitor) collectInflightMetrics(ctx context.Context) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := m.redis.Scan(ctx, cursor, m.prefix+"*", 100).Result()
		if err != nil {
			m.log.Warn("collect inflight markers", zap.Error(err))
			return
		}
		total += len(keys)
		if next == 0 {
			break
		}
		cursor = next
	}
	inflightMarkers.Set(float64(total))
}
