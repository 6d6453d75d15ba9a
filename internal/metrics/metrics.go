package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Rate limiting
	RateLimitExceededTotal prometheus.CounterVec

	// Marketplace domain
	PostsCreatedTotal       prometheus.CounterVec
	PostsDeletedTotal       prometheus.CounterVec
	PostsExtendedTotal      prometheus.CounterVec
	PostsExpiredTotal       prometheus.CounterVec
	ReportsTotal            prometheus.CounterVec
	ModerationRemovalsTotal prometheus.CounterVec
	FeedQueryDuration       prometheus.HistogramVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of in-flight HTTP requests",
				},
				[]string{"method", "path"},
			),
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total cache misses",
				},
				[]string{"cache"},
			),
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Requests rejected by the rate limiter",
				},
				[]string{"endpoint"},
			),
			PostsCreatedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "posts_created_total",
					Help: "Posts created, by category",
				},
				[]string{"category"},
			),
			PostsDeletedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "posts_deleted_total",
					Help: "Posts hard-deleted, by cause (owner, moderation)",
				},
				[]string{"cause"},
			),
			PostsExtendedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "posts_extended_total",
					Help: "Post expiration extensions",
				},
				[]string{},
			),
			PostsExpiredTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "posts_expired_total",
					Help: "Posts flipped to expired by the sweep",
				},
				[]string{},
			),
			ReportsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reports_total",
					Help: "Report submissions, by outcome (recorded, duplicate)",
				},
				[]string{"outcome"},
			),
			ModerationRemovalsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "moderation_removals_total",
					Help: "Posts removed by reaching the report threshold",
				},
				[]string{},
			),
			FeedQueryDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_query_duration_seconds",
					Help:    "Feed query latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
				},
				[]string{"cached"},
			),
		}
	})
	return instance
}

// Get returns the global metrics instance, initializing it on first use
func Get() *Metrics {
	return Initialize()
}
