// Package metrics defines Prometheus metrics for sidekick.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sidekick"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// HTTP server metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 if the last /healthz probe succeeded.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 if the last /readyz probe succeeded.",
	})
)

// Reference data metrics.
var (
	RefdataFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refdata_fetch_total",
		Help:      "Reference data fetches by collection and outcome.",
	}, []string{"collection", "outcome"})

	RefdataSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refdata_sync_total",
		Help:      "Reference data synchronization batches by outcome.",
	}, []string{"outcome"})

	RefdataRetriesScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refdata_retries_scheduled_total",
		Help:      "Total number of reference data retries scheduled, including deferrals.",
	})

	RefdataReady = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "refdata_ready",
		Help:      "1 when all reference collections are loaded.",
	})
)

// Trade API metrics.
var (
	DispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_total",
		Help:      "Query dispatches by protocol and outcome.",
	}, []string{"protocol", "outcome"})

	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Duration of query dispatches in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"protocol"})

	ListingPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_pages_total",
		Help:      "Listing detail page fetches by outcome.",
	}, []string{"outcome"})

	TradeAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trade_api_requests_total",
		Help:      "Requests sent to the remote trade API by method and status code.",
	}, []string{"method", "status"})

	TradeAPIThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trade_api_throttled_total",
		Help:      "Total number of 429 responses that paused the shared rate limiter.",
	})
)

// Notification metrics.
var (
	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of ready notification failures.",
	})
)
