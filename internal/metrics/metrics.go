package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pair mining
	PairMiningDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "basket_pair_mining_duration_seconds",
			Help:    "Duration of a full basket pair mining pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	PairMiningOrders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "basket_pair_mining_orders_scanned",
			Help: "Number of orders scanned by the last pair mining pass",
		},
	)

	PairTableRefreshErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "basket_pair_table_refresh_errors_total",
			Help: "Total number of failed pair table refreshes",
		},
	)

	PairTableCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_pair_table_cache_lookups_total",
			Help: "Pair table snapshot lookups by outcome",
		},
		[]string{"outcome"}, // "memory", "redis", "miss"
	)

	// Recommendations
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Recommendation requests by candidate mode and outcome",
		},
		[]string{"mode", "outcome"}, // mode: "anchor", "history"; outcome: "ok", "empty", "degraded"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Duration of recommendation requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// Cashback
	CashbackReminders = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cashback_reminders",
			Help: "Users flagged by the last cashback scan, by priority",
		},
		[]string{"priority"},
	)

	// Store
	StoreBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_circuit_breaker_state",
			Help: "Circuit breaker state per store (0=closed, 1=half-open, 2=open)",
		},
		[]string{"store"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total number of failed store queries",
		},
		[]string{"store", "operation"},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
