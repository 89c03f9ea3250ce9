package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProcurementsRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurements_requested_total",
		Help: "Total number of procurement requests accepted",
	})

	ProcurementsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurements_completed_total",
		Help: "Total number of procurement runs that ended in a purchase",
	})

	ProcurementsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procurements_failed_total",
		Help: "Total number of procurement runs that ended without a purchase",
	}, []string{"reason"})

	VendorSearchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vendor_search_latency_seconds",
		Help:    "Latency of vendor search calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"vendor"})

	VendorSearchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendor_search_failures_total",
		Help: "Total number of vendor search calls that failed or timed out",
	}, []string{"vendor"})

	VendorProductsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendor_products_rejected_total",
		Help: "Total number of vendor products dropped for failing validation",
	}, []string{"vendor"})

	SearchCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_hits_total",
		Help: "Total number of vendor searches served from cache",
	})

	SearchCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_misses_total",
		Help: "Total number of vendor searches not found in cache",
	})

	PurchaseAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_attempts_total",
		Help: "Total number of purchase executions attempted",
	})

	PurchasesRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_rejected_total",
		Help: "Total number of purchases rejected before execution",
	}, []string{"reason"})

	PurchaseAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "purchase_amount_dollars",
		Help:    "Total amount of completed purchases",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
