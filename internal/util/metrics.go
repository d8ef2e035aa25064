package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SettlementsPreparedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_settlements_prepared_total",
		Help: "Total number of settlements handed to the payment gateway",
	})

	SettlementsBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_settlements_blocked_total",
		Help: "Total number of checkouts blocked because no item was available",
	})

	SettlementsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_settlements_completed_total",
		Help: "Total number of settlements confirmed as paid",
	})

	SettlementsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_settlements_failed_total",
		Help: "Total number of failed settlements",
	}, []string{"reason"})

	ExcludedItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_excluded_items_total",
		Help: "Total number of cart lines left out of a settlement",
	})

	GatewayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_payment_gateway_latency_seconds",
		Help:    "Latency of payment gateway session creation",
		Buckets: prometheus.DefBuckets,
	})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_upstream_latency_seconds",
		Help:    "Latency of catalog service calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	CatalogCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_cache_total",
		Help: "Catalog snapshot cache lookups",
	}, []string{"result"})

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
