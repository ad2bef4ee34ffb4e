package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gravitee_audit_http_latency_seconds",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	StoreQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gravitee_audit_store_queries_total",
		Help: "Document store operations by collection, operation and outcome",
	}, []string{"collection", "operation", "outcome"})

	StoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gravitee_audit_store_latency_seconds",
		Help:    "Document store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection", "operation"})

	Lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gravitee_audit_lookups_total",
		Help: "Identifier resolutions by kind and outcome (found, not_found, failed)",
	}, []string{"kind", "outcome"})

	PatchDecodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gravitee_audit_patch_decodes_total",
		Help: "Patch decodes by outcome (ok, invalid)",
	}, []string{"outcome"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gravitee_audit_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)
