// Package metrics provides Prometheus instrumentation for the analysis
// host.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks analysis requests by outcome and source.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finlens_requests_total",
			Help: "Total number of analysis requests by status and source.",
		},
		[]string{"status", "source"}, // status: "ok", "cache_hit", "rejected"
	)

	// RequestLatency tracks end-to-end analysis latency in seconds.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finlens_request_latency_seconds",
			Help:    "End-to-end analysis latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source", "cache_status"},
	)

	// ProviderFailures tracks failed provider attempts by provider.
	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finlens_provider_failures_total",
			Help: "Total number of failed provider attempts.",
		},
		[]string{"provider"},
	)

	// CacheLookupsTotal tracks the total number of cache lookups.
	CacheLookupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "finlens_cache_lookups_total",
			Help: "Total number of result cache lookups.",
		},
	)

	// CacheHitsTotal tracks the total number of cache hits.
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "finlens_cache_hits_total",
			Help: "Total number of result cache hits.",
		},
	)

	// CacheHitRatio is a derived gauge, updated on every lookup.
	CacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finlens_cache_hit_ratio",
			Help: "Current cache hit ratio (hits / lookups).",
		},
	)

	// ActiveRequests tracks in-flight analysis requests.
	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finlens_active_requests",
			Help: "Number of currently in-flight analysis requests.",
		},
	)

	ratioMu      sync.Mutex
	totalHits    float64
	totalLookups float64
)

// RecordCacheLookup records a cache lookup and updates the hit ratio.
func RecordCacheLookup(hit bool) {
	CacheLookupsTotal.Inc()
	if hit {
		CacheHitsTotal.Inc()
	}

	ratioMu.Lock()
	totalLookups++
	if hit {
		totalHits++
	}
	CacheHitRatio.Set(totalHits / totalLookups)
	ratioMu.Unlock()
}
