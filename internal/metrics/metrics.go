package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolutionsTotal tracks finished resolutions per asset class and outcome
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainprobe_resolutions_total",
			Help: "Total number of balance resolutions",
		},
		[]string{"asset", "status"},
	)

	// ProviderAttemptsTotal tracks provider calls per asset class and provider
	ProviderAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainprobe_provider_attempts_total",
			Help: "Total number of provider resolution attempts",
		},
		[]string{"asset", "provider"},
	)

	// ProviderFailuresTotal tracks failed provider calls per asset class and provider
	ProviderFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainprobe_provider_failures_total",
			Help: "Total number of failed provider resolution attempts",
		},
		[]string{"asset", "provider"},
	)

	// ResolutionLatency tracks end-to-end resolution latency per asset class
	ResolutionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainprobe_resolution_latency_seconds",
			Help:    "Balance resolution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"asset"},
	)

	// CacheHitsTotal tracks lookups served from the cache
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainprobe_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"asset"},
	)

	// CacheMissesTotal tracks lookups that had to invoke the resolver
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainprobe_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"asset"},
	)

	// CacheEntries tracks the number of entries held by the cache
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chainprobe_cache_entries",
			Help: "Number of entries currently held by the balance cache",
		},
	)
)
