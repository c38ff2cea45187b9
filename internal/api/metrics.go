package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors shared by the engine's subsystems.
var (
	DiscoveryRounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetdeck_discovery_rounds_total",
		Help: "Completed fleet discovery rounds.",
	})

	DiscoveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleetdeck_discovery_duration_seconds",
		Help:    "Wall time of a full discovery round.",
		Buckets: prometheus.DefBuckets,
	})

	RegionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetdeck_region_failures_total",
		Help: "Per-region discovery failures, by region.",
	}, []string{"region"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetdeck_cache_hits_total",
		Help: "Fleet snapshot reads served from the shared cache.",
	})

	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fleetdeck_session_jobs_active",
		Help: "Background session jobs currently active.",
	})

	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetdeck_mutations_total",
		Help: "Instance mutations by action and outcome.",
	}, []string{"action", "outcome"})
)

// RegisterMetrics registers the Prometheus handler in the provided mux.
func RegisterMetrics(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
