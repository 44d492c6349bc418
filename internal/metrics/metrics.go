// Package metrics exposes Prometheus collectors for the event discovery engine.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	quotaCallsUsed      prometheus.Gauge
	quotaUsableCap      prometheus.Gauge
	runsTotal           *prometheus.CounterVec
	runDurationSeconds  *prometheus.HistogramVec
	cacheLookupsTotal   *prometheus.CounterVec
	externalCallsTotal  *prometheus.CounterVec
	eventsFoundTotal    *prometheus.CounterVec
	eventsAcceptedTotal *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call multiple times; helpers are no-ops until it runs.
func Init() {
	once.Do(func() {
		quotaCallsUsed = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "eventradar_quota_calls_used",
			Help: "API calls consumed against today's usable quota.",
		})

		quotaUsableCap = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "eventradar_quota_usable_cap",
			Help: "Usable daily call cap (daily limit minus safety buffer).",
		})

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventradar_runs_total",
				Help: "Total pipeline runs, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		runDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventradar_run_duration_seconds",
				Help:    "Histogram of pipeline run durations, labeled by kind.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"kind"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventradar_cache_lookups_total",
				Help: "Response cache lookups, labeled by query kind and result.",
			},
			[]string{"kind", "result"},
		)

		externalCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventradar_external_calls_total",
				Help: "External search API calls, labeled by query kind and status.",
			},
			[]string{"kind", "status"},
		)

		eventsFoundTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventradar_events_found_total",
				Help: "Candidate event records produced by fetches, labeled by run kind.",
			},
			[]string{"kind"},
		)

		eventsAcceptedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventradar_events_accepted_total",
				Help: "Event records newly accepted by the ingest gate, labeled by run kind.",
			},
			[]string{"kind"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetQuotaUsage records the current quota consumption.
func SetQuotaUsage(used, usableCap int) {
	if quotaCallsUsed == nil {
		return
	}
	quotaCallsUsed.Set(float64(used))
	quotaUsableCap.Set(float64(usableCap))
}

// ObserveRun records a completed (or skipped) pipeline run.
func ObserveRun(kind, outcome string, duration time.Duration) {
	if runsTotal == nil {
		return
	}
	runsTotal.WithLabelValues(kind, outcome).Inc()
	runDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveCacheLookup records a cache hit or miss.
func ObserveCacheLookup(kind, result string) {
	if cacheLookupsTotal == nil {
		return
	}
	cacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveExternalCall records one external search call attempt.
func ObserveExternalCall(kind, status string) {
	if externalCallsTotal == nil {
		return
	}
	externalCallsTotal.WithLabelValues(kind, status).Inc()
}

// ObserveEvents records found and accepted counts for a run kind.
func ObserveEvents(kind string, found, accepted int) {
	if eventsFoundTotal == nil {
		return
	}
	eventsFoundTotal.WithLabelValues(kind).Add(float64(found))
	eventsAcceptedTotal.WithLabelValues(kind).Add(float64(accepted))
}
