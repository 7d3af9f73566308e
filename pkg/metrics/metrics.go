// Package metrics exposes Prometheus metrics for the bootstrap process.
//
// All collectors are registered with the default Prometheus registry on
// package initialization, so a `metrics.server` object (or any promhttp
// handler) serves them without further wiring.
//
// # Basic Usage
//
//	timer := metrics.NewTimer("build")
//	target, err := builder.Build(ctx)
//	metrics.BuildDuration.WithLabelValues(metrics.Outcome(err)).Observe(timer.Stop().Seconds())
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "launchpad"

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Cache lookup label values
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheStale  = "stale"
	CacheBypass = "bypass"
)

var (
	// BuildDuration tracks how long resolving the target object takes.
	// Labels: outcome (success/failure)
	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent building the target object",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"outcome"},
	)

	// Boots counts boot attempts by the stage they ended in.
	// Labels: stage (build/run), outcome (success/failure)
	//
	// Example:
	//	metrics.Boots.WithLabelValues("run", metrics.OutcomeSuccess).Inc()
	Boots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boots_total",
			Help:      "Total number of boot attempts",
		},
		[]string{"stage", "outcome"},
	)

	// ObjectsCreated counts objects instantiated by the object factory.
	// Labels: type (registered type name)
	ObjectsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_created_total",
			Help:      "Total number of objects created",
		},
		[]string{"type"},
	)

	// ConfigCacheLookups counts configuration cache lookups.
	// Labels: result (hit/miss/stale/bypass)
	ConfigCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_cache_lookups_total",
			Help:      "Configuration cache lookups by result",
		},
		[]string{"result"},
	)

	// ConfigLoadDuration tracks configuration creation time.
	// Labels: source (file/s3/gs/cache/none)
	ConfigLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "config_load_duration_seconds",
			Help:      "Time spent creating a configuration",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)
)

// Outcome maps an error to an outcome label value
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the name the timer was created with
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called
// multiple times.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
