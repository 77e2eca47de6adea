// Package metrics records kernel timings in Prometheus collectors and
// exports them in the text exposition format for node_exporter's textfile
// collector.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "amixbench"

// Recorder owns a private registry so several runs (and tests) never clash
// on duplicate registration.
type Recorder struct {
	registry    *prometheus.Registry
	duration    *prometheus.HistogramVec
	invocations *prometheus.CounterVec
	lastAmix    *prometheus.GaugeVec
	mismatches  prometheus.Counter
}

// NewRecorder creates a Recorder with its collectors registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "kernel_duration_seconds",
				Help:      "Mean duration of an amix kernel invocation, observed once per timed run of a strategy and size.",
				Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 12),
			},
			[]string{"strategy", "n"},
		),
		invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "kernel_invocations_total",
				Help:      "Number of amix kernel invocations.",
			},
			[]string{"strategy", "n"},
		),
		lastAmix: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "amix_value",
				Help:      "Last amix value computed by a strategy.",
			},
			[]string{"strategy", "n"},
		),
		mismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mismatches_total",
			Help:      "Number of problem sizes whose strategies disagreed.",
		}),
	}
}

// Observe records one timed run: iterations invocations that took total
// in aggregate, the last of which returned amix. The duration histogram
// gets a single observation, the run's mean.
func (r *Recorder) Observe(strategy string, n, iterations int, total time.Duration, amix float64) {
	if iterations <= 0 {
		return
	}
	labels := prometheus.Labels{"strategy": strategy, "n": strconv.Itoa(n)}
	r.duration.With(labels).Observe(total.Seconds() / float64(iterations))
	r.invocations.With(labels).Add(float64(iterations))
	r.lastAmix.With(labels).Set(amix)
}

// Mismatch counts one problem size whose results disagreed.
func (r *Recorder) Mismatch() { r.mismatches.Inc() }

// Registry exposes the underlying registry, for gathering in tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile writes every collected metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
