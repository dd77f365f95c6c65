// Package metrics exposes census run metrics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"herd-census/internal/domain"
)

// Recorder implements usecase.MetricsRecorder.
type Recorder struct {
	runs      *prometheus.CounterVec
	duration  prometheus.Histogram
	skipped   *prometheus.CounterVec
	floorHits prometheus.Counter
}

// NewRecorder registers the census collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herd_census",
			Name:      "runs_total",
			Help:      "Census computations by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "herd_census",
			Name:      "run_duration_seconds",
			Help:      "Wall time of census computations, fetch included.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herd_census",
			Name:      "skipped_records_total",
			Help:      "Records left out of the census by reason code.",
		}, []string{"reason"}),
		floorHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "herd_census",
			Name:      "netting_floor_hits_total",
			Help:      "Outbound movements that would have driven a count below zero.",
		}),
	}
	reg.MustRegister(r.runs, r.duration, r.skipped, r.floorHits)
	return r
}

// ObserveRun counts a finished run by result and records its duration.
func (r *Recorder) ObserveRun(result string, elapsed time.Duration) {
	r.runs.WithLabelValues(result).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// AddSkips adds the skip counts of one run per reason code.
func (r *Recorder) AddSkips(skips domain.Skips) {
	for reason, n := range skips {
		if n > 0 {
			r.skipped.WithLabelValues(string(reason)).Add(float64(n))
		}
	}
}

// AddFloorHits adds the netting floor hits of one run.
func (r *Recorder) AddFloorHits(n int) {
	if n > 0 {
		r.floorHits.Add(float64(n))
	}
}
