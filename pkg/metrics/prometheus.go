package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "seat_allocation"

// PrometheusRecorder implements Recorder with Prometheus collectors
type PrometheusRecorder struct {
	runs       *prometheus.CounterVec
	duration   prometheus.Histogram
	assigned   prometheus.Gauge
	unassigned prometheus.Gauge
	skipped    prometheus.Gauge
	backfilled prometheus.Counter
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheus creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer; an empty namespace uses "seat_allocation".
func NewPrometheus(reg prometheus.Registerer, namespace string) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultNamespace
	}

	p := &PrometheusRecorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Allocation runs by outcome (success, config_error, error).",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time spent planning, allocating and exporting a run.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		assigned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_assigned",
			Help:      "Students placed by the last successful run.",
		}),
		unassigned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_unassigned",
			Help:      "Students left without a seat by the last successful run.",
		}),
		skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_skipped",
			Help:      "Roster records excluded from ranking in the last successful run.",
		}),
		backfilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfilled_seats_total",
			Help:      "Seats filled by cross-channel overflow across all runs.",
		}),
	}

	for _, c := range []prometheus.Collector{p.runs, p.duration, p.assigned, p.unassigned, p.skipped, p.backfilled} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *PrometheusRecorder) RecordRun(outcome string, duration time.Duration) {
	p.runs.WithLabelValues(outcome).Inc()
	p.duration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) RecordResult(stats RunStats) {
	p.assigned.Set(float64(stats.Assigned))
	p.unassigned.Set(float64(stats.Unassigned))
	p.skipped.Set(float64(stats.Skipped))
	p.backfilled.Add(float64(stats.Backfilled))
}
