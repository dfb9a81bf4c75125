// Package metrics exports run progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/firefly/internal/optimization"
	"github.com/copyleftdev/firefly/internal/optimization/firefly"
)

const namespace = "firefly"

// Run outcomes.
const (
	OutcomeCompleted   = "completed"
	OutcomeOutputError = "output_error"
	OutcomeCancelled   = "cancelled"
	OutcomeFailed      = "failed"
)

// Collector is a firefly.Observer recording runs, generations and the best
// intensity reached.
type Collector struct {
	runsStarted        *prometheus.CounterVec
	runsFinished       *prometheus.CounterVec
	generations        prometheus.Counter
	generationDuration prometheus.Histogram
	runDuration        prometheus.Histogram
	bestIntensity      prometheus.Gauge
	activeRuns         prometheus.Gauge
}

var _ firefly.Observer = (*Collector)(nil)

// NewCollector creates the metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Runs started, by movement mode.",
		}, []string{"mode"}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_finished_total",
			Help:      "Runs finished, by outcome.",
		}, []string{"outcome"}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generations evaluated and moved across all runs.",
		}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent evaluating and moving one generation.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a whole run.",
			Buckets:   prometheus.ExponentialBuckets(1e-3, 4, 10),
		}),
		bestIntensity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_intensity",
			Help:      "Intensity of the brightest final firefly of the last run that selected one.",
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Runs currently in progress.",
		}),
	}

	if reg != nil {
		for _, m := range []prometheus.Collector{
			c.runsStarted, c.runsFinished, c.generations,
			c.generationDuration, c.runDuration, c.bestIntensity, c.activeRuns,
		} {
			if err := reg.Register(m); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// RunStarted implements firefly.Observer.
func (c *Collector) RunStarted(cfg firefly.Config) {
	c.runsStarted.WithLabelValues(string(cfg.Mode)).Inc()
	c.activeRuns.Inc()
}

// GenerationDone implements firefly.Observer.
func (c *Collector) GenerationDone(_ int, elapsed time.Duration) {
	c.generations.Inc()
	c.generationDuration.Observe(elapsed.Seconds())
}

// RunFinished implements firefly.Observer.
func (c *Collector) RunFinished(result *optimization.Result, elapsed time.Duration, err error) {
	c.activeRuns.Dec()
	c.runDuration.Observe(elapsed.Seconds())
	c.runsFinished.WithLabelValues(Outcome(err)).Inc()
	if result != nil && result.Best != nil {
		c.bestIntensity.Set(result.Best.Intensity)
	}
}

// Outcome classifies the error a run finished with.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	case optimization.IsKind(err, optimization.KindIO):
		return OutcomeOutputError
	default:
		return OutcomeFailed
	}
}
