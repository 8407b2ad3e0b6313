package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/d33fur/caso/internal/sim"
)

// Collector exports step telemetry to its own Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	steps       *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	iterations  *prometheus.CounterVec
	stepSize    *prometheus.HistogramVec
	lastError   *prometheus.GaugeVec
}

// NewCollector creates a collector. An empty namespace defaults to "caso".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "caso"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.steps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "integrator",
			Name:      "steps_total",
			Help:      "Attempted steps by outcome (accepted, rejected, diverged)",
		},
		[]string{"method", "result"},
	)

	c.evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "integrator",
			Name:      "rhs_evaluations_total",
			Help:      "Right-hand side evaluations, including rejected attempts",
		},
		[]string{"method"},
	)

	c.iterations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "integrator",
			Name:      "implicit_iterations_total",
			Help:      "Fixed-point sweeps spent on implicit stages",
		},
		[]string{"method"},
	)

	c.stepSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "integrator",
			Name:      "step_size",
			Help:      "Size of accepted steps",
			Buckets:   prometheus.ExponentialBuckets(1e-8, 10, 10), // 1e-8 to 10
		},
		[]string{"method"},
	)

	c.lastError = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "integrator",
			Name:      "error_estimate",
			Help:      "Embedded error estimate of the last accepted step",
		},
		[]string{"method"},
	)

	c.registry.MustRegister(c.steps, c.evaluations, c.iterations, c.stepSize, c.lastError)
	return c
}

// OnStep implements sim.Observer.
func (c *Collector) OnStep(ev sim.StepEvent) {
	result := "accepted"
	switch {
	case !ev.Converged:
		result = "diverged"
	case !ev.Accepted:
		result = "rejected"
	}
	c.steps.WithLabelValues(ev.Method, result).Inc()
	c.evaluations.WithLabelValues(ev.Method).Add(float64(ev.Evaluations))
	c.iterations.WithLabelValues(ev.Method).Add(float64(ev.Iterations))

	if ev.Accepted {
		c.stepSize.WithLabelValues(ev.Method).Observe(ev.H)
		c.lastError.WithLabelValues(ev.Method).Set(ev.Error)
	}
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	return c.registry.Gather()
}

// WriteText writes every family in the Prometheus text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
