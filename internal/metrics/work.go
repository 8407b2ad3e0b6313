package metrics

import "github.com/d33fur/caso/internal/sim"

// Evaluations counts right-hand side calls, including those spent on
// rejected attempts.
type Evaluations struct {
	count int
}

func NewEvaluations() *Evaluations { return &Evaluations{} }

func (e *Evaluations) Name() string             { return "evaluations" }
func (e *Evaluations) Observe(ev sim.StepEvent) { e.count += ev.Evaluations }
func (e *Evaluations) Value() float64           { return float64(e.count) }
func (e *Evaluations) Reset()                   { e.count = 0 }

// RejectionRate is rejected attempts over all attempts.
type RejectionRate struct {
	attempts int
	rejected int
}

func NewRejectionRate() *RejectionRate { return &RejectionRate{} }

func (r *RejectionRate) Name() string { return "rejection_rate" }

func (r *RejectionRate) Observe(ev sim.StepEvent) {
	r.attempts++
	if !ev.Accepted {
		r.rejected++
	}
}

func (r *RejectionRate) Value() float64 {
	if r.attempts == 0 {
		return 0
	}
	return float64(r.rejected) / float64(r.attempts)
}

func (r *RejectionRate) Reset() {
	r.attempts = 0
	r.rejected = 0
}

// MeanStep is the average size of accepted steps.
type MeanStep struct {
	sum     float64
	samples int
}

func NewMeanStep() *MeanStep { return &MeanStep{} }

func (m *MeanStep) Name() string { return "mean_step" }

func (m *MeanStep) Observe(ev sim.StepEvent) {
	if ev.Accepted {
		m.sum += ev.H
		m.samples++
	}
}

func (m *MeanStep) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanStep) Reset() {
	m.sum = 0
	m.samples = 0
}

// Standard returns the metrics every CLI run reports.
func Standard() []sim.Metric {
	return []sim.Metric{NewEvaluations(), NewRejectionRate(), NewMeanStep()}
}
