// Package metrics observes integration runs.
//
// The in-process metrics implement [sim.Metric] and are reset at the start of
// every run. [Standard] returns the work metrics ([Evaluations],
// [RejectionRate], [MeanStep]); [EnergyDrift] applies to conservative
// problems and [Stability] to runs with a state bound. [Collector] is a [sim.Observer] that exports step counters,
// RHS evaluations and a step-size histogram to a private Prometheus registry;
// it is safe to share across the runs of an ensemble.
package metrics
