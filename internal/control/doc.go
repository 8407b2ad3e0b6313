// Package control decides whether an attempted step is accepted and how
// large the next one should be.
//
// A [StepController] runs in one of two modes:
//
//   - fixed step: tableaus without an embedded estimate accept every step
//     and keep the caller's nominal step size;
//   - adaptive: embedded pairs accept a step when its error estimate is
//     within tolerance and rescale h from the estimate.
//
// The adaptive rule is the elementary controller
//
//	h_new = h * safety * (tol / max(e, eps))^(1/(p+1))
//
// with the factor bounded to [MinScale, MaxScale] and the result clamped to
// [HMin, HMax]. Setting Config.Beta enables the PI variant, which also feeds
// back the error of the previous accepted step.
//
// # Thread Safety
//
// A StepController carries the previous error and the rejection count of the
// current step. Use one per integration run.
package control
