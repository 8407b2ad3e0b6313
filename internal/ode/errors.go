package ode

import (
	"errors"
	"fmt"
)

// Domain errors for integration runs.
var (
	// ErrInvalidTableau indicates malformed Butcher coefficients.
	ErrInvalidTableau = errors.New("ode: invalid butcher tableau")

	// ErrInvalidParameters indicates inputs the defaulting policy cannot repair.
	ErrInvalidParameters = errors.New("ode: invalid integration parameters")

	// ErrImplicitNotConverged indicates a fixed-point stage solve ran out of iterations.
	ErrImplicitNotConverged = errors.New("ode: implicit stage solve did not converge")

	// ErrStepSizeUnderflow indicates the adaptive controller could not find an acceptable step.
	ErrStepSizeUnderflow = errors.New("ode: step size underflow")

	// ErrUnstable indicates the state became NaN or Inf.
	ErrUnstable = errors.New("ode: integration unstable (state diverged)")

	// ErrTooManySteps indicates the run exceeded its step budget.
	ErrTooManySteps = errors.New("ode: maximum step count exceeded")
)

// IntegrationError wraps an error with the position at which a run failed.
type IntegrationError struct {
	Step    int
	X       float64
	H       float64
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("step %d (x=%.6g, h=%.3g): %v", e.Step, e.X, e.H, e.Wrapped)
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}
