// Package caso integrates initial value problems y' = f(x, y) with any
// Runge-Kutta method given as a Butcher tableau.
//
//	rk4, _ := caso.Method("rk4")
//	traj, err := caso.Integrate(f, caso.State{2}, 1, 3, 0.25, rk4, caso.Options{})
//
// Methods carrying an embedded estimate (dormand-prince, bogacki-shampine,
// fehlberg, heun-euler) adapt the step to Options.Tolerance; all others take
// fixed steps of xs. Zero-valued options select the defaults.
package caso

import (
	"context"
	"fmt"

	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/sim"
	"github.com/d33fur/caso/internal/tableau"
)

type (
	State            = ode.State
	Func             = ode.Func
	Point            = ode.Point
	Trajectory       = ode.Trajectory
	Tableau          = tableau.Tableau
	TableauSpec      = tableau.Spec
	IntegrationError = ode.IntegrationError
)

var (
	ErrInvalidTableau       = ode.ErrInvalidTableau
	ErrInvalidParameters    = ode.ErrInvalidParameters
	ErrImplicitNotConverged = ode.ErrImplicitNotConverged
	ErrStepSizeUnderflow    = ode.ErrStepSizeUnderflow
	ErrUnstable             = ode.ErrUnstable
	ErrTooManySteps         = ode.ErrTooManySteps
)

type Options struct {
	Tolerance             float64
	SafetyFactor          float64
	HMin                  float64
	HMax                  float64
	MaxImplicitIterations int
	ImplicitTolerance     float64
	MaxRejectionsPerStep  int
}

func DefaultOptions() Options {
	d := sim.DefaultOptions()
	return Options{
		Tolerance:             d.Tolerance,
		SafetyFactor:          d.Safety,
		HMin:                  d.HMin,
		HMax:                  d.HMax,
		MaxImplicitIterations: d.MaxImplicitIterations,
		ImplicitTolerance:     d.ImplicitTolerance,
		MaxRejectionsPerStep:  d.MaxRejectionsPerStep,
	}
}

func (o Options) sim() sim.Options {
	s := sim.DefaultOptions()
	s.Tolerance = o.Tolerance
	s.Safety = o.SafetyFactor
	s.HMin = o.HMin
	s.HMax = o.HMax
	s.MaxImplicitIterations = o.MaxImplicitIterations
	s.ImplicitTolerance = o.ImplicitTolerance
	s.MaxRejectionsPerStep = o.MaxRejectionsPerStep
	return s
}

// Method returns a built-in method by name or alias, case-insensitively.
func Method(name string) (*Tableau, error) { return tableau.Lookup(name) }

// Methods lists the canonical names of the built-in methods.
func Methods() []string { return tableau.Names() }

// NewTableau builds a custom method.
func NewTableau(spec TableauSpec) (*Tableau, error) { return tableau.New(spec) }

// Integrate solves y' = f(x, y), y(xl) = y0 over [xl, xr]. The result starts
// with (xl, y0) and ends exactly at xr. A reversed interval or a step outside
// (0, xr-xl) is replaced by the defaults [1, 3] and 0.25.
func Integrate(f Func, y0 State, xl, xr, xs float64, method *Tableau, opts Options) (Trajectory, error) {
	return IntegrateContext(context.Background(), f, y0, xl, xr, xs, method, opts)
}

// IntegrateContext is Integrate with cancellation, checked once per step.
func IntegrateContext(ctx context.Context, f Func, y0 State, xl, xr, xs float64, method *Tableau, opts Options) (Trajectory, error) {
	if method == nil {
		return nil, fmt.Errorf("nil method: %w", ErrInvalidTableau)
	}
	res, err := sim.New(method, opts.sim()).Run(ctx, sim.Params{F: f, Y0: y0, XL: xl, XR: xr, XS: xs})
	if err != nil {
		return nil, err
	}
	return res.Trajectory, nil
}
