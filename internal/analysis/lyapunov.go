package analysis

import (
	"fmt"
	"math"

	"github.com/d33fur/caso/internal/integrators"
	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/tableau"
)

// LyapunovExponent estimates the largest Lyapunov exponent using the
// trajectory separation method. A positive value indicates chaos.
//
// Algorithm:
// 1. Run two nearby trajectories with the same fixed step
// 2. After each step, measure their separation and rescale it back to d0
// 3. λ ≈ (1/T) * Σ ln(|δx|/d0)
func LyapunovExponent(tab *tableau.Tableau, f ode.Func, y0 ode.State, dt, duration, perturbation float64) (float64, error) {
	if len(y0) == 0 || dt <= 0 || duration <= 0 || perturbation <= 0 {
		return 0, fmt.Errorf("lyapunov: need a state and positive dt, duration and perturbation: %w", ode.ErrInvalidParameters)
	}

	base := integrators.New(tab)
	pert := integrators.New(tab)

	x := y0.Clone()
	xp := y0.Clone()
	xp[0] += perturbation

	steps := int(math.Round(duration / dt))
	if steps < 1 {
		return 0, fmt.Errorf("lyapunov: duration %g is shorter than one step of %g: %w", duration, dt, ode.ErrInvalidParameters)
	}
	sumLog := 0.0
	for i := 0; i < steps; i++ {
		t := float64(i) * dt

		r, err := base.Step(f, t, x, dt)
		if err != nil {
			return 0, err
		}
		rp, err := pert.Step(f, t, xp, dt)
		if err != nil {
			return 0, err
		}
		x, xp = r.Next, rp.Next

		sep := xp.Sub(x).Norm()
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			return 0, fmt.Errorf("lyapunov: separation %v at t=%.4g: %w", sep, t+dt, ode.ErrUnstable)
		}
		sumLog += math.Log(sep / perturbation)

		scale := perturbation / sep
		for j := range xp {
			xp[j] = x[j] + (xp[j]-x[j])*scale
		}
	}

	return sumLog / (float64(steps) * dt), nil
}
