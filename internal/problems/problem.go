package problems

import (
	"fmt"
	"sort"

	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/sim"
)

type Problem interface {
	Name() string
	Description() string
	Dim() int
	Derive(x float64, y ode.State) ode.State
	Defaults() Setup
}

// Setup is the default interval, step and initial state of a problem.
type Setup struct {
	XL, XR, XS float64
	Y0         ode.State
}

type Exact interface {
	Exact(x float64) ode.State
}

type Hamiltonian interface {
	Energy(y ode.State) float64
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Params turns the defaults of p into driver parameters.
func Params(p Problem) sim.Params {
	s := p.Defaults()
	return sim.Params{F: p.Derive, Y0: s.Y0.Clone(), XL: s.XL, XR: s.XR, XS: s.XS}
}

var catalog = map[string]func() Problem{
	"decay":             func() Problem { return NewDecay() },
	"linear":            func() Problem { return NewLinear() },
	"gaussian":          func() Problem { return NewGaussian() },
	"affine-growth":     func() Problem { return NewAffineGrowth() },
	"exp-relax":         func() Problem { return NewExpRelax() },
	"growth":            func() Problem { return NewGrowth() },
	"ramp":              func() Problem { return NewRamp() },
	"oscillator":        func() Problem { return NewOscillator() },
	"vanderpol":         func() Problem { return NewVanDerPol() },
	"lorenz":            func() Problem { return NewLorenz() },
	"duffing":           func() Problem { return NewDuffing() },
	"pendulum":          func() Problem { return NewPendulum() },
	"rossler":           func() Problem { return NewRossler() },
	"sharp":             func() Problem { return NewSharp() },
	"prothero-robinson": func() Problem { return NewProtheroRobinson() },
}

// Get returns a fresh instance of the named problem.
func Get(name string) (Problem, error) {
	fn, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unknownParam(problem, name string) error {
	return fmt.Errorf("%s has no parameter %q", problem, name)
}
