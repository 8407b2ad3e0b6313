package problems

import (
	"math"

	"github.com/d33fur/caso/internal/ode"
)

// Oscillator is the harmonic oscillator with acceleration -omega^2 * position.
// State: [position, velocity].
type Oscillator struct {
	Omega float64
}

func NewOscillator() *Oscillator { return &Oscillator{Omega: 1} }

func (o *Oscillator) Name() string        { return "oscillator" }
func (o *Oscillator) Description() string { return "harmonic oscillator x'' = -w^2 x" }
func (o *Oscillator) Dim() int            { return 2 }

func (o *Oscillator) Derive(_ float64, y ode.State) ode.State {
	return ode.State{y[1], -o.Omega * o.Omega * y[0]}
}

func (o *Oscillator) Defaults() Setup {
	return Setup{XL: 0, XR: 4 * math.Pi, XS: 0.1, Y0: ode.State{1, 0}}
}

func (o *Oscillator) Exact(x float64) ode.State {
	return ode.State{math.Cos(o.Omega * x), -o.Omega * math.Sin(o.Omega*x)}
}

func (o *Oscillator) Energy(y ode.State) float64 {
	return 0.5 * (y[1]*y[1] + o.Omega*o.Omega*y[0]*y[0])
}

func (o *Oscillator) GetParams() map[string]float64 {
	return map[string]float64{"omega": o.Omega}
}

func (o *Oscillator) SetParam(name string, v float64) error {
	if name != "omega" {
		return unknownParam(o.Name(), name)
	}
	o.Omega = v
	return nil
}

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = mu(1 - x^2)y - x
type VanDerPol struct {
	mu float64
}

func NewVanDerPol() *VanDerPol {
	return &VanDerPol{mu: 1.0}
}

func (v *VanDerPol) Name() string        { return "vanderpol" }
func (v *VanDerPol) Description() string { return "Van der Pol oscillator" }
func (v *VanDerPol) Dim() int            { return 2 }

func (v *VanDerPol) Derive(_ float64, state ode.State) ode.State {
	x, y := state[0], state[1]
	return ode.State{y, v.mu*(1-x*x)*y - x}
}

func (v *VanDerPol) Defaults() Setup {
	return Setup{XL: 0, XR: 20, XS: 0.05, Y0: ode.State{2, 0}}
}

func (v *VanDerPol) GetParams() map[string]float64 {
	return map[string]float64{"mu": v.mu}
}

func (v *VanDerPol) SetParam(name string, value float64) error {
	if name != "mu" {
		return unknownParam(v.Name(), name)
	}
	v.mu = value
	return nil
}

type Lorenz struct{ sigma, rho, beta float64 }

func NewLorenz() *Lorenz              { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }
func (l *Lorenz) Name() string        { return "lorenz" }
func (l *Lorenz) Description() string { return "Lorenz attractor" }
func (l *Lorenz) Dim() int            { return 3 }

// Derive calculates the Lorenz attractor derivatives.
func (l *Lorenz) Derive(_ float64, s ode.State) ode.State {
	return ode.State{l.sigma * (s[1] - s[0]), s[0]*(l.rho-s[2]) - s[1], s[0]*s[1] - l.beta*s[2]}
}

func (l *Lorenz) Defaults() Setup {
	return Setup{XL: 0, XR: 30, XS: 0.01, Y0: ode.State{1, 1, 1}}
}

func (l *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.sigma, "rho": l.rho, "beta": l.beta}
}

func (l *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.sigma = v
	case "rho":
		l.rho = v
	case "beta":
		l.beta = v
	default:
		return unknownParam(l.Name(), n)
	}
	return nil
}

// Duffing implements a nonlinear forced oscillator. The forcing phase is
// carried as a third component so the system stays autonomous.
type Duffing struct {
	Alpha, Beta, Delta, Gamma, Omega float64
}

func NewDuffing() *Duffing {
	return &Duffing{-1.0, 1.0, 0.3, 0.5, 1.2}
}

func (d *Duffing) Name() string        { return "duffing" }
func (d *Duffing) Description() string { return "forced Duffing oscillator" }
func (d *Duffing) Dim() int            { return 3 }

func (d *Duffing) Derive(_ float64, s ode.State) ode.State {
	x, v, phi := s[0], s[1], s[2]
	return ode.State{v, -d.Delta*v - d.Alpha*x - d.Beta*x*x*x + d.Gamma*math.Cos(phi), d.Omega}
}

func (d *Duffing) Defaults() Setup {
	return Setup{XL: 0, XR: 50, XS: 0.05, Y0: ode.State{1, 0, 0}}
}

// Energy is the unforced part of the Hamiltonian.
func (d *Duffing) Energy(s ode.State) float64 {
	x, v := s[0], s[1]
	return 0.5*v*v + 0.5*d.Alpha*x*x + 0.25*d.Beta*x*x*x*x
}

func (d *Duffing) GetParams() map[string]float64 {
	return map[string]float64{"alpha": d.Alpha, "beta": d.Beta, "delta": d.Delta, "gamma": d.Gamma, "omega": d.Omega}
}

func (d *Duffing) SetParam(n string, v float64) error {
	switch n {
	case "alpha":
		d.Alpha = v
	case "beta":
		d.Beta = v
	case "delta":
		d.Delta = v
	case "gamma":
		d.Gamma = v
	case "omega":
		d.Omega = v
	default:
		return unknownParam(d.Name(), n)
	}
	return nil
}

// Pendulum is a damped nonlinear pendulum. State: [theta, omega].
type Pendulum struct {
	Mass, Length, Damping, Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{Mass: 1, Length: 1, Damping: 0.1, Gravity: 9.81}
}

func (p *Pendulum) Name() string        { return "pendulum" }
func (p *Pendulum) Description() string { return "damped pendulum" }
func (p *Pendulum) Dim() int            { return 2 }

func (p *Pendulum) Derive(_ float64, s ode.State) ode.State {
	theta, omega := s[0], s[1]
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta)) / (p.Mass * p.Length * p.Length)
	return ode.State{omega, alpha}
}

func (p *Pendulum) Defaults() Setup {
	return Setup{XL: 0, XR: 20, XS: 0.01, Y0: ode.State{0.5, 0}}
}

// Energy is kinetic plus potential energy; it decays unless Damping is 0.
func (p *Pendulum) Energy(s ode.State) float64 {
	v := p.Length * s[1]
	return 0.5*p.Mass*v*v + p.Mass*p.Gravity*p.Length*(1-math.Cos(s[0]))
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{"mass": p.Mass, "length": p.Length, "damping": p.Damping, "gravity": p.Gravity}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		p.Mass = value
	case "length":
		p.Length = value
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	default:
		return unknownParam(p.Name(), name)
	}
	return nil
}

type Rossler struct{ a, b, c float64 }

func NewRossler() *Rossler { return &Rossler{0.2, 0.2, 5.7} }

func (r *Rossler) Name() string        { return "rossler" }
func (r *Rossler) Description() string { return "Rossler spiral attractor" }
func (r *Rossler) Dim() int            { return 3 }

func (r *Rossler) Derive(_ float64, s ode.State) ode.State {
	return ode.State{-s[1] - s[2], s[0] + r.a*s[1], r.b + s[2]*(s[0]-r.c)}
}

func (r *Rossler) Defaults() Setup {
	return Setup{XL: 0, XR: 100, XS: 0.05, Y0: ode.State{1, 1, 1}}
}

func (r *Rossler) GetParams() map[string]float64 {
	return map[string]float64{"a": r.a, "b": r.b, "c": r.c}
}

func (r *Rossler) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.a = v
	case "b":
		r.b = v
	case "c":
		r.c = v
	default:
		return unknownParam(r.Name(), n)
	}
	return nil
}
