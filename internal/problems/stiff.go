package problems

import (
	"math"

	"github.com/d33fur/caso/internal/ode"
)

// Sharp integrates a narrow arctan front centred at x = 1. Adaptive methods
// must reject their first step across it.
type Sharp struct {
	Width float64
}

func NewSharp() *Sharp { return &Sharp{Width: 0.01} }

func (s *Sharp) Name() string        { return "sharp" }
func (s *Sharp) Description() string { return "arctan front y' = w^-1 / (1 + ((x-1)/w)^2)" }
func (s *Sharp) Dim() int            { return 1 }

func (s *Sharp) Derive(x float64, _ ode.State) ode.State {
	d := (x - 1) / s.Width
	return ode.State{1 / (s.Width * (1 + d*d))}
}

func (s *Sharp) Defaults() Setup {
	return Setup{XL: 0, XR: 2, XS: 0.5, Y0: ode.State{0}}
}

func (s *Sharp) Exact(x float64) ode.State {
	return ode.State{math.Atan((x-1)/s.Width) + math.Atan(1/s.Width)}
}

func (s *Sharp) GetParams() map[string]float64 { return map[string]float64{"width": s.Width} }

func (s *Sharp) SetParam(name string, v float64) error {
	if name != "width" {
		return unknownParam(s.Name(), name)
	}
	s.Width = v
	return nil
}

// ProtheroRobinson is y' = -lambda (y - cos x) - sin x with solution cos x.
// Large lambda makes it stiff.
type ProtheroRobinson struct {
	Lambda float64
}

func NewProtheroRobinson() *ProtheroRobinson { return &ProtheroRobinson{Lambda: 50} }

func (p *ProtheroRobinson) Name() string        { return "prothero-robinson" }
func (p *ProtheroRobinson) Description() string { return "stiff y' = -l (y - cos x) - sin x" }
func (p *ProtheroRobinson) Dim() int            { return 1 }

func (p *ProtheroRobinson) Derive(x float64, y ode.State) ode.State {
	return ode.State{-p.Lambda*(y[0]-math.Cos(x)) - math.Sin(x)}
}

func (p *ProtheroRobinson) Defaults() Setup {
	return Setup{XL: 0, XR: 2, XS: 0.01, Y0: ode.State{1}}
}

func (p *ProtheroRobinson) Exact(x float64) ode.State { return ode.State{math.Cos(x)} }

func (p *ProtheroRobinson) GetParams() map[string]float64 {
	return map[string]float64{"lambda": p.Lambda}
}

func (p *ProtheroRobinson) SetParam(name string, v float64) error {
	if name != "lambda" {
		return unknownParam(p.Name(), name)
	}
	p.Lambda = v
	return nil
}
