package problems

import (
	"math"

	"github.com/d33fur/caso/internal/ode"
)

// Decay is y' = -k*y.
type Decay struct{ K float64 }

func NewDecay() *Decay                     { return &Decay{K: 1} }
func (d *Decay) Name() string              { return "decay" }
func (d *Decay) Description() string       { return "exponential decay y' = -k y" }
func (d *Decay) Dim() int                  { return 1 }
func (d *Decay) Exact(x float64) ode.State { return ode.State{math.Exp(-d.K * x)} }

func (d *Decay) Derive(_ float64, y ode.State) ode.State {
	return ode.State{-d.K * y[0]}
}

func (d *Decay) Defaults() Setup {
	return Setup{XL: 0, XR: 2, XS: 0.1, Y0: ode.State{1}}
}

func (d *Decay) GetParams() map[string]float64 { return map[string]float64{"k": d.K} }

func (d *Decay) SetParam(name string, v float64) error {
	if name != "k" {
		return unknownParam(d.Name(), name)
	}
	d.K = v
	return nil
}

// Linear is y' = -2y + x with y(1) = 2, the reference problem on [1, 3].
type Linear struct{}

func NewLinear() *Linear           { return &Linear{} }
func (Linear) Name() string        { return "linear" }
func (Linear) Description() string { return "y' = -2y + x, y(1) = 2" }
func (Linear) Dim() int            { return 1 }

func (Linear) Derive(x float64, y ode.State) ode.State {
	return ode.State{-2*y[0] + x}
}

func (Linear) Defaults() Setup {
	return Setup{XL: 1, XR: 3, XS: 0.25, Y0: ode.State{2}}
}

func (Linear) Exact(x float64) ode.State {
	return ode.State{x/2 - 0.25 + 1.75*math.Exp(-2*(x-1))}
}

// Gaussian is y' = -2xy.
type Gaussian struct{}

func NewGaussian() *Gaussian               { return &Gaussian{} }
func (Gaussian) Name() string              { return "gaussian" }
func (Gaussian) Description() string       { return "y' = -2xy, y(0) = 1" }
func (Gaussian) Dim() int                  { return 1 }
func (Gaussian) Exact(x float64) ode.State { return ode.State{math.Exp(-x * x)} }

func (Gaussian) Derive(x float64, y ode.State) ode.State {
	return ode.State{-2 * x * y[0]}
}

func (Gaussian) Defaults() Setup {
	return Setup{XL: 0, XR: 2, XS: 0.1, Y0: ode.State{1}}
}

// AffineGrowth is y' = 2x + y.
type AffineGrowth struct{}

func NewAffineGrowth() *AffineGrowth     { return &AffineGrowth{} }
func (AffineGrowth) Name() string        { return "affine-growth" }
func (AffineGrowth) Description() string { return "y' = 2x + y, y(0) = 1" }
func (AffineGrowth) Dim() int            { return 1 }

func (AffineGrowth) Derive(x float64, y ode.State) ode.State {
	return ode.State{2*x + y[0]}
}

func (AffineGrowth) Defaults() Setup {
	return Setup{XL: 0, XR: 1, XS: 0.1, Y0: ode.State{1}}
}

func (AffineGrowth) Exact(x float64) ode.State {
	return ode.State{3*math.Exp(x) - 2*x - 2}
}

// ExpRelax is y' = e^x - y.
type ExpRelax struct{}

func NewExpRelax() *ExpRelax         { return &ExpRelax{} }
func (ExpRelax) Name() string        { return "exp-relax" }
func (ExpRelax) Description() string { return "y' = e^x - y, y(0) = 1" }
func (ExpRelax) Dim() int            { return 1 }

func (ExpRelax) Derive(x float64, y ode.State) ode.State {
	return ode.State{math.Exp(x) - y[0]}
}

func (ExpRelax) Defaults() Setup {
	return Setup{XL: 0, XR: 2, XS: 0.1, Y0: ode.State{1}}
}

func (ExpRelax) Exact(x float64) ode.State {
	return ode.State{(math.Exp(x) + math.Exp(-x)) / 2}
}

// Growth is y' = 2y.
type Growth struct{}

func NewGrowth() *Growth                 { return &Growth{} }
func (Growth) Name() string              { return "growth" }
func (Growth) Description() string       { return "y' = 2y, y(0) = 1" }
func (Growth) Dim() int                  { return 1 }
func (Growth) Exact(x float64) ode.State { return ode.State{math.Exp(2 * x)} }

func (Growth) Derive(_ float64, y ode.State) ode.State {
	return ode.State{2 * y[0]}
}

func (Growth) Defaults() Setup {
	return Setup{XL: 0, XR: 1, XS: 0.1, Y0: ode.State{1}}
}

// Ramp is y' = -y + x.
type Ramp struct{}

func NewRamp() *Ramp             { return &Ramp{} }
func (Ramp) Name() string        { return "ramp" }
func (Ramp) Description() string { return "y' = -y + x, y(0) = 1" }
func (Ramp) Dim() int            { return 1 }

func (Ramp) Derive(x float64, y ode.State) ode.State {
	return ode.State{-y[0] + x}
}

func (Ramp) Defaults() Setup {
	return Setup{XL: 0, XR: 3, XS: 0.1, Y0: ode.State{1}}
}

func (Ramp) Exact(x float64) ode.State {
	return ode.State{x - 1 + 2*math.Exp(-x)}
}
