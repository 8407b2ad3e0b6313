package sim

import (
	"math"

	"github.com/d33fur/caso/internal/ode"
)

// Params is one initial value problem on [XL, XR] with nominal step XS.
type Params struct {
	F  ode.Func
	Y0 ode.State
	XL float64
	XR float64
	XS float64
}

type Options struct {
	Tolerance             float64
	Safety                float64
	HMin                  float64
	HMax                  float64 // 0 means the remaining interval
	MinScale              float64
	MaxScale              float64
	MaxImplicitIterations int
	ImplicitTolerance     float64
	MaxRejectionsPerStep  int
	MaxSteps              int
	EndTolerance          float64
	// Beta enables PI step control when positive.
	Beta          float64
	ValidateState bool
}

func DefaultOptions() Options {
	return Options{
		Tolerance:             1e-6,
		Safety:                0.9,
		HMin:                  1e-10,
		MinScale:              0.2,
		MaxScale:              10,
		MaxImplicitIterations: 50,
		ImplicitTolerance:     1e-10,
		MaxRejectionsPerStep:  20,
		MaxSteps:              1_000_000,
		EndTolerance:          1e-9,
		ValidateState:         true,
	}
}

// Correction records a parameter the validator replaced with a default.
type Correction struct {
	Field string  `json:"field" yaml:"field"`
	From  float64 `json:"from" yaml:"from"`
	To    float64 `json:"to" yaml:"to"`
}

// StepEvent describes one attempted step, accepted or not.
type StepEvent struct {
	Method      string
	Step        int
	X           float64
	H           float64
	NextH       float64
	Accepted    bool
	Converged   bool
	Error       float64
	Residual    float64
	Evaluations int
	Iterations  int
	Y           ode.State // nil for rejected attempts
}

type Observer interface {
	OnStep(ev StepEvent)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(StepEvent)

func (f ObserverFunc) OnStep(ev StepEvent) { f(ev) }

type Metric interface {
	Name() string
	Observe(ev StepEvent)
	Value() float64
	Reset()
}

type Stats struct {
	Accepted           int     `json:"accepted"`
	Rejected           int     `json:"rejected"`
	Evaluations        int     `json:"evaluations"`
	ImplicitIterations int     `json:"implicit_iterations"`
	MaxError           float64 `json:"max_error"`
	MinH               float64 `json:"min_h"`
	MaxH               float64 `json:"max_h"`
}

func (s *Stats) accept(ev StepEvent) {
	if s.Accepted == 0 {
		s.MinH, s.MaxH = ev.H, ev.H
	} else {
		s.MinH = math.Min(s.MinH, ev.H)
		s.MaxH = math.Max(s.MaxH, ev.H)
	}
	s.Accepted++
	s.MaxError = math.Max(s.MaxError, ev.Error)
}

type Result struct {
	RunID       string
	Method      string
	Params      Params
	Trajectory  ode.Trajectory
	Stats       Stats
	Corrections []Correction
	Metrics     map[string]float64
}
