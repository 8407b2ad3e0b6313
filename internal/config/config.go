package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/d33fur/caso/internal/problems"
	"github.com/d33fur/caso/internal/sim"
	"github.com/d33fur/caso/internal/tableau"
)

const (
	DefaultMethod  = "dormand-prince"
	DefaultProblem = "linear"
)

type Config struct {
	Method  string `yaml:"method"`
	Problem string `yaml:"problem"`
	// Interval and Y0 override the problem defaults when set.
	Interval *Interval          `yaml:"interval,omitempty"`
	Y0       []float64          `yaml:"y0,omitempty"`
	Params   map[string]float64 `yaml:"params,omitempty"`
	Options  Options            `yaml:"options"`
	// Tableau defines a custom method and takes precedence over Method.
	Tableau *tableau.ExprSpec `yaml:"tableau,omitempty"`
}

type Interval struct {
	XL float64 `yaml:"xl"`
	XR float64 `yaml:"xr"`
	XS float64 `yaml:"xs"`
}

type Options struct {
	Tolerance             float64 `yaml:"tolerance"`
	Safety                float64 `yaml:"safety"`
	HMin                  float64 `yaml:"hmin"`
	HMax                  float64 `yaml:"hmax"`
	MinScale              float64 `yaml:"min_scale"`
	MaxScale              float64 `yaml:"max_scale"`
	MaxImplicitIterations int     `yaml:"max_implicit_iterations"`
	ImplicitTolerance     float64 `yaml:"implicit_tolerance"`
	MaxRejectionsPerStep  int     `yaml:"max_rejections_per_step"`
	MaxSteps              int     `yaml:"max_steps"`
	Beta                  float64 `yaml:"beta,omitempty"`
	ValidateState         bool    `yaml:"validate_state"`
	// StabilityThreshold bounds every state component for the stability
	// metric. Zero leaves the metric off.
	StabilityThreshold float64 `yaml:"stability_threshold"`
}

const DefaultStabilityThreshold = 1e6

func DefaultOptions() Options {
	d := sim.DefaultOptions()
	return Options{
		Tolerance:             d.Tolerance,
		Safety:                d.Safety,
		HMin:                  d.HMin,
		HMax:                  d.HMax,
		MinScale:              d.MinScale,
		MaxScale:              d.MaxScale,
		MaxImplicitIterations: d.MaxImplicitIterations,
		ImplicitTolerance:     d.ImplicitTolerance,
		MaxRejectionsPerStep:  d.MaxRejectionsPerStep,
		MaxSteps:              d.MaxSteps,
		Beta:                  d.Beta,
		ValidateState:         d.ValidateState,
		StabilityThreshold:    DefaultStabilityThreshold,
	}
}

// Sim converts to driver options. Zero values fall back to driver defaults.
func (o Options) Sim() sim.Options {
	s := sim.DefaultOptions()
	s.Tolerance = o.Tolerance
	s.Safety = o.Safety
	s.HMin = o.HMin
	s.HMax = o.HMax
	s.MinScale = o.MinScale
	s.MaxScale = o.MaxScale
	s.MaxImplicitIterations = o.MaxImplicitIterations
	s.ImplicitTolerance = o.ImplicitTolerance
	s.MaxRejectionsPerStep = o.MaxRejectionsPerStep
	s.MaxSteps = o.MaxSteps
	s.Beta = o.Beta
	s.ValidateState = o.ValidateState
	return s
}

func DefaultConfig() *Config {
	return &Config{
		Method:  DefaultMethod,
		Problem: DefaultProblem,
		Options: DefaultOptions(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Interval != nil {
		iv := *c.Interval
		out.Interval = &iv
	}
	if c.Y0 != nil {
		out.Y0 = append([]float64(nil), c.Y0...)
	}
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	if c.Tableau != nil {
		t := *c.Tableau
		t.C = slices.Clone(t.C)
		t.B = slices.Clone(t.B)
		t.BStar = slices.Clone(t.BStar)
		if t.A != nil {
			t.A = make([][]string, len(c.Tableau.A))
			for i, row := range c.Tableau.A {
				t.A[i] = slices.Clone(row)
			}
		}
		out.Tableau = &t
	}
	return &out
}

// ResolveMethod returns the custom tableau if one is configured, otherwise
// the named method from reg.
func (c *Config) ResolveMethod(reg *tableau.Registry) (*tableau.Tableau, error) {
	if c.Tableau != nil {
		return tableau.ParseSpec(*c.Tableau)
	}
	return reg.Lookup(c.Method)
}

// ResolveProblem returns the configured problem with its parameters applied.
func (c *Config) ResolveProblem() (problems.Problem, error) {
	p, err := problems.Get(c.Problem)
	if err != nil {
		return nil, err
	}
	if len(c.Params) == 0 {
		return p, nil
	}
	tunable, ok := p.(problems.Configurable)
	if !ok {
		return nil, fmt.Errorf("problem %s has no parameters", c.Problem)
	}
	for _, name := range sortedKeys(c.Params) {
		if err := tunable.SetParam(name, c.Params[name]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// SimParams builds driver parameters for p, applying interval and initial
// state overrides.
func (c *Config) SimParams(p problems.Problem) (sim.Params, error) {
	params := problems.Params(p)
	if c.Interval != nil {
		params.XL, params.XR, params.XS = c.Interval.XL, c.Interval.XR, c.Interval.XS
	}
	if c.Y0 != nil {
		if len(c.Y0) != p.Dim() {
			return params, fmt.Errorf("y0 has %d components, %s needs %d", len(c.Y0), p.Name(), p.Dim())
		}
		params.Y0 = append(params.Y0[:0:0], c.Y0...)
	}
	return params, nil
}

// Job resolves everything needed to run c.
func (c *Config) Job(name string, reg *tableau.Registry) (sim.Job, error) {
	method, err := c.ResolveMethod(reg)
	if err != nil {
		return sim.Job{}, err
	}
	p, err := c.ResolveProblem()
	if err != nil {
		return sim.Job{}, err
	}
	params, err := c.SimParams(p)
	if err != nil {
		return sim.Job{}, err
	}
	return sim.Job{Name: name, Method: method, Params: params, Options: c.Options.Sim()}, nil
}
