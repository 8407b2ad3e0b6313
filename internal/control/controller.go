package control

import (
	"fmt"
	"math"

	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/tableau"
)

// errFloor keeps the rescale factor finite for an exact step.
const errFloor = 1e-15

type Config struct {
	// Step is the nominal step: the fixed step for methods without an
	// estimate and the first attempt for adaptive ones.
	Step      float64
	Tolerance float64
	Safety    float64
	HMin      float64
	// HMax <= 0 means the remaining length of the interval.
	HMax     float64
	MinScale float64
	MaxScale float64
	// EndTolerance is relative to the attempted step. A leftover shorter
	// than EndTolerance*h is absorbed into the final step.
	EndTolerance  float64
	MaxRejections int
	// Beta is the PI gain on the previous error. Zero gives the
	// elementary controller.
	Beta float64
}

func DefaultConfig() Config {
	return Config{
		Step:          0.25,
		Tolerance:     1e-6,
		Safety:        0.9,
		HMin:          1e-10,
		MinScale:      0.2,
		MaxScale:      10,
		EndTolerance:  1e-9,
		MaxRejections: 20,
	}
}

type Decision struct {
	Accept bool
	Error  float64
	Factor float64
	NextH  float64
}

type StepController struct {
	cfg      Config
	order    int
	adaptive bool

	prevErr    float64
	rejections int
}

func New(tab *tableau.Tableau, cfg Config) *StepController {
	return &StepController{
		cfg:      cfg,
		order:    tab.ErrorOrder(),
		adaptive: tab.HasEmbeddedEstimate(),
	}
}

func (c *StepController) Adaptive() bool { return c.adaptive }
func (c *StepController) Config() Config { return c.cfg }

// Rejections is the number of rejected attempts since the last accepted step.
func (c *StepController) Rejections() int { return c.rejections }

// Reset clears the error history and rejection count.
func (c *StepController) Reset() {
	c.prevErr = 0
	c.rejections = 0
}

// Propose clamps an attempt so that the run lands exactly on the right end of
// the interval. last reports that the returned step reaches it.
func (c *StepController) Propose(h, remaining float64) (step float64, last bool) {
	if h >= remaining || remaining-h <= c.cfg.EndTolerance*h {
		return remaining, true
	}
	return h, false
}

// Decide judges an attempt of size h with error estimate e. remaining is the
// distance to the end of the interval measured before the attempt.
func (c *StepController) Decide(h, e, remaining float64) (Decision, error) {
	if !c.adaptive {
		c.rejections = 0
		return Decision{Accept: true, Error: e, Factor: 1, NextH: c.cfg.Step}, nil
	}

	factor := c.factor(e)
	accept := e <= c.cfg.Tolerance
	if !accept {
		factor = math.Min(factor, 1)
	}
	next := c.clamp(h*factor, remaining)

	if accept {
		c.prevErr = math.Max(e, errFloor)
		c.rejections = 0
		return Decision{Accept: true, Error: e, Factor: factor, NextH: next}, nil
	}

	d := Decision{Error: e, Factor: factor, NextH: next}
	if err := c.reject(h); err != nil {
		return d, fmt.Errorf("error estimate %.3g exceeds tolerance %.3g: %w", e, c.cfg.Tolerance, err)
	}
	return d, nil
}

// Shrink handles an attempt whose implicit stages did not converge. It counts
// as a rejection.
func (c *StepController) Shrink(h float64) (float64, error) {
	if err := c.reject(h); err != nil {
		return 0, err
	}
	return math.Max(h*c.cfg.MinScale, c.cfg.HMin), nil
}

func (c *StepController) reject(h float64) error {
	c.rejections++
	if h <= c.cfg.HMin {
		return fmt.Errorf("rejected step h=%.3g at minimum %.3g: %w", h, c.cfg.HMin, ode.ErrStepSizeUnderflow)
	}
	if c.cfg.MaxRejections > 0 && c.rejections > c.cfg.MaxRejections {
		return fmt.Errorf("%d consecutive rejections: %w", c.rejections, ode.ErrStepSizeUnderflow)
	}
	return nil
}

func (c *StepController) factor(e float64) float64 {
	if math.IsNaN(e) || math.IsInf(e, 0) {
		return c.cfg.MinScale
	}

	e = math.Max(e, errFloor)
	tol := c.cfg.Tolerance
	alpha := 1 / float64(c.order+1)

	var factor float64
	if c.cfg.Beta > 0 && c.prevErr > 0 {
		alpha -= 0.75 * c.cfg.Beta
		factor = c.cfg.Safety * math.Pow(tol/e, alpha) * math.Pow(c.prevErr/tol, c.cfg.Beta)
	} else {
		factor = c.cfg.Safety * math.Pow(tol/e, alpha)
	}

	return math.Max(c.cfg.MinScale, math.Min(c.cfg.MaxScale, factor))
}

func (c *StepController) clamp(h, remaining float64) float64 {
	hmax := c.cfg.HMax
	if hmax <= 0 || hmax > remaining {
		hmax = remaining
	}
	if h > hmax {
		h = hmax
	}
	if h < c.cfg.HMin {
		h = c.cfg.HMin
	}
	return h
}
