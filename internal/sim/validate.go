package sim

import (
	"fmt"
	"math"

	"github.com/d33fur/caso/internal/ode"
)

const (
	DefaultXL = 1.0
	DefaultXR = 3.0
	DefaultXS = 0.25
)

// Normalize applies the defaulting policy to p. Malformed input (missing
// function, empty or non-finite state, non-finite bounds) is an error; a
// reversed interval or an unusable step is replaced and recorded.
func Normalize(p Params) (Params, []Correction, error) {
	if p.F == nil {
		return p, nil, fmt.Errorf("nil right-hand side: %w", ode.ErrInvalidParameters)
	}
	if len(p.Y0) == 0 {
		return p, nil, fmt.Errorf("empty initial state: %w", ode.ErrInvalidParameters)
	}
	if !p.Y0.IsValid() {
		return p, nil, fmt.Errorf("non-finite initial state %v: %w", p.Y0, ode.ErrInvalidParameters)
	}
	for _, b := range []struct {
		name string
		v    float64
	}{{"xl", p.XL}, {"xr", p.XR}, {"xs", p.XS}} {
		if math.IsNaN(b.v) || math.IsInf(b.v, 0) {
			return p, nil, fmt.Errorf("%s is %v: %w", b.name, b.v, ode.ErrInvalidParameters)
		}
	}

	var corrections []Correction
	set := func(field string, dst *float64, to float64) {
		corrections = append(corrections, Correction{Field: field, From: *dst, To: to})
		*dst = to
	}

	p.Y0 = p.Y0.Clone()
	if p.XL >= p.XR {
		set("xl", &p.XL, DefaultXL)
		set("xr", &p.XR, DefaultXR)
	}
	if p.XS <= 0 {
		set("xs", &p.XS, DefaultXS)
	} else if p.XS >= p.XR-p.XL {
		set("xs", &p.XS, DefaultXS)
	}
	return p, corrections, nil
}

func (o Options) validate() (Options, error) {
	def := DefaultOptions()
	fill := func(v *float64, name string, d float64) error {
		switch {
		case math.IsNaN(*v) || *v < 0:
			return fmt.Errorf("%s must be non-negative, got %v: %w", name, *v, ode.ErrInvalidParameters)
		case *v == 0:
			*v = d
		}
		return nil
	}
	fillInt := func(v *int, name string, d int) error {
		switch {
		case *v < 0:
			return fmt.Errorf("%s must be non-negative, got %d: %w", name, *v, ode.ErrInvalidParameters)
		case *v == 0:
			*v = d
		}
		return nil
	}

	for _, err := range []error{
		fill(&o.Tolerance, "tolerance", def.Tolerance),
		fill(&o.Safety, "safety", def.Safety),
		fill(&o.HMin, "hmin", def.HMin),
		fill(&o.HMax, "hmax", 0),
		fill(&o.MinScale, "min scale", def.MinScale),
		fill(&o.MaxScale, "max scale", def.MaxScale),
		fill(&o.ImplicitTolerance, "implicit tolerance", def.ImplicitTolerance),
		fill(&o.EndTolerance, "end tolerance", def.EndTolerance),
		fill(&o.Beta, "beta", 0),
		fillInt(&o.MaxImplicitIterations, "max implicit iterations", def.MaxImplicitIterations),
		fillInt(&o.MaxRejectionsPerStep, "max rejections", def.MaxRejectionsPerStep),
		fillInt(&o.MaxSteps, "max steps", def.MaxSteps),
	} {
		if err != nil {
			return o, err
		}
	}

	if o.MinScale > 1 || o.MaxScale < 1 {
		return o, fmt.Errorf("scale bounds [%v, %v] must bracket 1: %w", o.MinScale, o.MaxScale, ode.ErrInvalidParameters)
	}
	if o.HMax > 0 && o.HMax < o.HMin {
		return o, fmt.Errorf("hmax %v below hmin %v: %w", o.HMax, o.HMin, ode.ErrInvalidParameters)
	}
	return o, nil
}
