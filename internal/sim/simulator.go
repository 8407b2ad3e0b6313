package sim

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/d33fur/caso/internal/control"
	"github.com/d33fur/caso/internal/integrators"
	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/tableau"
)

// Simulator drives one method across an interval. Each Run owns its own
// solver and controller, so a Simulator may be reused sequentially.
type Simulator struct {
	tab       *tableau.Tableau
	opts      Options
	metrics   []Metric
	observers []Observer
	log       logrus.FieldLogger
}

func New(tab *tableau.Tableau, opts Options) *Simulator {
	return &Simulator{
		tab:       tab,
		opts:      opts,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       discardLogger(),
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = discardLogger()
	}
	s.log = l
}

func (s *Simulator) Method() *tableau.Tableau { return s.tab }

// Run integrates p. On failure it returns a nil result and an
// *ode.IntegrationError; partial trajectories are never returned.
func (s *Simulator) Run(ctx context.Context, p Params) (*Result, error) {
	if s.tab == nil {
		return nil, &ode.IntegrationError{X: p.XL, H: p.XS, Wrapped: fmt.Errorf("no method: %w", ode.ErrInvalidTableau)}
	}
	opts, err := s.opts.validate()
	if err != nil {
		return nil, &ode.IntegrationError{X: p.XL, H: p.XS, Wrapped: err}
	}

	runID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"run": runID, "method": s.tab.Name()})

	p, corrections, err := Normalize(p)
	if err != nil {
		log.WithError(err).Debug("rejected parameters")
		return nil, &ode.IntegrationError{X: p.XL, H: p.XS, Wrapped: err}
	}
	for _, c := range corrections {
		log.WithFields(logrus.Fields{"field": c.Field, "from": c.From, "to": c.To}).Debug("parameter defaulted")
	}

	solver := integrators.New(s.tab,
		integrators.WithImplicitTolerance(opts.ImplicitTolerance),
		integrators.WithMaxIterations(opts.MaxImplicitIterations),
	)
	ctrl := control.New(s.tab, control.Config{
		Step:          p.XS,
		Tolerance:     opts.Tolerance,
		Safety:        opts.Safety,
		HMin:          opts.HMin,
		HMax:          opts.HMax,
		MinScale:      opts.MinScale,
		MaxScale:      opts.MaxScale,
		EndTolerance:  opts.EndTolerance,
		MaxRejections: opts.MaxRejectionsPerStep,
		Beta:          opts.Beta,
	})

	for _, m := range s.metrics {
		m.Reset()
	}

	x := p.XL
	y := p.Y0.Clone()
	h := p.XS
	if ctrl.Adaptive() && opts.HMax > 0 && h > opts.HMax {
		h = opts.HMax
	}

	traj := make(ode.Trajectory, 0, estimatePoints(p))
	traj = append(traj, ode.Point{X: x, Y: y.Clone()})
	var stats Stats

	fail := func(h float64, err error) (*Result, error) {
		ierr := &ode.IntegrationError{Step: stats.Accepted + 1, X: x, H: h, Wrapped: err}
		log.WithFields(logrus.Fields{"x": x, "h": h}).WithError(err).Debug("integration failed")
		return nil, ierr
	}

	for {
		select {
		case <-ctx.Done():
			return fail(h, ctx.Err())
		default:
		}

		if stats.Accepted >= opts.MaxSteps {
			return fail(h, fmt.Errorf("%d steps: %w", stats.Accepted, ode.ErrTooManySteps))
		}

		remaining := p.XR - x
		try, last := ctrl.Propose(h, remaining)

		res, err := solver.Step(p.F, x, y, try)
		stats.Evaluations += res.Evaluations
		stats.ImplicitIterations += res.Iterations
		if err != nil {
			if !errors.Is(err, ode.ErrImplicitNotConverged) || !ctrl.Adaptive() {
				return fail(try, err)
			}

			stats.Rejected++
			next, serr := ctrl.Shrink(try)
			s.publish(StepEvent{
				Step:        stats.Accepted + 1,
				X:           x,
				H:           try,
				NextH:       next,
				Evaluations: res.Evaluations,
				Iterations:  res.Iterations,
			})
			if serr != nil {
				return fail(try, fmt.Errorf("%w (%v)", serr, err))
			}
			log.WithFields(logrus.Fields{"x": x, "h": try, "next_h": next}).Warn("implicit stages did not converge, shrinking step")
			h = next
			continue
		}

		d, derr := ctrl.Decide(try, res.ErrorEstimate(), remaining)
		ev := StepEvent{
			Step:        stats.Accepted + 1,
			X:           x,
			H:           try,
			NextH:       d.NextH,
			Accepted:    d.Accept,
			Converged:   true,
			Error:       d.Error,
			Residual:    res.Residual,
			Evaluations: res.Evaluations,
			Iterations:  res.Iterations,
		}

		if !d.Accept {
			stats.Rejected++
			s.publish(ev)
			if derr != nil {
				return fail(try, derr)
			}
			log.WithFields(logrus.Fields{"x": x, "h": try, "err": d.Error, "next_h": d.NextH}).Debug("step rejected")
			h = d.NextH
			continue
		}

		if opts.ValidateState && !res.Next.IsValid() {
			return fail(try, fmt.Errorf("state %v: %w", res.Next, ode.ErrUnstable))
		}

		if last {
			x = p.XR
		} else {
			x += try
		}
		y = res.Next
		traj = append(traj, ode.Point{X: x, Y: y})

		ev.Y = y
		stats.accept(ev)
		s.publish(ev)

		h = d.NextH
		if last {
			break
		}
	}

	result := &Result{
		RunID:       runID,
		Method:      s.tab.Name(),
		Params:      p,
		Trajectory:  traj,
		Stats:       stats,
		Corrections: corrections,
		Metrics:     make(map[string]float64),
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	log.WithFields(logrus.Fields{
		"accepted":    stats.Accepted,
		"rejected":    stats.Rejected,
		"evaluations": stats.Evaluations,
	}).Info("integration finished")

	return result, nil
}

func (s *Simulator) publish(ev StepEvent) {
	ev.Method = s.tab.Name()
	for _, m := range s.metrics {
		m.Observe(ev)
	}
	for _, o := range s.observers {
		o.OnStep(ev)
	}
}

// estimatePoints sizes the trajectory buffer. The clamp happens before the
// int conversion since a tiny first step overflows it.
func estimatePoints(p Params) int {
	n := (p.XR-p.XL)/p.XS + 2
	if !(n <= 1<<16) {
		n = 1 << 16
	}
	return int(n)
}
