package integrators

import (
	"fmt"
	"math"

	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/tableau"
)

const (
	DefaultImplicitTolerance = 1e-10
	DefaultMaxIterations     = 50
)

// Solver computes the stages of one Runge-Kutta step for a fixed tableau.
// It reuses scratch buffers between steps and is therefore not safe for
// concurrent use. The tableau it holds may be shared.
type Solver struct {
	tab         *tableau.Tableau
	implicitTol float64
	maxIter     int

	stage ode.State
	next  [][]float64
}

type Option func(*Solver)

// WithImplicitTolerance sets the max-norm threshold on successive stage
// iterates at which the fixed-point solve stops.
func WithImplicitTolerance(tol float64) Option {
	return func(s *Solver) {
		if tol > 0 {
			s.implicitTol = tol
		}
	}
}

// WithMaxIterations bounds the number of fixed-point sweeps per step.
func WithMaxIterations(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxIter = n
		}
	}
}

func New(tab *tableau.Tableau, opts ...Option) *Solver {
	s := &Solver{
		tab:         tab,
		implicitTol: DefaultImplicitTolerance,
		maxIter:     DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Solver) Tableau() *tableau.Tableau { return s.tab }

// StepResult is the outcome of a single attempted step.
type StepResult struct {
	// K holds one derivative vector per stage.
	K [][]float64
	// Next is the propagated solution, NextStar the embedded one (nil for
	// methods without an estimate).
	Next     ode.State
	NextStar ode.State

	Evaluations int
	// Iterations and Residual describe the fixed-point solve; both are zero
	// for explicit methods.
	Iterations int
	Residual   float64
}

// ErrorEstimate is the max-norm of Next - NextStar, or 0 without an embedded
// formula.
func (r *StepResult) ErrorEstimate() float64 {
	if r.NextStar == nil {
		return 0
	}
	var e float64
	for i := range r.Next {
		if d := math.Abs(r.Next[i] - r.NextStar[i]); d > e || math.IsNaN(d) {
			e = d
		}
	}
	return e
}

func (s *Solver) ensureScratch(n int) {
	if len(s.stage) != n {
		s.stage = make(ode.State, n)
		s.next = nil
	}
	if len(s.next) != s.tab.Stages() {
		s.next = make([][]float64, s.tab.Stages())
		for i := range s.next {
			s.next[i] = make([]float64, n)
		}
	}
}

// Step advances y from x by h. The input state is never modified. On error
// the returned result carries only the work spent (Evaluations, Iterations).
func (s *Solver) Step(f ode.Func, x float64, y ode.State, h float64) (*StepResult, error) {
	n := len(y)
	stages := s.tab.Stages()
	s.ensureScratch(n)

	res := &StepResult{K: make([][]float64, stages)}
	for i := range res.K {
		res.K[i] = make([]float64, n)
	}

	var err error
	if s.tab.IsExplicit() {
		err = s.explicitStages(f, x, y, h, res)
	} else {
		err = s.implicitStages(f, x, y, h, res)
	}
	if err != nil {
		return &StepResult{Evaluations: res.Evaluations, Iterations: res.Iterations}, err
	}

	res.Next = s.combine(y, h, res.K, s.tab.B)
	if s.tab.HasEmbeddedEstimate() {
		res.NextStar = s.combine(y, h, res.K, s.tab.BStar)
	}
	return res, nil
}

func (s *Solver) explicitStages(f ode.Func, x float64, y ode.State, h float64, res *StepResult) error {
	for i := 0; i < s.tab.Stages(); i++ {
		s.stageState(y, h, i, i, res.K)
		if err := s.eval(f, x+s.tab.C(i)*h, s.stage, res.K[i]); err != nil {
			return err
		}
		res.Evaluations++
	}
	return nil
}

// implicitStages solves k = f(x + c h, y + h A k) for all stages at once by
// fixed-point iteration. The returned K is the iterate whose residual was
// measured, so the reported residual is exact for it.
func (s *Solver) implicitStages(f ode.Func, x float64, y ode.State, h float64, res *StepResult) error {
	stages := s.tab.Stages()
	for i := 0; i < stages; i++ {
		if err := s.eval(f, x+s.tab.C(i)*h, y, res.K[i]); err != nil {
			return err
		}
		res.Evaluations++
	}

	diff := math.Inf(1)
	for m := 1; m <= s.maxIter; m++ {
		for i := 0; i < stages; i++ {
			s.stageState(y, h, i, stages, res.K)
			if err := s.eval(f, x+s.tab.C(i)*h, s.stage, s.next[i]); err != nil {
				return err
			}
			res.Evaluations++
		}
		res.Iterations = m

		diff = 0
		for i := 0; i < stages; i++ {
			for j := range s.next[i] {
				d := math.Abs(s.next[i][j] - res.K[i][j])
				if d > diff || math.IsNaN(d) {
					diff = d
				}
			}
		}
		if diff < s.implicitTol {
			res.Residual = diff
			return nil
		}
		for i := 0; i < stages; i++ {
			copy(res.K[i], s.next[i])
		}
	}

	return fmt.Errorf("%s: residual %.3g after %d iterations: %w",
		s.tab.Name(), diff, s.maxIter, ode.ErrImplicitNotConverged)
}

// stageState writes y + h * sum_{j<upto} a[i][j] k[j] into the scratch stage.
func (s *Solver) stageState(y ode.State, h float64, i, upto int, k [][]float64) {
	copy(s.stage, y)
	for j := 0; j < upto; j++ {
		a := s.tab.A(i, j)
		if a == 0 {
			continue
		}
		for d := range s.stage {
			s.stage[d] += h * a * k[j][d]
		}
	}
}

func (s *Solver) combine(y ode.State, h float64, k [][]float64, weight func(int) float64) ode.State {
	out := y.Clone()
	for i := range k {
		w := weight(i)
		if w == 0 {
			continue
		}
		for d := range out {
			out[d] += h * w * k[i][d]
		}
	}
	return out
}

func (s *Solver) eval(f ode.Func, x float64, y ode.State, dst []float64) error {
	dy := f(x, y)
	if len(dy) != len(dst) {
		return fmt.Errorf("rhs returned %d components for a %d-dimensional state: %w",
			len(dy), len(dst), ode.ErrInvalidParameters)
	}
	copy(dst, dy)
	return nil
}
