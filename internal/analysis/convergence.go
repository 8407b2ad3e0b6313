package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/d33fur/caso/internal/integrators"
	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/problems"
	"github.com/d33fur/caso/internal/tableau"
)

// ErrNoExactSolution is returned for problems without a closed form.
var ErrNoExactSolution = errors.New("analysis: problem has no exact solution")

// OrderRow is one refinement level of an order study.
type OrderRow struct {
	Steps int     `json:"steps"`
	Step  float64 `json:"step"`
	Error float64 `json:"error"`
	// Order is NaN on the first row.
	Order float64 `json:"order"`
}

// OrderStudy integrates p with fixed steps, starting with n steps across its
// default interval and doubling n for each of the given halvings. The error is
// the max-norm difference to the exact solution at the right end.
func OrderStudy(tab *tableau.Tableau, p problems.Problem, n, halvings int) ([]OrderRow, error) {
	ex, ok := p.(problems.Exact)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p.Name(), ErrNoExactSolution)
	}
	if n <= 0 {
		return nil, fmt.Errorf("step count must be positive, got %d: %w", n, ode.ErrInvalidParameters)
	}

	setup := p.Defaults()
	want := ex.Exact(setup.XR)
	solver := integrators.New(tab, integrators.WithImplicitTolerance(1e-14), integrators.WithMaxIterations(500))

	rows := make([]OrderRow, 0, halvings+1)
	for k := 0; k <= halvings; k++ {
		steps := n << k
		y, err := FixedSteps(solver, p.Derive, setup.Y0, setup.XL, setup.XR, steps)
		if err != nil {
			return nil, fmt.Errorf("%s with %d steps: %w", tab.Name(), steps, err)
		}

		row := OrderRow{
			Steps: steps,
			Step:  (setup.XR - setup.XL) / float64(steps),
			Error: y.Sub(want).MaxNorm(),
			Order: math.NaN(),
		}
		if k > 0 && row.Error > 0 {
			row.Order = math.Log2(rows[k-1].Error / row.Error)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ObservedOrder is the order of the last row of a study.
func ObservedOrder(rows []OrderRow) float64 {
	if len(rows) == 0 {
		return math.NaN()
	}
	return rows[len(rows)-1].Order
}

// FixedSteps takes exactly n equal steps from xl to xr and returns the final
// state.
func FixedSteps(s *integrators.Solver, f ode.Func, y0 ode.State, xl, xr float64, n int) (ode.State, error) {
	h := (xr - xl) / float64(n)
	y := y0.Clone()
	for i := 0; i < n; i++ {
		res, err := s.Step(f, xl+float64(i)*h, y, h)
		if err != nil {
			return nil, err
		}
		y = res.Next
	}
	return y, nil
}
