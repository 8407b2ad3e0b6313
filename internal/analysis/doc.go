// Package analysis studies integration results.
//
//   - [OrderStudy]: observed order of accuracy from successive step halvings
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//   - [NewPhasePortrait]: two components of a trajectory plotted against each other
//   - [NewPoincareSection]: points where a trajectory crosses a threshold
//
// # Order Studies
//
// Halving the step of a method of order p divides its global error by about
// 2^p, so the observed order is log2(e_h / e_{h/2}):
//
//	rows, err := analysis.OrderStudy(tableau.ClassicalRK4(), problems.NewDecay(), 8, 4)
//	for _, r := range rows {
//	    fmt.Println(r.Step, r.Error, r.Order)
//	}
package analysis
