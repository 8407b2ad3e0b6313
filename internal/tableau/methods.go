package tableau

import "math"

// ForwardEuler is the explicit first order method y' = f(x, y).
func ForwardEuler() *Tableau {
	return mustNew(Spec{
		Name:  "forward-euler",
		Order: 1,
		Kind:  Explicit,
		C:     []float64{0},
		A:     [][]float64{{}},
		B:     []float64{1},
	})
}

// BackwardEuler is the implicit first order method.
func BackwardEuler() *Tableau {
	return mustNew(Spec{
		Name:  "backward-euler",
		Order: 1,
		C:     []float64{1},
		A:     [][]float64{{1}},
		B:     []float64{1},
	})
}

// Midpoint is the explicit midpoint rule.
func Midpoint() *Tableau {
	return mustNew(Spec{
		Name:  "midpoint",
		Order: 2,
		Kind:  Explicit,
		C:     []float64{0, 0.5},
		A: [][]float64{
			{},
			{0.5},
		},
		B: []float64{0, 1},
	})
}

// ImplicitMidpoint is the one stage Gauss method.
func ImplicitMidpoint() *Tableau {
	return mustNew(Spec{
		Name:  "implicit-midpoint",
		Order: 2,
		C:     []float64{0.5},
		A:     [][]float64{{0.5}},
		B:     []float64{1},
	})
}

// Heun is Ralston's second order variant with the second node at 2/3.
func Heun() *Tableau {
	return mustNew(Spec{
		Name:  "heun",
		Order: 2,
		Kind:  Explicit,
		C:     []float64{0, 2.0 / 3.0},
		A: [][]float64{
			{},
			{2.0 / 3.0},
		},
		B: []float64{0.25, 0.75},
	})
}

// HeunEuler pairs the trapezoidal predictor-corrector with forward Euler.
func HeunEuler() *Tableau {
	return mustNew(Spec{
		Name:          "heun-euler",
		Order:         2,
		EmbeddedOrder: 1,
		Kind:          Explicit,
		C:             []float64{0, 1},
		A: [][]float64{
			{},
			{1},
		},
		B:     []float64{0.5, 0.5},
		BStar: []float64{1, 0},
	})
}

// ClassicalRK4 is the four stage fourth order method.
func ClassicalRK4() *Tableau {
	return mustNew(Spec{
		Name:  "rk4",
		Order: 4,
		Kind:  Explicit,
		C:     []float64{0, 0.5, 0.5, 1},
		A: [][]float64{
			{},
			{0.5},
			{0, 0.5},
			{0, 0, 1},
		},
		B: []float64{1.0 / 6.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 6.0},
	})
}

// BogackiShampine is the 3(2) FSAL pair used by ode23.
func BogackiShampine() *Tableau {
	return mustNew(Spec{
		Name:          "bogacki-shampine",
		Order:         3,
		EmbeddedOrder: 2,
		Kind:          Explicit,
		C:             []float64{0, 0.5, 0.75, 1},
		A: [][]float64{
			{},
			{0.5},
			{0, 0.75},
			{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0},
		},
		B:     []float64{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0, 0},
		BStar: []float64{7.0 / 24.0, 0.25, 1.0 / 3.0, 0.125},
	})
}

// Fehlberg is RKF45. The solution is propagated with the fourth order
// weights, the fifth order weights only serve the error estimate.
func Fehlberg() *Tableau {
	return mustNew(Spec{
		Name:          "fehlberg",
		Order:         4,
		EmbeddedOrder: 5,
		Kind:          Explicit,
		C:             []float64{0, 0.25, 3.0 / 8.0, 12.0 / 13.0, 1, 0.5},
		A: [][]float64{
			{},
			{0.25},
			{3.0 / 32.0, 9.0 / 32.0},
			{1932.0 / 2197.0, -7200.0 / 2197.0, 7296.0 / 2197.0},
			{439.0 / 216.0, -8, 3680.0 / 513.0, -845.0 / 4104.0},
			{-8.0 / 27.0, 2, -3544.0 / 2565.0, 1859.0 / 4104.0, -11.0 / 40.0},
		},
		B:     []float64{25.0 / 216.0, 0, 1408.0 / 2565.0, 2197.0 / 4104.0, -0.2, 0},
		BStar: []float64{16.0 / 135.0, 0, 6656.0 / 12825.0, 28561.0 / 56430.0, -9.0 / 50.0, 2.0 / 55.0},
	})
}

// DormandPrince is the 5(4) pair behind ode45.
func DormandPrince() *Tableau {
	return mustNew(Spec{
		Name:          "dormand-prince",
		Order:         5,
		EmbeddedOrder: 4,
		Kind:          Explicit,
		C:             []float64{0, 0.2, 0.3, 0.8, 8.0 / 9.0, 1, 1},
		A: [][]float64{
			{},
			{0.2},
			{3.0 / 40.0, 9.0 / 40.0},
			{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
			{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
			{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
			{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
		},
		B:     []float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0, 0},
		BStar: []float64{5179.0 / 57600.0, 0, 7571.0 / 16695.0, 393.0 / 640.0, -92097.0 / 339200.0, 187.0 / 2100.0, 1.0 / 40.0},
	})
}

// Trapezoidal is the Crank-Nicolson rule written as a two stage tableau.
func Trapezoidal() *Tableau {
	return mustNew(Spec{
		Name:  "trapezoidal",
		Order: 2,
		C:     []float64{0, 1},
		A: [][]float64{
			{0, 0},
			{0.5, 0.5},
		},
		B: []float64{0.5, 0.5},
	})
}

// GaussLegendre4 is the two stage Gauss collocation method. Both stages are
// coupled and must be solved together.
func GaussLegendre4() *Tableau {
	r := math.Sqrt(3) / 6
	return mustNew(Spec{
		Name:  "gauss-legendre4",
		Order: 4,
		C:     []float64{0.5 - r, 0.5 + r},
		A: [][]float64{
			{0.25, 0.25 - r},
			{0.25 + r, 0.25},
		},
		B: []float64{0.5, 0.5},
	})
}
