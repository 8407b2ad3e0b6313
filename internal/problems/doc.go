// Package problems is a catalog of named initial value problems.
//
// Every entry implements [Problem]: a right-hand side plus a default interval,
// step and initial state. Optional interfaces add more:
//
//   - [Exact]: closed-form solution, used for error and order studies
//   - [Hamiltonian]: conserved energy, used for drift metrics
//   - [Configurable]: named model parameters (mu, sigma, lambda, ...)
//
// The scalar set covers y' = -2y + x, -2xy, 2x + y, e^x - y, 2y and -y + x.
// Systems include the harmonic oscillator, Van der Pol, Lorenz and Duffing.
// "sharp" and "prothero-robinson" exercise step rejection and stiffness.
//
// # Example
//
//	p, _ := problems.Get("vanderpol")
//	res, err := sim.New(tableau.DormandPrince(), sim.DefaultOptions()).
//	    Run(ctx, problems.Params(p))
package problems
