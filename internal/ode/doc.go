// Package ode provides the core primitives shared by the integration engine.
//
// The package defines the fundamental types for numerical integration of
// ordinary differential equations dy/dx = f(x, y):
//
//   - [State]: vector holding the dependent variables
//   - [Func]: right-hand side evaluator supplied by the caller
//   - [Point]: one (x, y) sample of a solution
//   - [Trajectory]: ordered, append-only sequence of points
//
// The error sentinels declared here are shared by every stage of an
// integration run, so callers can match them with errors.Is regardless of
// which component produced them.
//
// # Example
//
//	tab := tableau.ClassicalRK4()
//	s := sim.New(tab, sim.DefaultOptions())
//	res, err := s.Run(ctx, sim.Params{F: f, Y0: ode.State{2}, XL: 1, XR: 3, XS: 0.25})
//
// # Thread Safety
//
// A [Func] is invoked synchronously from a single goroutine per run. States
// copied into a [Trajectory] are never touched by the engine again.
package ode
