package ode

import "math"

// State is the dependent-variable vector y.
type State []float64

func (s State) Clone() State {
	if s == nil {
		return nil
	}
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxNorm returns the largest absolute component.
func (s State) MaxNorm() float64 {
	m := 0.0
	for _, v := range s {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Func evaluates dy/dx at (x, y). It must return a vector of len(y) and must
// not retain or modify y.
type Func func(x float64, y State) State

// Point is one accepted sample of the solution.
type Point struct {
	X float64 `json:"x"`
	Y State   `json:"y"`
}

// Trajectory is the ordered sequence of accepted points, starting at the
// initial condition.
type Trajectory []Point

func (t Trajectory) Last() (Point, bool) {
	if len(t) == 0 {
		return Point{}, false
	}
	return t[len(t)-1], true
}

func (t Trajectory) Xs() []float64 {
	xs := make([]float64, len(t))
	for i, p := range t {
		xs[i] = p.X
	}
	return xs
}

// Component extracts y[idx] across the trajectory. Points shorter than idx+1
// contribute 0.
func (t Trajectory) Component(idx int) []float64 {
	out := make([]float64, len(t))
	for i, p := range t {
		if idx < len(p.Y) {
			out[i] = p.Y[idx]
		}
	}
	return out
}

func (t Trajectory) Dim() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0].Y)
}
