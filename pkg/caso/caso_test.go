package caso_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d33fur/caso/pkg/caso"
)

func linear(x float64, y caso.State) caso.State { return caso.State{-2*y[0] + x} }

func TestIntegrateFixedStep(t *testing.T) {
	for _, name := range []string{"forward-euler", "rk4"} {
		t.Run(name, func(t *testing.T) {
			m, err := caso.Method(name)
			require.NoError(t, err)

			traj, err := caso.Integrate(linear, caso.State{2}, 1, 3, 0.25, m, caso.Options{})
			require.NoError(t, err)
			require.Len(t, traj, 9)
			assert.Equal(t, caso.Point{X: 1, Y: caso.State{2}}, traj[0])
			assert.Equal(t, 3.0, traj[8].X)
		})
	}
}

func TestIntegrateAdaptive(t *testing.T) {
	m, err := caso.Method("dopri5")
	require.NoError(t, err)

	exact := func(x float64) float64 { return math.Exp(2 * x) }
	traj, err := caso.Integrate(func(x float64, y caso.State) caso.State { return caso.State{2 * y[0]} },
		caso.State{1}, 0, 1, 0.1, m, caso.Options{Tolerance: 1e-8})
	require.NoError(t, err)

	last, ok := traj.Last()
	require.True(t, ok)
	assert.Equal(t, 1.0, last.X)
	assert.InEpsilon(t, exact(1), last.Y[0], 1e-6)
}

func TestIntegrateImplicit(t *testing.T) {
	m, err := caso.Method("implicit-euler")
	require.NoError(t, err)

	traj, err := caso.Integrate(func(x float64, y caso.State) caso.State { return caso.State{-y[0]} },
		caso.State{1}, 0, 1, 0.1, m, caso.DefaultOptions())
	require.NoError(t, err)
	last, _ := traj.Last()
	assert.InDelta(t, math.Pow(1/1.1, 10), last.Y[0], 1e-9)
}

func TestIntegrateDefaults(t *testing.T) {
	m, _ := caso.Method("rk4")
	traj, err := caso.Integrate(linear, caso.State{2}, 3, 1, 0, m, caso.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, traj[0].X)
	assert.Equal(t, 3.0, traj[len(traj)-1].X)
	assert.Len(t, traj, 9)
}

func TestIntegrateErrors(t *testing.T) {
	m, _ := caso.Method("rk4")

	_, err := caso.Integrate(linear, caso.State{2}, 1, 3, 0.25, nil, caso.Options{})
	assert.ErrorIs(t, err, caso.ErrInvalidTableau)

	_, err = caso.Integrate(nil, caso.State{2}, 1, 3, 0.25, m, caso.Options{})
	assert.ErrorIs(t, err, caso.ErrInvalidParameters)

	_, err = caso.Integrate(linear, caso.State{math.NaN()}, 1, 3, 0.25, m, caso.Options{})
	assert.ErrorIs(t, err, caso.ErrInvalidParameters)

	blowup := func(x float64, y caso.State) caso.State { return caso.State{y[0] * y[0] * 1e200} }
	_, err = caso.Integrate(blowup, caso.State{1e100}, 1, 3, 0.25, m, caso.Options{})
	assert.ErrorIs(t, err, caso.ErrUnstable)
	var ierr *caso.IntegrationError
	assert.True(t, errors.As(err, &ierr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = caso.IntegrateContext(ctx, linear, caso.State{2}, 1, 3, 0.25, m, caso.Options{})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = caso.Method("no-such-method")
	assert.Error(t, err)
}

func TestNewTableau(t *testing.T) {
	m, err := caso.NewTableau(caso.TableauSpec{
		Name:  "ralston2",
		Order: 2,
		C:     []float64{0, 2.0 / 3},
		A:     [][]float64{{}, {2.0 / 3}},
		B:     []float64{0.25, 0.75},
	})
	require.NoError(t, err)

	traj, err := caso.Integrate(linear, caso.State{2}, 1, 3, 0.25, m, caso.Options{})
	require.NoError(t, err)
	assert.Len(t, traj, 9)

	_, err = caso.NewTableau(caso.TableauSpec{Name: "broken", Order: 1, C: []float64{0}, B: []float64{1, 2}})
	assert.ErrorIs(t, err, caso.ErrInvalidTableau)
}

func TestMethods(t *testing.T) {
	names := caso.Methods()
	assert.Contains(t, names, "dormand-prince")
	assert.Contains(t, names, "gauss-legendre4")
	assert.IsIncreasing(t, names)
}
