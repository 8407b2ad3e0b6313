package metrics

import (
	"math"

	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/sim"
)

// Hamiltonian is a system with a conserved energy.
type Hamiltonian interface {
	Energy(y ode.State) float64
}

// EnergyDrift is the largest relative deviation of the energy from its
// initial value over all accepted steps.
type EnergyDrift struct {
	name          string
	sys           Hamiltonian
	initialEnergy float64
	maxDrift      float64
}

func NewEnergyDrift(sys Hamiltonian, y0 ode.State) *EnergyDrift {
	return &EnergyDrift{
		name:          "energy_drift",
		sys:           sys,
		initialEnergy: sys.Energy(y0),
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(ev sim.StepEvent) {
	if !ev.Accepted || ev.Y == nil {
		return
	}

	energy := e.sys.Energy(ev.Y)

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.maxDrift = 0
}
