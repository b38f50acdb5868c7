package particle

import "github.com/Guo-astro/hvcc-gsph-sub001/internal/core"

// ShockMode selects which force formulation applies to a particle this step.
type ShockMode int

const (
	// ModeNormal uses the density-independent formulation (volume element + Q).
	ModeNormal ShockMode = iota
	// ModeShock uses the density-based formulation, more robust across shocks.
	ModeShock
)

func (m ShockMode) String() string {
	if m == ModeShock {
		return "shock"
	}
	return "normal"
}

// NoSibling marks an unset spatial-structure sibling index.
const NoSibling = -1

// Particle is one SPH sample. Pure data: the integrator, timestep controller
// and formulation selector mutate disjoint subsets of its fields, and the
// force evaluator owns Acc, EneDot, GradH, Balsara and Alpha.
type Particle[T core.Float] struct {
	Pos core.Vec[T] // position
	Vel core.Vec[T] // velocity

	// Predictor intermediates, valid only between Predict and Correct.
	VelHalf core.Vec[T] // velocity at t + dt/2
	EneHalf T           // internal energy at t + dt/2

	Acc    core.Vec[T] // acceleration, written by the force evaluator
	EneDot T           // du/dt, written by the force evaluator

	Mass  T // mass
	Dens  T // mass density
	Pres  T // pressure
	Ene   T // specific internal energy
	Sound T // sound speed
	Sml   T // smoothing length, strictly positive

	Balsara T // Balsara switch
	Alpha   T // artificial-viscosity coefficient
	GradH   T // grad-h correction term

	Volume T // volume element V = m/rho (density-independent formulation)
	Q      T // smoothed internal-energy density (density-independent formulation)

	Phi       T    // gravitational potential
	PointMass bool // fixed external point mass
	Wall      bool // wall particles are immovable

	ShockSensor     T         // dimensionless compression diagnostic
	ShockMode       ShockMode // active formulation this step
	PrevShockMode   ShockMode // formulation held before this step's transition
	RevertCandidate bool      // density close enough to TargetDens to leave shock mode
	TargetDens      T         // density the particle must approach to revert

	EneFloored bool // set when the integrator clamped Ene at its floor

	ID       int // stable identity, assigned once at construction
	Neighbor int // neighbor count from the last force evaluation
	Next     int // sibling index in the particle arena, NoSibling if unset
}

// New returns a particle with the safe defaults the rest of the pipeline
// relies on: a non-zero smoothing length (division guard), unit grad-h,
// and the initial artificial-viscosity coefficient.
func New[T core.Float](id int) Particle[T] {
	return Particle[T]{
		Sml:     0.1,
		Alpha:   2.0,
		GradH:   1.0,
		Balsara: 1.0,
		ID:      id,
		Next:    NoSibling,
	}
}

// TotalEnergy is the particle's kinetic plus internal energy.
func (p *Particle[T]) TotalEnergy() T {
	return p.Mass * (0.5*p.Vel.Dot(p.Vel) + p.Ene)
}
