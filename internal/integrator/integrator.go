// Package integrator advances particle state with a kick-drift-kick
// (leapfrog) predictor-corrector scheme.
package integrator

import (
	"fmt"

	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/particle"
)

const minChunk = 256

// eneMin is the internal-energy floor. Strong rarefactions can integrate the
// energy below zero within one step, which would poison the sound speed with a
// NaN; the update clamps to this floor instead and marks the particle.
const eneMin = 1e-10

// Constraint is a projection applied to each non-wall particle after the
// generic update, in both Predict and Correct. Constraints compose; they must
// never re-implement the update arithmetic.
type Constraint[T core.Float] func(p *particle.Particle[T])

// Planar confines motion to the plane orthogonal to the given axis by zeroing
// that position and velocity component. Forces stay fully Dim-dimensional;
// only the advanced state is projected.
func Planar[T core.Float](axis int) Constraint[T] {
	return func(p *particle.Particle[T]) {
		p.Pos[axis] = 0
		p.Vel[axis] = 0
	}
}

// Integrator advances all non-wall particles. Wall particles are skipped
// entirely and stay byte-identical across a step.
type Integrator[T core.Float] struct {
	gamma       T
	soundFactor T // gamma * (gamma - 1)
	constraints []Constraint[T]
}

// Option adds behavior to an Integrator.
type Option[T core.Float] func(*Integrator[T])

// WithConstraint appends a post-update projection.
func WithConstraint[T core.Float](c Constraint[T]) Option[T] {
	return func(g *Integrator[T]) {
		g.constraints = append(g.constraints, c)
	}
}

// New builds an integrator for the given adiabatic index (> 1).
func New[T core.Float](gamma T, opts ...Option[T]) (*Integrator[T], error) {
	if gamma <= 1 {
		return nil, fmt.Errorf("%w: got %g", core.ErrInvalidGamma, float64(gamma))
	}
	g := &Integrator[T]{
		gamma:       gamma,
		soundFactor: gamma * (gamma - 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// CheckForces fails fast when some particle's acceleration or energy
// derivative has not been populated (or went non-finite) since the last force
// evaluation. The numeric result of integrating such a particle is undefined,
// so the whole step aborts instead.
func (g *Integrator[T]) CheckForces(ps []particle.Particle[T]) error {
	for i := range ps {
		p := &ps[i]
		if p.Wall {
			continue
		}
		if !p.Acc.IsValid() || !core.IsFinite(p.EneDot) {
			return fmt.Errorf("%w: particle %d", core.ErrForcesNotReady, p.ID)
		}
		if !(p.Sml > 0) {
			return fmt.Errorf("%w: particle %d has smoothing length %g",
				core.ErrForcesNotReady, p.ID, float64(p.Sml))
		}
	}
	return nil
}

// Predict performs the drift plus full kick and stores the half-step
// velocity and energy for Correct.
func (g *Integrator[T]) Predict(ps []particle.Particle[T], dt T) error {
	if dt <= 0 {
		return fmt.Errorf("%w: got %g", core.ErrInvalidTimestep, float64(dt))
	}
	if err := g.CheckForces(ps); err != nil {
		return err
	}

	half := dt / 2
	core.ParallelFor(len(ps), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &ps[i]
			if p.Wall {
				continue
			}

			p.VelHalf = p.Vel.Add(p.Acc.Scale(half))
			p.EneHalf = p.Ene + p.EneDot*half

			p.Pos = p.Pos.Add(p.VelHalf.Scale(dt))
			p.Vel = p.Vel.Add(p.Acc.Scale(dt))
			p.Ene += p.EneDot * dt
			if p.Ene < eneMin {
				p.Ene = eneMin
				p.EneFloored = true
			}
			p.Sound = core.Sqrt(g.soundFactor * p.Ene)

			for _, c := range g.constraints {
				c(p)
			}
		}
	})
	return nil
}

// Correct replaces the predicted velocity and energy with the half-step
// values kicked by the re-evaluated forces.
func (g *Integrator[T]) Correct(ps []particle.Particle[T], dt T) error {
	if dt <= 0 {
		return fmt.Errorf("%w: got %g", core.ErrInvalidTimestep, float64(dt))
	}
	if err := g.CheckForces(ps); err != nil {
		return err
	}

	half := dt / 2
	core.ParallelFor(len(ps), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &ps[i]
			if p.Wall {
				continue
			}

			p.Vel = p.VelHalf.Add(p.Acc.Scale(half))
			p.Ene = p.EneHalf + p.EneDot*half
			if p.Ene < eneMin {
				p.Ene = eneMin
				p.EneFloored = true
			}
			p.Sound = core.Sqrt(g.soundFactor * p.Ene)

			for _, c := range g.constraints {
				c(p)
			}
		}
	})
	return nil
}

// Gamma returns the adiabatic index the integrator was built with.
func (g *Integrator[T]) Gamma() T {
	return g.gamma
}
