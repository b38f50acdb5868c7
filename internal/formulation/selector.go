// Package formulation switches particles between the density-based and
// density-independent force formulations around shocks.
package formulation

import (
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/particle"
)

const minChunk = 256

// Selector runs the per-particle Normal/Shock state machine once per step.
//
// A particle enters shock mode when its shock sensor exceeds the threshold.
// It leaves shock mode only once its density has returned close to the target
// density recorded at entry; the asymmetry is deliberate hysteresis so a
// sensor hovering around the threshold cannot flip the formulation every step.
type Selector[T core.Float] struct {
	threshold T
	revertTol T
}

// NewSelector builds a selector with the given sensor threshold and relative
// density proximity tolerance for reverting.
func NewSelector[T core.Float](threshold, revertTol T) *Selector[T] {
	return &Selector[T]{threshold: threshold, revertTol: revertTol}
}

// Update re-evaluates the state machine for every non-wall particle. It
// mutates shock mode, previous mode, the revert-candidate flag and the target
// density, and refreshes the volume element and smoothed internal-energy
// density whenever the active formulation changed. A stale volume/Q pair
// under the new formulation would corrupt the next force evaluation.
func (s *Selector[T]) Update(ps []particle.Particle[T]) {
	core.ParallelFor(len(ps), minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &ps[i]
			if p.Wall {
				continue
			}

			prev := p.ShockMode
			p.PrevShockMode = prev

			switch p.ShockMode {
			case particle.ModeNormal:
				p.RevertCandidate = false
				if p.ShockSensor > s.threshold {
					p.ShockMode = particle.ModeShock
					if p.TargetDens <= 0 {
						// No externally supplied pre-shock density; the best
						// available estimate is the density at detection.
						p.TargetDens = p.Dens
					}
				}

			case particle.ModeShock:
				p.RevertCandidate = s.nearTarget(p)
				if p.RevertCandidate {
					p.ShockMode = particle.ModeNormal
					p.TargetDens = 0
				}
			}

			if p.ShockMode != prev {
				s.refresh(p)
			}
		}
	})
}

// nearTarget reports whether the particle's density has relaxed to within the
// revert tolerance of its target density.
func (s *Selector[T]) nearTarget(p *particle.Particle[T]) bool {
	if p.TargetDens <= 0 {
		return false
	}
	return core.Abs(p.Dens-p.TargetDens)/p.TargetDens <= s.revertTol
}

// refresh recomputes the density-independent quantities for the formulation
// the particle just switched to.
func (s *Selector[T]) refresh(p *particle.Particle[T]) {
	if p.Dens > 0 {
		p.Volume = p.Mass / p.Dens
	}
	p.Q = p.Dens * p.Ene
}
