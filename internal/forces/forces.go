// Package forces evaluates density, pressure, acceleration and the energy
// derivative for every particle, honoring each particle's active formulation.
//
// The evaluator is the collaborator the time-advance pipeline depends on: it
// must run to completion for all particles before the timestep controller or
// integrator may run. Neighbor lookup is a direct O(N^2) scan; tree-based
// search is deliberately out of scope.
package forces

import (
	"math"

	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/particle"
)

const minChunk = 64

// Evaluator computes the force-model outputs: Dens, Pres, Volume, Q, Sound,
// Acc, EneDot, Neighbor, and the global minimum h/v_sig ratio consumed by the
// timestep controller's sound criterion.
type Evaluator[T core.Float] struct {
	gamma   T
	alphaAV T
	dim     int
}

// NewEvaluator builds an evaluator for the given adiabatic index, viscosity
// strength and sample dimension (1, 2 or 3). The dimension selects the kernel
// normalization; it must match the geometry the sample builder laid out.
func NewEvaluator[T core.Float](gamma, alphaAV T, dim int) *Evaluator[T] {
	if dim < 1 || dim > core.Dim {
		dim = core.Dim
	}
	return &Evaluator[T]{gamma: gamma, alphaAV: alphaAV, dim: dim}
}

// Evaluate runs the density pass then the force pass and returns the minimum
// smoothing-length-to-signal-speed ratio across all particles.
func (e *Evaluator[T]) Evaluate(ps []particle.Particle[T]) T {
	n := len(ps)
	vsig := make([]T, n)
	unbounded := T(math.Inf(1))
	for i := range vsig {
		vsig[i] = unbounded
	}

	e.densityPass(ps, vsig)
	e.forcePass(ps)

	hPerVSig := unbounded
	for _, v := range vsig {
		if v < hPerVSig {
			hPerVSig = v
		}
	}
	return hPerVSig
}

// densityPass accumulates kernel-weighted density and smoothed internal-energy
// density, then derives pressure under the particle's active formulation.
func (e *Evaluator[T]) densityPass(ps []particle.Particle[T], vsig []T) {
	n := len(ps)
	core.ParallelFor(n, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &ps[i]
			if p.Wall || p.PointMass {
				continue
			}

			var dens, q T
			vSigMax := p.Sound * 2
			neighbors := 0

			for j := 0; j < n; j++ {
				pj := &ps[j]
				if pj.PointMass {
					continue
				}
				rij := p.Pos.Sub(pj.Pos)
				r := rij.Norm()
				if r >= p.Sml {
					continue
				}
				neighbors++

				w := wendland(r, p.Sml, e.dim)
				dens += pj.Mass * w
				q += pj.Mass * pj.Ene * w

				if i != j && r > 0 {
					vs := p.Sound + pj.Sound - 3*rij.Dot(p.Vel.Sub(pj.Vel))/r
					if vs > vSigMax {
						vSigMax = vs
					}
				}
			}

			p.Dens = dens
			p.Q = q
			p.Neighbor = neighbors
			if dens > 0 {
				p.Volume = p.Mass / dens
			}

			switch p.ShockMode {
			case particle.ModeShock:
				// Density-based formulation.
				p.Pres = (e.gamma - 1) * dens * p.Ene
			default:
				// Density-independent formulation: pressure from the smoothed
				// internal-energy density, insensitive to density jumps at
				// contact discontinuities.
				p.Pres = (e.gamma - 1) * q
			}

			if vSigMax > 0 {
				vsig[i] = p.Sml / vSigMax
			}
		}
	})
}

// forcePass computes the symmetrized pressure-gradient acceleration with
// Monaghan artificial viscosity, and the matching energy derivative.
func (e *Evaluator[T]) forcePass(ps []particle.Particle[T]) {
	n := len(ps)
	core.ParallelFor(n, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &ps[i]
			if p.Wall || p.PointMass {
				p.Acc = core.Vec[T]{}
				p.EneDot = 0
				continue
			}

			var acc core.Vec[T]
			var eneDot T
			presI := p.Pres / (p.Dens * p.Dens)

			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				pj := &ps[j]
				if pj.PointMass || pj.Dens <= 0 {
					continue
				}
				rij := p.Pos.Sub(pj.Pos)
				r := rij.Norm()
				if r <= 0 || r >= p.Sml {
					continue
				}

				dwdr := wendlandGrad(r, p.Sml, e.dim)
				gradW := rij.Scale(dwdr / r)

				vij := p.Vel.Sub(pj.Vel)
				pi := e.viscosity(p, pj, rij, vij, r)

				presJ := pj.Pres / (pj.Dens * pj.Dens)
				acc = acc.Sub(gradW.Scale(pj.Mass * (presI + presJ + pi)))
				eneDot += pj.Mass * (presI + pi/2) * vij.Dot(gradW)
			}

			p.Acc = acc
			p.EneDot = eneDot
		}
	})
}

// viscosity returns the Monaghan signal-velocity viscosity term, gated by the
// pair-averaged Balsara switch. Zero for receding pairs.
func (e *Evaluator[T]) viscosity(p, pj *particle.Particle[T], rij, vij core.Vec[T], r T) T {
	w := vij.Dot(rij) / r
	if w >= 0 {
		return 0
	}
	vSig := p.Sound + pj.Sound - 3*w
	densAvg := (p.Dens + pj.Dens) / 2
	balsara := (p.Balsara + pj.Balsara) / 2
	return -e.alphaAV / 2 * vSig * w / densAvg * balsara
}
