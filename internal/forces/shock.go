package forces

import (
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/particle"
)

// Pressure gradients below this magnitude carry no shock information.
const gradFloor = 1e-6

// DetectShocks fills each particle's shock sensor with an estimated Mach
// number. For every non-wall particle it computes an SPH pressure gradient,
// takes its direction as the shock normal, forms kernel-weighted upstream and
// downstream averages of pressure, and inverts the ideal-gas pressure-jump
// relation
//
//	P_down/P_up = 1 + 2*gamma/(gamma+1) * (M^2 - 1)
//
// for the Mach number M. The formulation selector thresholds the result.
func (e *Evaluator[T]) DetectShocks(ps []particle.Particle[T]) {
	n := len(ps)
	core.ParallelFor(n, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			p := &ps[i]
			if p.Wall || p.PointMass {
				continue
			}
			p.ShockSensor = e.machEstimate(ps, p)
		}
	})
}

func (e *Evaluator[T]) machEstimate(ps []particle.Particle[T], p *particle.Particle[T]) T {
	h := p.Sml

	var gradP core.Vec[T]
	for j := range ps {
		pj := &ps[j]
		if pj == p || pj.PointMass {
			continue
		}
		rij := p.Pos.Sub(pj.Pos)
		r := rij.Norm()
		if r <= 0 || r >= h {
			continue
		}
		dwdr := wendlandGrad(r, h, e.dim)
		gradP = gradP.Add(rij.Scale(dwdr / r * (pj.Pres - p.Pres) * pj.Mass))
	}
	if p.Dens <= 0 {
		return 0
	}
	gradP = gradP.Scale(1 / p.Dens)

	mag := gradP.Norm()
	if mag < gradFloor {
		return 0
	}
	normal := gradP.Scale(1 / mag)

	var sumUp, sumDown, presUp, presDown T
	for j := range ps {
		pj := &ps[j]
		if pj == p || pj.PointMass {
			continue
		}
		rij := p.Pos.Sub(pj.Pos)
		s := rij.Dot(normal)
		perp := rij.Sub(normal.Scale(s)).Norm()

		switch {
		case s < 0: // upstream of the front
			weight := w1D(-s, h) * w2D(perp, h)
			sumUp += weight
			presUp += weight * pj.Pres
		case s > 0: // downstream
			weight := w1D(s, h) * w2D(perp, h)
			sumDown += weight
			presDown += weight * pj.Pres
		}
	}

	if sumUp > 0 {
		presUp /= sumUp
	}
	if sumDown > 0 {
		presDown /= sumDown
	}
	if presUp <= 0 || presDown <= 0 {
		return 0
	}

	ratio := presDown / presUp
	return core.Sqrt(1 + (ratio-1)*(e.gamma+1)/(2*e.gamma))
}
