// Package metrics reduces particle populations to scalar conservation
// diagnostics logged and stored alongside each run.
package metrics

import (
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/particle"
)

// TotalEnergy sums kinetic plus internal energy over all particles.
func TotalEnergy[T core.Float](ps []particle.Particle[T]) T {
	var sum T
	for i := range ps {
		sum += ps[i].TotalEnergy()
	}
	return sum
}

// TotalMomentum sums linear momentum over all particles.
func TotalMomentum[T core.Float](ps []particle.Particle[T]) core.Vec[T] {
	var sum core.Vec[T]
	for i := range ps {
		sum = sum.Add(ps[i].Vel.Scale(ps[i].Mass))
	}
	return sum
}

// ShockFraction is the fraction of non-wall particles currently in shock mode.
func ShockFraction[T core.Float](ps []particle.Particle[T]) float64 {
	active, shocked := 0, 0
	for i := range ps {
		if ps[i].Wall {
			continue
		}
		active++
		if ps[i].ShockMode == particle.ModeShock {
			shocked++
		}
	}
	if active == 0 {
		return 0
	}
	return float64(shocked) / float64(active)
}

// EnergyDrift is the relative change from the initial total energy.
func EnergyDrift[T core.Float](initial, current T) float64 {
	if initial == 0 {
		return 0
	}
	return float64(core.Abs(current-initial) / core.Abs(initial))
}
