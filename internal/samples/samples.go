package samples

import (
	"math"

	"github.com/Guo-astro/hvcc-gsph-sub001/internal/config"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/particle"
)

// ShockTube is the Sod problem on a line: a dense hot slab on the left, a
// rarefied cold slab on the right, equal-mass particles so the right side is
// spaced eight times wider. Two wall particles cap each end.
func ShockTube[T core.Float](cfg *config.Config) []particle.Particle[T] {
	n := cfg.N
	if n < 16 {
		n = 16
	}
	gamma := T(cfg.Physics.Gamma)

	// Equal-mass particles: the 1:0.125 density ratio over equal half-lengths
	// puts 8/9 of them in the dense left state, spaced eight times tighter.
	nLeft := n * 8 / 9
	nRight := n - nLeft
	dxLeft := T(0.5) / T(nLeft)
	dxRight := T(0.5) / T(nRight)
	mass := 1.0 * dxLeft // line mass density 1 on the left

	ps := make([]particle.Particle[T], 0, n+4)
	id := 0

	add := func(x, dens, pres T, wall bool) {
		p := particle.New[T](id)
		id++
		p.Pos = core.Vec[T]{x, 0, 0}
		p.Mass = mass
		p.Dens = dens
		p.Pres = pres
		p.Ene = pres / ((gamma - 1) * dens)
		p.Sml = 4 * dxLeft / dens // wider support where the gas is thin
		p.Wall = wall
		ps = append(ps, p)
	}

	add(-0.5-2*dxLeft, 1.0, 1.0, true)
	add(-0.5-dxLeft, 1.0, 1.0, true)
	for i := 0; i < nLeft; i++ {
		add(-0.5+(T(i)+0.5)*dxLeft, 1.0, 1.0, false)
	}
	for i := 0; i < nRight; i++ {
		add((T(i)+0.5)*dxRight, 0.125, 0.1, false)
	}
	add(0.5+dxRight, 0.125, 0.1, true)
	add(0.5+2*dxRight, 0.125, 0.1, true)

	return ps
}

// UniformBox is a quiet uniform lattice in the unit cube, useful as a
// relaxation / regression baseline.
func UniformBox[T core.Float](cfg *config.Config) []particle.Particle[T] {
	side := int(math.Cbrt(float64(cfg.N)))
	if side < 2 {
		side = 2
	}
	dx := T(1) / T(side)
	gamma := T(cfg.Physics.Gamma)

	dens := T(1)
	pres := T(1)
	mass := dens * dx * dx * dx

	ps := make([]particle.Particle[T], 0, side*side*side)
	id := 0
	for ix := 0; ix < side; ix++ {
		for iy := 0; iy < side; iy++ {
			for iz := 0; iz < side; iz++ {
				p := particle.New[T](id)
				id++
				p.Pos = core.Vec[T]{
					(T(ix) + 0.5) * dx,
					(T(iy) + 0.5) * dx,
					(T(iz) + 0.5) * dx,
				}
				p.Mass = mass
				p.Dens = dens
				p.Pres = pres
				p.Ene = pres / ((gamma - 1) * dens)
				p.Sml = 2.4 * dx
				ps = append(ps, p)
			}
		}
	}
	return ps
}

// RazorThinDisk lays particles on concentric rings in the z=0 plane. Runs
// using it are expected to enable the planar integrator constraint; forces
// (gravity in particular) still act in full 3D.
func RazorThinDisk[T core.Float](cfg *config.Config) []particle.Particle[T] {
	n := cfg.N
	if n < 16 {
		n = 16
	}
	gamma := T(cfg.Physics.Gamma)

	radius := T(1)
	dens := T(1)
	pres := T(0.1)
	mass := dens * T(math.Pi) * radius * radius / T(n)

	rings := int(math.Sqrt(float64(n)))
	dr := radius / T(rings)

	ps := make([]particle.Particle[T], 0, n)
	id := 0
	for ring := 1; ring <= rings && id < n; ring++ {
		r := (T(ring) - 0.5) * dr
		count := int(2 * math.Pi * float64(r) / float64(dr))
		if count < 1 {
			count = 1
		}
		for k := 0; k < count && id < n; k++ {
			phi := 2 * math.Pi * float64(k) / float64(count)
			p := particle.New[T](id)
			id++
			p.Pos = core.Vec[T]{r * T(math.Cos(phi)), r * T(math.Sin(phi)), 0}
			p.Mass = mass
			p.Dens = dens
			p.Pres = pres
			p.Ene = pres / ((gamma - 1) * dens)
			p.Sml = 3 * dr
			ps = append(ps, p)
		}
	}
	return ps
}
