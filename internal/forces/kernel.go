package forces

import (
	"math"

	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
)

// Wendland C2 kernel with support radius h (W = 0 for r >= h), normalized for
// the sample's spatial dimension: line samples sum the 1D form, planar samples
// the 2D form, volume samples the 3D form. Mixing normalizations across
// dimensions inflates the summed density by orders of magnitude.

func sigmaW[T core.Float](dim int, h T) T {
	switch dim {
	case 1:
		return T(3.0/2.0) / h
	case 2:
		return T(7.0/math.Pi) / (h * h)
	default:
		return T(21.0/(2.0*math.Pi)) / (h * h * h)
	}
}

func wendland[T core.Float](r, h T, dim int) T {
	q := r / h
	if q >= 1 {
		return 0
	}
	u := 1 - q
	return sigmaW(dim, h) * u * u * u * u * (1 + 4*q)
}

// wendlandGrad returns dW/dr; the full gradient is (dW/dr) * r_ij / r.
func wendlandGrad[T core.Float](r, h T, dim int) T {
	q := r / h
	if q >= 1 || r <= 0 {
		return 0
	}
	u := 1 - q
	return -20 * sigmaW(dim, h) * q * u * u * u / h
}

// One- and two-dimensional Wendland-style weights used by the shock sensor to
// average upstream/downstream of the shock normal. Normalization cancels in
// the weighted averages, so only the shape matters.

func w1D[T core.Float](x, h T) T {
	q := core.Abs(x) / h
	if q >= 1 {
		return 0
	}
	u := 1 - q
	return u * u * u * u * (1 + 4*q) / h
}

func w2D[T core.Float](r, h T) T {
	q := r / h
	if q >= 1 {
		return 0
	}
	sigma := T(9.0 / math.Pi)
	u := 1 - q
	u2 := u * u
	return sigma * u2 * u2 * u2 * (1 + 6*q + T(35.0/3.0)*q*q) / (h * h)
}
