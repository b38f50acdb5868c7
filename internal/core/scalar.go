package core

import "math"

// Dim is the spatial dimensionality, fixed at build time. The planar variant
// of the integrator constrains motion to a sub-manifold instead of changing Dim.
const Dim = 3

// Float is the scalar precision of the simulation. Instantiating the pipeline
// with float32 or float64 replaces the usual single/double compile-time switch.
type Float interface {
	~float32 | ~float64
}

func Sqrt[T Float](x T) T {
	return T(math.Sqrt(float64(x)))
}

func Abs[T Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

func IsFinite[T Float](x T) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Vec is a Dim-component vector.
type Vec[T Float] [Dim]T

func (v Vec[T]) Add(w Vec[T]) Vec[T] {
	for i := range v {
		v[i] += w[i]
	}
	return v
}

func (v Vec[T]) Sub(w Vec[T]) Vec[T] {
	for i := range v {
		v[i] -= w[i]
	}
	return v
}

func (v Vec[T]) Scale(s T) Vec[T] {
	for i := range v {
		v[i] *= s
	}
	return v
}

func (v Vec[T]) Dot(w Vec[T]) T {
	var sum T
	for i := range v {
		sum += v[i] * w[i]
	}
	return sum
}

func (v Vec[T]) Norm() T {
	return Sqrt(v.Dot(v))
}

func (v Vec[T]) IsValid() bool {
	for i := range v {
		if !IsFinite(v[i]) {
			return false
		}
	}
	return true
}
