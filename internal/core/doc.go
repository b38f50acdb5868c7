// Package core provides the numeric primitives shared by the SPH pipeline.
//
// The package defines the scalar and vector types every stage operates on:
//
//   - [Float]: the precision of the whole simulation, chosen at instantiation
//     (float32 or float64) rather than by a build tag
//   - [Vec]: a fixed-dimension position/velocity/acceleration vector
//   - [ParallelFor]: fork-join loop used by the per-particle stages
//
// # Thread Safety
//
// Vec values are plain arrays and safe to copy between goroutines. ParallelFor
// provides no synchronization beyond the final join; callers must ensure the
// body touches disjoint data.
package core
