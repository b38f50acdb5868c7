// Package samples builds initial particle populations by name.
//
// The catalog is an explicit table constructed once by NewRegistry and passed
// by reference to the driver. There is no self-registration at package load:
// adding a sample means adding a row to the table, naming its builder and the
// spatial dimension its geometry fills (the force evaluator normalizes its
// kernel for that dimension).
package samples

import (
	"fmt"
	"sort"

	"github.com/Guo-astro/hvcc-gsph-sub001/internal/config"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/core"
	"github.com/Guo-astro/hvcc-gsph-sub001/internal/particle"
)

// Builder constructs a starting particle population. Pure data construction:
// positions, velocities and thermodynamic state, nothing else.
type Builder[T core.Float] func(cfg *config.Config) []particle.Particle[T]

type entry[T core.Float] struct {
	build Builder[T]
	dim   int
}

type Registry[T core.Float] struct {
	entries map[string]entry[T]
}

func NewRegistry[T core.Float]() *Registry[T] {
	return &Registry[T]{
		entries: map[string]entry[T]{
			"shock_tube":      {ShockTube[T], 1},
			"uniform_box":     {UniformBox[T], 3},
			"razor_thin_disk": {RazorThinDisk[T], 2},
		},
	}
}

// Build returns the named sample's particles and the spatial dimension its
// geometry fills.
func (r *Registry[T]) Build(name string, cfg *config.Config) ([]particle.Particle[T], int, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, 0, fmt.Errorf("samples: unknown sample %q", name)
	}
	return e.build(cfg), e.dim, nil
}

func (r *Registry[T]) List() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
