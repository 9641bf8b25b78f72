package image

import (
	"context"
	"fmt"

	"server/internal/domain"
)

// Generator is the uniform contract over one image generation backend: turn
// a prompt into a saved PNG and report where it landed.
type Generator interface {
	// Name returns the provider key, which doubles as the storage namespace.
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Store is the slice of the file store the adapters depend on.
type Store interface {
	SaveImage(provider, prompt string, data []byte) (string, error)
}

// Registry dispatches provider keys to registered generators.
type Registry struct {
	generators map[string]Generator
	order      []string
}

// NewRegistry indexes the given generators by name. A duplicate name keeps
// the first registration.
func NewRegistry(gens ...Generator) *Registry {
	r := &Registry{generators: make(map[string]Generator, len(gens))}
	for _, g := range gens {
		if g == nil {
			continue
		}
		if _, exists := r.generators[g.Name()]; exists {
			continue
		}
		r.generators[g.Name()] = g
		r.order = append(r.order, g.Name())
	}
	return r
}

// ForProvider resolves a provider key to its generator.
func (r *Registry) ForProvider(key string) (Generator, error) {
	g, ok := r.generators[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, key)
	}
	return g, nil
}

// Providers lists registered provider keys in registration order.
func (r *Registry) Providers() []string {
	return append([]string(nil), r.order...)
}
