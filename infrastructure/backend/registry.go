// Package backend holds the pluggable request-creation backends and the
// registry that selects one at configuration time.
package backend

import (
	"fmt"

	"github.com/h0uter/multimr/domain"
	"github.com/h0uter/multimr/infrastructure/shell"
)

// Factory is a constructor function that creates a Backend from an auth
// token and a subprocess runner. Backends that need only one of the two
// ignore the other.
type Factory func(token string, runner shell.Runner) domain.Backend

// Registry manages all registered backend implementations.
type Registry struct {
	backends map[string]Factory
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Factory),
	}
}

// Register adds a backend factory under the given name (e.g. "glab").
func (r *Registry) Register(name string, factory Factory) {
	r.backends[name] = factory
}

// Get returns a configured backend instance for the given name.
func (r *Registry) Get(name, token string, runner shell.Runner) (domain.Backend, error) {
	factory, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend type: %q", name)
	}
	return factory(token, runner), nil
}

// Names returns the list of registered backend names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}
