// Package tools provides the agent's callable tools and the registry
// that holds them. Each tool wraps an adapter behind the ports.Tool
// interface so the agent loop stays ignorant of transport details.
package tools

import (
	"fmt"

	"github.com/dipa-ai/dipa/internal/domain/entities"
	"github.com/dipa-ai/dipa/internal/domain/ports"
)

// Registry is an ordered collection of uniquely named tools.
// Registration order is iteration order.
type Registry struct {
	byName map[string]ports.Tool
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]ports.Tool)}
}

// Register adds a tool. Registering a second tool under an existing
// name fails; the first registration wins.
func (r *Registry) Register(tool ports.Tool) error {
	name := tool.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", entities.ErrDuplicateTool, name)
	}
	r.byName[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (ports.Tool, bool) {
	tool, ok := r.byName[name]
	return tool, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []ports.Tool {
	out := make([]ports.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}
