// Package sampler dispatches the per-model sample fan-out: N concurrent,
// temperature-varied generation attempts per model, with staggered starts
// and per-call deadlines. Sample failures are recorded, never propagated.
package sampler

import (
	"fmt"

	"github.com/HartreeWorks/bestofn/infrastructure/llm"
	"github.com/HartreeWorks/bestofn/internal/catalog"
	"github.com/HartreeWorks/bestofn/internal/domain"
	"github.com/HartreeWorks/bestofn/internal/ports"
)

// Resolver turns a catalog descriptor into a callable client. Tests
// substitute scripted clients through this seam.
type Resolver interface {
	// ClientFor returns a client for the model, or ErrNotInvocable for
	// models that cannot be called synchronously.
	ClientFor(model catalog.ModelDescriptor) (ports.LLMClient, error)
}

// RegistryResolver resolves clients through the provider registry using
// "provider/model" specs.
type RegistryResolver struct {
	Registry *llm.Registry
}

var _ Resolver = (*RegistryResolver)(nil)

// ClientFor returns the registry client serving the descriptor's model.
func (r *RegistryResolver) ClientFor(model catalog.ModelDescriptor) (ports.LLMClient, error) {
	if !model.Eligible() {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotInvocable, model.ID)
	}
	return r.Registry.GetClient(string(model.Provider) + "/" + model.ID)
}

// FuncResolver adapts a function to the Resolver interface.
type FuncResolver func(model catalog.ModelDescriptor) (ports.LLMClient, error)

// ClientFor calls the wrapped function.
func (f FuncResolver) ClientFor(model catalog.ModelDescriptor) (ports.LLMClient, error) {
	return f(model)
}
