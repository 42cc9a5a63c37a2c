package scriptgate

import (
	"fmt"

	dErrors "libreconsent/pkg/domain-errors"
)

// Registry maps script handles to their descriptors for a single page
// render. It is an explicit object owned by the render pipeline, not a
// process-wide singleton: each render builds its own.
//
// Registration order is preserved so rendered placeholders come out in a
// deterministic order, but callers must not rely on any ordering contract.
type Registry struct {
	order    []string
	byHandle map[string]Descriptor
}

// NewRegistry constructs an empty per-render registry.
func NewRegistry() *Registry {
	return &Registry{byHandle: make(map[string]Descriptor)}
}

// Register adds a descriptor. Registering the same handle twice within one
// render cycle is a conflict.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := r.byHandle[d.Handle]; exists {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("script handle already registered: %s", d.Handle))
	}
	r.byHandle[d.Handle] = d
	r.order = append(r.order, d.Handle)
	return nil
}

// Resolve returns the descriptor for a handle.
func (r *Registry) Resolve(handle string) (Descriptor, error) {
	d, ok := r.byHandle[handle]
	if !ok {
		return Descriptor{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown script handle: %s", handle))
	}
	return d, nil
}

// All returns every registered descriptor in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, handle := range r.order {
		out = append(out, r.byHandle[handle])
	}
	return out
}

// Len reports the number of registered scripts.
func (r *Registry) Len() int {
	return len(r.order)
}
