package abi

import "github.com/cask-engine/cask/internal/core/world"

// Handle is the capability a hook uses to reach one World. It carries no state
// of its own; two Handles over the same World are interchangeable.
type Handle struct {
	w *world.World
}

func NewHandle(w *world.World) *Handle {
	return &Handle{w: w}
}

// World returns the World behind the handle. Host code only.
func (h *Handle) World() *world.World { return h.w }

func (h *Handle) RegisterComponent(name string) ComponentID {
	return h.w.RegisterComponent(name)
}

func (h *Handle) Bind(id ComponentID, value any) error {
	return h.w.Bind(id, value)
}

func (h *Handle) Get(id ComponentID) any {
	return h.w.Get(id)
}

func (h *Handle) Resolve(name string) any {
	return h.w.Resolve(name)
}

func (h *Handle) RegisterAndBind(name string, value any, destructor Destructor) (ComponentID, error) {
	return h.w.RegisterAndBind(name, value, destructor)
}

// Component returns the value bound to id as a *T.
func Component[T any](h *Handle, id ComponentID) (*T, bool) {
	v, ok := h.w.Get(id).(*T)
	return v, ok
}

// ResolveAs returns the value bound under name as a *T.
func ResolveAs[T any](h *Handle, name string) (*T, bool) {
	v, ok := h.w.Resolve(name).(*T)
	return v, ok
}
