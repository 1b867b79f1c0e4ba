package world

import "sort"

// ComponentID is a dense index into the World's slot table. IDs are handed out
// in registration order and never reused, even after the owning name is destroyed.
type ComponentID uint32

// Destructor releases a bound value. The World calls it at most once, from
// Destroy, with exactly the value that was bound.
type Destructor func(value any)

type slot struct {
	value      any
	destructor Destructor
}

// World is the type-erased component registry shared by every plugin. Values
// stay owned by whoever bound them unless a Destructor was supplied.
// Single-goroutine access only (engine loop).
type World struct {
	ids   map[string]ComponentID
	slots []slot
}

func New() *World {
	return &World{
		ids:   make(map[string]ComponentID, 64),
		slots: make([]slot, 0, 64),
	}
}

// RegisterComponent returns the id for name, allocating the next dense id the
// first time name is seen.
func (w *World) RegisterComponent(name string) ComponentID {
	if id, ok := w.ids[name]; ok {
		return id
	}
	id := ComponentID(len(w.slots))
	w.slots = append(w.slots, slot{})
	w.ids[name] = id
	return id
}

// Bind associates value with id. The slot must be empty; destroy the owning
// name before binding again.
func (w *World) Bind(id ComponentID, value any) error {
	if int(id) >= len(w.slots) {
		return &BindError{ID: id, Reason: ReasonUnknownID}
	}
	if value == nil {
		return &BindError{ID: id, Name: w.nameOf(id), Reason: ReasonNilValue}
	}
	if w.slots[id].value != nil {
		return &BindError{ID: id, Name: w.nameOf(id), Reason: ReasonAlreadyBound}
	}
	w.slots[id].value = value
	return nil
}

// Get returns the value bound to id, or nil.
func (w *World) Get(id ComponentID) any {
	if int(id) >= len(w.slots) {
		return nil
	}
	return w.slots[id].value
}

// Resolve looks a value up by name. Unregistered and unbound names both
// resolve to nil; callers cannot tell them apart.
func (w *World) Resolve(name string) any {
	id, ok := w.ids[name]
	if !ok {
		return nil
	}
	return w.slots[id].value
}

// RegisterAndBind registers name (or reuses its id), binds value and records
// destructor for Destroy.
func (w *World) RegisterAndBind(name string, value any, destructor Destructor) (ComponentID, error) {
	id := w.RegisterComponent(name)
	if err := w.Bind(id, value); err != nil {
		return id, err
	}
	w.slots[id].destructor = destructor
	return id, nil
}

// Destroy runs the stored destructor on the bound value, empties the slot and
// forgets name. Unknown names are ignored.
func (w *World) Destroy(name string) {
	id, ok := w.ids[name]
	if !ok {
		return
	}
	s := w.slots[id]
	w.slots[id] = slot{}
	delete(w.ids, name)
	if s.destructor != nil && s.value != nil {
		s.destructor(s.value)
	}
}

// Lookup reports the id currently registered for name.
func (w *World) Lookup(name string) (ComponentID, bool) {
	id, ok := w.ids[name]
	return id, ok
}

// Names returns the registered component names, sorted.
func (w *World) Names() []string {
	names := make([]string, 0, len(w.ids))
	for name := range w.ids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered names.
func (w *World) Len() int {
	return len(w.ids)
}

func (w *World) nameOf(id ComponentID) string {
	for name, nid := range w.ids {
		if nid == id {
			return name
		}
	}
	return ""
}
