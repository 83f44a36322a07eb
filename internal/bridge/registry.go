package bridge

import (
	"slices"
)

// Registry maps hub device ids to handlers.
//
// Handlers are added once at enumeration and never removed. It is not safe
// for concurrent use; only the event loop touches it.
type Registry struct {
	handlers map[int]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[int]Handler)}
}

// Add registers h. It returns false and keeps the existing handler when
// the id is already taken.
func (r *Registry) Add(h Handler) bool {
	if _, exists := r.handlers[h.ID()]; exists {
		return false
	}
	r.handlers[h.ID()] = h
	return true
}

// Get returns the handler for id.
func (r *Registry) Get(id int) (Handler, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// Snapshots returns every handler's snapshot ordered by device id.
func (r *Registry) Snapshots() []DeviceSnapshot {
	ids := make([]int, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]DeviceSnapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.handlers[id].Snapshot())
	}
	return out
}
