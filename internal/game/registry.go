/*
Package game
File: registry.go
Description:
    A stable-keyed entity collection. Go maps iterate in random order, but the
    simulation needs a reproducible order (tower targeting breaks ties by
    "first monster found", so two equidistant monsters must always resolve the
    same way). The registry keeps a map for lookup plus the insertion order;
    deletions preserve the relative order of the survivors.
*/

package game

// registry maps instance ids to entities while remembering insertion order.
// It is not safe for concurrent use; every registry is owned by exactly one
// session and guarded by that session's mutation gate.
type registry[V any] struct {
	order []string
	items map[string]V
}

func newRegistry[V any]() *registry[V] {
	return &registry[V]{items: make(map[string]V)}
}

// Get returns the entity with the given id.
func (r *registry[V]) Get(id string) (V, bool) {
	v, ok := r.items[id]
	return v, ok
}

// Set inserts or replaces an entity. New ids go to the end of the order.
func (r *registry[V]) Set(id string, v V) {
	if _, exists := r.items[id]; !exists {
		r.order = append(r.order, id)
	}
	r.items[id] = v
}

// Delete removes an entity and its order slot.
func (r *registry[V]) Delete(id string) {
	if _, exists := r.items[id]; !exists {
		return
	}
	delete(r.items, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of live entities.
func (r *registry[V]) Len() int { return len(r.items) }

// IDs returns a snapshot of the current ids in insertion order. Callers may
// mutate the registry while walking the snapshot; deleted ids simply fail the
// subsequent Get.
func (r *registry[V]) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Values returns the live entities in insertion order.
func (r *registry[V]) Values() []V {
	out := make([]V, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}
