package index

// Arena is the dense ID-to-payload mapping owned by an index instance.
//
// Payloads are stored in insertion order; the vector ID assigned by the
// backend equals the payload's position. Backends store and return only IDs,
// never payload references, so payload ownership stays in one place.
type Arena[T any] struct {
	items []T
}

// NewArena creates an arena with the given capacity hint.
func NewArena[T any](capacityHint int) *Arena[T] {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Arena[T]{items: make([]T, 0, capacityHint)}
}

// Append stores payloads in order, continuing the ID sequence.
func (a *Arena[T]) Append(items []T) {
	a.items = append(a.items, items...)
}

// Get returns the payload for a vector ID. The ID must have been assigned by
// the owning index.
func (a *Arena[T]) Get(id uint32) T {
	return a.items[id]
}

// Len returns the number of stored payloads.
func (a *Arena[T]) Len() int {
	return len(a.items)
}
