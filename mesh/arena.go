package mesh

import "fmt"

// Handle is a stable index into an Arena. Handles are never reused.
type Handle int

const NoHandle Handle = -1

func (h Handle) Valid() bool { return h != NoHandle }

// Arena owns a growing set of records addressed by Handle. Freed slots stay dead.
type Arena[T any] struct {
	items []T
	live  []bool
	count int
}

func NewArena[T any](capacity int) *Arena[T] {
	return &Arena[T]{
		items: make([]T, 0, capacity),
		live:  make([]bool, 0, capacity),
	}
}

func (a *Arena[T]) Alloc(item T) (h Handle) {
	h = Handle(len(a.items))
	a.items = append(a.items, item)
	a.live = append(a.live, true)
	a.count++
	return
}

// AllocN allocates len(items) contiguous slots and returns the first handle.
func (a *Arena[T]) AllocN(items []T) (first Handle) {
	first = Handle(len(a.items))
	for _, it := range items {
		a.Alloc(it)
	}
	return
}

func (a *Arena[T]) Free(h Handle) {
	if !a.Live(h) {
		panic(fmt.Errorf("free of dead arena handle %d", h))
	}
	var zero T
	a.items[h] = zero
	a.live[h] = false
	a.count--
}

func (a *Arena[T]) Live(h Handle) bool {
	return h >= 0 && int(h) < len(a.items) && a.live[h]
}

// Get returns the record at h, the zero value for a dead or invalid handle.
func (a *Arena[T]) Get(h Handle) (item T) {
	if a.Live(h) {
		item = a.items[h]
	}
	return
}

// Len is the number of slots ever allocated.
func (a *Arena[T]) Len() int { return len(a.items) }

// Count is the number of live records.
func (a *Arena[T]) Count() int { return a.count }

// Each visits the live records in ascending handle order.
func (a *Arena[T]) Each(fn func(h Handle, item T)) {
	for i, ok := range a.live {
		if ok {
			fn(Handle(i), a.items[i])
		}
	}
}
