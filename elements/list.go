package elements

// Link is the intrusive successor pointer a record embeds to sit on a List.
type Link[T any] struct {
	next T
}

// Linked records expose their own link. The zero value of T terminates a list.
type Linked[T any] interface {
	comparable
	Link() *Link[T]
}

// List is a singly linked list threaded through its records. Traversal is in insertion order.
type List[T Linked[T]] struct {
	head, tail T
	n          int
}

func (l *List[T]) Len() int { return l.n }

func (l *List[T]) Front() T { return l.head }

// Next returns the successor of e, the zero value at the end.
func (l *List[T]) Next(e T) T { return e.Link().next }

// PushBack appends e. A record may be on one list at a time.
func (l *List[T]) PushBack(e T) {
	var zero T
	e.Link().next = zero
	if l.head == zero {
		l.head = e
	} else {
		l.tail.Link().next = e
	}
	l.tail = e
	l.n++
}

// Clear unlinks every record.
func (l *List[T]) Clear() {
	var zero T
	for e := l.head; e != zero; {
		next := e.Link().next
		e.Link().next = zero
		e = next
	}
	l.head, l.tail, l.n = zero, zero, 0
}

// Each visits the records in order until fn returns false.
func (l *List[T]) Each(fn func(e T) bool) {
	var zero T
	for e := l.head; e != zero; e = e.Link().next {
		if !fn(e) {
			return
		}
	}
}

// Slice copies the records in order.
func (l *List[T]) Slice() (s []T) {
	s = make([]T, 0, l.n)
	l.Each(func(e T) bool {
		s = append(s, e)
		return true
	})
	return
}
