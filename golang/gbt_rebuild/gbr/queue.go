package gbr

//queue is a FIFO over a slice. Popped slots are zeroed so the queue does not pin
//nodes of finished trees.
type queue[T any] struct {
	items []T
	head  int
}

func (q *queue[T]) Len() int {
	return len(q.items) - q.head
}

func (q *queue[T]) Push(item T) {
	if q.head > 0 && q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	q.items = append(q.items, item)
}

//Front returns the oldest item. ok is false when the queue is empty.
func (q *queue[T]) Front() (item T, ok bool) {
	if q.Len() == 0 {
		return item, false
	}
	return q.items[q.head], true
}

//Pop removes the oldest item. ok is false when the queue is empty.
func (q *queue[T]) Pop() (item T, ok bool) {
	if q.Len() == 0 {
		return item, false
	}
	item = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	return item, true
}

