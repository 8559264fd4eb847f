// Package collection provides ordered containers used by the registry.
package collection

import (
	"container/list"
)

// Queue is a FIFO queue. The zero value is ready to use.
type Queue[T any] struct {
	data list.List
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Push(v T) {
	q.data.PushBack(v)
}

// PushAll pushes vs in order.
func (q *Queue[T]) PushAll(vs ...T) {
	for _, v := range vs {
		q.data.PushBack(v)
	}
}

// Pop removes and returns the head of the queue.
// ok is false when the queue is empty.
func (q *Queue[T]) Pop() (v T, ok bool) {
	e := q.data.Front()
	if e == nil {
		return v, false
	}

	q.data.Remove(e)
	return e.Value.(T), true
}

func (q *Queue[T]) Len() int {
	return q.data.Len()
}

// Iter drains the queue. Values pushed while iterating are visited too.
func (q *Queue[T]) Iter(yield func(T) bool) {
	for e := q.data.Front(); e != nil; e = q.data.Front() {
		q.data.Remove(e)

		if !yield(e.Value.(T)) {
			break
		}
	}
}
