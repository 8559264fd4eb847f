package collection

import (
	"container/list"
)

// Multimap maps keys to an ordered list of values.
// Keys iterate in first-insertion order and values of a key iterate in
// insertion order, so the map can be used where declaration order matters.
type Multimap[K, V comparable] struct {
	values map[K]*list.List
	keys   []K
	size   int
}

func NewMultimap[K, V comparable]() *Multimap[K, V] {
	return &Multimap[K, V]{
		values: make(map[K]*list.List),
	}
}

// Put appends v to the values of k.
func (m *Multimap[K, V]) Put(k K, v V) {
	l, ok := m.values[k]
	if !ok {
		l = list.New()
		m.values[k] = l
		m.keys = append(m.keys, k)
	}

	l.PushBack(v)
	m.size++
}

// Remove deletes the first occurrence of v under k.
// The key itself stays present even when its last value is removed.
func (m *Multimap[K, V]) Remove(k K, v V) bool {
	l, ok := m.values[k]
	if !ok {
		return false
	}

	for e := l.Front(); e != nil; e = e.Next() {
		if e.Value.(V) == v {
			l.Remove(e)
			m.size--
			return true
		}
	}

	return false
}

func (m *Multimap[K, V]) ContainsKey(k K) bool {
	_, ok := m.values[k]
	return ok
}

// Count returns how many values are stored under k.
func (m *Multimap[K, V]) Count(k K) int {
	l, ok := m.values[k]
	if !ok {
		return 0
	}
	return l.Len()
}

// Get returns the values of k in insertion order.
func (m *Multimap[K, V]) Get(k K) []V {
	l, ok := m.values[k]
	if !ok {
		return nil
	}

	result := make([]V, 0, l.Len())
	for e := l.Front(); e != nil; e = e.Next() {
		result = append(result, e.Value.(V))
	}
	return result
}

// Keys returns the keys in first-insertion order.
func (m *Multimap[K, V]) Keys() []K {
	result := make([]K, len(m.keys))
	copy(result, m.keys)
	return result
}

// Len returns the number of stored values across all keys.
func (m *Multimap[K, V]) Len() int {
	return m.size
}

// All iterates key/value pairs grouped by key.
func (m *Multimap[K, V]) All(yield func(K, V) bool) {
	for _, k := range m.keys {
		for e := m.values[k].Front(); e != nil; e = e.Next() {
			if !yield(k, e.Value.(V)) {
				return
			}
		}
	}
}
