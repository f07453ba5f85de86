package store

import "slices"

// orderedMap is a map that remembers key insertion order. Overwriting an
// existing key keeps its original position.
type orderedMap[V any] struct {
	keys []string
	vals map[string]V
}

func newOrderedMap[V any]() orderedMap[V] {
	return orderedMap[V]{vals: make(map[string]V)}
}

func (m *orderedMap[V]) get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

func (m *orderedMap[V]) set(key string, v V) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

func (m *orderedMap[V]) delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

func (m *orderedMap[V]) len() int {
	return len(m.keys)
}

// each calls fn in insertion order over a copy of the keys, so fn may
// delete entries.
func (m *orderedMap[V]) each(fn func(key string, v V)) {
	for _, k := range slices.Clone(m.keys) {
		if v, ok := m.vals[k]; ok {
			fn(k, v)
		}
	}
}
