package cmap

// Range calls fn for every entry until fn returns false. Each shard is
// read-locked while its entries are visited, so fn must not write to m.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range m.shards {
		if !s.each(fn) {
			return
		}
	}
}

func (s *shard[K, V]) each(fn func(K, V) bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.items {
		if !fn(k, v) {
			return false
		}
	}
	return true
}

// Keys returns the keys.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, 0, m.Len())
	m.Range(func(k K, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Values returns the values.
func (m *Map[K, V]) Values() []V {
	out := make([]V, 0, m.Len())
	m.Range(func(_ K, v V) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Upsert replaces the entry for key with fn(existing, exists) atomically
// and returns the stored value. An absent key passes value as existing.
func (m *Map[K, V]) Upsert(key K, value V, fn func(existing V, exists bool) V) V {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[key]
	if !ok {
		cur = value
	}
	next := fn(cur, ok)
	s.items[key] = next
	return next
}

// Pop removes key and returns the value it held.
func (m *Map[K, V]) Pop(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[key]
	delete(s.items, key)
	return v, ok
}

// DeleteFunc removes every entry for which fn returns true and returns
// the number removed.
func (m *Map[K, V]) DeleteFunc(fn func(key K, value V) bool) int {
	n := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.items {
			if fn(k, v) {
				delete(s.items, k)
				n++
			}
		}
		s.mu.Unlock()
	}
	return n
}
