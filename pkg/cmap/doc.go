// Package cmap provides a sharded concurrent map.
//
// Keys are spread over a power-of-two number of shards by the murmur3
// hash of their string form; each shard has its own RWMutex.
//
// Usage:
//
//	m := cmap.New[string, Session]()
//	m.Set(id, session)
//	s, ok := m.Get(id)
//
// Range and the slice helpers lock shard by shard, so they do not see a
// consistent snapshot of the whole map.
package cmap
