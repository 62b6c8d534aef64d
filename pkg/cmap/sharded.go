package cmap

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the number of shards New uses.
const DefaultShardCount = 16

// Map is a map safe for concurrent use, split into independently locked
// shards.
type Map[K comparable, V any] struct {
	shards []*shard[K, V]
	mask   uint64
	seed   uint32
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New creates a map with DefaultShardCount shards.
func New[K comparable, V any]() *Map[K, V] {
	return newWithShards[K, V](DefaultShardCount)
}

// newWithShards creates a map with n shards. An n that is not a positive
// power of two selects DefaultShardCount.
func newWithShards[K comparable, V any](n int) *Map[K, V] {
	if n <= 0 || n&(n-1) != 0 {
		n = DefaultShardCount
	}
	m := &Map[K, V]{
		shards: make([]*shard[K, V], n),
		mask:   uint64(n - 1),
		seed:   rand.Uint32(),
	}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{items: make(map[K]V)}
	}
	return m
}

// keyBytes renders key for hashing. Strings and integers, the usual keys,
// avoid fmt.
func keyBytes(key any) []byte {
	switch k := key.(type) {
	case string:
		return []byte(k)
	case int:
		return strconv.AppendInt(nil, int64(k), 10)
	case int32:
		return strconv.AppendInt(nil, int64(k), 10)
	case int64:
		return strconv.AppendInt(nil, k, 10)
	case fmt.Stringer:
		return []byte(k.String())
	default:
		return []byte(fmt.Sprint(k))
	}
}

func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	return m.shards[murmur3.Sum64WithSeed(keyBytes(key), m.seed)&m.mask]
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	return v, ok
}

// Set stores value under key.
func (m *Map[K, V]) Set(key K, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
}

// Delete removes key.
func (m *Map[K, V]) Delete(key K) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// Len returns the number of entries. Concurrent writers may change it
// before it returns.
func (m *Map[K, V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}
