package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// KV is an embedded key-value store. Implementations are safe for
// concurrent use.
type KV interface {
	// Get returns ErrKeyNotFound when key is absent.
	Get(ctx context.Context, key []byte) ([]byte, error)
	Set(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch writes every pair in one transaction.
	Batch(ctx context.Context, pairs ...Pair) error

	// Scan visits keys with prefix in key order until fn returns false.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	Close() error
}

// Pair is one key-value write.
type Pair struct {
	Key   []byte
	Value []byte
}

// KVConfig configures the Badger engine.
type KVConfig struct {
	// Dir is the storage directory; ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in memory.
	InMemory bool

	// SyncWrites fsyncs after every write.
	SyncWrites bool

	// GCInterval between value log GC runs; 0 disables them.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to value log GC (0.0-1.0).
	GCThreshold float64
}

// DefaultKVConfig returns the default configuration for dir.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Dir:         dir,
		SyncWrites:  true,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
	}
}
