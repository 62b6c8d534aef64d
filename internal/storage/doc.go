// Package storage provides embedded key-value storage.
//
// The stub server keeps its username to user id directory here so that
// ids survive restarts:
//
//   - kv.go: KV interface and configuration
//   - badger.go: Badger v3 implementation (on disk or in memory)
//   - users.go: UserDirectory, the persistent id allocator
package storage
