// Package kv is the persistence provider boundary: a minimal key-value store
// behind which the actual medium (BadgerDB on disk, memory in tests) is
// opaque to the rest of the system.
package kv

import "errors"

// ErrNotFound is returned by Load for keys that have never been saved.
var ErrNotFound = errors.New("kv: key not found")

// Store is a pluggable key-value persistence provider. Implementations must
// be safe for concurrent use.
type Store interface {
	// Load returns the value stored under key, or ErrNotFound.
	Load(key string) ([]byte, error)
	// Save stores value under key, overwriting any previous value.
	Save(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Keys returns all keys with the given prefix, in unspecified order.
	Keys(prefix string) ([]string, error)
	// Sync flushes pending writes to the underlying medium.
	Sync() error
	// Name identifies the storage medium, for health reporting.
	Name() string
	// Close releases the store. No calls may follow Close.
	Close() error
}
