// Package kvstore provides read-only access to the key-value store a geth
// node keeps its recent chain data in. The same chaindata directory can be
// backed by leveldb, pebble or badger depending on the client flavor; the
// backend is picked from on-disk markers unless forced.
package kvstore

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested key is absent, regardless of
// backend.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a read-only key-value store.
type Store interface {
	// Get returns the value for the key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Has reports whether the key exists.
	Has(key []byte) (bool, error)

	// Scan calls fn for every key-value pair under prefix, in key order,
	// until fn returns an error or limit pairs were visited (limit <= 0
	// means no limit). The slices are only valid for the duration of the
	// call.
	Scan(prefix []byte, limit int, fn func(key, value []byte) error) error

	// Close releases the store.
	Close() error
}

// Backend identifiers accepted by Open.
const (
	BackendLevelDB = "leveldb"
	BackendPebble  = "pebbledb"
	BackendBadger  = "badgerdb"
)

// Open opens the store at path read-only. An empty backend auto-detects the
// database type from directory markers.
func Open(path, backend string) (Store, error) {
	if backend == "" {
		backend = Detect(path)
	}
	switch backend {
	case BackendLevelDB:
		return openLevelDB(path)
	case BackendPebble:
		return openPebble(path)
	case BackendBadger:
		return openBadger(path)
	default:
		return nil, fmt.Errorf("unknown kvstore backend %q", backend)
	}
}
