// Package badger provides the default storage engine of a database handle,
// backed by BadgerDB (github.com/dgraph-io/badger/v4).
//
// Every database owns one BadgerDB instance in its data directory
// (<root>/<name>/data). BadgerDB holds a directory lock while it is open, so
// at most one engine per database may exist in a process. The handle registry
// guarantees this by constructing each handle only once and by closing evicted
// engines before a new one can be constructed.
//
// Usage:
//
//	loader := badger.NewLoader(cat, badger.Options{CacheMB: 64})
//	reg := registry.New(registry.Options{Loader: loader, ...})
package badger
