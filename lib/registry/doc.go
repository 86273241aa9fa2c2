// Package registry implements the handle registry: the cache that maps a
// database name to the single live db.Handle of that database together with
// the number of pins held on it.
//
// The registry is an explicit object. It is created by the application
// context (lib/core) and passed to everything that needs it, there is no
// process wide instance.
//
// Critical Section:
//
//	All mutations of the registry happen under one mutex. OpenOrCreate holds
//	that mutex for the complete lookup and, on a miss, for the complete
//	construction of the handle including all file I/O. Two concurrent opens of
//	a database that is not cached yet are therefore serialized: the first one
//	constructs the handle, the second one finds it in the cache and pins it.
//	Construction is serialized across all names, which trades parallelism for
//	the guarantee that no database is ever constructed twice.
//
//	A failing construction never leaves an entry behind. The entry is added
//	only after the handle was fully constructed.
//
// Pins and Leases:
//
//	Pin, Unpin and Add are the low level operations. Unpinning a handle that
//	is not pinned and adding a handle whose name is already registered are
//	contract violations and are reported as db.ErrContract.
//
//	Callers outside of this package should use Acquire, which returns a
//	Lease. A Lease releases its pin exactly once no matter how often Release
//	is called. WithOpenDatabase wraps Acquire and releases the lease on every
//	exit path of the callback.
//
// Eviction:
//
//	A pin count of zero makes an entry eligible for eviction, it does not
//	remove it. With Options.EvictIdle the registry evicts and closes a handle
//	as soon as its last lease is released. Otherwise idle handles stay cached
//	until Evict or CloseAll is called.
//
// Metrics:
//
//	Each registry maintains a VictoriaMetrics metrics.Set with counters for
//	pins, unpins, constructions, evictions and failures (by error code) and a
//	gauge for the number of entries.
package registry
