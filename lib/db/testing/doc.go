// Package testing provides a conformance suite and benchmarks for
// implementations of db.Engine, plus in-memory fakes of the collaborators of
// the handle registry.
//
// The package contains:
//   - RunEngineTests: validates an engine against the db.Engine contract
//   - RunEngineBenchmarks: measures throughput of common engine operations
//   - MemEngine, MemCatalog, MemMarkers, CountingLoader: fakes that record how
//     often they are called, so tests can assert that an operation did (or did
//     not) touch storage
//
// Example usage:
//
//	factory := func(t testing.TB) db.Engine {
//		return NewMyEngine(t.TempDir())
//	}
//
//	dbtesting.RunEngineTests(t, "MyEngine", factory)
//	dbtesting.RunEngineBenchmarks(b, "MyEngine", factory)
package testing
