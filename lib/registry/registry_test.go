package registry

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/kvbase/lib/db"
	dbtesting "github.com/ValentinKolb/kvbase/lib/db/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	catalog *dbtesting.MemCatalog
	markers *dbtesting.MemMarkers
	loader  *dbtesting.CountingLoader
	reg     *Registry
}

func newFixture(t *testing.T, evictIdle bool, names ...string) *fixture {
	t.Helper()
	f := &fixture{
		catalog: dbtesting.NewMemCatalog(),
		markers: dbtesting.NewMemMarkers(),
		loader:  dbtesting.NewCountingLoader(),
	}
	for _, name := range names {
		f.catalog.PutMeta(t, dbtesting.Meta(name), "a.xml", "b.xml")
	}
	f.reg = New(Options{
		Catalog:   f.catalog,
		Markers:   f.markers,
		Loader:    f.loader,
		EvictIdle: evictIdle,
	})
	t.Cleanup(func() { _ = f.reg.CloseAll() })
	return f
}

func allow(db.Metadata) bool { return true }
func deny(db.Metadata) bool  { return false }

func requireCode(t *testing.T, err error, code db.ErrCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, db.CodeOf(err), "unexpected error: %v", err)
}

// --------------------------------------------------------------------------
// Open
// --------------------------------------------------------------------------

func TestOpenConstructsOnce(t *testing.T) {
	f := newFixture(t, false, "sales")

	h1, err := f.reg.OpenOrCreate("sales", allow)
	require.NoError(t, err)
	h2, err := f.reg.OpenOrCreate("sales", allow)
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.Equal(t, 1, f.loader.Count("sales"))
	assert.Equal(t, 2, h1.Resources().Len())

	pins, ok := f.reg.Pins("sales")
	assert.True(t, ok)
	assert.Equal(t, 2, pins)
}

func TestOpenNotFound(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.reg.OpenOrCreate("missing", allow)
	requireCode(t, err, db.ErrCNotFound)
	assert.Equal(t, "database 'missing' was not found", err.Error())
	assert.Equal(t, 0, f.reg.Len())
}

func TestOpenUpdateInProgress(t *testing.T) {
	f := newFixture(t, false, "sales")
	f.markers.Set("sales")

	_, err := f.reg.OpenOrCreate("sales", allow)
	requireCode(t, err, db.ErrCUpdateInProgress)
	assert.Equal(t, 0, f.reg.Len())
	assert.Equal(t, 0, f.loader.Total())

	// once the marker is gone the database opens normally
	f.markers.Clear("sales")
	_, err = f.reg.OpenOrCreate("sales", allow)
	require.NoError(t, err)
	assert.Equal(t, 1, f.loader.Count("sales"))
}

func TestOpenCachedIgnoresMarker(t *testing.T) {
	f := newFixture(t, false, "sales")

	_, err := f.reg.OpenOrCreate("sales", allow)
	require.NoError(t, err)

	// a marker written after construction does not affect the cached handle
	f.markers.Set("sales")
	_, err = f.reg.OpenOrCreate("sales", allow)
	require.NoError(t, err)

	pins, _ := f.reg.Pins("sales")
	assert.Equal(t, 2, pins)
}

func TestOpenPermissionDenied(t *testing.T) {
	t.Run("Uncached", func(t *testing.T) {
		f := newFixture(t, false, "sales")

		_, err := f.reg.OpenOrCreate("sales", deny)
		requireCode(t, err, db.ErrCPermissionDenied)
		assert.Equal(t, "read permission required for database 'sales'", err.Error())
		assert.Equal(t, 0, f.reg.Len())
		assert.Equal(t, 0, f.loader.Total(), "engine must not be loaded without permission")
	})

	t.Run("Cached", func(t *testing.T) {
		f := newFixture(t, false, "sales")

		_, err := f.reg.OpenOrCreate("sales", allow)
		require.NoError(t, err)

		_, err = f.reg.OpenOrCreate("sales", deny)
		requireCode(t, err, db.ErrCPermissionDenied)

		pins, ok := f.reg.Pins("sales")
		assert.True(t, ok)
		assert.Equal(t, 1, pins, "denied open must not leave a pin behind")
	})

	t.Run("CheckSeesMetadata", func(t *testing.T) {
		f := newFixture(t, false, "sales")

		var seen db.Metadata
		_, err := f.reg.OpenOrCreate("sales", func(m db.Metadata) bool {
			seen = m
			return true
		})
		require.NoError(t, err)
		assert.Equal(t, "sales", seen.Name)
		assert.Equal(t, uint32(2), seen.Resources)
	})
}

func TestOpenIOFailure(t *testing.T) {
	t.Run("UnparseableHeader", func(t *testing.T) {
		f := newFixture(t, false)
		f.catalog.Put("broken", []byte("garbage"))

		_, err := f.reg.OpenOrCreate("broken", allow)
		requireCode(t, err, db.ErrCIOFailure)
		assert.Equal(t, 0, f.reg.Len())
		assert.Equal(t, 0, f.loader.Total())
	})

	t.Run("TruncatedResources", func(t *testing.T) {
		f := newFixture(t, false)
		raw := dbtesting.EncodeHeader(t, dbtesting.Meta("cut"), "a.xml")
		f.catalog.Put("cut", raw[:len(raw)-3])

		_, err := f.reg.OpenOrCreate("cut", allow)
		requireCode(t, err, db.ErrCIOFailure)
		assert.Equal(t, 0, f.reg.Len())
	})

	t.Run("EngineFailure", func(t *testing.T) {
		f := newFixture(t, false, "sales")
		f.loader.Fail("sales", errors.New("disk on fire"))

		_, err := f.reg.OpenOrCreate("sales", allow)
		requireCode(t, err, db.ErrCIOFailure)
		assert.Contains(t, err.Error(), "disk on fire")
		assert.Equal(t, 0, f.reg.Len())
	})
}

func TestOpenDamagedHeader(t *testing.T) {
	f := newFixture(t, false)
	m := dbtesting.Meta("old")
	f.catalog.PutLegacy(t, m, "x.xml")

	raw := dbtesting.EncodeHeader(t, dbtesting.Meta("other"))
	f.catalog.Put("renamed", raw)

	h, err := f.reg.OpenOrCreate("old", allow)
	require.NoError(t, err)
	assert.True(t, h.Meta().Legacy)
	assert.False(t, h.Meta().Corrupt)

	h, err = f.reg.OpenOrCreate("renamed", allow)
	require.NoError(t, err)
	assert.True(t, h.Meta().Corrupt)
	assert.Equal(t, "renamed", h.Name())
}

// --------------------------------------------------------------------------
// Contract
// --------------------------------------------------------------------------

func TestContractViolations(t *testing.T) {
	f := newFixture(t, false, "sales")

	h, err := f.reg.OpenOrCreate("sales", allow)
	require.NoError(t, err)

	t.Run("DuplicateAdd", func(t *testing.T) {
		dup := db.NewHandle(dbtesting.Meta("sales"), nil, dbtesting.NewMemEngine())
		requireCode(t, f.reg.Add(dup), db.ErrCContract)
		pins, _ := f.reg.Pins("sales")
		assert.Equal(t, 1, pins)
	})

	t.Run("UnpinUnpinned", func(t *testing.T) {
		remaining, err := f.reg.Unpin(h)
		require.NoError(t, err)
		assert.Equal(t, 0, remaining)

		_, err = f.reg.Unpin(h)
		requireCode(t, err, db.ErrCContract)
	})

	t.Run("UnpinForeign", func(t *testing.T) {
		foreign := db.NewHandle(dbtesting.Meta("nobody"), nil, nil)
		_, err := f.reg.Unpin(foreign)
		requireCode(t, err, db.ErrCContract)
	})

	t.Run("IdleEntryStays", func(t *testing.T) {
		_, ok := f.reg.Pins("sales")
		assert.True(t, ok, "an unpinned entry stays cached")
		assert.False(t, f.reg.Pinned("sales"))
	})
}

func TestPinMissDoesNothing(t *testing.T) {
	f := newFixture(t, false, "sales")

	h, ok := f.reg.Pin("sales")
	assert.False(t, ok)
	assert.Nil(t, h)
	assert.Equal(t, int64(0), f.catalog.Calls())
}

// --------------------------------------------------------------------------
// Concurrency
// --------------------------------------------------------------------------

func TestConcurrentOpenSameName(t *testing.T) {
	f := newFixture(t, false, "shared")
	f.loader.Delay = 5 * time.Millisecond

	const n = 32
	handles := make([]*db.Handle, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := f.reg.OpenOrCreate("shared", allow)
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.loader.Count("shared"))
	pins, _ := f.reg.Pins("shared")
	assert.Equal(t, n, pins)
	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
}

func TestConcurrentOpenDistinctNames(t *testing.T) {
	const m = 8
	names := make([]string, m)
	for i := range names {
		names[i] = fmt.Sprintf("db%d", i)
	}
	f := newFixture(t, false, names...)
	f.loader.Delay = 2 * time.Millisecond

	var wg sync.WaitGroup
	for _, name := range names {
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				_, err := f.reg.OpenOrCreate(name, allow)
				assert.NoError(t, err)
			}(name)
		}
	}
	wg.Wait()

	assert.Equal(t, m, f.reg.Len())
	assert.Equal(t, names, f.reg.Names())
	for _, name := range names {
		assert.Equal(t, 1, f.loader.Count(name), name)
		pins, _ := f.reg.Pins(name)
		assert.Equal(t, 4, pins, name)
	}
}

// --------------------------------------------------------------------------
// Leases and eviction
// --------------------------------------------------------------------------

func TestLeaseReleaseOnce(t *testing.T) {
	f := newFixture(t, false, "sales")

	l1, err := f.reg.Acquire("sales", allow)
	require.NoError(t, err)
	l2, err := f.reg.Acquire("sales", allow)
	require.NoError(t, err)
	assert.Equal(t, "sales", l1.Name())

	require.NoError(t, l1.Release())
	require.NoError(t, l1.Release())

	pins, _ := f.reg.Pins("sales")
	assert.Equal(t, 1, pins, "second release of the same lease must not unpin")

	require.NoError(t, l2.Release())
	assert.False(t, f.reg.Pinned("sales"))
}

func TestEvictIdle(t *testing.T) {
	f := newFixture(t, true, "sales")

	lease, err := f.reg.Acquire("sales", allow)
	require.NoError(t, err)
	require.NoError(t, lease.Release())

	assert.Equal(t, 0, f.reg.Len())
	engines := f.loader.Engines("sales")
	require.Len(t, engines, 1)
	assert.True(t, engines[0].Closed())

	// a following open constructs a new handle
	_, err = f.reg.Acquire("sales", allow)
	require.NoError(t, err)
	assert.Equal(t, 2, f.loader.Count("sales"))
}

func TestEvict(t *testing.T) {
	f := newFixture(t, false, "sales")

	lease, err := f.reg.Acquire("sales", allow)
	require.NoError(t, err)

	evicted, err := f.reg.Evict("sales")
	require.NoError(t, err)
	assert.False(t, evicted, "pinned handles are not evicted")

	require.NoError(t, lease.Release())
	evicted, err = f.reg.Evict("sales")
	require.NoError(t, err)
	assert.True(t, evicted)
	assert.True(t, f.loader.Engines("sales")[0].Closed())

	evicted, err = f.reg.Evict("sales")
	require.NoError(t, err)
	assert.False(t, evicted)
}

func TestWithOpenDatabase(t *testing.T) {
	f := newFixture(t, false, "sales")

	t.Run("ReleasesOnError", func(t *testing.T) {
		boom := errors.New("boom")
		err := f.reg.WithOpenDatabase("sales", allow, func(h *db.Handle) error {
			assert.True(t, f.reg.Pinned("sales"))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.False(t, f.reg.Pinned("sales"))
	})

	t.Run("ReleasesOnPanic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = f.reg.WithOpenDatabase("sales", allow, func(h *db.Handle) error {
				panic("boom")
			})
		})
		assert.False(t, f.reg.Pinned("sales"))
	})

	t.Run("OpenFailure", func(t *testing.T) {
		called := false
		err := f.reg.WithOpenDatabase("missing", allow, func(h *db.Handle) error {
			called = true
			return nil
		})
		requireCode(t, err, db.ErrCNotFound)
		assert.False(t, called)
	})
}

func TestCloseAll(t *testing.T) {
	f := newFixture(t, false, "a", "b")

	_, err := f.reg.Acquire("a", allow)
	require.NoError(t, err)
	_, err = f.reg.Acquire("b", allow)
	require.NoError(t, err)

	require.NoError(t, f.reg.CloseAll())
	assert.Equal(t, 0, f.reg.Len())
	assert.True(t, f.loader.Engines("a")[0].Closed())
	assert.True(t, f.loader.Engines("b")[0].Closed())
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, false, "sales")

	_, err := f.reg.OpenOrCreate("sales", allow)
	require.NoError(t, err)
	_, err = f.reg.OpenOrCreate("missing", allow)
	require.Error(t, err)

	var buf bytes.Buffer
	f.reg.Metrics().WritePrometheus(&buf)
	out := buf.String()

	assert.Contains(t, out, "kvbase_registry_constructions_total 1")
	assert.Contains(t, out, "kvbase_registry_entries 1")
	assert.Contains(t, out, `kvbase_registry_open_failures_total{code="NotFound"} 1`)
}
