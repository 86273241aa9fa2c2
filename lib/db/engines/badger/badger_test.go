package badger

import (
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/kvbase/lib/catalog"
	"github.com/ValentinKolb/kvbase/lib/db"
	dbtesting "github.com/ValentinKolb/kvbase/lib/db/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerEngine(t *testing.T) {
	dbtesting.RunEngineTests(t, "Badger", func(t testing.TB) db.Engine {
		e, err := Open(t.TempDir(), Options{})
		require.NoError(t, err)
		return e
	})
}

func TestBadgerEngineInMemory(t *testing.T) {
	dbtesting.RunEngineTests(t, "BadgerInMemory", func(t testing.TB) db.Engine {
		e, err := Open("", Options{InMemory: true})
		require.NoError(t, err)
		return e
	})
}

func BenchmarkBadgerEngine(b *testing.B) {
	dbtesting.RunEngineBenchmarks(b, "Badger", func(t testing.TB) db.Engine {
		e, err := Open(t.TempDir(), Options{})
		require.NoError(t, err)
		return e
	})
}

func TestLoaderPersists(t *testing.T) {
	cat := catalog.NewFSCatalog(t.TempDir())
	_, err := cat.Create("sales", nil)
	require.NoError(t, err)

	loader := NewLoader(cat, Options{})
	m := dbtesting.Meta("sales")

	engine, err := loader.Load(m)
	require.NoError(t, err)
	require.NoError(t, engine.Put([]byte("k"), []byte("v")))
	require.NoError(t, engine.Close())

	assert.DirExists(t, filepath.Join(cat.Root(), "sales", catalog.DataDir))

	// the data survives a reopen
	engine, err = loader.Load(m)
	require.NoError(t, err)
	defer engine.Close()

	value, loaded, err := engine.Get([]byte("k"))
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, []byte("v"), value)

	keys, err := engine.(*Engine).Keys()
	require.NoError(t, err)
	assert.Equal(t, 1, keys)
}

func TestOpenTwiceFails(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir, Options{})
	require.NoError(t, err)
	defer e.Close()

	// BadgerDB holds a directory lock while it is open
	_, err = Open(dir, Options{})
	assert.Error(t, err)
}
