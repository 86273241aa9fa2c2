package catalog

import (
	"errors"
	"os"
	"testing"

	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/ValentinKolb/kvbase/lib/db/meta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndOpenInfo(t *testing.T) {
	c := NewFSCatalog(t.TempDir())
	assert.False(t, c.Exists("sales"))

	created, err := c.Create("sales", []string{"2024/q1.xml", "2024/q2.xml"})
	require.NoError(t, err)
	assert.True(t, c.Exists("sales"))

	rc, err := c.OpenInfo("sales")
	require.NoError(t, err)
	defer rc.Close()

	m, err := meta.Read(rc, "sales")
	require.NoError(t, err)
	assert.Equal(t, created.Name, m.Name)
	assert.Equal(t, uint32(2), m.Resources)
	assert.False(t, m.Corrupt)
	assert.False(t, m.Legacy)

	resources, err := meta.ReadResources(rc)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024/q1.xml", "2024/q2.xml"}, resources.Paths())
}

func TestCreateRejects(t *testing.T) {
	c := NewFSCatalog(t.TempDir())

	_, err := c.Create("../etc", nil)
	assert.True(t, errors.Is(err, db.ErrInvalidName))

	_, err = c.Create("sales", nil)
	require.NoError(t, err)
	_, err = c.Create("sales", nil)
	assert.True(t, errors.Is(err, db.ErrExists))
}

func TestListAndDrop(t *testing.T) {
	root := t.TempDir()
	c := NewFSCatalog(root)

	names, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := c.Create(name, nil)
		require.NoError(t, err)
	}
	// a directory without header is not a database
	require.NoError(t, os.Mkdir(c.Dir("stray"), 0o755))

	names, err = c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)

	require.NoError(t, c.Drop("mid"))
	assert.False(t, c.Exists("mid"))
	assert.True(t, errors.Is(c.Drop("mid"), db.ErrNotFound))
}

func TestListMissingRoot(t *testing.T) {
	c := NewFSCatalog(t.TempDir() + "/missing")
	names, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}
