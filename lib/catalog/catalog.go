// Package catalog maps database names to their directories below the
// database root. Each database lives in its own directory:
//
//	<root>/<name>/inf.kvb   header and resource table (see lib/db/meta)
//	<root>/<name>/upd.kvb   update marker (see lib/lockmgr)
//	<root>/<name>/data/     storage engine files
//
// A database exists if and only if its header file exists.
package catalog

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/ValentinKolb/kvbase/lib/db/meta"
	"github.com/lni/dragonboat/v4/logger"
)

const (
	InfoFile   = "inf.kvb"
	MarkerFile = "upd.kvb"
	DataDir    = "data"
)

var log = logger.GetLogger("catalog")

// ICatalog is the part of the catalog the handle registry depends on.
type ICatalog interface {
	// Exists reports whether a database with the given name exists.
	Exists(name string) (ok bool)
	// OpenInfo opens the header file of the database for reading.
	OpenInfo(name string) (rc io.ReadCloser, err error)
}

// FSCatalog is a catalog backed by a directory on the local filesystem.
type FSCatalog struct {
	root string
}

// NewFSCatalog creates a catalog rooted at root. The directory is created on
// the first Create call if it does not exist.
func NewFSCatalog(root string) *FSCatalog {
	return &FSCatalog{root: root}
}

// Root returns the root directory of the catalog.
func (c *FSCatalog) Root() string {
	return c.root
}

// Dir returns the directory of the named database.
func (c *FSCatalog) Dir(name string) string {
	return filepath.Join(c.root, name)
}

// InfoPath returns the path of the header file of the named database.
func (c *FSCatalog) InfoPath(name string) string {
	return filepath.Join(c.root, name, InfoFile)
}

// MarkerPath returns the path of the update marker of the named database.
func (c *FSCatalog) MarkerPath(name string) string {
	return filepath.Join(c.root, name, MarkerFile)
}

// DataPath returns the storage engine directory of the named database.
func (c *FSCatalog) DataPath(name string) string {
	return filepath.Join(c.root, name, DataDir)
}

func (c *FSCatalog) Exists(name string) bool {
	info, err := os.Stat(c.InfoPath(name))
	return err == nil && info.Mode().IsRegular()
}

func (c *FSCatalog) OpenInfo(name string) (io.ReadCloser, error) {
	return os.Open(c.InfoPath(name))
}

// List returns the names of all databases in alphabetical order.
// Directories without a header file or with an invalid name are skipped.
func (c *FSCatalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && db.ValidName(entry.Name()) && c.Exists(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Create creates a new, empty database with the given resource table.
// The header is written to a temporary file first and renamed into place, so
// a crash never leaves a half written header behind.
func (c *FSCatalog) Create(name string, resources []string) (db.Metadata, error) {
	if !db.ValidName(name) {
		return db.Metadata{}, db.InvalidName(name)
	}
	if c.Exists(name) {
		return db.Metadata{}, db.Exists(name)
	}
	if err := os.MkdirAll(c.Dir(name), 0o755); err != nil {
		return db.Metadata{}, err
	}

	now := time.Now().UTC()
	m := db.Metadata{
		Name:      name,
		Version:   meta.VersionCurrent,
		Created:   now,
		Modified:  now,
		Resources: uint32(len(resources)),
	}

	tmp, err := os.CreateTemp(c.Dir(name), InfoFile+".*")
	if err != nil {
		return db.Metadata{}, err
	}
	defer os.Remove(tmp.Name())

	if err := meta.Write(tmp, m, db.NewResources(resources)); err != nil {
		_ = tmp.Close()
		return db.Metadata{}, err
	}
	if err := tmp.Close(); err != nil {
		return db.Metadata{}, err
	}
	if err := os.Rename(tmp.Name(), c.InfoPath(name)); err != nil {
		return db.Metadata{}, err
	}

	log.Infof("created database %s with %d resources", name, len(resources))
	return m, nil
}

// Drop removes the database directory. The caller is responsible for making
// sure that the database is not opened by anyone.
func (c *FSCatalog) Drop(name string) error {
	if !db.ValidName(name) {
		return db.InvalidName(name)
	}
	if !c.Exists(name) {
		return db.NotFound(name)
	}
	if err := os.RemoveAll(c.Dir(name)); err != nil {
		return err
	}
	log.Infof("dropped database %s", name)
	return nil
}
