package badger

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/kvbase/lib/catalog"
	"github.com/ValentinKolb/kvbase/lib/db"
	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("engine")

// Options configures the BadgerDB instances created by a Loader.
type Options struct {
	// CacheMB is the block cache size in MB (0 = BadgerDB default).
	CacheMB int64
	// InMemory keeps all data in memory, nothing is written to the data directory.
	InMemory bool
}

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// Engine is a db.Engine backed by one BadgerDB instance.
type Engine struct {
	db   *badgerdb.DB
	path string
}

// Open opens (or creates) the BadgerDB instance in dir.
func Open(dir string, opts Options) (*Engine, error) {
	var bopts badgerdb.Options
	if opts.InMemory {
		bopts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badgerdb.DefaultOptions(dir)
	}
	bopts = bopts.WithLogger(log)
	if opts.CacheMB > 0 {
		bopts = bopts.WithBlockCacheSize(opts.CacheMB << 20)
	}

	bdb, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", dir, err)
	}
	log.Debugf("opened engine at %s (in-memory=%v)", dir, opts.InMemory)
	return &Engine{db: bdb, path: dir}, nil
}

func (e *Engine) Get(key []byte) ([]byte, bool, error) {
	var value []byte
	err := e.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

func (e *Engine) Put(key, value []byte) error {
	return e.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	})
}

// Keys returns the number of keys stored in the engine.
func (e *Engine) Keys() (int, error) {
	count := 0
	err := e.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (e *Engine) Close() error {
	log.Debugf("closing engine at %s", e.path)
	return e.db.Close()
}

// --------------------------------------------------------------------------
// Loader
// --------------------------------------------------------------------------

// Loader opens the engine of a database in its catalog data directory.
// It implements registry.Loader.
type Loader struct {
	catalog *catalog.FSCatalog
	opts    Options
}

func NewLoader(c *catalog.FSCatalog, opts Options) *Loader {
	return &Loader{catalog: c, opts: opts}
}

func (l *Loader) Load(m db.Metadata) (db.Engine, error) {
	return Open(l.catalog.DataPath(m.Name), l.opts)
}
