package testing

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/ValentinKolb/kvbase/lib/db/meta"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrClosed is returned by a MemEngine after Close.
var ErrClosed = errors.New("engine is closed")

// --------------------------------------------------------------------------
// MemEngine
// --------------------------------------------------------------------------

// MemEngine is a map backed db.Engine.
type MemEngine struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed atomic.Bool
}

func NewMemEngine() *MemEngine {
	return &MemEngine{data: make(map[string][]byte)}
}

func (e *MemEngine) Get(key []byte) ([]byte, bool, error) {
	if e.closed.Load() {
		return nil, false, ErrClosed
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

func (e *MemEngine) Put(key, value []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data[string(key)] = append([]byte{}, value...)
	return nil
}

func (e *MemEngine) Close() error {
	e.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (e *MemEngine) Closed() bool {
	return e.closed.Load()
}

// --------------------------------------------------------------------------
// MemCatalog
// --------------------------------------------------------------------------

// MemCatalog keeps header files in memory. It implements catalog.ICatalog
// and counts every call, so tests can assert that no storage was touched.
type MemCatalog struct {
	headers *xsync.MapOf[string, []byte]
	calls   atomic.Int64
}

func NewMemCatalog() *MemCatalog {
	return &MemCatalog{headers: xsync.NewMapOf[string, []byte]()}
}

// Put stores the raw header file of name.
func (c *MemCatalog) Put(name string, raw []byte) {
	c.headers.Store(name, raw)
}

// PutMeta stores a current format header for m with the given resources.
func (c *MemCatalog) PutMeta(t testing.TB, m db.Metadata, paths ...string) {
	t.Helper()
	c.Put(m.Name, EncodeHeader(t, m, paths...))
}

// PutLegacy stores a legacy format header for m with the given resources.
func (c *MemCatalog) PutLegacy(t testing.TB, m db.Metadata, paths ...string) {
	t.Helper()
	var buf bytes.Buffer
	if err := meta.WriteLegacy(&buf, m, db.NewResources(paths)); err != nil {
		t.Fatalf("writing legacy header: %v", err)
	}
	c.Put(m.Name, buf.Bytes())
}

// Remove deletes the header of name.
func (c *MemCatalog) Remove(name string) {
	c.headers.Delete(name)
}

func (c *MemCatalog) Exists(name string) bool {
	c.calls.Add(1)
	_, ok := c.headers.Load(name)
	return ok
}

func (c *MemCatalog) OpenInfo(name string) (io.ReadCloser, error) {
	c.calls.Add(1)
	raw, ok := c.headers.Load(name)
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

// Calls returns the number of Exists and OpenInfo calls.
func (c *MemCatalog) Calls() int64 {
	return c.calls.Load()
}

// EncodeHeader returns a current format header file for m.
func EncodeHeader(t testing.TB, m db.Metadata, paths ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := meta.Write(&buf, m, db.NewResources(paths)); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	return buf.Bytes()
}

// Meta returns plausible metadata for a database called name.
func Meta(name string) db.Metadata {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return db.Metadata{Name: name, Created: ts, Modified: ts, Size: 1024}
}

// --------------------------------------------------------------------------
// MemMarkers
// --------------------------------------------------------------------------

// MemMarkers is an in-memory set of update markers. It implements
// lockmgr.IMarkers.
type MemMarkers struct {
	set *xsync.MapOf[string, struct{}]
}

func NewMemMarkers() *MemMarkers {
	return &MemMarkers{set: xsync.NewMapOf[string, struct{}]()}
}

func (m *MemMarkers) Set(name string) {
	m.set.Store(name, struct{}{})
}

func (m *MemMarkers) Clear(name string) {
	m.set.Delete(name)
}

func (m *MemMarkers) Exists(name string) bool {
	_, ok := m.set.Load(name)
	return ok
}

// --------------------------------------------------------------------------
// CountingLoader
// --------------------------------------------------------------------------

// CountingLoader creates MemEngines and counts constructions per database.
type CountingLoader struct {
	// Delay is slept before every construction.
	Delay time.Duration

	counts  *xsync.MapOf[string, int]
	fail    *xsync.MapOf[string, error]
	engines *xsync.MapOf[string, []*MemEngine]
}

func NewCountingLoader() *CountingLoader {
	return &CountingLoader{
		counts:  xsync.NewMapOf[string, int](),
		fail:    xsync.NewMapOf[string, error](),
		engines: xsync.NewMapOf[string, []*MemEngine](),
	}
}

// Fail makes every following Load of name return err.
func (l *CountingLoader) Fail(name string, err error) {
	l.fail.Store(name, err)
}

func (l *CountingLoader) Load(m db.Metadata) (db.Engine, error) {
	if l.Delay > 0 {
		time.Sleep(l.Delay)
	}
	l.counts.Compute(m.Name, func(old int, _ bool) (int, bool) {
		return old + 1, false
	})
	if err, ok := l.fail.Load(m.Name); ok {
		return nil, err
	}
	engine := NewMemEngine()
	l.engines.Compute(m.Name, func(old []*MemEngine, _ bool) ([]*MemEngine, bool) {
		return append(old, engine), false
	})
	return engine, nil
}

// Count returns how often the engine of name was constructed.
func (l *CountingLoader) Count(name string) int {
	n, _ := l.counts.Load(name)
	return n
}

// Total returns the number of constructions over all databases.
func (l *CountingLoader) Total() int {
	total := 0
	l.counts.Range(func(_ string, n int) bool {
		total += n
		return true
	})
	return total
}

// Engines returns all engines constructed for name, oldest first.
func (l *CountingLoader) Engines(name string) []*MemEngine {
	engines, _ := l.engines.Load(name)
	return engines
}
