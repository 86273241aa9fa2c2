package registry

import (
	"bufio"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ValentinKolb/kvbase/lib/catalog"
	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/ValentinKolb/kvbase/lib/db/meta"
	"github.com/ValentinKolb/kvbase/lib/lockmgr"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("registry")

// PermCheck reports whether the calling session may read the database
// described by m.
type PermCheck func(m db.Metadata) bool

// Loader constructs the storage engine of a database from its metadata.
type Loader interface {
	Load(m db.Metadata) (engine db.Engine, err error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(m db.Metadata) (db.Engine, error)

func (f LoaderFunc) Load(m db.Metadata) (db.Engine, error) {
	return f(m)
}

// Options configures a Registry.
type Options struct {
	Catalog catalog.ICatalog // Required: existence check and header access
	Markers lockmgr.IMarkers // Required: update marker check
	Loader  Loader           // Required: storage engine construction

	// EvictIdle evicts and closes a handle as soon as its last lease is released.
	EvictIdle bool

	// Metrics is the set the registry registers its metrics in (nil = new set).
	Metrics *metrics.Set
}

type entry struct {
	handle *db.Handle
	pins   int
}

// Registry is the handle registry. The zero value is not usable, use New.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry

	catalog   catalog.ICatalog
	markers   lockmgr.IMarkers
	loader    Loader
	evictIdle bool
	stats     *registryMetrics
}

// New creates an empty registry.
func New(opts Options) *Registry {
	if opts.Catalog == nil || opts.Markers == nil || opts.Loader == nil {
		panic("registry: catalog, markers and loader are required")
	}
	set := opts.Metrics
	if set == nil {
		set = metrics.NewSet()
	}

	r := &Registry{
		entries:   make(map[string]*entry),
		catalog:   opts.Catalog,
		markers:   opts.Markers,
		loader:    opts.Loader,
		evictIdle: opts.EvictIdle,
	}
	r.stats = newRegistryMetrics(set, func() float64 { return float64(r.Len()) })
	return r
}

// Metrics returns the metric set of the registry.
func (r *Registry) Metrics() *metrics.Set {
	return r.stats.set
}

// --------------------------------------------------------------------------
// Low level operations
// --------------------------------------------------------------------------

// Pin pins and returns the cached handle of the named database.
// On a miss nothing happens and false is returned. Pin performs no I/O.
func (r *Registry) Pin(name string) (*db.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pin(name)
}

// Unpin releases one pin of h and returns the remaining pin count.
// The entry stays cached even if the count drops to zero.
func (r *Registry) Unpin(h *db.Handle) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unpin(h)
}

// Add registers a constructed handle with a pin count of one.
func (r *Registry) Add(h *db.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(h)
}

// pin, unpin and add must be called with r.mu held.

func (r *Registry) pin(name string) (*db.Handle, bool) {
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	e.pins++
	r.stats.pins.Inc()
	log.Debugf("pinned %s (pins=%d)", name, e.pins)
	return e.handle, true
}

func (r *Registry) unpin(h *db.Handle) (int, error) {
	e, ok := r.entries[h.Name()]
	if !ok || e.handle != h {
		return 0, r.violation("unpin of database '%s' which is not registered", h.Name())
	}
	if e.pins == 0 {
		return 0, r.violation("unpin of database '%s' which is not pinned", h.Name())
	}
	e.pins--
	r.stats.unpins.Inc()
	log.Debugf("unpinned %s (pins=%d)", h.Name(), e.pins)
	return e.pins, nil
}

func (r *Registry) add(h *db.Handle) error {
	if _, ok := r.entries[h.Name()]; ok {
		return r.violation("database '%s' is already registered", h.Name())
	}
	r.entries[h.Name()] = &entry{handle: h, pins: 1}
	r.stats.pins.Inc()
	return nil
}

func (r *Registry) violation(format string, args ...interface{}) error {
	err := db.NewError(db.ErrCContract, format, args...)
	r.stats.violations.Inc()
	log.Warningf("contract violation: %s", err)
	return err
}

// --------------------------------------------------------------------------
// Open
// --------------------------------------------------------------------------

// OpenOrCreate returns the pinned handle of the named database, constructing
// it if it is not cached. check is evaluated on every call, for cached
// handles as well as for newly read ones.
//
// The whole operation runs in the critical section of the registry. On
// failure the registry is left exactly as it was before the call.
func (r *Registry) OpenOrCreate(name string, check PermCheck) (*db.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, err := r.openOrCreate(name, check)
	if err != nil {
		r.stats.failure(db.CodeOf(err))
		log.Debugf("open of %s failed: %v", name, err)
		return nil, err
	}
	return h, nil
}

func (r *Registry) openOrCreate(name string, check PermCheck) (*db.Handle, error) {
	// Case cached -> only the permissions need to be checked again
	if h, ok := r.pin(name); ok {
		if !check(h.Meta()) {
			if _, err := r.unpin(h); err != nil {
				return nil, err
			}
			return nil, db.PermissionDenied(name)
		}
		return h, nil
	}

	if !r.catalog.Exists(name) {
		return nil, db.NotFound(name)
	}

	// do not open a database that is currently updated
	if r.markers.Exists(name) {
		return nil, db.UpdateInProgress(name)
	}

	h, err := r.construct(name, check)
	if err != nil {
		return nil, err
	}
	if err := r.add(h); err != nil {
		_ = h.Close()
		return nil, err
	}

	r.stats.constructions.Inc()
	log.Infof("opened %s (version=%d, resources=%d)", name, h.Meta().Version, h.Resources().Len())
	return h, nil
}

// construct reads the header and resource table and loads the engine.
func (r *Registry) construct(name string, check PermCheck) (*db.Handle, error) {
	in, err := r.catalog.OpenInfo(name)
	if err != nil {
		return nil, ioFailure(name, err)
	}
	defer in.Close()

	br := bufio.NewReader(in)
	m, err := meta.Read(br, name)
	if err != nil {
		return nil, err
	}

	// open database if user has permissions
	if !check(m) {
		return nil, db.PermissionDenied(name)
	}

	resources, err := meta.ReadResources(br)
	if err != nil {
		return nil, ioFailure(name, err)
	}

	engine, err := r.loader.Load(m)
	if err != nil {
		return nil, ioFailure(name, err)
	}
	return db.NewHandle(m, resources, engine), nil
}

func ioFailure(name string, err error) error {
	var dbErr *db.Error
	if errors.As(err, &dbErr) {
		return err
	}
	return &db.Error{
		Code: db.ErrCIOFailure,
		Msg:  fmt.Sprintf("database '%s' could not be opened: %s", name, err),
		Err:  err,
	}
}

// --------------------------------------------------------------------------
// Scoped acquisition
// --------------------------------------------------------------------------

// Acquire opens the named database and returns a lease on its handle.
func (r *Registry) Acquire(name string, check PermCheck) (*Lease, error) {
	h, err := r.OpenOrCreate(name, check)
	if err != nil {
		return nil, err
	}
	return &Lease{registry: r, handle: h}, nil
}

// WithOpenDatabase runs fn with the handle of the named database. The handle
// is released when fn returns or panics.
func (r *Registry) WithOpenDatabase(name string, check PermCheck, fn func(h *db.Handle) error) (err error) {
	lease, err := r.Acquire(name, check)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := lease.Release(); err == nil {
			err = releaseErr
		}
	}()
	return fn(lease.Handle())
}

// release unpins h and evicts it if it became idle and EvictIdle is set.
func (r *Registry) release(h *db.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pins, err := r.unpin(h)
	if err != nil {
		return err
	}
	if pins == 0 && r.evictIdle {
		_, err = r.evict(h.Name())
	}
	return err
}

// --------------------------------------------------------------------------
// Eviction
// --------------------------------------------------------------------------

// Evict removes and closes the named handle if it is not pinned.
// It returns whether an entry was evicted.
func (r *Registry) Evict(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evict(name)
}

func (r *Registry) evict(name string) (bool, error) {
	e, ok := r.entries[name]
	if !ok || e.pins > 0 {
		return false, nil
	}
	delete(r.entries, name)
	r.stats.evictions.Inc()
	log.Infof("evicted %s", name)

	// closed inside the critical section: a new handle for the same name must
	// not be constructed before the old engine released its files
	if err := e.handle.Close(); err != nil {
		return true, fmt.Errorf("closing database '%s': %w", name, err)
	}
	return true, nil
}

// CloseAll closes and removes all handles, pinned or not. It is meant for
// process shutdown.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, e := range r.entries {
		if e.pins > 0 {
			log.Warningf("closing %s with %d pins", name, e.pins)
		}
		if err := e.handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database '%s': %w", name, err))
		}
		delete(r.entries, name)
	}
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Inspection
// --------------------------------------------------------------------------

// Pins returns the pin count of the named database and whether it is cached.
func (r *Registry) Pins(name string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return 0, false
	}
	return e.pins, true
}

// Pinned reports whether the named database is pinned at least once.
func (r *Registry) Pinned(name string) bool {
	pins, _ := r.Pins(name)
	return pins > 0
}

// Len returns the number of cached handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Names returns the names of all cached handles in alphabetical order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
