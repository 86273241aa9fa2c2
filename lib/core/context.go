package core

import (
	"errors"
	"os"
	"sync/atomic"

	"github.com/ValentinKolb/kvbase/lib/catalog"
	"github.com/ValentinKolb/kvbase/lib/common"
	"github.com/ValentinKolb/kvbase/lib/db/engines/badger"
	"github.com/ValentinKolb/kvbase/lib/locking"
	"github.com/ValentinKolb/kvbase/lib/lockmgr"
	"github.com/ValentinKolb/kvbase/lib/perm"
	"github.com/ValentinKolb/kvbase/lib/registry"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/sqids/sqids-go"
)

var log = logger.GetLogger("core")

// Options configures a Context.
type Options struct {
	Registry *registry.Registry // Required
	User     *perm.User         // Required: permissions of all sessions of this context

	// Catalog and LockManager are only needed by commands that create, drop
	// or list databases (optional).
	Catalog     *catalog.FSCatalog
	LockManager lockmgr.LockManager

	Locks  *locking.Locks     // nil = new scheduler
	Timers gometrics.Registry // nil = new registry
}

// Context is the application context.
type Context struct {
	registry    *registry.Registry
	user        *perm.User
	catalog     *catalog.FSCatalog
	lockManager lockmgr.LockManager
	locks       *locking.Locks
	timers      gometrics.Registry

	sessions *xsync.MapOf[string, *Session]
	ids      *sqids.Sqids
	counter  atomic.Uint64
}

// NewContext creates a context from already constructed collaborators.
func NewContext(opts Options) *Context {
	if opts.Registry == nil || opts.User == nil {
		panic("core: registry and user are required")
	}
	if opts.Locks == nil {
		opts.Locks = locking.NewLocks()
	}
	if opts.Timers == nil {
		opts.Timers = gometrics.NewRegistry()
	}

	ids, err := sqids.New(sqids.Options{
		Alphabet:  "0123456789abcdefghijklmnopqrstuvwxyz",
		MinLength: 8,
	})
	if err != nil {
		panic(err)
	}

	return &Context{
		registry:    opts.Registry,
		user:        opts.User,
		catalog:     opts.Catalog,
		lockManager: opts.LockManager,
		locks:       opts.Locks,
		timers:      opts.Timers,
		sessions:    xsync.NewMapOf[string, *Session](),
		ids:         ids,
	}
}

// Open creates the context described by cfg: a filesystem catalog at
// cfg.DBPath, marker based update locks and BadgerDB storage engines.
func Open(cfg *common.Config) (*Context, error) {
	user, err := cfg.User(userName())
	if err != nil {
		return nil, err
	}

	cat := catalog.NewFSCatalog(cfg.DBPath)
	lm := lockmgr.NewLockManager(cat)
	loader := badger.NewLoader(cat, badger.Options{
		CacheMB:  cfg.BadgerCacheMB,
		InMemory: cfg.BadgerInMemory,
	})

	reg := registry.New(registry.Options{
		Catalog:   cat,
		Markers:   lm,
		Loader:    loader,
		EvictIdle: cfg.EvictIdle,
	})

	log.Infof("opened context at %s (user=%s, perm=%s, evict-idle=%v)", cfg.DBPath, user.Name, user.Global, cfg.EvictIdle)
	return NewContext(Options{
		Registry:    reg,
		User:        user,
		Catalog:     cat,
		LockManager: lm,
	}), nil
}

func userName() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "local"
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

func (c *Context) Registry() *registry.Registry {
	return c.registry
}

func (c *Context) User() *perm.User {
	return c.user
}

// Catalog returns the filesystem catalog, or nil if the context has none.
func (c *Context) Catalog() *catalog.FSCatalog {
	return c.catalog
}

// LockManager returns the update lock manager, or nil if the context has none.
func (c *Context) LockManager() lockmgr.LockManager {
	return c.lockManager
}

func (c *Context) Locks() *locking.Locks {
	return c.locks
}

func (c *Context) Timers() gometrics.Registry {
	return c.timers
}

// Timer returns the latency timer of the named command.
func (c *Context) Timer(name string) gometrics.Timer {
	return gometrics.GetOrRegisterTimer(name, c.timers)
}

// --------------------------------------------------------------------------
// Sessions
// --------------------------------------------------------------------------

// NewSession creates and registers a new session.
func (c *Context) NewSession() *Session {
	id, err := c.ids.Encode([]uint64{c.counter.Add(1)})
	if err != nil {
		// only possible with a blocklisted id, the counter moves on
		return c.NewSession()
	}
	s := &Session{id: id, ctx: c}
	c.sessions.Store(id, s)
	log.Debugf("session %s started", id)
	return s
}

// Session returns the live session with the given id.
func (c *Context) Session(id string) (*Session, bool) {
	return c.sessions.Load(id)
}

// SessionCount returns the number of live sessions.
func (c *Context) SessionCount() int {
	return c.sessions.Size()
}

// Close ends all sessions and closes all database handles.
func (c *Context) Close() error {
	var errs []error
	c.sessions.Range(func(_ string, s *Session) bool {
		if err := s.End(); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	if err := c.registry.CloseAll(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
