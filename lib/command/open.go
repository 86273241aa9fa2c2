package command

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/kvbase/lib/core"
	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/ValentinKolb/kvbase/lib/locking"
)

// Open opens a database for the session, optionally narrowed to the
// resources at Path.
type Open struct {
	DB   string
	Path string
}

func (c *Open) Name() string { return "open" }

func (c *Open) String() string {
	if c.Path == "" {
		return fmt.Sprintf("open %s", c.DB)
	}
	return fmt.Sprintf("open %s %s", c.DB, c.Path)
}

func (c *Open) Validate() error {
	if !db.ValidName(c.DB) {
		return db.InvalidName(c.DB)
	}
	return nil
}

func (c *Open) Databases(lr *locking.LockResult) {
	lr.Read.Add(locking.Context, locking.Database(c.DB))
}

func (c *Open) Run(s *core.Session, r *Result) error {
	start := time.Now()
	if err := c.Validate(); err != nil {
		return err
	}

	// check if database is already opened
	if h := s.Current(); h == nil || h.Name() != c.DB {
		if err := s.Close(); err != nil {
			return err
		}

		lease, err := s.Context().Registry().Acquire(c.DB, s.CanRead)
		if err != nil {
			return err
		}
		if err := s.Attach(lease); err != nil {
			_ = lease.Release()
			return err
		}

		h = lease.Handle()
		if c.Path != "" {
			s.Narrow(h.Resources().Docs(c.Path))
		}

		m := h.Meta()
		if m.Legacy {
			r.notice("database '%s' uses an outdated format (version %d), recreate it to use all features", c.DB, m.Version)
		}
		if m.Corrupt {
			r.notice("database '%s' might be corrupt, consider exporting and recreating it", c.DB)
		}
	}

	r.Info = fmt.Sprintf("database '%s' was opened in %.2f ms", c.DB, millis(time.Since(start)))
	return nil
}
