package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/kvbase/lib/core"
	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/ValentinKolb/kvbase/lib/locking"
	"github.com/ValentinKolb/kvbase/lib/perm"
)

// --------------------------------------------------------------------------
// Create
// --------------------------------------------------------------------------

// Create creates an empty database with the given resource table.
type Create struct {
	DB        string
	Resources []string
}

func (c *Create) Name() string { return "create" }

func (c *Create) String() string {
	return strings.TrimSpace(fmt.Sprintf("create %s %s", c.DB, strings.Join(c.Resources, " ")))
}

func (c *Create) Validate() error {
	if !db.ValidName(c.DB) {
		return db.InvalidName(c.DB)
	}
	return nil
}

func (c *Create) Databases(lr *locking.LockResult) {
	lr.Write.Add(locking.Database(c.DB))
}

func (c *Create) Run(s *core.Session, r *Result) error {
	start := time.Now()
	if !s.Allowed(perm.Create) {
		return permissionRequired(perm.Create)
	}
	cat, err := catalogOf(s)
	if err != nil {
		return err
	}
	if _, err := cat.Create(c.DB, c.Resources); err != nil {
		return err
	}
	r.Info = fmt.Sprintf("database '%s' was created in %.2f ms", c.DB, millis(time.Since(start)))
	return nil
}

// --------------------------------------------------------------------------
// Drop
// --------------------------------------------------------------------------

// Drop deletes a database. Databases that are opened by a session or that
// are being updated are not dropped.
type Drop struct {
	DB string
}

func (c *Drop) Name() string   { return "drop" }
func (c *Drop) String() string { return "drop " + c.DB }

func (c *Drop) Validate() error {
	if !db.ValidName(c.DB) {
		return db.InvalidName(c.DB)
	}
	return nil
}

func (c *Drop) Databases(lr *locking.LockResult) {
	lr.Write.Add(locking.Database(c.DB))
}

func (c *Drop) Run(s *core.Session, r *Result) error {
	if !s.Allowed(perm.Create) {
		return permissionRequired(perm.Create)
	}
	cat, err := catalogOf(s)
	if err != nil {
		return err
	}
	if !cat.Exists(c.DB) {
		return db.NotFound(c.DB)
	}

	reg := s.Context().Registry()
	if reg.Pinned(c.DB) {
		return db.InUse(c.DB)
	}
	if lm := s.Context().LockManager(); lm != nil && lm.Exists(c.DB) {
		return db.UpdateInProgress(c.DB)
	}

	// an idle handle still holds the engine files open
	if _, err := reg.Evict(c.DB); err != nil {
		return err
	}
	if err := cat.Drop(c.DB); err != nil {
		return err
	}
	r.Info = fmt.Sprintf("database '%s' was dropped", c.DB)
	return nil
}

func permissionRequired(p perm.Perm) error {
	return db.NewError(db.ErrCPermissionDenied, "%s permission required", p)
}
