package command

import (
	"fmt"

	"github.com/ValentinKolb/kvbase/lib/core"
	"github.com/ValentinKolb/kvbase/lib/locking"
)

// Close closes the database of the session.
type Close struct{}

func (c *Close) Name() string   { return "close" }
func (c *Close) String() string { return "close" }

func (c *Close) Databases(lr *locking.LockResult) {
	lr.Read.Add(locking.Context)
}

func (c *Close) Run(s *core.Session, r *Result) error {
	h := s.Current()
	if h == nil {
		return nil
	}
	name := h.Name()
	if err := s.Close(); err != nil {
		return err
	}
	r.Info = fmt.Sprintf("database '%s' was closed", name)
	return nil
}
