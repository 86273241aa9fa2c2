package core

import (
	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/ValentinKolb/kvbase/lib/perm"
	"github.com/ValentinKolb/kvbase/lib/registry"
)

// Session is the state of one client: the database it has open and the
// scope it works on.
type Session struct {
	id  string
	ctx *Context

	lease *registry.Lease
	scope []int // nil = all resources of the open database
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Context() *Context {
	return s.ctx
}

// Current returns the handle of the open database, or nil.
func (s *Session) Current() *db.Handle {
	if s.lease == nil {
		return nil
	}
	return s.lease.Handle()
}

// Scope returns the resource ids the session is narrowed to. A nil scope
// means the whole database.
func (s *Session) Scope() []int {
	return s.scope
}

// CanRead reports whether the session may read the database described by m.
// It is the permission check handed to the registry.
func (s *Session) CanRead(m db.Metadata) bool {
	return s.ctx.user.Allowed(perm.Read, m)
}

// Allowed reports whether the session has the global level need.
func (s *Session) Allowed(need perm.Perm) bool {
	return s.ctx.user.Global >= need
}

// Attach makes the leased database the open database of the session.
// The session must not have a database open.
func (s *Session) Attach(lease *registry.Lease) error {
	if s.lease != nil {
		return db.NewError(db.ErrCContract, "session %s already has database '%s' open", s.id, s.lease.Name())
	}
	s.lease = lease
	s.scope = nil
	log.Debugf("session %s attached to %s", s.id, lease.Name())
	return nil
}

// Narrow restricts the session to the given resource ids.
func (s *Session) Narrow(ids []int) {
	s.scope = ids
}

// Close detaches the open database and releases its lease. It does nothing
// if no database is open.
func (s *Session) Close() error {
	if s.lease == nil {
		return nil
	}
	lease := s.lease
	s.lease = nil
	s.scope = nil
	log.Debugf("session %s detached from %s", s.id, lease.Name())
	return lease.Release()
}

// End closes the session and removes it from its context.
func (s *Session) End() error {
	err := s.Close()
	s.ctx.sessions.Delete(s.id)
	log.Debugf("session %s ended", s.id)
	return err
}
