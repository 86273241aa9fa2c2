// Package perm implements the permission gate of the handle core.
// A user has a global permission level and optional per-database levels.
// Per-database levels are matched with glob patterns (path.Match syntax)
// and take precedence over the global level.
package perm

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ValentinKolb/kvbase/lib/db"
)

// Perm is a permission level. Each level includes all lower levels.
type Perm uint8

const (
	None Perm = iota
	Read
	Write
	Create
	Admin
)

func (p Perm) String() string {
	switch p {
	case None:
		return "none"
	case Read:
		return "read"
	case Write:
		return "write"
	case Create:
		return "create"
	case Admin:
		return "admin"
	default:
		return "unknown"
	}
}

// Parse converts a level name (case-insensitive) to a Perm.
func Parse(s string) (Perm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return None, nil
	case "read":
		return Read, nil
	case "write":
		return Write, nil
	case "create":
		return Create, nil
	case "admin":
		return Admin, nil
	default:
		return None, fmt.Errorf("invalid permission %q (expected one of none, read, write, create, admin)", s)
	}
}

// IGate decides whether a capability is granted for a database.
type IGate interface {
	// Allowed reports whether need is granted for the database described by m.
	Allowed(need Perm, m db.Metadata) (ok bool)
}

// User is the permission set of one user.
type User struct {
	Name   string
	Global Perm
	Local  map[string]Perm // pattern -> level
}

// NewUser creates a user with a global level and no local levels.
func NewUser(name string, global Perm) *User {
	return &User{
		Name:   name,
		Global: global,
		Local:  map[string]Perm{},
	}
}

// Level returns the effective level of the user for the named database.
// Admins always keep their level. Otherwise an exact local entry wins over a
// pattern, and among several matching patterns the lexically smallest one is
// used so that the result does not depend on map order.
func (u *User) Level(name string) Perm {
	if u.Global == Admin {
		return Admin
	}
	if p, ok := u.Local[name]; ok {
		return p
	}

	patterns := make([]string, 0, len(u.Local))
	for pattern := range u.Local {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return u.Local[pattern]
		}
	}
	return u.Global
}

func (u *User) Allowed(need Perm, m db.Metadata) bool {
	return u.Level(m.Name) >= need
}
