// Package locking declares and enforces the resource locks of commands.
//
// Before a command runs, it declares the resources it reads and writes in a
// LockResult. The scheduler (Locks) acquires those resources before the
// command runs and releases them afterward:
//
//   - commands that only read a resource may run concurrently
//   - a command that writes a resource excludes all other commands reading or
//     writing the same resource
//
// Resources are acquired in a global order, so two commands can never
// deadlock on each other.
package locking

import (
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Resources
// --------------------------------------------------------------------------

type Kind uint8

const (
	KindContext  Kind = iota // The session attachment bookkeeping shared by all sessions
	KindDatabase             // A single database, identified by its name
)

// Resource identifies something a command can lock.
type Resource struct {
	Kind Kind
	Name string
}

// Context is the global context resource.
var Context = Resource{Kind: KindContext}

// Database returns the resource of the named database.
func Database(name string) Resource {
	return Resource{Kind: KindDatabase, Name: name}
}

func (r Resource) String() string {
	if r.Kind == KindContext {
		return "ctx"
	}
	return "db:" + r.Name
}

// --------------------------------------------------------------------------
// Declarations
// --------------------------------------------------------------------------

// LockList is an ordered set of resources.
type LockList []Resource

// Add appends resources that are not yet part of the list.
func (l *LockList) Add(resources ...Resource) *LockList {
	for _, r := range resources {
		if !l.Contains(r) {
			*l = append(*l, r)
		}
	}
	return l
}

func (l LockList) Contains(r Resource) bool {
	for _, x := range l {
		if x == r {
			return true
		}
	}
	return false
}

// LockResult is the lock declaration of one command.
type LockResult struct {
	Read  LockList
	Write LockList
}

func NewLockResult() *LockResult {
	return &LockResult{
		Read:  LockList{},
		Write: LockList{},
	}
}

// --------------------------------------------------------------------------
// Scheduler
// --------------------------------------------------------------------------

// Locks is an in-process scheduler for lock declarations.
type Locks struct {
	locks *xsync.MapOf[string, *sync.RWMutex]
}

func NewLocks() *Locks {
	return &Locks{
		locks: xsync.NewMapOf[string, *sync.RWMutex](),
	}
}

type lockStep struct {
	key   string
	write bool
}

// Acquire blocks until all resources of lr are locked and returns the function
// that releases them. A resource declared for reading and writing is locked
// for writing.
func (l *Locks) Acquire(lr *LockResult) (release func()) {
	modes := map[string]bool{}
	for _, r := range lr.Read {
		if _, ok := modes[r.String()]; !ok {
			modes[r.String()] = false
		}
	}
	for _, r := range lr.Write {
		modes[r.String()] = true
	}

	steps := make([]lockStep, 0, len(modes))
	for key, write := range modes {
		steps = append(steps, lockStep{key: key, write: write})
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].key < steps[j].key })

	held := make([]*sync.RWMutex, len(steps))
	for i, step := range steps {
		mu, _ := l.locks.LoadOrCompute(step.key, func() *sync.RWMutex { return &sync.RWMutex{} })
		if step.write {
			mu.Lock()
		} else {
			mu.RLock()
		}
		held[i] = mu
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(steps) - 1; i >= 0; i-- {
				if steps[i].write {
					held[i].Unlock()
				} else {
					held[i].RUnlock()
				}
			}
		})
	}
}
