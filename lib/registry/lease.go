package registry

import (
	"sync"

	"github.com/ValentinKolb/kvbase/lib/db"
)

// Lease is one pin on a handle. Release returns the pin to the registry; it
// is safe to call Release more than once, only the first call unpins.
type Lease struct {
	registry *Registry
	handle   *db.Handle

	once sync.Once
	err  error
}

// Handle returns the leased handle. It must not be used after Release.
func (l *Lease) Handle() *db.Handle {
	return l.handle
}

// Name returns the name of the leased database.
func (l *Lease) Name() string {
	return l.handle.Name()
}

func (l *Lease) Release() error {
	l.once.Do(func() {
		l.err = l.registry.release(l.handle)
	})
	return l.err
}
