package lockmgr

import (
	"bytes"
	"errors"
	"os"

	"github.com/ValentinKolb/kvbase/lib/catalog"
	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("lockmgr")

type lockMgrImpl struct {
	catalog *catalog.FSCatalog
}

// LockManager implements both the write and the read side of the markers.
type LockManager interface {
	ILockManager
	IMarkers
}

// NewLockManager creates a lock manager for the databases of the given catalog.
// The lock manager has no internal state, it is safe to create it multiple
// times for the same catalog.
func NewLockManager(c *catalog.FSCatalog) LockManager {
	return &lockMgrImpl{
		catalog: c,
	}
}

func (lm *lockMgrImpl) AcquireLock(name string) (bool, []byte, error) {
	if !db.ValidName(name) {
		return false, nil, db.InvalidName(name)
	}
	if !lm.catalog.Exists(name) {
		return false, nil, db.NotFound(name)
	}

	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// Try to create the marker (only succeeds if it doesn't exist - atomic on all local filesystems)
	f, err := os.OpenFile(lm.catalog.MarkerPath(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		// acquired BY SOMEONE ELSE
		return false, nil, nil
	}
	if err != nil {
		log.Errorf("failed to create update marker for %s: %v", name, err)
		return false, nil, err
	}

	if _, err := f.Write(ownerID); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return false, nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return false, nil, err
	}

	log.Debugf("acquired update marker for %s", name)
	return true, ownerID, nil
}

func (lm *lockMgrImpl) ReleaseLock(name string, ownerID []byte) (bool, error) {
	if !db.ValidName(name) {
		return false, db.InvalidName(name)
	}

	// Check if the marker exists
	value, err := os.ReadFile(lm.catalog.MarkerPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	// Check if the marker is owned by us
	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	// Release the marker
	if err := os.Remove(lm.catalog.MarkerPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	log.Debugf("released update marker for %s", name)
	return true, nil
}

func (lm *lockMgrImpl) Exists(name string) bool {
	_, err := os.Stat(lm.catalog.MarkerPath(name))
	return err == nil
}
