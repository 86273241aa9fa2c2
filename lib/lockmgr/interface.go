package lockmgr

// ILockManager defines the write side of the update markers.
type ILockManager interface {
	// AcquireLock creates the update marker for the named database.
	// Return a boolean indicating whether the marker was created by this call, an owner ID, and an error if any.
	AcquireLock(name string) (ok bool, ownerID []byte, err error)

	// ReleaseLock removes the update marker of the named database if it is owned by ownerID.
	// Return a boolean indicating whether the marker was removed, and an error if any.
	// The method will also return True if the marker did not exist.
	ReleaseLock(name string, ownerID []byte) (ok bool, err error)
}

// IMarkers defines the read side of the update markers.
type IMarkers interface {
	// Exists reports whether an update marker exists for the named database.
	Exists(name string) (ok bool)
}
