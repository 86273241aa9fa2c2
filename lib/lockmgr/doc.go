// Package lockmgr manages the update markers of kvbase databases.
//
// An update marker is a sentinel file next to the header of a database. Its
// existence signals that a write transaction against the database is in
// progress. The handle registry only ever checks whether the marker exists
// (IMarkers). The write side creates and removes it through ILockManager.
//
// Core Functionality:
//   - Marker acquisition with ownership: the marker is created exclusively and
//     contains a randomly generated owner ID
//   - Safe release operations that verify ownership before removing the marker
//   - A presence check that never reads the marker content
//
// Implementation Approach:
//
//	- Acquisition: The marker is created with O_CREATE|O_EXCL, which
//	  guarantees that only one requester can successfully create it. The
//	  file content is the owner ID of the requester.
//
//	- Safe Release: ReleaseLock first verifies that the requester is the
//	  legitimate owner by comparing owner IDs before removing the marker.
//
// Consistency:
//
//	The presence check is advisory. A reader observes a marker only if it
//	exists at the moment of the check, a marker created a moment later is not
//	seen. Markers left behind by a crashed writer keep the database closed
//	for readers until they are released or removed manually.
//
// Usage Example:
//
//	locks := lockmgr.NewLockManager(catalog.NewFSCatalog("data"))
//
//	acquired, ownerID, err := locks.AcquireLock("sales")
//	if err != nil {
//	    // Handle error
//	}
//
//	if acquired {
//	    // Update the database
//	    // ...
//
//	    released, err := locks.ReleaseLock("sales", ownerID)
//	    if err != nil {
//	        // Handle error
//	    }
//	}
package lockmgr
