// Package db defines the shared vocabulary of the kvbase handle core: the
// Metadata record describing one database, the live Handle that sessions
// share, the Engine interface implemented by storage backends and the typed
// Error taxonomy returned by every open path.
//
// Key Components:
//
//   - Metadata: The parsed header of a database. It carries the database name,
//     the on-disk format version and two advisory flags: Legacy (the format
//     predates the current one) and Corrupt (a structural self-check failed
//     but the header could still be read). Neither flag prevents a database
//     from being opened.
//
//   - Handle: The loaded representation of one database. Exactly one Handle
//     exists per open database name. It is shared by reference between all
//     sessions that have the database open and is owned by the registry
//     (github.com/ValentinKolb/kvbase/lib/registry), which counts the pins held
//     on it.
//
//   - Engine: The storage engine that interprets the data once a database is
//     loaded. The handle core only opens and closes engines; everything else
//     is up to the implementation (see engines/badger).
//
//   - Resources: The table of resource paths stored in a database. Sessions may
//     narrow their working scope to the resources below a given path.
//
//   - Error: A single error type with a code per failure kind (InvalidName,
//     NotFound, UpdateInProgress, PermissionDenied, IOFailure and Contract).
//     Use errors.Is with the exported sentinels to test for a kind:
//
//     if errors.Is(err, db.ErrUpdateInProgress) {
//     // retry later
//     }
//
// Name Grammar:
//
//	Database names are non-empty, at most MaxNameLength characters long and
//	consist of letters, digits and the characters _-+=~!#$%^&()[]{}@'`.
//	Dots, slashes and whitespace are rejected so that a name can never
//	address a path outside of the database directory.
package db
