// Package core provides the application context of kvbase and the sessions
// that run commands against it.
//
// A Context owns everything that is shared between sessions: the handle
// registry, the catalog, the lock scheduler, the command timers and the table
// of live sessions. There is exactly one Context per process and it is passed
// explicitly to whoever needs it.
//
// A Session is owned by one caller (a CLI invocation, a shell) and is used by
// one goroutine at a time. It holds at most one open database, as a registry
// lease, and optionally a narrowed scope of resources inside that database.
package core
