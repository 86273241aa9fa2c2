// Package command implements the commands a session can run: open, close,
// create, drop, info, list and stats.
//
// Every command declares the resources it reads and writes before it runs
// (Databases). Execute hands that declaration to the lock scheduler of the
// context, runs the command once the locks are granted and records its
// latency. Commands never acquire locks themselves.
//
// Open:
//
//	Open is the central command. It validates the name before anything else
//	happens, does nothing if the session already has the database open, and
//	otherwise closes the current database, acquires the new handle from the
//	registry and attaches it to the session. An outdated header format and a
//	damaged header are reported as notices, the database is still opened.
package command
