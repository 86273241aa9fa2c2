// Package cmd implements the command-line interface of kvbase. It provides a
// hierarchical command structure for managing and opening databases.
//
// The package is organized into several subpackages:
//
//   - db: Commands for database operations (create, drop, list, info, open)
//   - update: Commands that mark a database as being updated (begin, end)
//   - shell: An interactive shell that runs commands in one session
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvbase -help for a list of all commands.
package cmd
