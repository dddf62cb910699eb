// Package daemon hosts the long-running reelsmith process: it owns the
// request serializer, the history store, and the HTTP API, and it
// enforces single-instance execution through a file lock.
package daemon
