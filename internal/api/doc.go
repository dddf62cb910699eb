// Package api defines the wire-level DTOs shared by the HTTP API and
// the IPC surface, plus conversions from internal types. Keeping the
// DTOs separate from internal models lets storage evolve without
// breaking clients.
package api
