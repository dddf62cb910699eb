// Package ipc exposes daemon control to the CLI via JSON-RPC over a
// Unix domain socket. The CLI is a thin client: generation, history,
// and status all round-trip through the daemon so the serializer's
// queue discipline holds across processes.
package ipc
