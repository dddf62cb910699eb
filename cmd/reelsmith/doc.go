// Command reelsmith is the CLI for the reelsmith daemon: it submits
// generation requests, inspects the request history, and manages the
// daemon over its Unix socket.
package main
