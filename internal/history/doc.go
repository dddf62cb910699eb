// Package history persists generation requests and their outcomes in
// SQLite. Every request accepted by the studio gets a record before it
// enters the serializer queue, so the history survives restarts and
// shows queued work that never ran.
package history
