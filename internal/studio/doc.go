// Package studio implements the generation operations behind the API:
// brainstorming ideas, drafting scripts, generating images, assessing
// media, and planning edits. Every operation follows the same path: a
// history record is created, the upstream call is enqueued on the
// request serializer, and the caller blocks until the call settles.
// Outcomes are persisted to history and mirrored to the sheet log.
package studio
