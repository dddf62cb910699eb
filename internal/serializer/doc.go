// Package serializer enforces the upstream quota for generative-AI calls.
//
// The hosted service permits roughly one call per minute, so all upstream
// work is funneled through a single Serializer: items execute one at a
// time, in strict enqueue order, with a fixed cooldown after every item
// regardless of outcome. A failed item consumes the same cooldown slot as
// a success; failures upstream are frequently quota errors and hammering
// the service makes them worse.
//
// The serializer never retries, cancels, or reorders items, and it never
// reports item outcomes to the enqueuer. Each work item is responsible
// for signaling its own completion to whoever is waiting on it.
package serializer
