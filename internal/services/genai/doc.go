// Package genai wraps the hosted generative-AI chat completion API.
//
// The client issues exactly one upstream request per call and never
// retries: the request serializer's cooldown is the only rate-limit
// defense, and retrying a failed generation is a user decision. What the
// package does instead is classify failures: every error it returns can
// be mapped to a stable user-facing category (quota, auth, blocked,
// invalid, upstream, network, malformed) via Classify.
package genai
