// Package stores holds the Redis-backed durable registries behind the auth
// engine: the refresh-token index, the revocation set, and the two-factor
// temp-token store. Every entry is TTL-bounded so the stores are
// self-cleaning; no background sweeper exists or is needed.
//
// All methods fail closed: a Redis error surfaces as ErrBackendUnavailable
// and callers treat the token in question as invalid.
package stores
