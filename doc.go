// Package marketauth is the session and credential lifecycle engine for the
// manfra.io service marketplace: password verification, dual
// access/refresh token issuance, refresh-token rotation, server-side
// revocation, and the TOTP challenge that bridges two-step login.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], the [UserStore] contract, and sentinel errors. Engine methods
// are safe for concurrent use after construction through [Builder.Build];
// the engine keeps no mutable in-process state beyond its injected stores.
//
// # Architecture boundaries
//
//   - Credential records live in an external [UserStore] (Postgres in
//     production, in-memory in tests). The engine reads them and updates
//     only the password hash and two-factor fields.
//   - Refresh-token index, revocation set, and temp tokens live in Redis
//     behind internal stores. Redis clients are injected, never created
//     here.
//   - Token signing/verification is pure and store-free (jwt subpackage).
//
// Store or codec outages fail closed: the affected token is treated as
// invalid and the error surfaces as ErrStoreUnavailable, distinct from
// authentication failures so callers can map it to a 500 rather than 401.
package marketauth
