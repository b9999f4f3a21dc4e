// Package jwt is the token codec for marketauth. It issues and verifies
// HS256-signed access and refresh tokens carrying a user ID, a subject
// discriminator, and an expiry. Tokens are signed, not encrypted: claims are
// readable but tamper-evident.
package jwt
