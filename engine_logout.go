package marketauth

import (
	"context"
	"time"

	"github.com/manfra-io/marketauth/jwt"
)

// Logout ends the session carried by the given tokens. The access token is
// added to the revocation set for its remaining signed lifetime, so it
// stops working immediately instead of at its natural expiry. The refresh
// token is likewise revoked and removed from the forward index.
//
// Logout is idempotent and lenient: empty, malformed, or already-expired
// tokens are skipped without error. Only a store outage fails the call.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	now := time.Now()

	if accessToken != "" {
		if claims, err := e.tokens.Verify(accessToken, jwt.KindAccess); err == nil {
			remaining := claims.ExpiresAt.Time.Sub(now)
			if err := e.revokedAccess.Revoke(ctx, accessToken, remaining); err != nil {
				return storeErr(err)
			}
		}
	}

	if refreshToken != "" {
		if claims, err := e.tokens.Verify(refreshToken, jwt.KindRefresh); err == nil {
			remaining := claims.ExpiresAt.Time.Sub(now)
			if err := e.revokedRefresh.Revoke(ctx, refreshToken, remaining); err != nil {
				return storeErr(err)
			}
		}
		// Drop the index entry even when verification failed; a dangling
		// entry for a token we cannot verify is never useful.
		if err := e.refreshIndex.Delete(ctx, refreshToken); err != nil {
			return storeErr(err)
		}
	}

	return nil
}
