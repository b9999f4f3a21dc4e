package marketauth

import (
	"context"
	"errors"

	"github.com/manfra-io/marketauth/jwt"
)

// Authenticate validates an access token and returns the authenticated
// principal. Checks run in a fixed order and the first failure wins:
// presence, then revocation, then signature and expiry. Revocation is
// checked before the signature so a revoked token is reported as revoked
// even after it also expires.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (Identity, error) {
	if accessToken == "" {
		return Identity{}, ErrAccessTokenMissing
	}

	revoked, err := e.revokedAccess.IsRevoked(ctx, accessToken)
	if err != nil {
		return Identity{}, storeErr(err)
	}
	if revoked {
		return Identity{}, ErrAccessTokenRevoked
	}

	claims, err := e.tokens.Verify(accessToken, jwt.KindAccess)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrAccessTokenExpired
		}
		return Identity{}, ErrAccessTokenInvalid
	}

	return Identity{
		UserID:    claims.UserID,
		Token:     accessToken,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Authorize loads the user behind an authenticated identity and, when
// roles are given, requires the user's current role to be among them. The
// role comes from the store on every call, so a demotion takes effect on
// the next request rather than at the next token issuance.
func (e *Engine) Authorize(ctx context.Context, userID string, roles ...string) (UserRecord, error) {
	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return UserRecord{}, userStoreErr(err)
	}

	if len(roles) == 0 {
		return user, nil
	}
	for _, role := range roles {
		if user.Role == role {
			return user, nil
		}
	}
	return UserRecord{}, ErrAccessDenied
}
