package marketauth

import (
	"context"
	"errors"

	"github.com/manfra-io/marketauth/internal/stores"
	"github.com/manfra-io/marketauth/jwt"
)

// Refresh rotates a refresh token: it claims the presented token's index
// entry atomically and mints a fresh pair. The old refresh token is dead
// after this call whether or not issuance succeeds, so a stolen token
// replayed later fails and forces re-authentication.
//
// Validity requires both a good signature and a live index entry. A token
// that fails either check, or was revoked by logout, surfaces uniformly as
// [ErrRefreshInvalid]; callers do not learn which check failed.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	if refreshToken == "" {
		return LoginResult{}, ErrRefreshInvalid
	}

	revoked, err := e.revokedRefresh.IsRevoked(ctx, refreshToken)
	if err != nil {
		return LoginResult{}, storeErr(err)
	}
	if revoked {
		return LoginResult{}, ErrRefreshInvalid
	}

	claims, err := e.tokens.Verify(refreshToken, jwt.KindRefresh)
	if err != nil {
		return LoginResult{}, ErrRefreshInvalid
	}

	userID, err := e.refreshIndex.TakeAndDelete(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, stores.ErrRefreshNotFound) {
			return LoginResult{}, ErrRefreshInvalid
		}
		return LoginResult{}, storeErr(err)
	}
	if userID != claims.UserID {
		// Index entry and signed claims disagree on the owner. The entry is
		// already gone, which is the safe side.
		return LoginResult{}, ErrRefreshInvalid
	}

	access, refresh, err := e.issuePair(ctx, userID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: access, RefreshToken: refresh}, nil
}
