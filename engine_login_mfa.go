package marketauth

import (
	"context"
	"errors"
	"time"

	"github.com/manfra-io/marketauth/internal/stores"
)

// LoginTOTP performs the second authentication step: it exchanges the temp
// token from [Engine.Login] plus a valid TOTP code for a full token pair.
//
// Temp tokens are single-use. Every terminal outcome consumes the token:
// success, a wrong code, and an account that can no longer complete the
// check. Only infrastructure failures leave it intact, so a transient
// Redis error does not force the user back to step one.
func (e *Engine) LoginTOTP(ctx context.Context, tempToken, code string) (LoginResult, error) {
	if tempToken == "" || code == "" {
		return LoginResult{}, ErrMissingFields
	}

	userID, err := e.tempTokens.Resolve(ctx, tempToken)
	if err != nil {
		if errors.Is(err, stores.ErrTempTokenNotFound) {
			return LoginResult{}, ErrTempTokenInvalid
		}
		return LoginResult{}, storeErr(err)
	}

	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.consumeTempToken(ctx, tempToken)
			return LoginResult{}, ErrTempTokenInvalid
		}
		return LoginResult{}, userStoreErr(err)
	}
	if !user.TwoFAEnabled || user.TwoFASecret == "" {
		e.consumeTempToken(ctx, tempToken)
		return LoginResult{}, ErrTOTPInvalid
	}

	if !e.totp.Verify(code, user.TwoFASecret, time.Now()) {
		e.consumeTempToken(ctx, tempToken)
		return LoginResult{}, ErrTOTPInvalid
	}

	e.consumeTempToken(ctx, tempToken)

	access, refresh, err := e.issuePair(ctx, user.UserID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

func (e *Engine) consumeTempToken(ctx context.Context, token string) {
	if err := e.tempTokens.Consume(ctx, token); err != nil {
		e.warn("temp token consume failed", "error", err)
	}
}
