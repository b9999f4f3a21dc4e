package marketauth

import (
	"context"
	"errors"
	"strings"
)

// Login performs the first authentication step: credential verification.
//
// For accounts without two-factor enabled the result carries a complete
// access/refresh pair. For two-factor accounts no JWTs are issued; the
// result instead carries a short-lived temp token that [Engine.LoginTOTP]
// exchanges for the pair. Unknown emails and wrong passwords both surface
// as [ErrInvalidCredentials].
func (e *Engine) Login(ctx context.Context, email, plaintext string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plaintext == "" {
		return LoginResult{}, ErrMissingFields
	}

	user, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, userStoreErr(err)
	}

	ok, err := e.passwords.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	e.maybeUpgradeHash(ctx, &user, plaintext)

	if user.TwoFAEnabled {
		temp, err := e.tempTokens.Issue(ctx, user.UserID)
		if err != nil {
			return LoginResult{}, storeErr(err)
		}
		return LoginResult{
			TwoFARequired: true,
			TempToken:     temp,
			ExpiresIn:     e.tempTokens.TTL(),
			User:          user,
		}, nil
	}

	access, refresh, err := e.issuePair(ctx, user.UserID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// maybeUpgradeHash rehashes the password under the current cost parameters
// when the stored hash was produced with weaker ones. Failures are logged
// and swallowed; the login already succeeded.
func (e *Engine) maybeUpgradeHash(ctx context.Context, user *UserRecord, plaintext string) {
	if !e.cfg.Password.UpgradeOnLogin {
		return
	}
	stale, err := e.passwords.NeedsUpgrade(user.PasswordHash)
	if err != nil || !stale {
		return
	}
	newHash, err := e.passwords.Hash(plaintext)
	if err != nil {
		e.warn("password hash upgrade failed", "userId", user.UserID, "error", err)
		return
	}
	if err := e.users.UpdatePasswordHash(ctx, user.UserID, newHash); err != nil {
		e.warn("password hash upgrade failed", "userId", user.UserID, "error", err)
		return
	}
	user.PasswordHash = newHash
}
