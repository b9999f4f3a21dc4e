package marketauth

import "errors"

var (
	// ErrEngineNotReady is returned when the builder was not given all
	// required dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrMissingFields is returned when a request omits required input.
	ErrMissingFields = errors.New("required fields are missing")
	// ErrWeakPassword is returned at registration when the password fails
	// the policy.
	ErrWeakPassword = errors.New("password policy violation")
	// ErrEmailExists is returned at registration for a duplicate email.
	ErrEmailExists = errors.New("email already exists")
	// ErrInvalidCredentials is returned for an unknown email or a failed
	// password check. It is deliberately generic to avoid user enumeration.
	ErrInvalidCredentials = errors.New("email or password is invalid")
	// ErrUserNotFound is returned when an authenticated lookup references a
	// user that no longer exists.
	ErrUserNotFound = errors.New("user not found")

	// ErrAccessTokenMissing is returned by Authenticate when no token was
	// presented.
	ErrAccessTokenMissing = errors.New("access token not found")
	// ErrAccessTokenExpired is returned when the access token's exp has
	// elapsed.
	ErrAccessTokenExpired = errors.New("access token expired")
	// ErrAccessTokenInvalid covers bad structure, bad signature, and wrong
	// token kind.
	ErrAccessTokenInvalid = errors.New("access token invalid")
	// ErrAccessTokenRevoked is returned for tokens invalidated by logout
	// before their natural expiry.
	ErrAccessTokenRevoked = errors.New("access token has been revoked")

	// ErrRefreshInvalid is returned for any unusable refresh token:
	// malformed, expired, revoked, or absent from the registry. Callers do
	// not learn which.
	ErrRefreshInvalid = errors.New("refresh token invalid or expired")

	// ErrTempTokenInvalid is returned when the two-factor temp token is
	// unknown, consumed, or expired.
	ErrTempTokenInvalid = errors.New("temporary token invalid or expired")
	// ErrTOTPInvalid is returned for a wrong or out-of-window TOTP code.
	ErrTOTPInvalid = errors.New("totp is invalid or expired")
	// ErrTOTPNotProvisioned is returned when activation is attempted before
	// a secret was generated.
	ErrTOTPNotProvisioned = errors.New("totp not provisioned")

	// ErrAccessDenied is returned by Authorize on a role mismatch.
	ErrAccessDenied = errors.New("access denied")

	// ErrStoreUnavailable indicates a Redis or credential-store outage. It
	// must never be conflated with an authentication failure: callers fail
	// closed but report an infrastructure error.
	ErrStoreUnavailable = errors.New("auth backend unavailable")
)
