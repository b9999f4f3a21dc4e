package marketauth

import (
	"context"
	"time"
)

// ProvisionTOTP generates a fresh two-factor secret for the user and
// persists it in a pending state. Two-factor login stays off until
// [Engine.ActivateTOTP] proves the user's authenticator produces matching
// codes. Calling this again replaces any earlier pending secret.
func (e *Engine) ProvisionTOTP(ctx context.Context, userID string) (TOTPProvision, error) {
	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return TOTPProvision{}, userStoreErr(err)
	}

	key, err := e.totp.Generate(user.Email)
	if err != nil {
		return TOTPProvision{}, err
	}

	if err := e.users.SetTwoFASecret(ctx, user.UserID, key.Secret()); err != nil {
		return TOTPProvision{}, userStoreErr(err)
	}

	return TOTPProvision{Secret: key.Secret(), URI: key.URL()}, nil
}

// ActivateTOTP turns two-factor login on after verifying one code against
// the pending secret. Returns [ErrTOTPNotProvisioned] when no secret was
// generated and [ErrTOTPInvalid] for a wrong code.
func (e *Engine) ActivateTOTP(ctx context.Context, userID, code string) error {
	if code == "" {
		return ErrMissingFields
	}

	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return userStoreErr(err)
	}
	if user.TwoFASecret == "" {
		return ErrTOTPNotProvisioned
	}

	if !e.totp.Verify(code, user.TwoFASecret, time.Now()) {
		return ErrTOTPInvalid
	}

	if err := e.users.EnableTwoFA(ctx, user.UserID); err != nil {
		return userStoreErr(err)
	}
	return nil
}
