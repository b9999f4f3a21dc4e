package marketauth

import (
	"context"
	"time"
)

// UserRecord is the credential record owned by the external user store.
// The engine reads it during login and authorization and mutates only
// PasswordHash (opportunistic upgrade) and the two-factor fields
// (enrollment).
type UserRecord struct {
	UserID       string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsWorker     bool
	TwoFAEnabled bool
	TwoFASecret  string
}

// CreateUserInput is the input for [UserStore.CreateUser]. UserID is
// assigned by the engine.
type CreateUserInput struct {
	UserID       string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsWorker     bool
}

// UserStore is the contract the host application implements to connect the
// engine to its user database. Implementations must return
// [ErrUserNotFound] for unknown users and [ErrEmailExists] for duplicate
// emails so the engine can map failures without inspecting driver errors.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	SetTwoFASecret(ctx context.Context, userID, secret string) error
	EnableTwoFA(ctx context.Context, userID string) error
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Role     string
	IsWorker bool
}

// LoginResult is returned by [Engine.Login], [Engine.LoginTOTP], and
// [Engine.Refresh]. Either the token pair is set, or TwoFARequired is true
// and TempToken carries the challenge for the second step.
type LoginResult struct {
	AccessToken  string
	RefreshToken string

	TwoFARequired bool
	TempToken     string
	ExpiresIn     time.Duration

	User UserRecord
}

// Identity is the authenticated principal produced by
// [Engine.Authenticate]. Token and ExpiresAt are retained so logout can
// revoke the exact presented token for its remaining lifetime.
type Identity struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// TOTPProvision is returned by [Engine.ProvisionTOTP]. The URI is the
// otpauth:// enrollment string; rendering it as a QR image is the transport
// layer's concern.
type TOTPProvision struct {
	Secret string
	URI    string
}
