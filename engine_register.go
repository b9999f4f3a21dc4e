package marketauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/manfra-io/marketauth/password"
)

// Register creates a new account. The password is checked against the
// policy and stored as an argon2id hash; the plaintext never leaves this
// call. Returns [ErrMissingFields], [ErrWeakPassword], or [ErrEmailExists]
// on the corresponding input problems.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (UserRecord, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		return UserRecord{}, ErrMissingFields
	}

	if err := password.CheckPolicy(req.Password); err != nil {
		return UserRecord{}, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	hash, err := e.passwords.Hash(req.Password)
	if err != nil {
		return UserRecord{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	role := req.Role
	if role == "" {
		role = e.cfg.Account.DefaultRole
	}

	user, err := e.users.CreateUser(ctx, CreateUserInput{
		UserID:       uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsWorker:     req.IsWorker,
	})
	if err != nil {
		return UserRecord{}, userStoreErr(err)
	}
	return user, nil
}
