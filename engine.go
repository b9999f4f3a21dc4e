package marketauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/manfra-io/marketauth/internal/stores"
	"github.com/manfra-io/marketauth/jwt"
	"github.com/manfra-io/marketauth/password"
	"github.com/manfra-io/marketauth/totp"
)

// Engine implements the session and credential lifecycle. Construct it
// through [Builder.Build]; the zero value is not usable. All methods are
// safe for concurrent use.
type Engine struct {
	cfg       Config
	tokens    *jwt.Manager
	passwords *password.Hasher
	totp      totp.Generator
	users     UserStore

	refreshIndex   *stores.RefreshRegistry
	revokedAccess  *stores.RevocationRegistry
	revokedRefresh *stores.RevocationRegistry
	tempTokens     *stores.TempTokenStore

	warn func(string, ...any)
}

// Config returns the configuration the engine was built with. The HTTP
// layer reads it for cookie lifetimes and flags.
func (e *Engine) Config() Config {
	return e.cfg
}

// issuePair mints a fresh access/refresh pair for userID and registers the
// refresh token in the forward index with its full signed lifetime.
func (e *Engine) issuePair(ctx context.Context, userID string) (access, refresh string, err error) {
	access, err = e.tokens.Issue(jwt.KindAccess, userID)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	refresh, err = e.tokens.Issue(jwt.KindRefresh, userID)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := e.refreshIndex.Put(ctx, refresh, userID, e.tokens.TTL(jwt.KindRefresh)); err != nil {
		return "", "", storeErr(err)
	}
	return access, refresh, nil
}

// storeErr maps a stores-layer failure onto the public error surface.
func storeErr(err error) error {
	if errors.Is(err, stores.ErrBackendUnavailable) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

// userStoreErr passes the engine's own sentinels through untouched and
// treats anything else from the credential store as an outage.
func userStoreErr(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrEmailExists):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
