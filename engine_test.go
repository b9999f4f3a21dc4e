package marketauth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gototp "github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manfra-io/marketauth"
	"github.com/manfra-io/marketauth/internal/userstore"
)

func testConfig() marketauth.Config {
	cfg := marketauth.DefaultConfig()
	cfg.JWT.AccessSecret = "access-secret-for-tests"
	cfg.JWT.RefreshSecret = "refresh-secret-for-tests"
	// Cheap argon2 parameters keep the suite fast.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEngine(t *testing.T, cfg marketauth.Config) (*marketauth.Engine, *userstore.Memory, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	users := userstore.NewMemory()
	engine, err := marketauth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(users).
		Build()
	require.NoError(t, err)

	return engine, users, mr
}

func registerUser(t *testing.T, engine *marketauth.Engine, email string) marketauth.UserRecord {
	t.Helper()
	user, err := engine.Register(context.Background(), marketauth.RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: "Sup3r$ecret",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterAssignsDefaults(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())

	user, err := engine.Register(context.Background(), marketauth.RegisterRequest{
		Name:     "Ada",
		Email:    "  Ada@Example.COM ",
		Password: "Sup3r$ecret",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "member", user.Role)
	assert.NotEmpty(t, user.UserID)
	assert.NotEqual(t, "Sup3r$ecret", user.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	_, err := engine.Register(ctx, marketauth.RegisterRequest{Email: "a@b.com", Password: "Sup3r$ecret"})
	assert.ErrorIs(t, err, marketauth.ErrMissingFields)

	_, err = engine.Register(ctx, marketauth.RegisterRequest{Name: "A", Email: "a@b.com", Password: "short"})
	assert.ErrorIs(t, err, marketauth.ErrWeakPassword)

	registerUser(t, engine, "dup@example.com")
	_, err = engine.Register(ctx, marketauth.RegisterRequest{
		Name: "B", Email: "dup@example.com", Password: "Sup3r$ecret",
	})
	assert.ErrorIs(t, err, marketauth.ErrEmailExists)
}

func TestLoginIssuesDistinctPairs(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	user := registerUser(t, engine, "login@example.com")

	first, err := engine.Login(ctx, "login@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	require.False(t, first.TwoFARequired)
	require.NotEmpty(t, first.AccessToken)
	require.NotEmpty(t, first.RefreshToken)
	assert.Equal(t, user.UserID, first.User.UserID)

	// A later login must not collide with the first session's tokens, even
	// within the same second.
	second, err := engine.Login(ctx, "login@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Both sessions stay valid side by side.
	for _, token := range []string{first.AccessToken, second.AccessToken} {
		identity, err := engine.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.UserID, identity.UserID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	registerUser(t, engine, "victim@example.com")

	_, err := engine.Login(ctx, "victim@example.com", "WrongPass1!")
	assert.ErrorIs(t, err, marketauth.ErrInvalidCredentials)

	_, err = engine.Login(ctx, "ghost@example.com", "Sup3r$ecret")
	assert.ErrorIs(t, err, marketauth.ErrInvalidCredentials)

	_, err = engine.Login(ctx, "", "")
	assert.ErrorIs(t, err, marketauth.ErrMissingFields)
}

func TestRefreshRotationIsSingleUse(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	user := registerUser(t, engine, "rotate@example.com")

	session, err := engine.Login(ctx, "rotate@example.com", "Sup3r$ecret")
	require.NoError(t, err)

	rotated, err := engine.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEmpty(t, rotated.RefreshToken)

	// The consumed token is dead even though its signature is still valid.
	_, err = engine.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, marketauth.ErrRefreshInvalid)

	// The replacement works exactly once in turn.
	identity, err := engine.Authenticate(ctx, rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, identity.UserID)

	_, err = engine.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
	_, err = engine.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, marketauth.ErrRefreshInvalid)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	_, err := engine.Refresh(ctx, "")
	assert.ErrorIs(t, err, marketauth.ErrRefreshInvalid)

	_, err = engine.Refresh(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, marketauth.ErrRefreshInvalid)
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	registerUser(t, engine, "bye@example.com")

	session, err := engine.Login(ctx, "bye@example.com", "Sup3r$ecret")
	require.NoError(t, err)

	require.NoError(t, engine.Logout(ctx, session.AccessToken, session.RefreshToken))

	// The access token dies immediately, not at its natural expiry.
	_, err = engine.Authenticate(ctx, session.AccessToken)
	assert.ErrorIs(t, err, marketauth.ErrAccessTokenRevoked)

	_, err = engine.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, marketauth.ErrRefreshInvalid)

	// Logout is idempotent.
	require.NoError(t, engine.Logout(ctx, session.AccessToken, session.RefreshToken))
	require.NoError(t, engine.Logout(ctx, "", ""))
}

func TestAuthenticateOrdering(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	_, err := engine.Authenticate(ctx, "")
	assert.ErrorIs(t, err, marketauth.ErrAccessTokenMissing)

	_, err = engine.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, marketauth.ErrAccessTokenInvalid)

	// A refresh token is not an access token.
	registerUser(t, engine, "kinds@example.com")
	session, err := engine.Login(ctx, "kinds@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	_, err = engine.Authenticate(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, marketauth.ErrAccessTokenInvalid)
}

func TestAuthenticateExpired(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessTTL = time.Nanosecond
	engine, _, _ := newTestEngine(t, cfg)
	ctx := context.Background()
	registerUser(t, engine, "expired@example.com")

	session, err := engine.Login(ctx, "expired@example.com", "Sup3r$ecret")
	require.NoError(t, err)

	_, err = engine.Authenticate(ctx, session.AccessToken)
	assert.ErrorIs(t, err, marketauth.ErrAccessTokenExpired)
}

func TestAuthorizeRoles(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	user := registerUser(t, engine, "roles@example.com")

	got, err := engine.Authorize(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, got.UserID)

	_, err = engine.Authorize(ctx, user.UserID, "admin")
	assert.ErrorIs(t, err, marketauth.ErrAccessDenied)

	got, err = engine.Authorize(ctx, user.UserID, "admin", "member")
	require.NoError(t, err)
	assert.Equal(t, "member", got.Role)

	_, err = engine.Authorize(ctx, "nope", "member")
	assert.ErrorIs(t, err, marketauth.ErrUserNotFound)
}

func enableTwoFactor(t *testing.T, engine *marketauth.Engine, userID string) string {
	t.Helper()
	ctx := context.Background()

	provision, err := engine.ProvisionTOTP(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, provision.Secret)
	require.Contains(t, provision.URI, "otpauth://totp/")

	code, err := gototp.GenerateCode(provision.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, engine.ActivateTOTP(ctx, userID, code))

	return provision.Secret
}

func TestTwoFactorLoginFlow(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	user := registerUser(t, engine, "2fa@example.com")
	secret := enableTwoFactor(t, engine, user.UserID)

	// Step one yields a challenge, never tokens.
	challenge, err := engine.Login(ctx, "2fa@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	assert.True(t, challenge.TwoFARequired)
	assert.Empty(t, challenge.AccessToken)
	assert.Empty(t, challenge.RefreshToken)
	require.NotEmpty(t, challenge.TempToken)
	assert.Equal(t, 180*time.Second, challenge.ExpiresIn)

	code, err := gototp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	session, err := engine.LoginTOTP(ctx, challenge.TempToken, code)
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, user.UserID, session.User.UserID)

	// The temp token was consumed by the successful exchange.
	_, err = engine.LoginTOTP(ctx, challenge.TempToken, code)
	assert.ErrorIs(t, err, marketauth.ErrTempTokenInvalid)
}

func TestTwoFactorWrongCodeConsumesChallenge(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	user := registerUser(t, engine, "2fa-wrong@example.com")
	secret := enableTwoFactor(t, engine, user.UserID)

	challenge, err := engine.Login(ctx, "2fa-wrong@example.com", "Sup3r$ecret")
	require.NoError(t, err)

	good, err := gototp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	bad := "000000"
	if bad == good {
		bad = "000001"
	}

	_, err = engine.LoginTOTP(ctx, challenge.TempToken, bad)
	assert.ErrorIs(t, err, marketauth.ErrTOTPInvalid)

	// A wrong code is terminal: the same challenge cannot be retried with
	// the right code.
	_, err = engine.LoginTOTP(ctx, challenge.TempToken, good)
	assert.ErrorIs(t, err, marketauth.ErrTempTokenInvalid)
}

func TestTwoFactorChallengeExpires(t *testing.T) {
	engine, _, mr := newTestEngine(t, testConfig())
	ctx := context.Background()
	user := registerUser(t, engine, "2fa-late@example.com")
	secret := enableTwoFactor(t, engine, user.UserID)

	challenge, err := engine.Login(ctx, "2fa-late@example.com", "Sup3r$ecret")
	require.NoError(t, err)

	mr.FastForward(181 * time.Second)

	code, err := gototp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	_, err = engine.LoginTOTP(ctx, challenge.TempToken, code)
	assert.ErrorIs(t, err, marketauth.ErrTempTokenInvalid)
}

func TestActivateTOTPRequiresProvision(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	user := registerUser(t, engine, "noprov@example.com")

	err := engine.ActivateTOTP(ctx, user.UserID, "123456")
	assert.ErrorIs(t, err, marketauth.ErrTOTPNotProvisioned)

	err = engine.ActivateTOTP(ctx, user.UserID, "")
	assert.ErrorIs(t, err, marketauth.ErrMissingFields)
}

func TestBuilderValidation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	_, err := marketauth.New().WithConfig(testConfig()).WithUserStore(userstore.NewMemory()).Build()
	assert.ErrorIs(t, err, marketauth.ErrEngineNotReady)

	_, err = marketauth.New().WithConfig(testConfig()).WithRedis(client).Build()
	assert.ErrorIs(t, err, marketauth.ErrEngineNotReady)

	bad := testConfig()
	bad.JWT.AccessSecret = ""
	_, err = marketauth.New().WithConfig(bad).WithRedis(client).WithUserStore(userstore.NewMemory()).Build()
	assert.Error(t, err)
}
