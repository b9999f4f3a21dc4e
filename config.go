package marketauth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full engine configuration. Instances are treated as
// immutable after [Builder.Build].
type Config struct {
	JWT       JWTConfig
	TempToken TempTokenConfig
	Keys      KeyConfig
	Password  PasswordConfig
	TOTP      TOTPConfig
	Account   AccountConfig
	Cookie    CookieConfig
}

// JWTConfig carries the signing secrets and lifetimes for both token
// kinds. Lifetimes accept marketplace-style duration strings via
// [ParseExpiry] ("15m", "7d").
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// TempTokenConfig controls the two-factor bridge tokens.
type TempTokenConfig struct {
	TTL time.Duration
}

// KeyConfig sets the Redis key namespaces for the three registries.
type KeyConfig struct {
	RefreshPrefix        string
	RevokedAccessPrefix  string
	RevokedRefreshPrefix string
	TempTokenPrefix      string
}

// PasswordConfig carries the argon2id cost parameters plus the
// upgrade-on-login switch.
type PasswordConfig struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

// TOTPConfig parameterizes two-factor code checks. Period is the step in
// seconds, Skew the accepted steps of clock drift on either side.
type TOTPConfig struct {
	Issuer string
	Period uint
	Skew   uint
}

// AccountConfig holds registration defaults.
type AccountConfig struct {
	DefaultRole string
}

// CookieConfig is consumed by the HTTP layer when writing the token
// cookies.
type CookieConfig struct {
	Secure bool
}

// DefaultConfig returns the development defaults: 15-minute access tokens,
// 7-day refresh tokens, 180-second temp tokens.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "marketauth",
		},
		TempToken: TempTokenConfig{TTL: 180 * time.Second},
		Keys: KeyConfig{
			RefreshPrefix:        "refresh",
			RevokedAccessPrefix:  "invalid:access",
			RevokedRefreshPrefix: "invalid:refresh",
			TempTokenPrefix:      "temp2fa",
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           2,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		TOTP: TOTPConfig{
			Issuer: "manfra.io",
			Period: 30,
			Skew:   1,
		},
		Account: AccountConfig{DefaultRole: "member"},
	}
}

// FromEnv builds a Config from the environment on top of DefaultConfig.
// ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required; everything
// else has a default.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.JWT.AccessSecret = os.Getenv("ACCESS_TOKEN_SECRET")
	cfg.JWT.RefreshSecret = os.Getenv("REFRESH_TOKEN_SECRET")
	if cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		return Config{}, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}

	if v := os.Getenv("ACCESS_TOKEN_EXPIRES_IN"); v != "" {
		d, err := ParseExpiry(v)
		if err != nil {
			return Config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRES_IN: %w", err)
		}
		cfg.JWT.AccessTTL = d
	}
	if v := os.Getenv("REFRESH_TOKEN_EXPIRES_IN"); v != "" {
		d, err := ParseExpiry(v)
		if err != nil {
			return Config{}, fmt.Errorf("REFRESH_TOKEN_EXPIRES_IN: %w", err)
		}
		cfg.JWT.RefreshTTL = d
	}
	if v := os.Getenv("TEMP_TOKEN_EXPIRES_IN_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			return Config{}, errors.New("TEMP_TOKEN_EXPIRES_IN_SECONDS must be a positive integer")
		}
		cfg.TempToken.TTL = time.Duration(seconds) * time.Second
	}
	if v := os.Getenv("TOTP_ISSUER"); v != "" {
		cfg.TOTP.Issuer = v
	}

	cfg.Cookie.Secure = strings.EqualFold(os.Getenv("APP_ENV"), "production")

	return cfg, nil
}

func (c Config) validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("config: both token secrets are required")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}
	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		return errors.New("config: access lifetime must be shorter than refresh lifetime")
	}
	if c.TempToken.TTL <= 0 {
		return errors.New("config: temp token TTL must be positive")
	}
	if c.TOTP.Issuer == "" {
		return errors.New("config: TOTP issuer is required")
	}
	if c.Account.DefaultRole == "" {
		return errors.New("config: default role is required")
	}
	return nil
}

// ParseExpiry parses the duration strings used by the marketplace config
// surface: an integer followed by one of s, m, h, d, or w.
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	amount, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	var unit time.Duration
	switch s[len(s)-1] {
	case 's':
		unit = time.Second
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid duration unit in %q", s)
	}

	return time.Duration(amount) * unit, nil
}
