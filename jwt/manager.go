package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects which of the two token families a codec operation targets.
// The value doubles as the JWT subject claim, so a decoded token reveals
// its own kind and a token of one kind can never verify as the other.
type Kind string

const (
	// KindAccess is the short-lived per-request credential.
	KindAccess Kind = "accessApi"
	// KindRefresh is the long-lived credential used only to mint new pairs.
	KindRefresh Kind = "refreshToken"
)

var (
	// ErrTokenMalformed covers bad structure and bad signatures.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired is returned when the exp claim has elapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenWrongKind is returned when the subject claim does not match
	// the expected kind.
	ErrTokenWrongKind = errors.New("token kind mismatch")
)

// Config holds the signing material and lifetimes for both token kinds.
// Access and refresh tokens are signed with independent secrets so a leaked
// access secret cannot be used to forge refresh tokens.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Claims is the payload carried by both token kinds.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Manager issues and verifies signed tokens. It has no durable state; a
// token's validity here is signature + expiry only. Revocation and the
// refresh-token index live in the stores layer.
type Manager struct {
	config Config
}

// NewManager validates the codec configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("jwt: both signing secrets are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwt: token lifetimes must be positive")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// TTL reports the configured lifetime for a token kind.
func (m *Manager) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return m.config.RefreshTTL
	}
	return m.config.AccessTTL
}

func (m *Manager) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return m.config.RefreshSecret
	}
	return m.config.AccessSecret
}

// Issue mints a signed token of the given kind for userID. The expiry is
// computed from the configured lifetime at call time. Every token carries a
// random jti, so two issuances for the same user in the same second still
// produce distinct token strings; the refresh index is keyed by token value
// and must never alias two sessions onto one entry.
func (m *Manager) Issue(kind Kind, userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(kind),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTL(kind))),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret(kind))
}

// Verify checks signature, expiry, and subject for a token of the expected
// kind. It performs no store lookups and has no side effects.
func (m *Manager) Verify(tokenStr string, kind Kind) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	// The per-kind secrets already reject cross-kind tokens at the signature
	// stage; the subject check still matters when both secrets are configured
	// to the same value.
	if claims.Subject != string(kind) {
		return nil, ErrTokenWrongKind
	}
	if claims.UserID == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
