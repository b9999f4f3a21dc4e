package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTempTokenNotFound is returned when a temp token was never issued,
// already consumed, or has expired. Callers do not learn which.
var ErrTempTokenNotFound = errors.New("temp token not found")

// TempTokenStore holds the opaque tokens that bridge a successful password
// check and the pending TOTP check during two-step login. Tokens are random
// UUIDs mapped to the user ID with a fixed short TTL, and are single-use:
// the engine consumes them on the first terminal second-factor attempt,
// success or failure.
type TempTokenStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewTempTokenStore creates a store under the given key prefix (default
// "temp2fa") with the given fixed TTL.
func NewTempTokenStore(client redis.UniversalClient, prefix string, ttl time.Duration) *TempTokenStore {
	if prefix == "" {
		prefix = "temp2fa"
	}
	return &TempTokenStore{redis: client, prefix: prefix, ttl: ttl}
}

func (s *TempTokenStore) key(token string) string {
	return s.prefix + ":" + token
}

// TTL reports the fixed lifetime applied to issued tokens.
func (s *TempTokenStore) TTL() time.Duration {
	return s.ttl
}

// Issue creates a fresh temp token for userID.
func (s *TempTokenStore) Issue(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.redis.Set(ctx, s.key(token), userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return token, nil
}

// Resolve returns the owning user without consuming the token. The engine
// decides whether the attempt is terminal and calls Consume separately.
func (s *TempTokenStore) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.redis.Get(ctx, s.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTempTokenNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return userID, nil
}

// Consume deletes the token. Consuming an already-gone token is not an
// error.
func (s *TempTokenStore) Consume(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
