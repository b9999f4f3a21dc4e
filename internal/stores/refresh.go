package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrBackendUnavailable wraps any Redis transport or script failure.
	ErrBackendUnavailable = errors.New("token store unavailable")
	// ErrRefreshNotFound is returned when a refresh token has no live
	// index entry: never issued, already rotated, logged out, or expired.
	ErrRefreshNotFound = errors.New("refresh token not registered")
)

// takeScript returns the mapped value and deletes the key in one atomic
// step. When two refresh calls race on the same token, Redis serializes the
// scripts and exactly one caller observes the value; the other gets nil.
const takeScript = `
local v = redis.call("GET", KEYS[1])
if not v then
  return false
end
redis.call("DEL", KEYS[1])
return v
`

var takeLua = redis.NewScript(takeScript)

// RefreshRegistry is the forward index from live refresh-token values to
// their owning user. A refresh token is only usable while its entry exists;
// deleting the entry invalidates the token ahead of its signed expiry.
type RefreshRegistry struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRefreshRegistry creates a registry under the given key prefix
// (default "refresh").
func NewRefreshRegistry(client redis.UniversalClient, prefix string) *RefreshRegistry {
	if prefix == "" {
		prefix = "refresh"
	}
	return &RefreshRegistry{redis: client, prefix: prefix}
}

func (r *RefreshRegistry) key(token string) string {
	return r.prefix + ":" + token
}

// Put creates or overwrites the index entry. ttl must equal the token's
// remaining signed validity so the entry cannot outlive the token.
func (r *RefreshRegistry) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: non-positive ttl", ErrBackendUnavailable)
	}
	if err := r.redis.Set(ctx, r.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Lookup returns the owning user without mutating the entry.
func (r *RefreshRegistry) Lookup(ctx context.Context, token string) (string, error) {
	userID, err := r.redis.Get(ctx, r.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrRefreshNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return userID, nil
}

// TakeAndDelete atomically claims the entry: it returns the owning user and
// removes the mapping in a single store operation. A second call for the
// same token returns ErrRefreshNotFound, which is what forces a replayed
// refresh token back through full authentication.
func (r *RefreshRegistry) TakeAndDelete(ctx context.Context, token string) (string, error) {
	result, err := takeLua.Run(ctx, r.redis, []string{r.key(token)}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrRefreshNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	userID, ok := result.(string)
	if !ok || userID == "" {
		return "", ErrRefreshNotFound
	}
	return userID, nil
}

// Delete removes the entry. Missing entries are not an error; logout is
// idempotent.
func (r *RefreshRegistry) Delete(ctx context.Context, token string) error {
	if err := r.redis.Del(ctx, r.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
