package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationRegistry is a TTL-bounded set of token values that must be
// treated as invalid ahead of their signed expiry. The engine keeps one
// instance per token kind ("invalid:access", "invalid:refresh") so the two
// namespaces cannot collide.
type RevocationRegistry struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRevocationRegistry creates a registry under the given key prefix.
func NewRevocationRegistry(client redis.UniversalClient, prefix string) *RevocationRegistry {
	if prefix == "" {
		prefix = "invalid"
	}
	return &RevocationRegistry{redis: client, prefix: prefix}
}

func (r *RevocationRegistry) key(token string) string {
	return r.prefix + ":" + token
}

// Revoke marks the token invalid for ttl. Callers compute ttl as the
// token's remaining signed validity; an entry must never outlive the token
// (wasted storage) nor expire before it (the token would come back to
// life). ttl <= 0 means the token is already naturally expired and the call
// is a no-op. Revoking the same token again just refreshes the entry.
func (r *RevocationRegistry) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.redis.Set(ctx, r.key(token), "true", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether the token has a live revocation entry.
func (r *RevocationRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, err := r.redis.Get(ctx, r.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return true, nil
}
