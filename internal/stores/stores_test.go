package stores

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRefreshRegistryPutLookupDelete(t *testing.T) {
	_, client := testRedis(t)
	reg := NewRefreshRegistry(client, "")
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, "tok-1", "user-1", time.Hour))

	userID, err := reg.Lookup(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	require.NoError(t, reg.Delete(ctx, "tok-1"))
	_, err = reg.Lookup(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrRefreshNotFound)

	// Delete of a missing entry stays silent.
	require.NoError(t, reg.Delete(ctx, "tok-1"))
}

func TestRefreshRegistryRejectsNonPositiveTTL(t *testing.T) {
	_, client := testRedis(t)
	reg := NewRefreshRegistry(client, "")

	err := reg.Put(context.Background(), "tok-1", "user-1", 0)
	assert.Error(t, err)
}

func TestRefreshRegistryEntryExpires(t *testing.T) {
	mr, client := testRedis(t)
	reg := NewRefreshRegistry(client, "")
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, "tok-1", "user-1", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := reg.Lookup(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestTakeAndDeleteIsSingleUse(t *testing.T) {
	_, client := testRedis(t)
	reg := NewRefreshRegistry(client, "")
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, "tok-1", "user-1", time.Hour))

	userID, err := reg.TakeAndDelete(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = reg.TakeAndDelete(ctx, "tok-1")
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

// Two goroutines racing on the same token: exactly one may win, the loser
// must see not-found rather than a second valid session.
func TestTakeAndDeleteConcurrentSingleWinner(t *testing.T) {
	_, client := testRedis(t)
	reg := NewRefreshRegistry(client, "")
	ctx := context.Background()

	const rounds = 50
	for i := 0; i < rounds; i++ {
		require.NoError(t, reg.Put(ctx, "race-token", "user-1", time.Hour))

		var wg sync.WaitGroup
		results := make([]error, 2)
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				_, results[slot] = reg.TakeAndDelete(ctx, "race-token")
			}(j)
		}
		wg.Wait()

		var wins int
		for _, err := range results {
			if err == nil {
				wins++
			} else {
				assert.ErrorIs(t, err, ErrRefreshNotFound)
			}
		}
		assert.Equal(t, 1, wins)
	}
}

func TestRevocationRegistry(t *testing.T) {
	mr, client := testRedis(t)
	reg := NewRevocationRegistry(client, "invalid:access")
	ctx := context.Background()

	revoked, err := reg.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, reg.Revoke(ctx, "tok-1", time.Minute))
	revoked, err = reg.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Idempotent.
	require.NoError(t, reg.Revoke(ctx, "tok-1", time.Minute))

	// Entry lapses with the token's natural expiry.
	mr.FastForward(2 * time.Minute)
	revoked, err = reg.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeExpiredTokenIsNoOp(t *testing.T) {
	_, client := testRedis(t)
	reg := NewRevocationRegistry(client, "invalid:access")
	ctx := context.Background()

	require.NoError(t, reg.Revoke(ctx, "tok-1", 0))
	require.NoError(t, reg.Revoke(ctx, "tok-1", -time.Minute))

	revoked, err := reg.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationPrefixesAreIsolated(t *testing.T) {
	_, client := testRedis(t)
	access := NewRevocationRegistry(client, "invalid:access")
	refresh := NewRevocationRegistry(client, "invalid:refresh")
	ctx := context.Background()

	require.NoError(t, access.Revoke(ctx, "tok-1", time.Minute))

	revoked, err := refresh.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTempTokenLifecycle(t *testing.T) {
	mr, client := testRedis(t)
	store := NewTempTokenStore(client, "", 180*time.Second)
	ctx := context.Background()

	token, err := store.Issue(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Resolve does not consume.
	userID, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	userID, err = store.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	require.NoError(t, store.Consume(ctx, token))
	_, err = store.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrTempTokenNotFound)

	// Consume is idempotent.
	require.NoError(t, store.Consume(ctx, token))

	// Unused tokens lapse at TTL.
	token2, err := store.Issue(ctx, "user-1")
	require.NoError(t, err)
	mr.FastForward(181 * time.Second)
	_, err = store.Resolve(ctx, token2)
	assert.ErrorIs(t, err, ErrTempTokenNotFound)
}

func TestTempTokensAreDistinct(t *testing.T) {
	_, client := testRedis(t)
	store := NewTempTokenStore(client, "", 180*time.Second)
	ctx := context.Background()

	a, err := store.Issue(ctx, "user-1")
	require.NoError(t, err)
	b, err := store.Issue(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
