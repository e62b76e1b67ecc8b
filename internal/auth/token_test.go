package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/attarpos/attarpos/internal/shared"
)

func newTestTokenManager(t *testing.T) (*TokenManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenManager(client, time.Hour), mr
}

func TestIssueAndResolve(t *testing.T) {
	tm, _ := newTestTokenManager(t)
	ctx := context.Background()

	identity := shared.Identity{UserID: 7, Username: "cashier", DisplayName: "Counter Cashier", Role: shared.RoleCashier}
	token, err := tm.Issue(ctx, identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := tm.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, identity, resolved)
}

func TestResolveUnknownToken(t *testing.T) {
	tm, _ := newTestTokenManager(t)

	_, err := tm.Resolve(context.Background(), "no-such-token")
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = tm.Resolve(context.Background(), "")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestResolveExpiredToken(t *testing.T) {
	tm, mr := newTestTokenManager(t)
	ctx := context.Background()

	token, err := tm.Issue(ctx, shared.Identity{UserID: 1, Username: "admin", Role: shared.RoleAdmin})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = tm.Resolve(ctx, token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestResolveRefreshesTTL(t *testing.T) {
	tm, mr := newTestTokenManager(t)
	ctx := context.Background()

	token, err := tm.Issue(ctx, shared.Identity{UserID: 1, Username: "admin", Role: shared.RoleAdmin})
	require.NoError(t, err)

	// Touch the token shortly before expiry; the sliding TTL keeps it alive.
	mr.FastForward(50 * time.Minute)
	_, err = tm.Resolve(ctx, token)
	require.NoError(t, err)

	mr.FastForward(50 * time.Minute)
	_, err = tm.Resolve(ctx, token)
	require.NoError(t, err)
}

func TestRevoke(t *testing.T) {
	tm, _ := newTestTokenManager(t)
	ctx := context.Background()

	token, err := tm.Issue(ctx, shared.Identity{UserID: 1, Username: "admin", Role: shared.RoleAdmin})
	require.NoError(t, err)

	require.NoError(t, tm.Revoke(ctx, token))
	_, err = tm.Resolve(ctx, token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	// Revoking twice or revoking nothing is harmless.
	require.NoError(t, tm.Revoke(ctx, token))
	require.NoError(t, tm.Revoke(ctx, ""))
}
