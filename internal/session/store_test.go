package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pong-social/internal/session"
)

func newStore(t *testing.T, ttl time.Duration) (*session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return session.New(rdb, ttl), mr
}

func TestCreateAndValidate(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, time.Hour)

	token, err := store.Create(ctx, 42)
	require.NoError(t, err)
	require.Len(t, token, 96) // 48 random bytes, hex encoded

	uid, err := store.Validate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), uid)
}

func TestSecondLoginSupersedesFirst(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, time.Hour)

	first, err := store.Create(ctx, 42)
	require.NoError(t, err)
	second, err := store.Create(ctx, 42)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// The superseded token is dead the instant the new one exists.
	_, err = store.Validate(ctx, first)
	require.ErrorIs(t, err, session.ErrNotAuthenticated)

	uid, err := store.Validate(ctx, second)
	require.NoError(t, err)
	require.Equal(t, uint64(42), uid)
}

func TestValidateRejectsMissingAndEmpty(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, time.Hour)

	_, err := store.Validate(ctx, "")
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
	_, err = store.Validate(ctx, "nope")
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestValidateRejectsExpired(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t, 10*time.Second)

	token, err := store.Create(ctx, 42)
	require.NoError(t, err)

	mr.FastForward(11 * time.Second)

	_, err = store.Validate(ctx, token)
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestDestroyInvalidatesToken(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, time.Hour)

	token, err := store.Create(ctx, 42)
	require.NoError(t, err)

	require.NoError(t, store.Destroy(ctx, token))

	_, err = store.Validate(ctx, token)
	require.ErrorIs(t, err, session.ErrNotAuthenticated)

	// Destroying again reports the token as already invalid.
	require.ErrorIs(t, store.Destroy(ctx, token), session.ErrNotAuthenticated)
}

func TestDestroyReportsBackendFailure(t *testing.T) {
	ctx := context.Background()
	store, mr := newStore(t, time.Hour)

	token, err := store.Create(ctx, 42)
	require.NoError(t, err)

	// A store that cannot answer is not the same as an invalid token: the
	// caller gets the wrapped failure and decides how to surface it.
	mr.Close()
	require.ErrorIs(t, store.Destroy(ctx, token), session.ErrDestroy)
}

func TestDestroyUnknownToken(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t, time.Hour)
	require.ErrorIs(t, store.Destroy(ctx, "never-issued"), session.ErrNotAuthenticated)
}
