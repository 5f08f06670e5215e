package presence_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pong-social/internal/presence"
)

func newStore(t *testing.T) *presence.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return presence.New(rdb)
}

func TestRegisterThenResolveBothWays(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	prev, err := store.Register(ctx, 7, "sock-a", "tok-1")
	require.NoError(t, err)
	require.Empty(t, prev, "first connect has nothing to evict")

	entry, err := store.GetByUser(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "sock-a", entry.SocketID)
	require.Equal(t, "tok-1", entry.SessionID)
	require.Equal(t, presence.Online, entry.Status)

	// Forward then reverse must round-trip to the same user.
	uid, err := store.GetUserBySocket(ctx, entry.SocketID)
	require.NoError(t, err)
	require.Equal(t, uint64(7), uid)
}

func TestRegisterReturnsSupersededSocket(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Register(ctx, 7, "sock-a", "tok-1")
	require.NoError(t, err)

	prev, err := store.Register(ctx, 7, "sock-b", "tok-2")
	require.NoError(t, err)
	require.Equal(t, "sock-a", prev)

	entry, err := store.GetByUser(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "sock-b", entry.SocketID)

	// The superseded socket's reverse entry must be gone with it.
	_, err = store.GetUserBySocket(ctx, "sock-a")
	require.ErrorIs(t, err, presence.ErrNotFound)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Register(ctx, 7, "sock-a", "tok-1")
	require.NoError(t, err)

	uid, err := store.Remove(ctx, "sock-a")
	require.NoError(t, err)
	require.Equal(t, uint64(7), uid)

	_, err = store.GetByUser(ctx, 7)
	require.ErrorIs(t, err, presence.ErrNotFound)

	// A duplicate disconnect event is a no-op, not a failure.
	_, err = store.Remove(ctx, "sock-a")
	require.ErrorIs(t, err, presence.ErrNotFound)
}

func TestStaleRemoveDoesNotClobberNewerConnect(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Register(ctx, 7, "sock-a", "tok-1")
	require.NoError(t, err)
	_, err = store.Register(ctx, 7, "sock-b", "tok-2")
	require.NoError(t, err)

	// The delayed disconnect for the evicted socket arrives after the new
	// connect. It must not remove sock-b's entry.
	_, err = store.Remove(ctx, "sock-a")
	require.ErrorIs(t, err, presence.ErrNotFound)

	entry, err := store.GetByUser(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "sock-b", entry.SocketID)
	uid, err := store.GetUserBySocket(ctx, "sock-b")
	require.NoError(t, err)
	require.Equal(t, uint64(7), uid)
}

func TestConcurrentConnectStormLeavesOneEntry(t *testing.T) {
	store := newStore(t)

	const sockets = 32
	errs := make(chan error, sockets)
	var wg sync.WaitGroup
	for i := 0; i < sockets; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := store.Register(ctx, 7, fmt.Sprintf("sock-%d", n), fmt.Sprintf("tok-%d", n))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	ctx := context.Background()
	entry, err := store.GetByUser(ctx, 7)
	require.NoError(t, err)

	// Exactly one winner: its reverse entry points back, every loser's
	// reverse entry was cleared by whichever Register superseded it.
	uid, err := store.GetUserBySocket(ctx, entry.SocketID)
	require.NoError(t, err)
	require.Equal(t, uint64(7), uid)

	live := 0
	for i := 0; i < sockets; i++ {
		if _, err := store.GetUserBySocket(ctx, fmt.Sprintf("sock-%d", i)); err == nil {
			live++
		}
	}
	require.Equal(t, 1, live)
}

func TestNoOrphansAfterChurn(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Register(ctx, 1, "a1", "t1")
	require.NoError(t, err)
	_, err = store.Register(ctx, 2, "b1", "t2")
	require.NoError(t, err)
	_, err = store.Register(ctx, 1, "a2", "t3") // evicts a1
	require.NoError(t, err)
	_, err = store.Remove(ctx, "a1") // stale, no-op
	require.ErrorIs(t, err, presence.ErrNotFound)
	_, err = store.Remove(ctx, "b1")
	require.NoError(t, err)

	// User 1 online via a2, user 2 offline, and both directions agree.
	entry, err := store.GetByUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "a2", entry.SocketID)
	uid, err := store.GetUserBySocket(ctx, "a2")
	require.NoError(t, err)
	require.Equal(t, uint64(1), uid)

	_, err = store.GetByUser(ctx, 2)
	require.ErrorIs(t, err, presence.ErrNotFound)
	_, err = store.GetUserBySocket(ctx, "b1")
	require.ErrorIs(t, err, presence.ErrNotFound)
}
