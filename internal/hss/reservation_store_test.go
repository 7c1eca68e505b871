package hss_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/flight-booking-system/internal/hss"
)

func newTestStore(t *testing.T) (*hss.ReservationStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return hss.NewReservationStore(client), mr
}

func TestHold_ExclusiveAgainstSecondHolder(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Hold(context.Background(), "1-1", "alice", time.Minute))

	err := store.Hold(context.Background(), "1-1", "bob", time.Minute)
	require.ErrorIs(t, err, hss.ErrLocked)
}

func TestHold_SameHolderReholdIsConflict(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Hold(context.Background(), "1-1", "alice", time.Minute))

	err := store.Hold(context.Background(), "1-1", "alice", 2*time.Minute)
	require.ErrorIs(t, err, hss.ErrLocked)
}

func TestHold_RefusedOnceSold(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Hold(context.Background(), "1-1", "alice", time.Minute))
	require.NoError(t, store.Finalize(context.Background(), "1-1", "alice"))

	err := store.Hold(context.Background(), "1-1", "bob", time.Minute)
	require.ErrorIs(t, err, hss.ErrAlreadySold)
}

func TestRelease_OnlyHolderCanRelease(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Hold(context.Background(), "1-1", "alice", time.Minute))

	err := store.Release(context.Background(), "1-1", "bob")
	require.ErrorIs(t, err, hss.ErrNotHeld)

	require.NoError(t, store.Release(context.Background(), "1-1", "alice"))

	// Released seat can be held by someone else now.
	require.NoError(t, store.Hold(context.Background(), "1-1", "bob", time.Minute))
}

func TestVerifyHold_DetectsStolenOrExpiredHold(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.VerifyHold(context.Background(), "1-1", "alice")
	require.ErrorIs(t, err, hss.ErrNotHeld)

	require.NoError(t, store.Hold(context.Background(), "1-1", "alice", time.Minute))
	require.NoError(t, store.VerifyHold(context.Background(), "1-1", "alice"))

	err = store.VerifyHold(context.Background(), "1-1", "bob")
	require.ErrorIs(t, err, hss.ErrNotHeld)
}

func TestFinalize_IdempotentOnRetry(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Hold(context.Background(), "1-1", "alice", time.Minute))
	require.NoError(t, store.Finalize(context.Background(), "1-1", "alice"))
	require.NoError(t, store.Finalize(context.Background(), "1-1", "alice"))

	sold, err := store.IsSold(context.Background(), "1-1")
	require.NoError(t, err)
	require.True(t, sold)
}

func TestForceFinalize_OverwritesMissingOrStaleKey(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.ForceFinalize(context.Background(), "1-1", "alice"))

	sold, err := store.IsSold(context.Background(), "1-1")
	require.NoError(t, err)
	require.True(t, sold)

	// A stale hold by another user is overwritten as well.
	require.NoError(t, store.Hold(context.Background(), "1-2", "bob", time.Minute))
	require.NoError(t, store.ForceFinalize(context.Background(), "1-2", "alice"))

	sold, err = store.IsSold(context.Background(), "1-2")
	require.NoError(t, err)
	require.True(t, sold)
}

func TestSnapshot_ReturnsLockedAndSoldEntries(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Hold(context.Background(), "1-1", "alice", time.Minute))
	require.NoError(t, store.Hold(context.Background(), "1-2", "bob", time.Minute))
	require.NoError(t, store.Finalize(context.Background(), "1-2", "bob"))

	entries, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]hss.SnapshotEntry{}
	for _, e := range entries {
		byID[e.SeatID] = e
	}
	require.Equal(t, "LOCKED", byID["1-1"].State)
	require.Equal(t, "alice", byID["1-1"].HolderID)
	require.Equal(t, "SOLD", byID["1-2"].State)
	require.Equal(t, "bob", byID["1-2"].HolderID)
}

func TestReset_ClearsAllKeys(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Hold(context.Background(), "1-1", "alice", time.Minute))
	require.NoError(t, store.Reset(context.Background()))

	entries, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}
