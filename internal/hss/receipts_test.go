package hss_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/flight-booking-system/internal/domain"
	"github.com/flight-booking-system/internal/hss"
)

func newTestReceiptStore(t *testing.T) *hss.ReceiptStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return hss.NewReceiptStore(client)
}

func TestReceiptClaim_FirstCallerClaimsInFlight(t *testing.T) {
	store := newTestReceiptStore(t)

	receipt, existing, err := store.Claim(context.Background(), "key-1", time.Second)
	require.NoError(t, err)
	require.False(t, existing)
	require.Nil(t, receipt)
}

func TestReceiptClaim_CommitThenRetrievedByRetry(t *testing.T) {
	store := newTestReceiptStore(t)

	_, existing, err := store.Claim(context.Background(), "key-1", time.Second)
	require.NoError(t, err)
	require.False(t, existing)

	receipt := &domain.Receipt{
		TxID:           "tx-1",
		SeatID:         "1-1",
		UserID:         "alice",
		IdempotencyKey: "key-1",
		IssuedAt:       time.Now(),
	}
	require.NoError(t, store.Commit(context.Background(), receipt, time.Hour))

	got, existing, err := store.Claim(context.Background(), "key-1", time.Second)
	require.NoError(t, err)
	require.True(t, existing)
	require.Equal(t, receipt.TxID, got.TxID)
}

func TestReceiptAbort_UnblocksRetryAfterFailure(t *testing.T) {
	store := newTestReceiptStore(t)

	_, existing, err := store.Claim(context.Background(), "key-1", time.Hour)
	require.NoError(t, err)
	require.False(t, existing)

	require.NoError(t, store.Abort(context.Background(), "key-1"))

	_, existing, err = store.Claim(context.Background(), "key-1", time.Hour)
	require.NoError(t, err)
	require.False(t, existing)
}

func TestReceiptGet_ReturnsNilWhenAbsent(t *testing.T) {
	store := newTestReceiptStore(t)

	receipt, err := store.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.Nil(t, receipt)
}
