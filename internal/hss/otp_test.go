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

func newTestOTPStore(t *testing.T) *hss.OTPStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return hss.NewOTPStore(client)
}

func TestOTP_GenerateThenVerifySucceeds(t *testing.T) {
	store := newTestOTPStore(t)

	code, err := store.Generate(context.Background(), "alice@example.com", time.Minute)
	require.NoError(t, err)
	require.Len(t, code, 6)

	require.NoError(t, store.Verify(context.Background(), "alice@example.com", code))
}

func TestOTP_VerifyConsumesCode(t *testing.T) {
	store := newTestOTPStore(t)

	code, err := store.Generate(context.Background(), "alice@example.com", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Verify(context.Background(), "alice@example.com", code))

	err = store.Verify(context.Background(), "alice@example.com", code)
	require.ErrorIs(t, err, hss.ErrOTPMismatch)
}

func TestOTP_VerifyRejectsWrongCode(t *testing.T) {
	store := newTestOTPStore(t)

	_, err := store.Generate(context.Background(), "alice@example.com", time.Minute)
	require.NoError(t, err)

	err = store.Verify(context.Background(), "alice@example.com", "000000")
	require.ErrorIs(t, err, hss.ErrOTPMismatch)
}

func TestOTP_VerifyWithoutGenerateFails(t *testing.T) {
	store := newTestOTPStore(t)

	err := store.Verify(context.Background(), "nobody@example.com", "123456")
	require.ErrorIs(t, err, hss.ErrOTPMismatch)
}
