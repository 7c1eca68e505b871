package hss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flight-booking-system/internal/domain"
)

// ErrReceiptInFlight indicates another request with the same idempotency
// key is currently being processed.
var ErrReceiptInFlight = errors.New("hss: receipt request in flight")

const inFlightMarker = "__in_flight__"

// ReceiptStore caches purchase receipts keyed by idempotency key, so a
// retried /api/pay call returns the original receipt instead of attempting
// a second sale. Grounded on a SET key value NX GET compare-and-swap
// pattern; simplified from a full lease-refresh loop since purchase
// finishes in a single synchronous request.
type ReceiptStore struct {
	client *redis.Client

	claimScript   *redis.Script
	releaseScript *redis.Script
}

// NewReceiptStore creates a new ReceiptStore.
func NewReceiptStore(client *redis.Client) *ReceiptStore {
	return &ReceiptStore{
		client:        client,
		claimScript:   redis.NewScript(luaReceiptClaim),
		releaseScript: redis.NewScript(luaReceiptRelease),
	}
}

func receiptKey(idempotencyKey string) string {
	return "receipt:" + idempotencyKey
}

// luaReceiptClaim sets the key to the in-flight marker only if absent and
// returns 1 for that first claim; otherwise it returns the current value
// (the in-flight marker of another attempt, or a committed receipt).
const luaReceiptClaim = `
local key = KEYS[1]
local marker = ARGV[1]
local lock_ttl_ms = tonumber(ARGV[2])

local cur = redis.call('GET', key)
if cur == false then
	redis.call('SET', key, marker, 'PX', lock_ttl_ms)
	return 1
end
return cur
`

// luaReceiptRelease clears the in-flight marker, leaving a committed
// receipt in place, used to unblock retries after a failed purchase attempt.
const luaReceiptRelease = `
local key = KEYS[1]
local marker = ARGV[1]

if redis.call('GET', key) == marker then
	return redis.call('DEL', key)
end
return 0
`

// Claim attempts to become the sole owner of idempotencyKey for the
// duration of one purchase attempt. If a receipt already exists for this
// key, it is returned directly (existing=true). If another attempt is
// currently in flight, ErrReceiptInFlight is returned.
func (s *ReceiptStore) Claim(ctx context.Context, idempotencyKey string, lockTTL time.Duration) (receipt *domain.Receipt, existing bool, err error) {
	res, err := s.claimScript.Run(ctx, s.client, []string{receiptKey(idempotencyKey)}, inFlightMarker, lockTTL.Milliseconds()).Result()
	if err != nil {
		return nil, false, fmt.Errorf("claim receipt: %w", err)
	}

	if n, ok := res.(int64); ok && n == 1 {
		return nil, false, nil
	}

	val, _ := res.(string)
	if val == inFlightMarker {
		return nil, false, ErrReceiptInFlight
	}

	var r domain.Receipt
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		return nil, false, ErrReceiptInFlight
	}
	return &r, true, nil
}

// Commit writes the finished receipt in place of the in-flight marker,
// retained for the configured duration (spec requires >= 24h retention).
func (s *ReceiptStore) Commit(ctx context.Context, receipt *domain.Receipt, retention time.Duration) error {
	b, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	if err := s.client.Set(ctx, receiptKey(receipt.IdempotencyKey), b, retention).Err(); err != nil {
		return fmt.Errorf("commit receipt: %w", err)
	}
	return nil
}

// Abort releases an in-flight claim after a failed purchase attempt so a
// subsequent retry with the same idempotency key is not blocked forever.
func (s *ReceiptStore) Abort(ctx context.Context, idempotencyKey string) error {
	_, err := s.releaseScript.Run(ctx, s.client, []string{receiptKey(idempotencyKey)}, inFlightMarker).Result()
	if err != nil {
		return fmt.Errorf("abort receipt claim: %w", err)
	}
	return nil
}

// Get returns an already-committed receipt, if any, without claiming it.
func (s *ReceiptStore) Get(ctx context.Context, idempotencyKey string) (*domain.Receipt, error) {
	val, err := s.client.Get(ctx, receiptKey(idempotencyKey)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	if val == inFlightMarker {
		return nil, ErrReceiptInFlight
	}

	var r domain.Receipt
	if err := json.Unmarshal([]byte(val), &r); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}
	return &r, nil
}
