// Package hss implements the Hot State Store: the Redis-backed view of
// in-flight seat holds, sold markers, idempotent purchase receipts, and
// registration OTP codes.
package hss

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned when a release or purchase references a hold the
// caller does not currently own (expired, stolen, or never placed).
var ErrNotHeld = errors.New("hss: seat not held by caller")

// ErrAlreadySold is returned when a hold attempt targets a seat already
// finalized as sold.
var ErrAlreadySold = errors.New("hss: seat already sold")

// ErrLocked is returned when a hold attempt targets a seat someone else
// currently holds.
var ErrLocked = errors.New("hss: seat locked by another user")

const soldPrefix = "SOLD:"

func seatKey(seatID string) string {
	return "seat:" + seatID
}

// ReservationStore is the atomic Lua-scripted front end onto seat:{id} keys.
type ReservationStore struct {
	client *redis.Client

	holdScript     *redis.Script
	releaseScript  *redis.Script
	finalizeScript *redis.Script
}

// NewReservationStore creates a new ReservationStore.
func NewReservationStore(client *redis.Client) *ReservationStore {
	return &ReservationStore{
		client:         client,
		holdScript:     redis.NewScript(luaHold),
		releaseScript:  redis.NewScript(luaRelease),
		finalizeScript: redis.NewScript(luaFinalize),
	}
}

// PreloadScripts caches every Lua script on the Redis server so the first
// real call in production hits EVALSHA rather than paying the script
// upload cost on the hot path.
func (s *ReservationStore) PreloadScripts(ctx context.Context) error {
	for _, script := range []*redis.Script{s.holdScript, s.releaseScript, s.finalizeScript} {
		if err := script.Load(ctx, s.client).Err(); err != nil {
			return fmt.Errorf("preload script: %w", err)
		}
	}
	return nil
}

// luaHold places an exclusive hold on a seat. Holds are not renewable via
// hold: a caller re-holding a seat it already holds is a conflict exactly
// like a foreign holder's attempt would be — re-acquiring a seat requires
// release then hold.
const luaHold = `
local key = KEYS[1]
local holder = ARGV[1]
local ttl_ms = tonumber(ARGV[2])

local cur = redis.call('GET', key)
if cur == false then
	redis.call('SET', key, holder, 'PX', ttl_ms)
	return {1, 'OK'}
end

if string.sub(cur, 1, 5) == 'SOLD:' then
	return {0, 'SOLD'}
end

return {0, 'LOCKED'}
`

// luaRelease removes a hold, but only if it still belongs to the caller.
const luaRelease = `
local key = KEYS[1]
local holder = ARGV[1]

local cur = redis.call('GET', key)
if cur == holder then
	redis.call('DEL', key)
	return 1
end
return 0
`

// luaFinalize converts a LOCKED hold into a permanent SOLD marker. It is
// idempotent: re-finalizing a seat already marked SOLD by the same holder
// succeeds without error.
const luaFinalize = `
local key = KEYS[1]
local holder = ARGV[1]
local sold_value = ARGV[2]

local cur = redis.call('GET', key)
if cur == holder or cur == sold_value then
	redis.call('SET', key, sold_value)
	return 1
end
return 0
`

// Hold attempts to place an exclusive hold on seatID for holderID with the
// given TTL. Returns ErrLocked or ErrAlreadySold on conflict.
func (s *ReservationStore) Hold(ctx context.Context, seatID, holderID string, ttl time.Duration) error {
	res, err := s.eval(ctx, s.holdScript, []string{seatKey(seatID)}, holderID, ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("hold script: %w", err)
	}

	ok, reason := parseResult(res)
	if ok {
		return nil
	}
	switch reason {
	case "SOLD":
		return ErrAlreadySold
	default:
		return ErrLocked
	}
}

// Release removes holderID's hold on seatID. Returns ErrNotHeld if the
// hold had already expired or belonged to someone else.
func (s *ReservationStore) Release(ctx context.Context, seatID, holderID string) error {
	res, err := s.eval(ctx, s.releaseScript, []string{seatKey(seatID)}, holderID)
	if err != nil {
		return fmt.Errorf("release script: %w", err)
	}
	if n, _ := res.(int64); n == 0 {
		return ErrNotHeld
	}
	return nil
}

// VerifyHold checks that holderID currently holds seatID, without mutating
// anything. Used as the first phase of purchase before the DRS commit.
func (s *ReservationStore) VerifyHold(ctx context.Context, seatID, holderID string) error {
	val, err := s.client.Get(ctx, seatKey(seatID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotHeld
	}
	if err != nil {
		return fmt.Errorf("get seat key: %w", err)
	}
	if strings.HasPrefix(val, soldPrefix) {
		return ErrAlreadySold
	}
	if val != holderID {
		return ErrNotHeld
	}
	return nil
}

// Finalize marks seatID permanently SOLD to holderID, the third phase of
// purchase (after the DRS commit succeeds). Returns ErrNotHeld if the hold
// was lost between VerifyHold and Finalize.
func (s *ReservationStore) Finalize(ctx context.Context, seatID, holderID string) error {
	res, err := s.eval(ctx, s.finalizeScript, []string{seatKey(seatID)}, holderID, soldPrefix+holderID)
	if err != nil {
		return fmt.Errorf("finalize script: %w", err)
	}
	if n, _ := res.(int64); n == 0 {
		return ErrNotHeld
	}
	return nil
}

// ForceFinalize unconditionally marks seatID SOLD to holderID, regardless
// of whatever the key currently holds (missing, held by someone else, or
// already sold). Only the reconciliation sweep calls this: it has already
// confirmed the DRS row is booked to holderID, so the DRS is the source of
// truth and the HSS simply needs to catch up.
func (s *ReservationStore) ForceFinalize(ctx context.Context, seatID, holderID string) error {
	if err := s.client.Set(ctx, seatKey(seatID), soldPrefix+holderID, 0).Err(); err != nil {
		return fmt.Errorf("force finalize seat key: %w", err)
	}
	return nil
}

// IsSold reports whether the HSS currently has seatID marked SOLD, used by
// the reconciliation sweep to detect seats DRS says are booked but HSS
// hasn't caught up to.
func (s *ReservationStore) IsSold(ctx context.Context, seatID string) (bool, error) {
	val, err := s.client.Get(ctx, seatKey(seatID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get seat key: %w", err)
	}
	return strings.HasPrefix(val, soldPrefix), nil
}

// SnapshotEntry describes one seat's live HSS state for a snapshot read.
type SnapshotEntry struct {
	SeatID   string
	State    string // "LOCKED" or "SOLD"
	HolderID string
	TTL      time.Duration // remaining hold time; zero for SOLD entries
}

// Snapshot scans every seat:* key and returns the live hold/sold state for
// each, to be merged with the DRS listing by the Reservation Core.
func (s *ReservationStore) Snapshot(ctx context.Context) ([]SnapshotEntry, error) {
	var entries []SnapshotEntry

	iter := s.client.Scan(ctx, 0, "seat:*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan seat keys: %w", err)
	}
	if len(keys) == 0 {
		return entries, nil
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget seat keys: %w", err)
	}

	for i, key := range keys {
		v, ok := vals[i].(string)
		if !ok {
			continue
		}
		seatID := strings.TrimPrefix(key, "seat:")
		if strings.HasPrefix(v, soldPrefix) {
			entries = append(entries, SnapshotEntry{SeatID: seatID, State: "SOLD", HolderID: strings.TrimPrefix(v, soldPrefix)})
			continue
		}
		ttl, err := s.client.PTTL(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("pttl seat key: %w", err)
		}
		entries = append(entries, SnapshotEntry{SeatID: seatID, State: "LOCKED", HolderID: v, TTL: ttl})
	}

	return entries, nil
}

// Reset removes every seat:* key, for the admin reset endpoint.
func (s *ReservationStore) Reset(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, "seat:*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan seat keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete seat keys: %w", err)
	}
	return nil
}

func (s *ReservationStore) eval(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) (interface{}, error) {
	res, err := script.Run(ctx, s.client, keys, args...).Result()
	if err != nil {
		return nil, err
	}
	return res, nil
}

func parseResult(res interface{}) (bool, string) {
	arr, ok := res.([]interface{})
	if !ok || len(arr) != 2 {
		return false, ""
	}
	ok2 := false
	if n, ok := arr[0].(int64); ok {
		ok2 = n == 1
	}
	reason, _ := arr[1].(string)
	return ok2, reason
}
