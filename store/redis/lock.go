package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/cronlock"
	"github.com/xraph/cronlock/lock"
)

// upsertLockScript returns 1 on insert, 2 on a matched overwrite and 0
// when the lock is live and held by someone else. A record without a
// readable acquired_at is stale.
//
// KEYS[1] lock key; ARGV: resource, owner, now, staleBefore.
var upsertLockScript = goredis.NewScript(`
local cur = redis.call('HMGET', KEYS[1], 'owner_id', 'acquired_at')
local outcome = 0
if not cur[1] then
	outcome = 1
elseif cur[1] == ARGV[2] or (tonumber(cur[2]) or 0) < tonumber(ARGV[4]) then
	outcome = 2
end
if outcome > 0 then
	redis.call('HSET', KEYS[1], 'resource', ARGV[1], 'owner_id', ARGV[2], 'acquired_at', ARGV[3])
end
return outcome
`)

// deleteLockScript deletes KEYS[1] when ARGV[1] owns it.
var deleteLockScript = goredis.NewScript(`
if redis.call('HGET', KEYS[1], 'owner_id') == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// UpsertLock implements lock.Store.
func (s *Store) UpsertLock(ctx context.Context, cond lock.Condition, now time.Time) (lock.UpsertResult, error) {
	outcome, err := upsertLockScript.Run(ctx, s.client,
		[]string{lockKey(cond.Resource)},
		cond.Resource, cond.OwnerID, now.UTC().UnixMicro(), cond.StaleBefore.UTC().UnixMicro(),
	).Int()
	if err != nil {
		return lock.UpsertResult{}, fmt.Errorf("cronlock/redis: upsert lock: %w", err)
	}
	return lock.UpsertResult{Inserted: outcome == 1, Matched: outcome == 2}, nil
}

// GetLock implements lock.Store.
func (s *Store) GetLock(ctx context.Context, resource string) (*lock.Record, error) {
	vals, err := s.client.HGetAll(ctx, lockKey(resource)).Result()
	if err != nil {
		return nil, fmt.Errorf("cronlock/redis: get lock: %w", err)
	}
	if len(vals) == 0 {
		return nil, cronlock.ErrLockNotFound
	}

	rec := &lock.Record{Resource: resource, OwnerID: vals["owner_id"]}
	if raw, ok := vals["acquired_at"]; ok {
		us, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cronlock/redis: parse acquired_at for %q: %w", resource, err)
		}
		rec.AcquiredAt = time.UnixMicro(us).UTC()
	}
	return rec, nil
}

// DeleteLock implements lock.Store.
func (s *Store) DeleteLock(ctx context.Context, resource, ownerID string) (bool, error) {
	n, err := deleteLockScript.Run(ctx, s.client, []string{lockKey(resource)}, ownerID).Int()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return false, fmt.Errorf("cronlock/redis: delete lock: %w", err)
	}
	return n > 0, nil
}
