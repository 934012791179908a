// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/utils/clock"
)

// tokenBucketScript refills and debits a bucket stored as a hash
// {tokens, ts}. ts is milliseconds on the caller's clock and never moves
// backwards, so a lagging replica cannot mint tokens.
//
// KEYS[1] bucket key
// ARGV    capacity, rate per second, now ms, ttl ms
var tokenBucketScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now
end

if now > ts then
  tokens = math.min(capacity, tokens + (now - ts) / 1000.0 * rate)
  ts = now
end

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', tostring(ts))
redis.call('PEXPIRE', KEYS[1], ttl)
return {allowed, tostring(tokens)}
`)

// Redis is the shared production backend.
type Redis struct {
	rdb   *redis.Client
	clock clock.PassiveClock
}

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Clock supplies bucket timestamps. Defaults to the real clock.
	Clock clock.PassiveClock
}

// NewRedis creates a client. It does not dial; call Ping to check
// reachability.
func NewRedis(opts RedisOptions) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisFromClient(rdb, opts.Clock)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client, clk clock.PassiveClock) *Redis {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Redis{rdb: rdb, clock: clk}
}

// Client exposes the underlying connection for components that need raw
// commands (the shared membership filter).
func (r *Redis) Client() *redis.Client {
	return r.rdb
}

// Ping implements Store.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// SetNX implements Cache.
func (r *Redis) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	ok, err := r.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// Delete implements Cache and Sets.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// SetAdd implements Sets. SADD and EXPIRE run in one MULTI block.
func (r *Redis) SetAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, args...)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis sadd %s: %w", key, err)
	}
	return nil
}

// SetMembers implements Sets.
func (r *Redis) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", key, err)
	}
	if len(members) == 0 {
		return nil, nil
	}
	return members, nil
}

// SetRemove implements Sets.
func (r *Redis) SetRemove(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := r.rdb.SRem(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("redis srem %s: %w", key, err)
	}
	return nil
}

// TakeToken implements Buckets.
func (r *Redis) TakeToken(ctx context.Context, key string, capacity int, rate float64) (Take, error) {
	now := r.clock.Now().UnixMilli()
	ttl := bucketTTL(capacity, rate).Milliseconds()

	res, err := tokenBucketScript.Run(ctx, r.rdb, []string{key}, capacity, rate, now, ttl).Slice()
	if err != nil {
		return Take{}, fmt.Errorf("redis token bucket %s: %w", key, err)
	}
	if len(res) != 2 {
		return Take{}, fmt.Errorf("redis token bucket %s: unexpected reply %v", key, res)
	}

	allowed, _ := res[0].(int64)
	var remaining float64
	if s, ok := res[1].(string); ok {
		remaining, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return Take{}, fmt.Errorf("redis token bucket %s: parse tokens %q: %w", key, s, err)
		}
	}
	return Take{Allowed: allowed == 1, Remaining: remaining}, nil
}
