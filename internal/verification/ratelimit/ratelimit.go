// Package ratelimit gates one-time code issuance per record and channel.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a cooldown check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter decides whether a code may be sent for key. lastSentAt is the stamp
// stored on the record, nil when no code was ever sent.
type Limiter interface {
	Allow(ctx context.Context, key string, lastSentAt *time.Time, now time.Time) (Decision, error)
	Reset(ctx context.Context, key string) error
}

// Key builds the limiter key for a record channel.
func Key(recordID, channel string) string {
	return recordID + ":" + channel
}

// Cooldown enforces the cooldown from the record's own lastCodeSentAt stamp.
type Cooldown struct {
	cooldown time.Duration
}

func NewCooldown(cooldown time.Duration) *Cooldown {
	return &Cooldown{cooldown: cooldown}
}

func (c *Cooldown) Allow(_ context.Context, _ string, lastSentAt *time.Time, now time.Time) (Decision, error) {
	if lastSentAt == nil {
		return Decision{Allowed: true}, nil
	}
	if remaining := lastSentAt.Add(c.cooldown).Sub(now); remaining > 0 {
		return Decision{RetryAfter: remaining}, nil
	}
	return Decision{Allowed: true}, nil
}

// Reset is a no-op; the record stamp is cleared by the caller.
func (c *Cooldown) Reset(context.Context, string) error {
	return nil
}

// RedisGate adds a cross-instance gate on top of the record check: the first
// caller in a cooldown window wins a SET NX key that expires with the window.
type RedisGate struct {
	client   redis.Cmdable
	cooldown time.Duration
	record   *Cooldown
	prefix   string
}

func NewRedisGate(client redis.Cmdable, cooldown time.Duration) *RedisGate {
	return &RedisGate{
		client:   client,
		cooldown: cooldown,
		record:   NewCooldown(cooldown),
		prefix:   "lectern:code-cooldown:",
	}
}

func (g *RedisGate) Allow(ctx context.Context, key string, lastSentAt *time.Time, now time.Time) (Decision, error) {
	d, err := g.record.Allow(ctx, key, lastSentAt, now)
	if err != nil || !d.Allowed {
		return d, err
	}

	won, err := g.client.SetNX(ctx, g.prefix+key, now.UnixMilli(), g.cooldown).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("acquire cooldown gate: %w", err)
	}
	if won {
		return Decision{Allowed: true}, nil
	}

	ttl, err := g.client.PTTL(ctx, g.prefix+key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("read cooldown gate ttl: %w", err)
	}
	if ttl <= 0 {
		// Key vanished or has no expiry between SETNX and PTTL.
		ttl = time.Second
	}
	return Decision{RetryAfter: ttl}, nil
}

func (g *RedisGate) Reset(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("reset cooldown gate: %w", err)
	}
	return nil
}
