package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	cooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagesel_cooldowns_total",
		Help: "Total number of upstream cooldowns recorded from 429 responses",
	})

	cooldownBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagesel_cooldown_blocks_total",
		Help: "Total number of requests held back by an active cooldown",
	})
)

// Tracker records upstream cooldowns and gates requests.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new cooldown tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current cooldown from Redis. Returns an inactive
// state when nothing is stored.
func (t *Tracker) GetState(ctx context.Context) (*CooldownState, error) {
	until, err := t.redis.Get(ctx, RedisKeyCooldownUntil).Int64()
	if errors.Is(err, redis.Nil) {
		return &CooldownState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cooldown: %w", err)
	}

	cause, err := t.redis.Get(ctx, RedisKeyCooldownCause).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get cooldown cause: %w", err)
	}

	return &CooldownState{
		Until: time.UnixMilli(until),
		Cause: cause,
	}, nil
}

// UpdateFromResponse records a cooldown when the response is a 429.
// Other responses are ignored.
func (t *Tracker) UpdateFromResponse(ctx context.Context, resp *http.Response) error {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	now := time.Now()
	wait, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), now)
	if !ok {
		wait = DefaultCooldown
	}
	if wait <= 0 {
		return nil
	}
	until := now.Add(wait)

	pipe := t.redis.TxPipeline()
	pipe.Set(ctx, RedisKeyCooldownUntil, until.UnixMilli(), wait)
	pipe.Set(ctx, RedisKeyCooldownCause, resp.Status, wait)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store cooldown in redis: %w", err)
	}

	cooldownsTotal.Inc()
	t.logger.Warn().
		Dur("cooldown", wait).
		Time("until", until).
		Msg("Source throttled requests, cooling down")

	return nil
}

// ShouldAllowRequest returns false while a cooldown is active.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get cooldown state: %w", err)
	}

	if state.Active() {
		t.logger.Warn().
			Dur("remaining", state.Remaining()).
			Str("cause", state.Cause).
			Msg("Cooldown active - holding request back")
		cooldownBlocksTotal.Inc()
		return false, nil
	}

	return true, nil
}

// Clear removes any recorded cooldown.
func (t *Tracker) Clear(ctx context.Context) error {
	if err := t.redis.Del(ctx, RedisKeyCooldownUntil, RedisKeyCooldownCause).Err(); err != nil {
		return fmt.Errorf("clear cooldown: %w", err)
	}
	return nil
}
