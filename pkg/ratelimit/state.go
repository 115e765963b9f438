// Package ratelimit tracks upstream throttling of the paged data source.
// When the source answers 429 Too Many Requests, the Retry-After window is
// stored in Redis so every client sharing that Redis backs off together.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Redis keys for cooldown state storage.
const (
	RedisKeyCooldownUntil = "pagesel:cooldown:until"
	RedisKeyCooldownCause = "pagesel:cooldown:cause"
)

// DefaultCooldown applies when a 429 carries no usable Retry-After header.
const DefaultCooldown = 60 * time.Second

// MaxCooldown caps the Retry-After value honoured from the source.
const MaxCooldown = 15 * time.Minute

// CooldownState represents the current upstream cooldown.
type CooldownState struct {
	// Until is when requests may resume. Zero when no cooldown was recorded.
	Until time.Time `json:"until"`

	// Cause is the status line that triggered the cooldown.
	Cause string `json:"cause"`
}

// Active returns true while requests should be held back.
func (s *CooldownState) Active() bool {
	return s != nil && time.Now().Before(s.Until)
}

// Remaining returns the time left in the cooldown, or 0 if it has passed.
func (s *CooldownState) Remaining() time.Duration {
	if s == nil {
		return 0
	}
	d := time.Until(s.Until)
	if d < 0 {
		return 0
	}
	return d
}

// ParseRetryAfter interprets a Retry-After header value, which is either a
// number of seconds or an HTTP date. The result is clamped to MaxCooldown.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	var d time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		d = time.Duration(secs) * time.Second
	} else {
		at, err := http.ParseTime(value)
		if err != nil {
			return 0, false
		}
		d = at.Sub(now)
		if d < 0 {
			d = 0
		}
	}

	if d > MaxCooldown {
		d = MaxCooldown
	}
	return d, true
}
