package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestCooldownState_Active(t *testing.T) {
	tests := []struct {
		name     string
		state    *CooldownState
		expected bool
	}{
		{
			name:     "future until",
			state:    &CooldownState{Until: time.Now().Add(time.Minute)},
			expected: true,
		},
		{
			name:     "past until",
			state:    &CooldownState{Until: time.Now().Add(-time.Second)},
			expected: false,
		},
		{
			name:     "zero state",
			state:    &CooldownState{},
			expected: false,
		},
		{
			name:     "nil state",
			state:    nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Active(); got != tt.expected {
				t.Errorf("Active() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCooldownState_Remaining(t *testing.T) {
	past := &CooldownState{Until: time.Now().Add(-time.Minute)}
	if got := past.Remaining(); got != 0 {
		t.Errorf("Remaining() = %v, want 0", got)
	}

	future := &CooldownState{Until: time.Now().Add(30 * time.Second)}
	if got := future.Remaining(); got <= 25*time.Second || got > 30*time.Second {
		t.Errorf("Remaining() = %v, want about 30s", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{"seconds", "30", 30 * time.Second, true},
		{"zero", "0", 0, true},
		{"padded", " 5 ", 5 * time.Second, true},
		{"http date", now.Add(2 * time.Minute).Format(http.TimeFormat), 2 * time.Minute, true},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0, true},
		{"clamped", "86400", MaxCooldown, true},
		{"negative", "-5", 0, false},
		{"empty", "", 0, false},
		{"garbage", "soon", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRetryAfter(tt.value, now)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
