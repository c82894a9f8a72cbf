package ratelimit

import (
	"testing"
	"time"
)

func TestState_NeedsBlock(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{
			name:  "unknown state",
			state: State{},
			want:  false,
		},
		{
			name:  "exhausted with future reset",
			state: State{Known: true, Remaining: 0, ResetAt: time.Now().Add(10 * time.Second)},
			want:  true,
		},
		{
			name:  "exhausted with past reset",
			state: State{Known: true, Remaining: 0, ResetAt: time.Now().Add(-time.Second)},
			want:  false,
		},
		{
			name:  "exhausted without reset",
			state: State{Known: true, Remaining: 0},
			want:  false,
		},
		{
			name:  "healthy",
			state: State{Known: true, Remaining: 50, ResetAt: time.Now().Add(time.Minute)},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.NeedsBlock(); got != tt.want {
				t.Errorf("NeedsBlock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_NeedsThrottling(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"unknown", State{}, false},
		{"low budget", State{Known: true, Remaining: 3}, true},
		{"at warning threshold", State{Known: true, Remaining: ThresholdWarning}, false},
		{"exhausted without reset throttles", State{Known: true, Remaining: 0}, true},
		{"blocked is not throttled", State{Known: true, Remaining: 0, ResetAt: time.Now().Add(time.Minute)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.NeedsThrottling(); got != tt.want {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	s := State{ResetAt: time.Now().Add(-5 * time.Second)}
	if d := s.TimeUntilReset(); d != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0 for past reset", d)
	}

	s = State{ResetAt: time.Now().Add(30 * time.Second)}
	if d := s.TimeUntilReset(); d <= 25*time.Second || d > 30*time.Second {
		t.Errorf("TimeUntilReset() = %v, want ~30s", d)
	}

	if d := (State{}).TimeUntilReset(); d != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0 for zero reset", d)
	}
}

func TestState_IsStale(t *testing.T) {
	s := State{LastUpdate: time.Now().Add(-2 * time.Minute)}
	if !s.IsStale(time.Minute) {
		t.Error("state updated 2m ago should be stale after 1m")
	}
	if s.IsStale(5 * time.Minute) {
		t.Error("state updated 2m ago should not be stale after 5m")
	}
}
