// Package ratelimit gates requests to the collection API based on the
// rate-limit headers it returns. It reads X-RateLimit-Remaining,
// X-RateLimit-Reset and Retry-After so bulk selections that walk many pages
// slow down before the API starts refusing them.
package ratelimit

import (
	"time"
)

// Header names understood by the tracker.
const (
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Thresholds for gating decisions.
const (
	// ThresholdExhausted blocks requests when remaining falls below this value.
	ThresholdExhausted = 1

	// ThresholdWarning throttles requests when remaining falls below this value.
	ThresholdWarning = 5
)

// epochCutoff separates "seconds until reset" from absolute unix timestamps
// in the reset header.
const epochCutoff = 1_000_000_000

// State is the last known rate-limit budget.
type State struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets. Zero if the API did not say.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the state was last refreshed from headers.
	LastUpdate time.Time `json:"last_update"`

	// Known is false until the first response carrying rate-limit headers.
	Known bool `json:"known"`
}

// IsStale returns true if the state is older than maxAge.
func (s State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsBlock returns true if requests must wait for the window to reset.
func (s State) NeedsBlock() bool {
	return s.Known && s.Remaining < ThresholdExhausted && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be slowed down.
func (s State) NeedsThrottling() bool {
	return s.Known && s.Remaining < ThresholdWarning && !s.NeedsBlock()
}

// TimeUntilReset returns the duration until the window resets, or 0.
func (s State) TimeUntilReset() time.Duration {
	if s.ResetAt.IsZero() {
		return 0
	}
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}
