package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ErrRateLimited is returned when the budget is exhausted and the reset is
// further away than the configured maximum wait.
var ErrRateLimited = errors.New("rate limit exhausted")

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "artsel_rate_limit_remaining",
		Help: "Requests remaining in the current collection API rate limit window",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artsel_rate_limit_blocks_total",
		Help: "Total number of requests that waited for or were refused by an exhausted rate limit",
	})

	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artsel_rate_limit_throttles_total",
		Help: "Total number of requests delayed because the rate limit budget was low",
	})
)

// Config holds tracker configuration.
type Config struct {
	// ThrottleDelay is the pause applied when the budget is low.
	ThrottleDelay time.Duration

	// MaxWait is the longest a request will wait for a window reset.
	MaxWait time.Duration
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		ThrottleDelay: 1 * time.Second,
		MaxWait:       30 * time.Second,
	}
}

// Tracker keeps the rate-limit state seen on responses and gates requests.
// It is safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	state  State
	config Config
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker.
func NewTracker(cfg Config, logger zerolog.Logger) *Tracker {
	if cfg.ThrottleDelay < 0 {
		cfg.ThrottleDelay = 0
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultConfig().MaxWait
	}
	return &Tracker{
		config: cfg,
		logger: logger,
	}
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// UpdateFromHeaders refreshes the state from a response.
// Responses without rate-limit headers leave the state unchanged.
func (t *Tracker) UpdateFromHeaders(statusCode int, headers http.Header) error {
	now := time.Now()

	if statusCode == http.StatusTooManyRequests {
		resetAt := now.Add(t.config.ThrottleDelay)
		if v := headers.Get(HeaderRetryAfter); v != "" {
			secs, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("parse %s header: %w", HeaderRetryAfter, err)
			}
			resetAt = now.Add(time.Duration(secs) * time.Second)
		}
		t.store(State{Remaining: 0, ResetAt: resetAt, LastUpdate: now, Known: true})
		return nil
	}

	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(strings.TrimSpace(remainStr))
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	state := State{Remaining: remain, LastUpdate: now, Known: true}

	if resetStr := headers.Get(HeaderReset); resetStr != "" {
		reset, err := strconv.ParseInt(strings.TrimSpace(resetStr), 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}
		if reset >= epochCutoff {
			state.ResetAt = time.Unix(reset, 0)
		} else {
			state.ResetAt = now.Add(time.Duration(reset) * time.Second)
		}
	}

	t.store(state)
	return nil
}

func (t *Tracker) store(state State) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	rateLimitRemaining.Set(float64(state.Remaining))

	switch {
	case state.NeedsBlock():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("Rate limit exhausted - requests will wait for reset")
	case state.NeedsThrottling():
		t.logger.Info().
			Int("remaining", state.Remaining).
			Msg("Rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Msg("Rate limit state updated")
	}
}

// Wait blocks until a request may be sent.
// It returns ErrRateLimited when the reset is further away than MaxWait and
// the context error if ctx ends while waiting.
func (t *Tracker) Wait(ctx context.Context) error {
	state := t.State()

	if state.NeedsBlock() {
		wait := state.TimeUntilReset()
		rateLimitBlocksTotal.Inc()

		if wait > t.config.MaxWait {
			t.logger.Error().
				Dur("wait_duration", wait).
				Dur("max_wait", t.config.MaxWait).
				Msg("Rate limit exhausted - refusing request")
			return fmt.Errorf("%w: resets in %s", ErrRateLimited, wait.Round(time.Second))
		}

		t.logger.Warn().
			Dur("wait_duration", wait).
			Msg("Rate limit exhausted - waiting for reset")
		return sleep(ctx, wait)
	}

	if state.NeedsThrottling() {
		rateLimitThrottlesTotal.Inc()
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Dur("delay", t.config.ThrottleDelay).
			Msg("Throttling request")
		return sleep(ctx, t.config.ThrottleDelay)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
