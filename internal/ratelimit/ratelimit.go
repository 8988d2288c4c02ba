package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/amishk599/themecat/internal/retry"
)

// Pacer enforces a fixed pause after each request sent to the LLM provider.
// Requests are dispatched one at a time, so no bookkeeping of the last call is
// needed: every Wait sleeps the full delay.
type Pacer struct {
	delay time.Duration
	sleep retry.Sleeper
}

// PacerOption customizes a Pacer.
type PacerOption func(*Pacer)

// WithSleeper overrides how the pause is performed (useful for tests).
func WithSleeper(s retry.Sleeper) PacerOption {
	return func(p *Pacer) {
		if s != nil {
			p.sleep = s
		}
	}
}

// NewPacer creates a pacer that pauses for delay. A delay of zero or less
// disables pacing.
func NewPacer(delay time.Duration, opts ...PacerOption) *Pacer {
	p := &Pacer{
		delay: delay,
		sleep: retry.SleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Delay returns the configured pause.
func (p *Pacer) Delay() time.Duration {
	if p == nil {
		return 0
	}
	return p.delay
}

// Enabled reports whether Wait actually pauses.
func (p *Pacer) Enabled() bool {
	return p != nil && p.delay > 0
}

// Wait blocks for the configured delay. Returns an error if the context is
// cancelled while waiting.
func (p *Pacer) Wait(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	if err := p.sleep(ctx, p.delay); err != nil {
		return fmt.Errorf("pacer wait %s: %w", p.delay, err)
	}
	return nil
}
