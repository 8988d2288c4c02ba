package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"syscall"
	"time"

	"github.com/amishk599/themecat/internal/model"
)

// DefaultMaxAttempts is the number of completion attempts made per extraction.
const DefaultMaxAttempts = 3

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy decides how many times a transport failure is retried and how long to
// wait between attempts. The zero value makes a single attempt.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Sleep       Sleeper
}

// NewPolicy returns a policy with the linear backoff used for LLM calls:
// 2s after the first failure, 4s after the second, and so on.
func NewPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff:     DefaultBackoff,
		Sleep:       SleepContext,
	}
}

// DefaultBackoff returns (attempt+1)*2s, where attempt is the 0-based index of
// the attempt that just failed.
func DefaultBackoff(attempt int) time.Duration {
	return time.Duration(attempt+1) * 2 * time.Second
}

// Attempts returns the effective attempt limit (at least 1).
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the wait before the attempt following attempt, and false when
// attempt was the last one allowed.
func (p Policy) Delay(attempt int) (time.Duration, bool) {
	if attempt+1 >= p.Attempts() {
		return 0, false
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = DefaultBackoff
	}
	return backoff(attempt), true
}

func (p Policy) wait(ctx context.Context, d time.Duration) error {
	if p.Sleep == nil {
		return SleepContext(ctx, d)
	}
	return p.Sleep(ctx, d)
}

// Do runs op until it succeeds or the policy is exhausted. Every failure is
// treated as transient; callers keep non-retryable outcomes out of op's error.
// Returns the last error, wrapped, when all attempts fail.
func Do(ctx context.Context, p Policy, logger *slog.Logger, op func(ctx context.Context) error) error {
	attempts := p.Attempts()
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		kind := Classify(err)
		logger.Error("llm call failed",
			"attempt", attempt+1,
			"max_attempts", attempts,
			"kind", kind.String(),
			"error", err,
		)

		delay, ok := p.Delay(attempt)
		if !ok {
			break
		}
		logger.Info("retrying llm call", "delay", delay)
		if err := p.wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// SleepContext waits for d, returning early with ctx.Err() if ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Classify maps an error from an LLM call onto an ErrorKind. Providers usually
// attach the kind via *model.TransportError; otherwise the error chain is
// inspected structurally.
func Classify(err error) model.ErrorKind {
	if err == nil {
		return model.KindUnexpected
	}

	var te *model.TransportError
	if errors.As(err, &te) {
		return te.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return model.KindTimeout
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return KindForStatus(httpErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.KindTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return model.KindConnection
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return model.KindConnection
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return model.KindConnection
	}

	return model.KindUnexpected
}

// KindForStatus classifies a non-2xx HTTP status returned by a provider.
func KindForStatus(status int) model.ErrorKind {
	switch status {
	case 429:
		return model.KindRateLimited
	case 408, 504:
		return model.KindTimeout
	default:
		return model.KindAPI
	}
}
