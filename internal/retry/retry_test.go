package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/amishk599/themecat/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSleeper captures requested delays without sleeping.
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func testPolicy(attempts int, s *recordingSleeper) Policy {
	p := NewPolicy(attempts)
	p.Sleep = s.Sleep
	return p
}

func TestDo_SucceedsOnFirstAttempt(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0
	err := Do(context.Background(), testPolicy(3, sleeper), discardLogger(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if len(sleeper.delays) != 0 {
		t.Fatalf("expected no sleeps, got %v", sleeper.delays)
	}
}

func TestDo_SucceedsOnThirdAttemptWithLinearBackoff(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0
	err := Do(context.Background(), testPolicy(3, sleeper), discardLogger(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &model.TransportError{Kind: model.KindTimeout, Err: errors.New("deadline")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(sleeper.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", sleeper.delays, want)
	}
	for i := range want {
		if sleeper.delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, sleeper.delays[i], want[i])
		}
	}
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0
	boom := &model.TransportError{Kind: model.KindAPI, Err: errors.New("bad gateway")}
	err := Do(context.Background(), testPolicy(3, sleeper), discardLogger(), func(context.Context) error {
		calls++
		return boom
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	// No sleep after the final attempt.
	if len(sleeper.delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %v", sleeper.delays)
	}
}

func TestDo_StopsWhenSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	p := NewPolicy(3)
	err := Do(ctx, p, discardLogger(), func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestPolicy_ZeroValueMakesOneAttempt(t *testing.T) {
	var p Policy
	if p.Attempts() != 1 {
		t.Fatalf("Attempts() = %d, want 1", p.Attempts())
	}
	if _, ok := p.Delay(0); ok {
		t.Fatal("expected no retry for zero policy")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.ErrorKind
	}{
		{"transport error kind wins", &model.TransportError{Kind: model.KindRateLimited, Err: errors.New("x")}, model.KindRateLimited},
		{"deadline exceeded", fmt.Errorf("llm request: %w", context.DeadlineExceeded), model.KindTimeout},
		{"http 429", &model.HTTPError{StatusCode: 429}, model.KindRateLimited},
		{"http 503", &model.HTTPError{StatusCode: 503}, model.KindAPI},
		{"http 504", &model.HTTPError{StatusCode: 504}, model.KindTimeout},
		{"net timeout", fmt.Errorf("wrapped: %w", timeoutErr{}), model.KindTimeout},
		{"dial refused", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, model.KindConnection},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "llm.invalid"}, model.KindConnection},
		{"plain error", errors.New("something odd"), model.KindUnexpected},
		// A message mentioning "connection" is not enough on its own.
		{"substring only", errors.New("connection pool exhausted"), model.KindUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
