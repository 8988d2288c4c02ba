package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_ImmediateRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	job := func(context.Context) error {
		calls.Add(1)
		cancel()
		return nil
	}

	s, err := NewScheduler(job, "@every 1h", discardLogger())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if c := calls.Load(); c != 1 {
		t.Errorf("calls = %d, want 1 immediate run", c)
	}
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	job := func(context.Context) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		return nil
	}

	s, err := NewScheduler(job, "@every 1s", discardLogger())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not reach 3 runs")
	}
	if c := calls.Load(); c != 3 {
		t.Errorf("calls = %d, want 3", c)
	}
}

func TestScheduler_JobErrorKeepsRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	job := func(context.Context) error {
		if calls.Add(1) == 2 {
			cancel()
		}
		return errors.New("evaluation failed")
	}

	s, err := NewScheduler(job, "@every 1s", discardLogger())
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	if err := s.Run(ctx); err != nil {
		t.Errorf("Run returned %v, want nil", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("calls = %d, want 2", c)
	}
}

func TestParseSchedule(t *testing.T) {
	valid := []string{"0 9 * * *", "0 9 * * 1-5", "30 0 9 * * *", "@daily", "@every 6h", " @hourly "}
	for _, spec := range valid {
		if _, err := ParseSchedule(spec); err != nil {
			t.Errorf("ParseSchedule(%q): %v", spec, err)
		}
	}

	invalid := []string{"", "every day", "61 * * * *", "@every soon"}
	for _, spec := range invalid {
		if _, err := ParseSchedule(spec); err == nil {
			t.Errorf("ParseSchedule(%q): expected error", spec)
		}
	}
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	if _, err := NewScheduler(func(context.Context) error { return nil }, "nope", discardLogger()); err == nil {
		t.Fatal("expected error")
	}
}
