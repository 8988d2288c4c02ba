package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/themecat/internal/evaluator"
	"github.com/amishk599/themecat/internal/pipeline"
	"github.com/amishk599/themecat/internal/report"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleReport(withEval bool) report.Report {
	r := report.Report{
		RunID:    "run-123",
		Model:    "llama",
		Source:   "reviews.csv",
		Duration: 3 * time.Second,
		Run: pipeline.RunMetrics{
			TotalReviews:          4,
			SuccessfulExtractions: 3,
			FailedExtractions:     1,
			TotalThemesExtracted:  6,
			SuccessRate:           0.75,
			AvgThemesPerReview:    2,
		},
	}
	if withEval {
		r.Eval = &evaluator.AggregateMetrics{
			ThemeIdentificationRate: 62.5,
			NovelThemesPercentage:   20,
			TotalGroundTruthThemes:  8,
			TotalIdentified:         5,
		}
	}
	return r
}

type webhookBody struct {
	Text   string           `json:"text"`
	Blocks []map[string]any `json:"blocks"`
}

func TestSlackNotifier_PostsBlocks(t *testing.T) {
	var body webhookBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleReport(true)); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if !strings.Contains(body.Text, "4 reviews") {
		t.Errorf("fallback text = %q", body.Text)
	}
	// header, run section, eval section, context, divider
	if len(body.Blocks) != 5 {
		t.Fatalf("got %d blocks, want 5", len(body.Blocks))
	}
	if body.Blocks[0]["type"] != "header" || body.Blocks[4]["type"] != "divider" {
		t.Errorf("block types = %v ... %v", body.Blocks[0]["type"], body.Blocks[4]["type"])
	}

	raw, _ := json.Marshal(body.Blocks)
	for _, want := range []string{"62.5%", "run-123", "75.0%"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("payload missing %q: %s", want, raw)
		}
	}
}

func TestSlackNotifier_NoEvalSection(t *testing.T) {
	var body webhookBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleReport(false)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(body.Blocks) != 4 {
		t.Errorf("got %d blocks, want 4", len(body.Blocks))
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleReport(false)); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestSlackNotifier_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var slept []time.Duration
	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	n.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	if err := n.Notify(context.Background(), sampleReport(false)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("calls = %d, want 2", c)
	}
	if len(slept) != 1 || slept[0] != 3*time.Second {
		t.Errorf("slept = %v, want [3s]", slept)
	}
}

func TestSendTestMessage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := SendTestMessage(context.Background(), NewSlackNotifier(srv.URL, srv.Client(), discardLogger())); err != nil {
		t.Fatalf("SendTestMessage: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
