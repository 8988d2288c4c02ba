package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/themecat/internal/model"
)

func newAnthropicTestServer(t *testing.T, status int, body any, gotReq *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q, want /v1/messages", r.URL.Path)
		}
		if gotReq != nil {
			if err := json.NewDecoder(r.Body).Decode(gotReq); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testAnthropicConfig(baseURL string) AnthropicConfig {
	return AnthropicConfig{
		APIKey:      "test-key",
		Model:       "claude-test",
		Temperature: 0.5,
		MaxTokens:   256,
		BaseURL:     baseURL,
	}
}

func TestAnthropicComplete_Success(t *testing.T) {
	body := map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-test",
		"stop_reason": "end_turn",
		"content": []map[string]any{
			{"type": "text", "text": `{"themes":[{"theme":"wait_time","description":"long wait"}]}`},
		},
		"usage": map[string]any{"input_tokens": 10, "output_tokens": 5},
	}
	var gotReq map[string]any
	srv := newAnthropicTestServer(t, http.StatusOK, body, &gotReq)

	provider := NewAnthropicProvider(testAnthropicConfig(srv.URL), srv.Client())
	got, err := provider.Complete(context.Background(), "the prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"themes":[{"theme":"wait_time","description":"long wait"}]}` {
		t.Errorf("got %q", got)
	}
	if gotReq["model"] != "claude-test" {
		t.Errorf("model = %v, want claude-test", gotReq["model"])
	}
	if gotReq["max_tokens"] != float64(256) {
		t.Errorf("max_tokens = %v, want 256", gotReq["max_tokens"])
	}
}

func TestAnthropicComplete_RateLimited(t *testing.T) {
	body := map[string]any{
		"type":  "error",
		"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
	}
	srv := newAnthropicTestServer(t, http.StatusTooManyRequests, body, nil)

	provider := NewAnthropicProvider(testAnthropicConfig(srv.URL), srv.Client())
	_, err := provider.Complete(context.Background(), "the prompt")
	requireKind(t, err, model.KindRateLimited)
}

func TestAnthropicComplete_NoTextBlock(t *testing.T) {
	body := map[string]any{
		"id":      "msg_1",
		"type":    "message",
		"role":    "assistant",
		"model":   "claude-test",
		"content": []map[string]any{},
		"usage":   map[string]any{"input_tokens": 10, "output_tokens": 0},
	}
	srv := newAnthropicTestServer(t, http.StatusOK, body, nil)

	provider := NewAnthropicProvider(testAnthropicConfig(srv.URL), srv.Client())
	_, err := provider.Complete(context.Background(), "the prompt")
	requireKind(t, err, model.KindAPI)
}
