package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amishk599/themecat/internal/model"
)

func makeTestServer(t *testing.T, statusCode int, body any) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, srv.Client()
}

func completionWith(content string) chatResponse {
	var choice chatChoice
	choice.Message.Content = content
	return chatResponse{Choices: []chatChoice{choice}}
}

func testOpenAIConfig(baseURL string) OpenAIConfig {
	return OpenAIConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   1000,
	}
}

func requireKind(t *testing.T, err error, want model.ErrorKind) {
	t.Helper()
	var te *model.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *model.TransportError, got %T: %v", err, err)
	}
	if te.Kind != want {
		t.Fatalf("kind = %v, want %v (err: %v)", te.Kind, want, err)
	}
}

func TestComplete_Success(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, completionWith(`{"themes":[]}`))

	provider := NewOpenAIProvider(testOpenAIConfig(srv.URL), client)
	got, err := provider.Complete(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"themes":[]}` {
		t.Errorf("got %q, want json string", got)
	}
}

func TestComplete_SendsChatRequest(t *testing.T) {
	var gotReq chatRequest
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionWith("ok"))
	}))
	defer srv.Close()

	cfg := testOpenAIConfig(srv.URL + "/v1/")
	cfg.APIKey = "EMPTY"
	provider := NewOpenAIProvider(cfg, srv.Client())
	if _, err := provider.Complete(context.Background(), "the prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v1/chat/completions" {
		t.Errorf("path = %q, want /v1/chat/completions", gotPath)
	}
	if gotAuth != "Bearer EMPTY" {
		t.Errorf("Authorization = %q, want Bearer EMPTY", gotAuth)
	}
	if gotReq.Model != "test-model" || gotReq.Temperature != 0.7 || gotReq.MaxTokens != 1000 {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" || gotReq.Messages[0].Content != "the prompt" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestComplete_RateLimited(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})

	provider := NewOpenAIProvider(testOpenAIConfig(srv.URL), client)
	_, err := provider.Complete(context.Background(), "analyze this")
	requireKind(t, err, model.KindRateLimited)

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected HTTPError 429 in chain, got %v", err)
	}
}

func TestComplete_ServerErrorIsAPIError(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusInternalServerError, map[string]string{"error": "server error"})

	provider := NewOpenAIProvider(testOpenAIConfig(srv.URL), client)
	_, err := provider.Complete(context.Background(), "analyze this")
	requireKind(t, err, model.KindAPI)
}

func TestComplete_ErrorBodyIsAPIError(t *testing.T) {
	body := map[string]any{"error": map[string]string{"message": "model not found", "type": "invalid_request_error"}}
	srv, client := makeTestServer(t, http.StatusOK, body)

	provider := NewOpenAIProvider(testOpenAIConfig(srv.URL), client)
	_, err := provider.Complete(context.Background(), "analyze this")
	requireKind(t, err, model.KindAPI)
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatResponse{})

	provider := NewOpenAIProvider(testOpenAIConfig(srv.URL), client)
	_, err := provider.Complete(context.Background(), "analyze this")
	requireKind(t, err, model.KindAPI)
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer srv.Close()

	client := srv.Client()
	client.Timeout = 20 * time.Millisecond
	provider := NewOpenAIProvider(testOpenAIConfig(srv.URL), client)
	_, err := provider.Complete(context.Background(), "analyze this")
	requireKind(t, err, model.KindTimeout)
}

func TestComplete_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	provider := NewOpenAIProvider(testOpenAIConfig(url), &http.Client{Timeout: time.Second})
	_, err := provider.Complete(context.Background(), "analyze this")
	requireKind(t, err, model.KindConnection)
}
