package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/themecat/internal/model"
	"github.com/amishk599/themecat/internal/retry"
)

// OpenAIConfig holds the request settings for an OpenAI-compatible endpoint
// (a local vLLM server or the Hugging Face inference router).
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// OpenAIProvider calls {BaseURL}/chat/completions.
type OpenAIProvider struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIProvider creates a provider. The request timeout is taken from
// httpClient.
func NewOpenAIProvider(cfg OpenAIConfig, httpClient *http.Client) *OpenAIProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &OpenAIProvider{cfg: cfg, httpClient: httpClient}
}

// chatRequest mirrors the /chat/completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse mirrors the relevant fields of the completion response.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Complete sends prompt as a single user message and returns the content of
// the first choice.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       p.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		return "", transportErr(model.KindUnexpected, fmt.Errorf("marshal llm request: %w", err))
	}

	url := p.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", transportErr(model.KindUnexpected, fmt.Errorf("create llm request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("llm request (timeout=%s): %w", p.httpClient.Timeout, err)
		return "", transportErr(retry.Classify(err), err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("read llm response: %w", err)
		return "", transportErr(retry.Classify(err), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        errors.New(snippet(string(respBytes), 300)),
		}
		return "", transportErr(retry.KindForStatus(resp.StatusCode), fmt.Errorf("llm returned %w", httpErr))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return "", transportErr(model.KindAPI, fmt.Errorf("parse llm response: %w", err))
	}

	if chatResp.Error != nil {
		return "", transportErr(model.KindAPI, fmt.Errorf("llm error (%s): %s", chatResp.Error.Type, chatResp.Error.Message))
	}

	if len(chatResp.Choices) == 0 {
		return "", transportErr(model.KindAPI, errors.New("llm returned no choices"))
	}

	return chatResp.Choices[0].Message.Content, nil
}

func transportErr(kind model.ErrorKind, err error) error {
	return &model.TransportError{Kind: kind, Err: err}
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
