package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/amishk599/themecat/internal/model"
	"github.com/amishk599/themecat/internal/retry"
)

// AnthropicConfig holds the Messages API settings.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
}

// AnthropicProvider implements LLMProvider against the Anthropic Messages API.
// SDK retries are disabled: retries belong to LLMThemeExtractor.
type AnthropicProvider struct {
	client anthropic.Client
	cfg    AnthropicConfig
}

// NewAnthropicProvider creates a provider that sends requests through httpClient.
func NewAnthropicProvider(cfg AnthropicConfig, httpClient *http.Client) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
	}
}

// Complete sends prompt as a single user message and returns the first text
// block of the reply.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.cfg.Model),
		MaxTokens:   int64(p.cfg.MaxTokens),
		Temperature: anthropic.Float(p.cfg.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", transportErr(retry.KindForStatus(apiErr.StatusCode), fmt.Errorf("anthropic api: %w", err))
		}
		err = fmt.Errorf("anthropic request: %w", err)
		return "", transportErr(retry.Classify(err), err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", transportErr(model.KindAPI, errors.New("no text content in anthropic response"))
}
