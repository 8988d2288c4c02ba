package ai

import (
	"context"
	"io"
	"log/slog"

	"github.com/amishk599/themecat/internal/model"
	"github.com/amishk599/themecat/internal/retry"
)

// ThemeExtractor turns a fully rendered prompt into an ExtractionResult.
// Implementations never fail: any problem degrades to the empty result.
type ThemeExtractor interface {
	ExtractThemes(ctx context.Context, prompt string) model.ExtractionResult
}

// LLMThemeExtractor calls an LLMProvider, retrying transport failures with the
// configured backoff and validating the returned JSON payload.
type LLMThemeExtractor struct {
	provider LLMProvider
	policy   retry.Policy
	logger   *slog.Logger
}

// NewLLMThemeExtractor creates an extractor. A nil logger discards output.
func NewLLMThemeExtractor(provider LLMProvider, policy retry.Policy, logger *slog.Logger) *LLMThemeExtractor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LLMThemeExtractor{
		provider: provider,
		policy:   policy,
		logger:   logger,
	}
}

// ExtractThemes sends prompt to the provider. Transport failures are retried
// up to the policy's attempt limit. Once a response body arrives it is parsed
// exactly once: malformed payloads are not retried.
func (e *LLMThemeExtractor) ExtractThemes(ctx context.Context, prompt string) model.ExtractionResult {
	var content string
	err := retry.Do(ctx, e.policy, e.logger, func(ctx context.Context) error {
		c, err := e.provider.Complete(ctx, prompt)
		if err != nil {
			return err
		}
		content = c
		return nil
	})
	if err != nil {
		e.logger.Error("theme extraction failed", "error", err)
		return model.EmptyResult()
	}
	return ParseResponse(content, e.logger)
}
