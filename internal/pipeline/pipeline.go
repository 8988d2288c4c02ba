package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/themecat/internal/ai"
	"github.com/amishk599/themecat/internal/model"
	"github.com/amishk599/themecat/internal/ratelimit"
)

// PromptBuilder renders the extraction prompt for one review.
type PromptBuilder interface {
	CreatePrompt(review string) (string, error)
}

// ProgressReporter receives batch progress. Update is called after each
// review with the number completed so far.
type ProgressReporter interface {
	Update(done, total int)
	Finish()
}

// BatchOptions controls ProcessBatch.
type BatchOptions struct {
	ShowProgress bool
	RateLimit    bool
}

// DefaultBatchOptions enables both progress reporting and pacing.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{ShowProgress: true, RateLimit: true}
}

// Pipeline runs reviews through prompt building and theme extraction, one at
// a time, and keeps run metrics. A Pipeline must not be shared between
// goroutines.
type Pipeline struct {
	extractor ai.ThemeExtractor
	builder   PromptBuilder
	pacer     *ratelimit.Pacer
	progress  ProgressReporter
	logger    *slog.Logger
	metrics   RunMetrics
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithProgress sets the reporter used when BatchOptions.ShowProgress is true.
func WithProgress(r ProgressReporter) Option {
	return func(p *Pipeline) {
		p.progress = r
	}
}

// WithPacer replaces the pacer built from the delay argument of New.
func WithPacer(pacer *ratelimit.Pacer) Option {
	return func(p *Pipeline) {
		if pacer != nil {
			p.pacer = pacer
		}
	}
}

// New creates a pipeline. delay is the pause after each review in a
// rate-limited batch.
func New(extractor ai.ThemeExtractor, builder PromptBuilder, delay time.Duration, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Pipeline{
		extractor: extractor,
		builder:   builder,
		pacer:     ratelimit.NewPacer(delay),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessReview extracts themes from a single review. It never fails: a panic
// in the builder or extractor is logged and counted as a failed extraction.
func (p *Pipeline) ProcessReview(ctx context.Context, review string) model.ExtractionResult {
	p.metrics.TotalReviews++

	result, err := p.extract(ctx, review)
	if err != nil {
		p.logger.Error("processing review", "error", err)
		p.metrics.FailedExtractions++
		return model.EmptyResult()
	}

	if result.IsEmpty() {
		p.metrics.FailedExtractions++
		return result
	}

	p.metrics.SuccessfulExtractions++
	p.metrics.TotalThemesExtracted += len(result.Themes)
	return result
}

func (p *Pipeline) extract(ctx context.Context, review string) (result model.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	prompt, err := p.builder.CreatePrompt(review)
	if err != nil {
		return model.ExtractionResult{}, fmt.Errorf("building prompt: %w", err)
	}

	result = p.extractor.ExtractThemes(ctx, prompt)
	if result.Themes == nil {
		result = model.EmptyResult()
	}
	return result, nil
}

// ProcessBatch processes reviews in order and returns one result per review.
// With opts.RateLimit the pipeline pauses after every review, the last one
// included. If ctx is cancelled the batch stops and the results gathered so
// far are returned.
func (p *Pipeline) ProcessBatch(ctx context.Context, reviews []string, opts BatchOptions) []model.ExtractionResult {
	batchID := uuid.NewString()
	total := len(reviews)
	start := time.Now()

	p.logger.Info("starting batch",
		"batch_id", batchID,
		"reviews", total,
		"rate_limit", opts.RateLimit,
		"delay", p.pacer.Delay(),
	)

	progress := p.progress
	if !opts.ShowProgress {
		progress = nil
	}

	results := make([]model.ExtractionResult, 0, total)
	for i, review := range reviews {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("batch cancelled", "batch_id", batchID, "processed", i, "reviews", total)
			break
		}

		results = append(results, p.ProcessReview(ctx, review))

		if progress != nil {
			progress.Update(i+1, total)
		}

		if opts.RateLimit {
			if err := p.pacer.Wait(ctx); err != nil {
				p.logger.Warn("batch cancelled", "batch_id", batchID, "processed", i+1, "reviews", total, "error", err)
				break
			}
		}
	}

	if progress != nil {
		progress.Finish()
	}

	m := p.Metrics()
	p.logger.Info("batch complete",
		"batch_id", batchID,
		"processed", len(results),
		"successful", m.SuccessfulExtractions,
		"failed", m.FailedExtractions,
		"themes", m.TotalThemesExtracted,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return results
}

// Metrics returns a snapshot of the counters with derived rates.
func (p *Pipeline) Metrics() RunMetrics {
	return p.metrics.withDerived()
}

// ResetMetrics zeroes all counters.
func (p *Pipeline) ResetMetrics() {
	p.metrics = RunMetrics{}
}
