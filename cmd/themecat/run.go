package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/themecat/internal/evaluator"
	"github.com/amishk599/themecat/internal/filter"
	"github.com/amishk599/themecat/internal/model"
	"github.com/amishk599/themecat/internal/pipeline"
	"github.com/amishk599/themecat/internal/report"
	"github.com/amishk599/themecat/internal/source"
)

// evalRun bundles what one evaluation needs. The same evalRun is reused by
// every cycle of `watch`.
type evalRun struct {
	src          source.ReviewSource
	pipe         *pipeline.Pipeline
	eval         *evaluator.Evaluator
	filter       *filter.KeywordFilter
	modelName    string
	sourceName   string
	limit        int
	includeEmpty bool
	batch        pipeline.BatchOptions
	logger       *slog.Logger
}

type evalOutcome struct {
	Report     report.Report
	Evaluation evaluator.Evaluation
}

// run loads labeled reviews, extracts themes and scores them. A cancelled
// context evaluates the reviews processed so far.
func (r *evalRun) run(ctx context.Context) (evalOutcome, error) {
	started := time.Now()
	runID := uuid.NewString()

	records, err := r.src.ReviewsWithGroundTruth(ctx, r.limit, r.includeEmpty)
	if err != nil {
		return evalOutcome{}, fmt.Errorf("load reviews: %w", err)
	}
	records = r.filter.Records(records)
	if len(records) == 0 {
		return evalOutcome{}, fmt.Errorf("no reviews with ground truth to evaluate")
	}
	r.logger.Info("evaluating reviews", "run_id", runID, "reviews", len(records), "source", r.sourceName)

	texts := recordTexts(records)

	r.pipe.ResetMetrics()
	results := r.pipe.ProcessBatch(ctx, texts, r.batch)
	if len(results) < len(records) {
		r.logger.Warn("batch interrupted, evaluating partial results",
			"run_id", runID, "processed", len(results), "total", len(records))
		records = records[:len(results)]
	}

	ev, err := r.eval.Evaluate(records, results)
	if err != nil {
		return evalOutcome{}, fmt.Errorf("evaluate: %w", err)
	}

	agg := ev.Aggregate
	return evalOutcome{
		Report: report.Report{
			RunID:     runID,
			Model:     r.modelName,
			Source:    r.sourceName,
			StartedAt: started,
			Duration:  time.Since(started),
			Run:       r.pipe.Metrics(),
			Eval:      &agg,
		},
		Evaluation: ev,
	}, nil
}

// extractionReport wraps a plain extraction run (no ground truth).
func extractionReport(modelName, sourceName string, started time.Time, m pipeline.RunMetrics) report.Report {
	return report.Report{
		RunID:     uuid.NewString(),
		Model:     modelName,
		Source:    sourceName,
		StartedAt: started,
		Duration:  time.Since(started),
		Run:       m,
	}
}

func recordTexts(records []model.ReviewRecord) []string {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	return texts
}
