// Package notifier delivers run summaries.
package notifier

import (
	"context"
	"time"

	"github.com/amishk599/themecat/internal/pipeline"
	"github.com/amishk599/themecat/internal/report"
)

// Notifier publishes a finished run.
type Notifier interface {
	Notify(ctx context.Context, r report.Report) error
}

// SendTestMessage sends a sample report to verify the integration works.
func SendTestMessage(ctx context.Context, n Notifier) error {
	r := report.Report{
		RunID:     "test-run",
		Model:     "test-model",
		Source:    "themecat notify test",
		StartedAt: time.Now(),
		Duration:  1500 * time.Millisecond,
		Run: pipeline.RunMetrics{
			TotalReviews:          10,
			SuccessfulExtractions: 9,
			FailedExtractions:     1,
			TotalThemesExtracted:  21,
			SuccessRate:           0.9,
			AvgThemesPerReview:    21.0 / 9.0,
		},
	}
	return n.Notify(ctx, r)
}
