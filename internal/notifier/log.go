package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/themecat/internal/report"
)

// Ensure LogNotifier implements Notifier.
var _ Notifier = (*LogNotifier)(nil)

// LogNotifier writes run summaries to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each report via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the run counters and, when present, the evaluation rates.
// Returns nil (logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, r report.Report) error {
	args := []any{
		"run_id", r.RunID,
		"model", r.Model,
		"source", r.Source,
		"reviews", r.Run.TotalReviews,
		"successful", r.Run.SuccessfulExtractions,
		"failed", r.Run.FailedExtractions,
		"themes", r.Run.TotalThemesExtracted,
		"duration", r.Duration,
	}
	if r.Eval != nil {
		args = append(args,
			"identification_rate", r.Eval.ThemeIdentificationRate,
			"novel_percentage", r.Eval.NovelThemesPercentage,
		)
	}
	n.logger.Info("run complete", args...)
	return nil
}
