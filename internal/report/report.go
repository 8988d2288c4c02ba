// Package report formats run and evaluation results for the terminal and for
// notifiers.
package report

import (
	"fmt"
	"time"

	"github.com/amishk599/themecat/internal/evaluator"
	"github.com/amishk599/themecat/internal/pipeline"
)

// Report summarizes one extraction run and, when ground truth was available,
// its evaluation.
type Report struct {
	RunID     string
	Model     string
	Source    string
	StartedAt time.Time
	Duration  time.Duration
	Run       pipeline.RunMetrics
	Eval      *evaluator.AggregateMetrics
}

// Summary returns a one-line description suitable for logs and chat.
func (r Report) Summary() string {
	s := fmt.Sprintf("%d reviews, %d with themes (%.1f%%), %d themes extracted",
		r.Run.TotalReviews,
		r.Run.SuccessfulExtractions,
		r.Run.SuccessRate*100,
		r.Run.TotalThemesExtracted,
	)
	if r.Eval != nil {
		s += fmt.Sprintf("; identification rate %.1f%%, novel themes %.1f%%",
			r.Eval.ThemeIdentificationRate,
			r.Eval.NovelThemesPercentage,
		)
	}
	return s
}
