package evaluator

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/amishk599/themecat/internal/model"
)

// ErrLengthMismatch is returned when ground-truth and prediction lists differ
// in length.
var ErrLengthMismatch = errors.New("ground truth and predictions must have same length")

// ThemeSet is an unordered set of theme names.
type ThemeSet map[string]struct{}

// NewThemeSet builds a set from names.
func NewThemeSet(names ...string) ThemeSet {
	s := make(ThemeSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s ThemeSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order.
func (s ThemeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ReviewMetrics compares one review's predicted themes against its ground truth.
type ReviewMetrics struct {
	Identified       []string `json:"identified_themes"`
	Novel            []string `json:"novel_themes"`
	Missed           []string `json:"missed_themes"`
	IdentifiedCount  int      `json:"identified_count"`
	NovelCount       int      `json:"novel_count"`
	TotalGroundTruth int      `json:"total_ground_truth"`
	TotalPredicted   int      `json:"total_predicted"`
}

// AggregateMetrics summarizes a batch. Rates are percentages in [0, 100].
type AggregateMetrics struct {
	ThemeIdentificationRate float64 `json:"theme_identification_rate"`
	NovelThemesPercentage   float64 `json:"novel_themes_percentage"`
	TotalReviews            int     `json:"total_reviews"`
	TotalGroundTruthThemes  int     `json:"total_ground_truth_themes"`
	TotalPredictedThemes    int     `json:"total_predicted_themes"`
	TotalIdentified         int     `json:"total_identified"`
	TotalNovel              int     `json:"total_novel"`
	AverageThemesPerReview  float64 `json:"average_themes_per_review"`
}

// ParseGroundTruth decodes a ground-truth cell such as "{'a', 'b'}". Sets,
// lists and tuples are accepted; only their string members are kept. Empty
// input, "nan" and any non-collection literal give an empty set. Malformed
// input is logged and also gives an empty set.
func ParseGroundTruth(encoded string, logger *slog.Logger) ThemeSet {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" || strings.EqualFold(encoded, "nan") {
		return ThemeSet{}
	}

	v, err := parseLiteral(encoded)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to parse ground truth", "value", encoded, "error", err)
		}
		return ThemeSet{}
	}
	if !v.isCollection() {
		return ThemeSet{}
	}

	set := make(ThemeSet, len(v.items))
	for _, item := range v.items {
		if item.kind == litString {
			set[item.str] = struct{}{}
		}
	}
	return set
}

// ParseLLMThemes returns the distinct theme names in result, trimmed, without
// blanks or the "unknown" placeholder.
func ParseLLMThemes(result model.ExtractionResult) ThemeSet {
	set := make(ThemeSet, len(result.Themes))
	for _, t := range result.Themes {
		name := strings.TrimSpace(t.Theme)
		if name == "" || model.IsUnknownTheme(name) {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}

// CalculateMetrics compares one review's predictions with its ground truth.
func CalculateMetrics(groundTruth, predicted ThemeSet) ReviewMetrics {
	identified := ThemeSet{}
	novel := ThemeSet{}
	missed := ThemeSet{}
	for n := range predicted {
		if groundTruth.Has(n) {
			identified[n] = struct{}{}
		} else {
			novel[n] = struct{}{}
		}
	}
	for n := range groundTruth {
		if !predicted.Has(n) {
			missed[n] = struct{}{}
		}
	}

	return ReviewMetrics{
		Identified:       identified.Sorted(),
		Novel:            novel.Sorted(),
		Missed:           missed.Sorted(),
		IdentifiedCount:  len(identified),
		NovelCount:       len(novel),
		TotalGroundTruth: len(groundTruth),
		TotalPredicted:   len(predicted),
	}
}

// EvaluatePredictions aggregates per-review metrics over a batch. The two
// slices are paired by index and must have equal length.
func EvaluatePredictions(groundTruth, predicted []ThemeSet) (AggregateMetrics, error) {
	if len(groundTruth) != len(predicted) {
		return AggregateMetrics{}, fmt.Errorf("evaluating %d ground truth sets against %d predictions: %w",
			len(groundTruth), len(predicted), ErrLengthMismatch)
	}

	var agg AggregateMetrics
	agg.TotalReviews = len(groundTruth)
	for i := range groundTruth {
		m := CalculateMetrics(groundTruth[i], predicted[i])
		agg.TotalGroundTruthThemes += m.TotalGroundTruth
		agg.TotalPredictedThemes += m.TotalPredicted
		agg.TotalIdentified += m.IdentifiedCount
		agg.TotalNovel += m.NovelCount
	}

	if agg.TotalGroundTruthThemes > 0 {
		agg.ThemeIdentificationRate = float64(agg.TotalIdentified) / float64(agg.TotalGroundTruthThemes) * 100
	}
	if agg.TotalPredictedThemes > 0 {
		agg.NovelThemesPercentage = float64(agg.TotalNovel) / float64(agg.TotalPredictedThemes) * 100
	}
	if agg.TotalReviews > 0 {
		agg.AverageThemesPerReview = float64(agg.TotalPredictedThemes) / float64(agg.TotalReviews)
	}
	return agg, nil
}

// ReviewEvaluation is the per-review outcome of Evaluate.
type ReviewEvaluation struct {
	Record      model.ReviewRecord
	Result      model.ExtractionResult
	GroundTruth ThemeSet
	Predicted   ThemeSet
	Metrics     ReviewMetrics
}

// Evaluation holds per-review detail and the batch aggregate.
type Evaluation struct {
	Reviews   []ReviewEvaluation
	Aggregate AggregateMetrics
}

// Evaluator scores extraction results against labeled reviews.
type Evaluator struct {
	logger *slog.Logger
}

// New creates an Evaluator. A nil logger discards output.
func New(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Evaluator{logger: logger}
}

// ParseGroundTruth decodes a ground-truth cell, logging malformed values.
func (e *Evaluator) ParseGroundTruth(encoded string) ThemeSet {
	return ParseGroundTruth(encoded, e.logger)
}

// Evaluate pairs records with results by index and scores them.
func (e *Evaluator) Evaluate(records []model.ReviewRecord, results []model.ExtractionResult) (Evaluation, error) {
	if len(records) != len(results) {
		return Evaluation{}, fmt.Errorf("evaluating %d records against %d results: %w",
			len(records), len(results), ErrLengthMismatch)
	}

	gts := make([]ThemeSet, len(records))
	preds := make([]ThemeSet, len(records))
	reviews := make([]ReviewEvaluation, len(records))
	for i, rec := range records {
		gts[i] = e.ParseGroundTruth(rec.GroundTruth)
		preds[i] = ParseLLMThemes(results[i])
		reviews[i] = ReviewEvaluation{
			Record:      rec,
			Result:      results[i],
			GroundTruth: gts[i],
			Predicted:   preds[i],
			Metrics:     CalculateMetrics(gts[i], preds[i]),
		}
	}

	agg, err := EvaluatePredictions(gts, preds)
	if err != nil {
		return Evaluation{}, err
	}

	e.logger.Info("evaluation complete",
		"reviews", agg.TotalReviews,
		"identification_rate", fmt.Sprintf("%.1f%%", agg.ThemeIdentificationRate),
		"novel_percentage", fmt.Sprintf("%.1f%%", agg.NovelThemesPercentage),
	)
	return Evaluation{Reviews: reviews, Aggregate: agg}, nil
}
