package model

import "strings"

// UnknownTheme is the placeholder theme name the LLM uses when nothing in the
// vocabulary matches. It never counts as a real theme during evaluation.
const UnknownTheme = "unknown"

// Theme is a single theme identified in a review, with the model's one-line
// rationale for applying it.
type Theme struct {
	Theme       string `json:"theme"`
	Description string `json:"description"`
}

// ExtractionResult is the structured output of one theme extraction call.
type ExtractionResult struct {
	Themes []Theme `json:"themes"`
}

// EmptyResult returns a result with no themes. Themes is a non-nil empty slice
// so the JSON form is {"themes": []}.
func EmptyResult() ExtractionResult {
	return ExtractionResult{Themes: []Theme{}}
}

// IsEmpty reports whether the result carries no themes.
func (r ExtractionResult) IsEmpty() bool {
	return len(r.Themes) == 0
}

// IsUnknownTheme reports whether name is the "unknown" sentinel, ignoring case
// and surrounding whitespace.
func IsUnknownTheme(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), UnknownTheme)
}

// ReviewRecord pairs a review with its encoded ground-truth label set.
// An empty GroundTruth means the review has no ground truth.
type ReviewRecord struct {
	Text        string
	GroundTruth string
}

// HasGroundTruth reports whether the record carries a usable label string.
func (r ReviewRecord) HasGroundTruth() bool {
	gt := strings.TrimSpace(r.GroundTruth)
	return gt != "" && !strings.EqualFold(gt, "nan")
}
