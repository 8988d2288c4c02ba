package pipeline

// RunMetrics counts extraction outcomes for one Pipeline.
type RunMetrics struct {
	TotalReviews          int `json:"total_reviews"`
	SuccessfulExtractions int `json:"successful_extractions"`
	FailedExtractions     int `json:"failed_extractions"`
	TotalThemesExtracted  int `json:"total_themes_extracted"`

	// Derived on snapshot.
	SuccessRate        float64 `json:"success_rate"`
	AvgThemesPerReview float64 `json:"avg_themes_per_review"`
}

// withDerived fills the computed fields. SuccessRate is successful/total and
// AvgThemesPerReview is themes per successful extraction; both are 0 when
// their denominator is 0.
func (m RunMetrics) withDerived() RunMetrics {
	m.SuccessRate = 0
	if m.TotalReviews > 0 {
		m.SuccessRate = float64(m.SuccessfulExtractions) / float64(m.TotalReviews)
	}
	m.AvgThemesPerReview = 0
	if m.SuccessfulExtractions > 0 {
		m.AvgThemesPerReview = float64(m.TotalThemesExtracted) / float64(m.SuccessfulExtractions)
	}
	return m
}
