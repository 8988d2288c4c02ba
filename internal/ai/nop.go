package ai

import (
	"context"

	"github.com/amishk599/themecat/internal/model"
)

// NopExtractor never calls an LLM and always returns the empty result.
// Used for dry runs that exercise the data source and pipeline wiring only.
type NopExtractor struct{}

// NewNopExtractor returns a NopExtractor.
func NewNopExtractor() *NopExtractor {
	return &NopExtractor{}
}

// ExtractThemes returns the empty result.
func (n *NopExtractor) ExtractThemes(_ context.Context, _ string) model.ExtractionResult {
	return model.EmptyResult()
}
