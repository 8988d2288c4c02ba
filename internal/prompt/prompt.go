package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/theme_extraction.tmpl
var themeExtractionPromptRaw string

// themeExtractionTemplate is parsed once at package init and reused for every review.
var themeExtractionTemplate = template.Must(template.New("theme_extraction").Parse(themeExtractionPromptRaw))

// defaultThemes is the canonical healthcare review vocabulary.
var defaultThemes = []string{
	"wait_time",
	"staff_friendliness",
	"communication",
	"appointment_scheduling",
	"quality_of_care",
	"doctor_expertise",
	"cleanliness",
	"billing_and_insurance",
	"facility_and_parking",
	"pain_management",
	"follow_up_care",
	"emotional_support",
	"professionalism",
	"accessibility",
	"medication_management",
	"discharge_process",
}

// DefaultThemes returns a copy of the built-in theme vocabulary.
func DefaultThemes() []string {
	return append([]string(nil), defaultThemes...)
}

// Builder renders the theme extraction prompt for a fixed vocabulary.
type Builder struct {
	themes []string
}

// NewBuilder creates a prompt builder for themes. A nil or empty slice selects
// DefaultThemes. The slice is copied, so later changes by the caller do not
// leak into rendered prompts.
func NewBuilder(themes []string) *Builder {
	if len(themes) == 0 {
		themes = defaultThemes
	}
	return &Builder{themes: append([]string(nil), themes...)}
}

// CreatePrompt wraps review in the instruction template. The output depends
// only on the vocabulary and the review text.
func (b *Builder) CreatePrompt(review string) (string, error) {
	var buf bytes.Buffer
	if err := themeExtractionTemplate.Execute(&buf, struct {
		Themes string
		Review string
	}{
		Themes: strings.Join(b.themes, ", "),
		Review: review,
	}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Themes returns a copy of the configured vocabulary.
func (b *Builder) Themes() []string {
	return append([]string(nil), b.themes...)
}
