package filter

import (
	"strings"

	"github.com/amishk599/themecat/internal/model"
)

// KeywordFilter selects reviews by case-insensitive substring match on the
// review text. Empty keyword lists are treated as "match all" / "exclude none".
type KeywordFilter struct {
	include []string
	exclude []string
}

// NewKeywordFilter returns a filter that keeps reviews containing any include
// keyword and none of the exclude keywords. Blank keywords are ignored.
func NewKeywordFilter(include, exclude []string) *KeywordFilter {
	return &KeywordFilter{
		include: normalize(include),
		exclude: normalize(exclude),
	}
}

// Active reports whether the filter can reject anything.
func (f *KeywordFilter) Active() bool {
	return f != nil && (len(f.include) > 0 || len(f.exclude) > 0)
}

// Match returns true if the review contains any include keyword and no
// exclude keyword. A nil filter matches everything.
func (f *KeywordFilter) Match(review string) bool {
	if f == nil {
		return true
	}
	lower := strings.ToLower(review)

	if len(f.include) > 0 && !containsAny(lower, f.include) {
		return false
	}
	return !containsAny(lower, f.exclude)
}

// Reviews keeps the matching reviews, preserving order.
func (f *KeywordFilter) Reviews(reviews []string) []string {
	if !f.Active() {
		return reviews
	}
	var out []string
	for _, r := range reviews {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Records keeps the records whose review text matches, preserving order.
func (f *KeywordFilter) Records(records []model.ReviewRecord) []model.ReviewRecord {
	if !f.Active() {
		return records
	}
	var out []model.ReviewRecord
	for _, r := range records {
		if f.Match(r.Text) {
			out = append(out, r)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func normalize(keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
