package ai

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/amishk599/themecat/internal/model"
)

// ParseResponse pulls the JSON object out of raw model output and validates
// its shape. The object is taken from the first '{' to the last '}', which
// skips prose or code fences around it. Any structural problem yields the
// empty result. Entries without a "theme" key are dropped; a null, blank or
// non-string theme becomes "unknown" and a missing description becomes "".
func ParseResponse(content string, logger *slog.Logger) model.ExtractionResult {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		logger.Warn("no json object in llm response", "response", snippet(content, 200))
		return model.EmptyResult()
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		logger.Warn("invalid json in llm response", "error", err)
		return model.EmptyResult()
	}

	rawThemes, ok := payload["themes"]
	if !ok {
		logger.Warn("llm response missing themes key")
		return model.EmptyResult()
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(rawThemes, &entries); err != nil {
		logger.Warn("llm response themes is not a list", "error", err)
		return model.EmptyResult()
	}

	result := model.EmptyResult()
	for i, raw := range entries {
		theme, ok := parseThemeEntry(raw)
		if !ok {
			logger.Warn("dropping malformed theme entry", "index", i, "entry", snippet(string(raw), 200))
			continue
		}
		result.Themes = append(result.Themes, theme)
	}
	return result
}

func parseThemeEntry(raw json.RawMessage) (model.Theme, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return model.Theme{}, false
	}

	rawName, ok := fields["theme"]
	if !ok {
		return model.Theme{}, false
	}

	name := model.UnknownTheme
	var s string
	if err := json.Unmarshal(rawName, &s); err == nil && strings.TrimSpace(s) != "" {
		name = strings.TrimSpace(s)
	}

	var desc string
	if rawDesc, ok := fields["description"]; ok {
		if err := json.Unmarshal(rawDesc, &desc); err != nil {
			desc = ""
		}
	}

	return model.Theme{Theme: name, Description: desc}, true
}
