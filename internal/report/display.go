package report

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayTheme turns a theme identifier such as "wait_time" into "Wait Time".
func DisplayTheme(name string) string {
	name = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(name))
	return cases.Title(language.Und).String(strings.Join(strings.Fields(name), " "))
}
