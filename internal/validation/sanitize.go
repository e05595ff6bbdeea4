package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yukikurage/project-tracker-api/internal/optional"
)

var strict = bluemonday.StrictPolicy()

// SanitizeString strips every HTML element from s and trims whitespace.
// Entities escaped by the policy are decoded again, so the result is plain
// text and never longer than s.
func SanitizeString(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Sanitize cleans a present string value. Absent and invalid values are
// returned as is.
func Sanitize(v optional.String) optional.String {
	s, ok := v.Get()
	if !ok {
		return v
	}
	return optional.Of(SanitizeString(s))
}
