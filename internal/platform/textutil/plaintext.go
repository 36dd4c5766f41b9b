package textutil

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// StripMarkup removes every HTML element and attribute from free-form text,
// unescapes the surviving entities, and collapses runs of whitespace. Used for
// user-supplied notes that end up in stored records and notifications.
func StripMarkup(value string) string {
	cleaned := strictPolicy.Sanitize(value)
	cleaned = html.UnescapeString(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

// Truncate shortens a string to at most limit runes.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
