package observability

import (
	"strings"
	"unicode"
)

const (
	routeLimit  = 180
	methodLimit = 10
	actorLimit  = 64
)

// sanitizeString strips control characters (except whitespace) and caps the
// rune length so attacker-controlled values cannot break log lines.
func sanitizeString(value string, limit int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, value)
	runes := []rune(cleaned)
	if limit > 0 && len(runes) > limit {
		return string(runes[:limit])
	}
	return cleaned
}

// SanitizeRoute normalizes a route pattern for log fields.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, routeLimit)
}

// SanitizeMethod normalizes an HTTP method for log fields.
func SanitizeMethod(method string) string {
	return sanitizeString(method, methodLimit)
}

// SanitizeActorID caps actor identifiers before they reach logs.
func SanitizeActorID(id string) string {
	if id == "" {
		return ""
	}
	return sanitizeString(id, actorLimit)
}
