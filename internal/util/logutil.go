package util

import "strings"

// TruncateForLog trims the string and cuts it down to at most limit runes so
// large payloads stay readable in log output. Truncated strings get a trailing
// ellipsis.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
