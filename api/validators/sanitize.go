package validators

import "strings"

// SanitizeString trims input, collapses inner whitespace and truncates it to
// maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return strings.TrimSpace(string(runes[:maxLen]))
	}
	return trimmed
}
