package validators

import "strings"

// SanitizeString trims surrounding whitespace and truncates to maxLen bytes.
// A maxLen of zero disables truncation.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.TrimSpace(input)
	if maxLen <= 0 || len(cleaned) <= maxLen {
		return cleaned
	}
	return cleaned[:maxLen]
}
