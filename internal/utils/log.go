package utils

import "strings"

// LogPreview folds prompts and resume text into a single line of at most
// limit runes, so a preview never spans several log records.
func LogPreview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}
