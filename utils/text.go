package utils

import "unicode/utf8"

// TruncateText shortens s to at most max bytes without splitting a UTF-8
// sequence mid-rune: the cut point walks back to the nearest rune start.
func TruncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
