package utils

func AssertInvariant(condition bool, message string) {
	if !condition {
		panic("invariant violated - " + message)
	}
}

// TruncateWithEllipsis shortens text to at most maxLen characters,
// appending "..." when truncation happened. The result never exceeds maxLen.
func TruncateWithEllipsis(text string, maxLen int) string {
	if maxLen <= 3 {
		panic("maxLen must leave room for the ellipsis")
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-3]) + "..."
}
