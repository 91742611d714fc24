// Package text provides utilities for text processing shared by the pipeline stages:
// rune counting, truncation, HTML-to-text conversion and keyword tokenization.
package text

import "unicode/utf8"

// CountRunes counts the number of Unicode characters (runes) in the given text.
// Korean, Japanese and emoji are counted as single characters, not bytes.
//
// Examples:
//
//	CountRunes("hello")  // 5
//	CountRunes("안녕하세요") // 5
//	CountRunes("")       // 0
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

// Truncate shortens s to at most limit runes. When s is cut, suffix is appended
// after the kept runes. A non-positive limit returns s unchanged.
func Truncate(s string, limit int, suffix string) string {
	if limit <= 0 || CountRunes(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + suffix
}
