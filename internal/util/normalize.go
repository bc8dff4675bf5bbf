package util

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeTitle trims surrounding whitespace and title-cases every word.
func NormalizeTitle(title string) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ""
	}

	// Casers are stateful and must not be shared between goroutines.
	return cases.Title(language.Und).String(trimmed)
}

// NormalizeContent trims surrounding whitespace and upper-cases the first
// character. The rest of the text is left exactly as typed.
func NormalizeContent(content string) string {
	trimmed := strings.TrimSpace(content)
	first, size := utf8.DecodeRuneInString(trimmed)
	if size == 0 || first == utf8.RuneError {
		return trimmed
	}

	upper := unicode.ToUpper(first)
	if upper == first {
		return trimmed
	}

	return string(upper) + trimmed[size:]
}

// LengthViolation describes why value falls outside [min, max] runes, or
// returns "" when it fits.
func LengthViolation(value string, min int, max int) string {
	n := utf8.RuneCountInString(value)
	switch {
	case n < min:
		return fmt.Sprintf("must be at least %d characters", min)
	case n > max:
		return fmt.Sprintf("must be at most %d characters", max)
	default:
		return ""
	}
}
