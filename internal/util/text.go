package util

import (
	"strings"
	"unicode"

	"go-calendar/pkg/apierror"
)

const (
	MaxNameLength        = 100
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

// CleanText strips control and invisible characters, trims surrounding space
// and rejects values longer than maxRunes. field names the input in errors.
func CleanText(field string, raw string, maxRunes int, keepNewlines bool) (string, error) {
	builder := strings.Builder{}
	builder.Grow(len(raw))

	for _, char := range raw {
		if keepNewlines && (char == '\n' || char == '\t') {
			builder.WriteRune(char)
			continue
		}
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		builder.WriteRune(char)
	}

	cleaned := strings.TrimSpace(builder.String())
	if maxRunes > 0 && len([]rune(cleaned)) > maxRunes {
		return "", apierror.BadRequest(field+" is too long", field)
	}

	return cleaned, nil
}

// isInvisibleUnicode reports zero-width and formatting characters.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u2060', // Word Joiner
		'\uFEFF', // BOM
		'\uFFF9', '\uFFFA', '\uFFFB':
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
