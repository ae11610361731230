package voice

import (
	"regexp"
	"strings"
	"unicode"
)

const invalidCharReplacement = "_"

var (
	whitespacePattern   = regexp.MustCompile(`[\s\x{3000}]+`)
	filenameUnsafeChars = regexp.MustCompile(`[^\p{L}\p{N}]+`)

	// Dashes and ellipses become a single form the synthesizer reads as a pause.
	punctuationReplacer = strings.NewReplacer(
		"——", "—",
		"–", "—",
		"‒", "—",
		"……", "…",
		"...", "…",
	)
)

// NormalizeText prepares a dialogue line for synthesis: runs of whitespace
// collapse to one space, dashes and ellipses are unified and repeated
// punctuation marks are squeezed to one.
func NormalizeText(text string) string {
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = punctuationReplacer.Replace(text)

	return strings.TrimSpace(squeezePunctuation(text))
}

func squeezePunctuation(text string) string {
	var builder strings.Builder

	builder.Grow(len(text))

	var last rune

	for _, char := range text {
		if unicode.IsPunct(char) && char == last {
			continue
		}

		builder.WriteRune(char)

		last = char
	}

	return builder.String()
}

// SanitizeName reduces a character name to letters and digits so it can be
// used inside an object key. Names with nothing usable become "_".
func SanitizeName(name string) string {
	sanitized := strings.Trim(filenameUnsafeChars.ReplaceAllString(name, invalidCharReplacement), invalidCharReplacement)
	if sanitized == "" {
		return invalidCharReplacement
	}

	return sanitized
}
