package service

import (
	"regexp"
	"strings"
)

var (
	controlReplacer = strings.NewReplacer(
		"\u0000", "", // Null character
		"\ufffd", "", // Unicode replacement character
		"\r\n", "\n",
		"\r", "\n",
		"\f", "\n", // Form feed to newline
	)

	tabRunRe       = regexp.MustCompile(`\t+`)
	lowerUpperRe   = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	digitLetterRe  = regexp.MustCompile(`(\d)(\pL)`)
	letterDigitRe  = regexp.MustCompile(`(\pL)(\d)`)
	spaceRunRe     = regexp.MustCompile(` {2,}`)
	lineEdgeRe     = regexp.MustCompile(` *\n *`)
	blankLineRunRe = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans text produced by PDF extraction: it unifies line endings,
// removes tabs, re-separates words and numbers that extraction fused together
// and collapses runs of spaces and blank lines.
//
// Normalize is idempotent and never fails.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	cleaned := controlReplacer.Replace(text)
	cleaned = tabRunRe.ReplaceAllString(cleaned, " ")

	// wordWord -> word Word, 2021Resume -> 2021 Resume, Resume2021 -> Resume 2021
	cleaned = lowerUpperRe.ReplaceAllString(cleaned, "$1 $2")
	cleaned = digitLetterRe.ReplaceAllString(cleaned, "$1 $2")
	cleaned = letterDigitRe.ReplaceAllString(cleaned, "$1 $2")

	cleaned = spaceRunRe.ReplaceAllString(cleaned, " ")
	cleaned = lineEdgeRe.ReplaceAllString(cleaned, "\n")
	cleaned = blankLineRunRe.ReplaceAllString(cleaned, "\n\n")

	return strings.TrimSpace(cleaned)
}
