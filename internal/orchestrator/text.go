package orchestrator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"goflare.io/glossa/internal/models"
	"goflare.io/glossa/internal/utils"
)

const (
	minTextLength = 2
	maxTextLength = 5000
)

var (
	spaceRun           = regexp.MustCompile(`\s+`)
	blankLines         = regexp.MustCompile(`\n\s*\n`)
	wrappingQuotes     = regexp.MustCompile("^[\"'`]|[\"'`]$")
	nothingToTranslate = regexp.MustCompile(`^[\d\s\p{P}]*$`)
)

// validate rejects text that must never reach a provider.
func validate(text string) error {
	trimmed := strings.TrimSpace(text)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return &models.ValidationError{Err: models.ErrEmptyText}
	case n < minTextLength:
		return &models.ValidationError{Err: models.ErrTextTooShort}
	case n > maxTextLength:
		return &models.ValidationError{Err: models.ErrTextTooLong}
	case nothingToTranslate.MatchString(trimmed):
		return &models.ValidationError{Err: models.ErrNotTranslatable}
	}
	return nil
}

// preprocess trims, collapses whitespace and blank lines and caps the length.
func preprocess(text string) string {
	s := strings.TrimSpace(text)
	s = spaceRun.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n")
	return utils.Truncate(s, maxTextLength)
}

// postprocess trims, strips one layer of wrapping quotes and collapses blank lines.
func postprocess(text string) string {
	s := strings.TrimSpace(text)
	s = wrappingQuotes.ReplaceAllString(s, "")
	return blankLines.ReplaceAllString(s, "\n")
}
