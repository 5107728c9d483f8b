package cache

import (
	"fmt"
	"regexp"
	"strings"

	"goflare.io/glossa/internal/utils"
)

const (
	maxKeyTextLength        = 500
	maxOriginalTextLength   = 1000
	maxTranslatedTextLength = 2000
	defaultDetectedLanguage = "auto"
	defaultEntryConfidence  = 0.9
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize lowercases text, collapses whitespace and newlines into single
// spaces and cuts the result to 500 characters.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = whitespaceRun.ReplaceAllString(s, " ")
	return utils.Truncate(s, maxKeyTextLength)
}

// Key returns the entry key for text translated into lang with category.
func Key(text, lang, category string) string {
	hash := utils.HashString(Normalize(text) + lang + category)
	return fmt.Sprintf("%s_%s_%s", hash, lang, category)
}
