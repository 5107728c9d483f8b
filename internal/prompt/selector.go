// Package prompt selects and renders the instruction sent to a provider.
package prompt

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Strategy decides how Detect picks a category.
type Strategy int

const (
	// AlwaysGeneral returns "general" for every text.
	AlwaysGeneral Strategy = iota
	// KeywordScoring ranks categories by keyword hits and structural hints.
	KeywordScoring
)

var (
	ErrEmptyCategory     = errors.New("prompt category is empty")
	ErrEmptyTemplate     = errors.New("prompt template is empty")
	ErrProtectedTemplate = errors.New("the general template cannot be removed")
)

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

type keywordSet struct {
	category string
	patterns []*regexp.Regexp
}

// Selector holds the prompt templates and the detection keywords.
// It is safe for concurrent use.
type Selector struct {
	strategy Strategy

	mu        sync.RWMutex
	templates map[string]string
	keywords  []keywordSet
}

// NewSelector creates a Selector with the built-in templates.
func NewSelector(strategy Strategy) *Selector {
	s := &Selector{
		strategy:  strategy,
		templates: make(map[string]string, len(builtinTemplates)),
	}
	for category, tmpl := range builtinTemplates {
		s.templates[category] = tmpl
	}
	for _, kw := range builtinKeywords {
		s.keywords = append(s.keywords, compileKeywords(kw.category, kw.words))
	}
	return s
}

func compileKeywords(category string, words []string) keywordSet {
	set := keywordSet{category: category}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set.patterns = append(set.patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return set
}

// Render fills the template of category with vars. Unknown categories fall
// back to general; placeholders without a value are kept verbatim.
func (s *Selector) Render(category string, vars map[string]string) string {
	s.mu.RLock()
	tmpl, ok := s.templates[category]
	if !ok {
		tmpl = s.templates[General]
	}
	s.mu.RUnlock()

	return placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}

// Detect picks a category for text.
func (s *Selector) Detect(text, context string) string {
	if text == "" || s.strategy == AlwaysGeneral {
		return General
	}
	return s.score(text, context)
}

func (s *Selector) score(text, context string) string {
	lower := strings.ToLower(text + " " + context)
	lengthWeight := math.Max(1, math.Log(float64(utf8.RuneCountInString(text))/100))

	s.mu.RLock()
	defer s.mu.RUnlock()

	best, bestScore := "", 0.0
	for _, set := range s.keywords {
		hits := 0
		for _, p := range set.patterns {
			hits += len(p.FindAllStringIndex(lower, -1))
		}
		score := float64(hits) / lengthWeight
		if patterns, ok := patternBonus[set.category]; ok && matchesAny(patterns, text) {
			score += patternBonusScore
		}
		if score > bestScore {
			best, bestScore = set.category, score
		}
	}

	if bestScore == 0 {
		if context != "" {
			return Contextual
		}
		return General
	}
	return best
}

// AddTemplate registers or replaces a template and its detection keywords.
func (s *Selector) AddTemplate(category, template string, keywords ...string) error {
	if category == "" {
		return ErrEmptyCategory
	}
	if template == "" {
		return ErrEmptyTemplate
	}

	var set keywordSet
	if len(keywords) > 0 {
		set = compileKeywords(category, keywords)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates[category] = template
	if len(keywords) == 0 {
		return nil
	}
	for i := range s.keywords {
		if s.keywords[i].category == category {
			s.keywords[i] = set
			return nil
		}
	}
	s.keywords = append(s.keywords, set)
	return nil
}

// RemoveTemplate deletes a template and its keywords.
func (s *Selector) RemoveTemplate(category string) error {
	if category == General {
		return ErrProtectedTemplate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.templates, category)
	for i := range s.keywords {
		if s.keywords[i].category == category {
			s.keywords = append(s.keywords[:i], s.keywords[i+1:]...)
			break
		}
	}
	return nil
}

// Has reports whether category has a template.
func (s *Selector) Has(category string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.templates[category]
	return ok
}

// Categories lists the registered categories in alphabetical order.
func (s *Selector) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.templates))
	for c := range s.templates {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
