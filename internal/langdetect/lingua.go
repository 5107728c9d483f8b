package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

const minLetters = 6

// Detector guesses the language of a text.
type Detector interface {
	// Detect returns the ISO 639-1 code and a confidence in [0,1].
	// ok is false when the text is too short or ambiguous.
	Detect(text string) (code string, confidence float64, ok bool)
}

// Lingua detects languages with lingua-go. The underlying models load on
// first use.
type Lingua struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

// NewLingua returns a lazily initialized lingua detector.
func NewLingua() *Lingua {
	return &Lingua{}
}

func (l *Lingua) get() lingua.LanguageDetector {
	l.once.Do(func() {
		l.detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithLowAccuracyMode().
			Build()
	})
	return l.detector
}

// Detect implements Detector.
func (l *Lingua) Detect(text string) (string, float64, bool) {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return "", 0, false
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minLetters {
		return "", 0, false
	}

	d := l.get()
	language, exists := d.DetectLanguageOf(sample)
	if !exists {
		return "", 0, false
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return "", 0, false
	}
	return code, d.ComputeLanguageConfidence(sample, language), true
}
