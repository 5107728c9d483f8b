package prompt

import "regexp"

// Structural hints that add a fixed bonus to a category score.
var (
	academicPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(abstract|introduction|methodology|results|discussion|conclusion)\b`),
		regexp.MustCompile(`(?i)\b(figure|table|equation)\s+\d+`),
		regexp.MustCompile(`(?i)\b(et al\.|ibid\.|op\. cit\.)`),
		regexp.MustCompile(`\([12]\d{3}\)`),
		regexp.MustCompile(`(?i)\b(p\.|pp\.)\s*\d+`),
	}

	technicalPatterns = []*regexp.Regexp{
		regexp.MustCompile("(?s)```.*?```"),
		regexp.MustCompile("`[^`]+`"),
		regexp.MustCompile(`(?i)\b(function|class|method|variable)\s+\w+`),
		regexp.MustCompile(`\b(GET|POST|PUT|DELETE)\b`),
		regexp.MustCompile(`(?i)\b\w+\.(js|py|java|cpp|html|css)\b`),
		regexp.MustCompile(`(?i)\b(npm|pip|git|docker)\s+\w+`),
	}

	newsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(BREAKING|UPDATE|URGENT)\b`),
		regexp.MustCompile(`(?i)\b(Reuters|AP|CNN|BBC|Associated Press)\b`),
		regexp.MustCompile(`(?i)\b(said|told|announced|reported|stated)\s+(that|to)`),
		regexp.MustCompile(`(?i)\b(yesterday|today|this morning|this afternoon|tonight)\b`),
		regexp.MustCompile(`(?i)\b(according to|sources say|officials said)\b`),
	}

	patternBonus = map[string][]*regexp.Regexp{
		Academic:  academicPatterns,
		Technical: technicalPatterns,
		News:      newsPatterns,
	}
)

const patternBonusScore = 2

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
