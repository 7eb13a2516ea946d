package profile

import (
	"regexp"
	"strings"
)

// KeywordSource supplies the configured trigger phrases (hot-reloadable).
type KeywordSource interface {
	Phrases() []string
}

// personalPatterns match self-disclosure phrasing (introductions, location,
// age, profession). Kept in the original bot's Spanish.
var personalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bme llamo \w+`),
	regexp.MustCompile(`\bmi nombre es \w+`),
	regexp.MustCompile(`\bsoy \w+`),
	regexp.MustCompile(`\btrabajo en \w+`),
	regexp.MustCompile(`\bvivo en \w+`),
	regexp.MustCompile(`\btengo \d+`),
	regexp.MustCompile(`\bmi .+ es \w+`),
	regexp.MustCompile(`\bestoy aprendiendo \w+`),
	regexp.MustCompile(`\bme dedico a \w+`),
	regexp.MustCompile(`\bmi profesión es \w+`),
	regexp.MustCompile(`\bmi edad es \d+`),
	regexp.MustCompile(`\btengo \d+ años`),
}

// longPromptWords: prompts longer than this likely contain detail worth keeping.
const longPromptWords = 20

// Triggers is the cheap pre-filter that decides whether a completed turn is
// worth running fact extraction on.
type Triggers struct {
	keywords KeywordSource
}

func NewTriggers(keywords KeywordSource) *Triggers {
	return &Triggers{keywords: keywords}
}

// ShouldUpdate returns true if the prompt contains a configured trigger keyword
// (case-insensitive substring), matches a personal-disclosure pattern, or
// exceeds the long-prompt word count.
func (t *Triggers) ShouldUpdate(prompt, response string) bool {
	promptLower := strings.ToLower(prompt)

	if t.keywords != nil {
		for _, keyword := range t.keywords.Phrases() {
			if keyword != "" && strings.Contains(promptLower, keyword) {
				return true
			}
		}
	}

	for _, pattern := range personalPatterns {
		if pattern.MatchString(promptLower) {
			return true
		}
	}

	return len(strings.Fields(prompt)) > longPromptWords
}
