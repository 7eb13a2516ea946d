package engine

import (
	"regexp"
	"strings"
)

// responseMarkers locate an explicit final answer inside model output that
// includes reasoning preamble.
var responseMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?is)(?:Responde|Response|Final response|Respuesta final):\s*(.*)$`),
	regexp.MustCompile(`(?is)<respuesta>(.*?)</respuesta>`),
	regexp.MustCompile(`(?is)<response>(.*?)</response>`),
	regexp.MustCompile(`(?is)(?:^|\n)(?:Mi respuesta es|La respuesta es|Respuesta):\s*(.*)$`),
}

// thinkingIndicators flag lines that read as internal monologue rather than a
// reply to the user.
var thinkingIndicators = []string{
	"thinking:", "let me think", "i need to", "first,", "hmm,", "well,", "so,",
}

// ExtractFinalResponse strips a model's visible thinking process from its
// output. It prefers an explicit response marker; failing that it drops
// monologue-looking lines and keeps the tail. Best-effort by design.
func ExtractFinalResponse(full string) string {
	for _, marker := range responseMarkers {
		if m := marker.FindStringSubmatch(full); m != nil {
			if answer := strings.TrimSpace(m[1]); answer != "" {
				return answer
			}
		}
	}

	var kept []string
	filtered := false
	for _, line := range strings.Split(full, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		thinking := false
		for _, indicator := range thinkingIndicators {
			if strings.Contains(lower, indicator) {
				thinking = true
				filtered = true
				break
			}
		}
		if !thinking {
			kept = append(kept, line)
		}
	}

	if filtered {
		if tail := strings.TrimSpace(strings.Join(kept, "\n")); tail != "" {
			return tail
		}
	}
	return strings.TrimSpace(full)
}

const truncationNotice = "\n\n[Response truncated due to length limit]"

// Truncate caps a response at maxChars runes, appending a notice when cut.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + truncationNotice
}
