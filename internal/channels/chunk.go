package channels

import "strings"

// SplitMessage splits content into chunks of at most limit runes, for
// platforms with a message size cap. Chunks break at the last newline inside
// the window when one exists, so code blocks and paragraphs tear less often.
func SplitMessage(content string, limit int) []string {
	if limit <= 0 || content == "" {
		return []string{content}
	}

	runes := []rune(content)
	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}

		window := runes[:limit]
		cut := limit
		if idx := strings.LastIndexByte(string(window), '\n'); idx > 0 {
			cut = len([]rune(string(window)[:idx]))
			chunks = append(chunks, string(runes[:cut]))
			runes = runes[cut+1:] // skip the newline itself
			continue
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}
