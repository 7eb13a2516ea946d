package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/accraft8/blimsey/internal/providers"
)

// Extractor derives structured facts from a completed turn by asking the
// generation backend for a small JSON object, with regex fallbacks for when the
// model ignores the format. Extraction is inherently fuzzy: every failure path
// degrades to an empty (no-op) result, never to an error the user sees.
type Extractor struct {
	provider providers.Provider
	model    string
}

func NewExtractor(provider providers.Provider, model string) *Extractor {
	return &Extractor{provider: provider, model: model}
}

const extractionPrompt = `Analiza esta conversación y extrae información importante del usuario:

Conversación:
Usuario: %s
Asistente: %s

Extrae SOLO información nueva e importante sobre:
- Nombre, edad, ubicación, profesión
- Gustos, preferencias, intereses
- Proyectos, objetivos, metas
- Cualquier dato personal relevante

Responde en formato JSON simple:
{"personal_info": {"nombre": "valor", "trabajo": "valor"}, "preferences": {"le_gusta": "valor"}, "important_topics": ["tema"], "changes_made": ["cambio realizado"]}`

// Extract analyzes one turn. On backend failure or unparseable output it falls
// back to regex extraction over the prompt, then to empty facts.
func (e *Extractor) Extract(ctx context.Context, prompt, response string) ExtractedFacts {
	resp, err := e.provider.Generate(ctx, providers.GenerateRequest{
		Model:  e.model,
		Prompt: fmt.Sprintf(extractionPrompt, prompt, response),
	})
	if err != nil {
		slog.Warn("fact extraction call failed, using regex fallback", "error", err)
		return fallbackExtract(prompt)
	}

	if facts, ok := ParseFacts(resp.Content); ok {
		return facts
	}
	slog.Debug("no JSON in extraction output, using regex fallback")
	return fallbackExtract(prompt)
}

// ParseFacts attempts a strict JSON parse of the largest brace-delimited
// substring in the model output. Returns ok=false when no candidate parses.
func ParseFacts(text string) (ExtractedFacts, bool) {
	for _, candidate := range braceCandidates(text) {
		var facts ExtractedFacts
		if err := json.Unmarshal([]byte(candidate), &facts); err == nil {
			return facts, true
		}
	}
	return ExtractedFacts{}, false
}

// braceCandidates returns balanced {...} substrings of text, largest first.
// Brace counting ignores braces inside JSON string literals.
func braceCandidates(text string) []string {
	var candidates []string
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			c := text[i]
			switch {
			case escaped:
				escaped = false
			case c == '\\' && inString:
				escaped = true
			case c == '"':
				inString = !inString
			case inString:
			case c == '{':
				depth++
			case c == '}':
				depth--
				if depth == 0 {
					// Every '{' yields its own candidate, so if the outermost
					// block fails to parse a nested one may still succeed.
					candidates = append(candidates, text[start:i+1])
					i = len(text)
				}
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})
	return candidates
}

var (
	fallbackName = regexp.MustCompile(`(?:mi nombre es|me llamo|soy)\s+([a-záéíóúñ\s]+)`)
	fallbackWork = regexp.MustCompile(`(?:trabajo en|mi trabajo es)\s+([a-záéíóúñ\s]+)`)
	fallbackLike = regexp.MustCompile(`(?:me gusta|prefiero|amo)\s+([a-záéíóúñ\s]+)`)
)

// fallbackExtract pulls name/profession/preference phrasing straight from the
// prompt when the model's output yields no JSON.
func fallbackExtract(prompt string) ExtractedFacts {
	facts := ExtractedFacts{
		PersonalInfo: make(map[string]any),
		Preferences:  make(map[string]any),
	}
	promptLower := strings.ToLower(prompt)

	if m := fallbackName.FindStringSubmatch(promptLower); m != nil {
		name := title(strings.TrimSpace(m[1]))
		facts.PersonalInfo["nombre"] = name
		facts.ChangesMade = append(facts.ChangesMade, "Nombre identificado: "+name)
	}
	if m := fallbackWork.FindStringSubmatch(promptLower); m != nil {
		work := strings.TrimSpace(m[1])
		facts.PersonalInfo["trabajo"] = work
		facts.ChangesMade = append(facts.ChangesMade, "Trabajo identificado: "+work)
	}
	if m := fallbackLike.FindStringSubmatch(promptLower); m != nil {
		like := strings.TrimSpace(m[1])
		facts.Preferences["le_gusta"] = like
		facts.ChangesMade = append(facts.ChangesMade, "Preferencia identificada: "+like)
	}
	return facts
}

// title uppercases the first letter of each word (names arrive lowercased from
// the fallback regexes).
func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
