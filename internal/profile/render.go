package profile

import (
	"encoding/json"
	"sort"
	"strings"
)

// SummaryText renders the profile as a short human-readable line, used for the
// /summary command and logging. Keys are sorted for stable output.
func (p *Profile) SummaryText() string {
	var parts []string

	if len(p.PersonalInfo) > 0 {
		parts = append(parts, "Información personal: "+renderFields(p.PersonalInfo))
	}
	if len(p.Preferences) > 0 {
		parts = append(parts, "Preferencias: "+renderFields(p.Preferences))
	}
	if len(p.ImportantTopics) > 0 {
		parts = append(parts, "Temas importantes: "+strings.Join(p.ImportantTopics, ", "))
	}

	if len(parts) == 0 {
		return "No hay información de resumen disponible."
	}
	return strings.Join(parts, ". ")
}

// ContextJSON renders the profile as indented JSON for prompt injection.
func (p *Profile) ContextJSON() string {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

func renderFields(fields map[string]Value) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+": "+strings.Join(fields[k], ", "))
	}
	return strings.Join(pairs, ", ")
}
