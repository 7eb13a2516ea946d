package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/accraft8/blimsey/internal/providers"
)

// scriptedProvider returns a fixed response or error.
type scriptedProvider struct {
	content string
	err     error
}

func (p *scriptedProvider) Generate(_ context.Context, _ providers.GenerateRequest) (*providers.GenerateResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &providers.GenerateResponse{Content: p.content}, nil
}

func (p *scriptedProvider) DefaultModel() string { return "test-model" }
func (p *scriptedProvider) Name() string         { return "scripted" }

func TestParseFacts(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		ok     bool
		nombre string
	}{
		{
			name:   "clean json",
			input:  `{"personal_info": {"nombre": "Ana"}, "preferences": {}, "important_topics": []}`,
			ok:     true,
			nombre: "Ana",
		},
		{
			name:   "json buried in prose",
			input:  "Claro, aquí está el análisis:\n{\"personal_info\": {\"nombre\": \"Ben\"}}\nEspero que sirva.",
			ok:     true,
			nombre: "Ben",
		},
		{
			name:   "braces inside string literals",
			input:  `{"personal_info": {"nombre": "Ana"}, "preferences": {"nota": "usa {llaves} a veces"}}`,
			ok:     true,
			nombre: "Ana",
		},
		{
			name:  "no json at all",
			input: "El usuario no compartió información personal.",
			ok:    false,
		},
		{
			name:  "unbalanced braces",
			input: `{"personal_info": {"nombre": "Ana"`,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts, ok := ParseFacts(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !tt.ok {
				return
			}
			got, _ := facts.PersonalInfo["nombre"].(string)
			if got != tt.nombre {
				t.Errorf("nombre = %q, want %q", got, tt.nombre)
			}
		})
	}
}

func TestParseFactsRecoversNestedObject(t *testing.T) {
	// The outermost balanced block is not valid JSON, but a nested block is.
	input := `resultado { analysis: pendiente {"personal_info": {"nombre": "Ana"}} }`
	facts, ok := ParseFacts(input)
	if !ok {
		t.Fatal("nested valid object not recovered")
	}
	if got, _ := facts.PersonalInfo["nombre"].(string); got != "Ana" {
		t.Errorf("nombre = %q", got)
	}
}

func TestExtractUsesModelJSON(t *testing.T) {
	e := NewExtractor(&scriptedProvider{
		content: `{"personal_info": {"nombre": "Ana"}, "changes_made": ["Nombre identificado"]}`,
	}, "test-model")

	facts := e.Extract(context.Background(), "me llamo ana", "¡Hola Ana!")
	if facts.Empty() {
		t.Fatal("facts empty")
	}
	if got, _ := facts.PersonalInfo["nombre"].(string); got != "Ana" {
		t.Errorf("nombre = %q", got)
	}
}

func TestExtractFallsBackOnProviderError(t *testing.T) {
	e := NewExtractor(&scriptedProvider{err: errors.New("backend down")}, "test-model")

	facts := e.Extract(context.Background(), "Hola, me llamo ana garcía", "¡Hola!")
	if got, _ := facts.PersonalInfo["nombre"].(string); got != "Ana García" {
		t.Errorf("fallback nombre = %q, want %q", got, "Ana García")
	}
}

func TestExtractFallsBackOnUnparseableOutput(t *testing.T) {
	e := NewExtractor(&scriptedProvider{content: "no puedo responder en JSON"}, "test-model")

	facts := e.Extract(context.Background(), "me gusta el café", "Buena elección.")
	if got, _ := facts.Preferences["le_gusta"].(string); got != "el café" {
		t.Errorf("fallback le_gusta = %q, want %q", got, "el café")
	}
}

func TestFallbackExtractNothing(t *testing.T) {
	facts := fallbackExtract("¿qué hora es?")
	if !facts.Empty() {
		t.Errorf("expected empty facts, got %+v", facts)
	}
}
