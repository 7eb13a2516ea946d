package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/accraft8/blimsey/internal/profile"
	"github.com/accraft8/blimsey/internal/store"
)

func TestProfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewProfileStore(dir)

	p := profile.New()
	profile.Merge(p, profile.ExtractedFacts{
		PersonalInfo:    map[string]any{"nombre": "Ana"},
		Preferences:     map[string]any{"le_gusta": []any{"café", "té"}},
		ImportantTopics: []any{"proyecto go"},
	}, nil, time.Now())

	if err := s.Save("12345", p); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.Load("12345")
	if err != nil {
		t.Fatal(err)
	}
	if got := loaded.PersonalInfo["nombre"]; !reflect.DeepEqual([]string(got), []string{"Ana"}) {
		t.Errorf("nombre = %v", got)
	}
	if got := loaded.Preferences["le_gusta"]; !reflect.DeepEqual([]string(got), []string{"café", "té"}) {
		t.Errorf("le_gusta = %v", got)
	}
	if !reflect.DeepEqual(loaded.ImportantTopics, []string{"proyecto go"}) {
		t.Errorf("topics = %v", loaded.ImportantTopics)
	}
}

func TestProfileFileShape(t *testing.T) {
	dir := t.TempDir()
	s := NewProfileStore(dir)

	p := profile.New()
	profile.Merge(p, profile.ExtractedFacts{
		PersonalInfo: map[string]any{"nombre": "Ana"},
		Preferences:  map[string]any{"le_gusta": []any{"café", "té"}},
	}, nil, time.Now())
	if err := s.Save("12345", p); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "users", "12345", "summary.json"))
	if err != nil {
		t.Fatal(err)
	}

	// Single values persist as plain strings, accumulated ones as arrays.
	var raw struct {
		PersonalInfo map[string]any `json:"personal_info"`
		Preferences  map[string]any `json:"preferences"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw.PersonalInfo["nombre"].(string); !ok {
		t.Errorf("single-entry value not a plain string: %T", raw.PersonalInfo["nombre"])
	}
	if _, ok := raw.Preferences["le_gusta"].([]any); !ok {
		t.Errorf("multi-entry value not an array: %T", raw.Preferences["le_gusta"])
	}
}

func TestLoadMissingProfileIsEmpty(t *testing.T) {
	s := NewProfileStore(t.TempDir())
	p, err := s.Load("nadie")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.PersonalInfo) != 0 || len(p.Preferences) != 0 || len(p.ImportantTopics) != 0 {
		t.Errorf("missing profile not empty: %+v", p)
	}
}

func TestInteractionAppendAndRecent(t *testing.T) {
	dir := t.TempDir()
	s := NewInteractionStore(dir)

	for i, msg := range []string{"uno", "dos", "tres"} {
		err := s.Append("u1", store.InteractionRecord{
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			Message:   msg,
			Response:  "resp " + msg,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	recent, err := s.Recent("u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent count = %d, want 2", len(recent))
	}
	// Oldest first within the window of the last two.
	if recent[0].Message != "dos" || recent[1].Message != "tres" {
		t.Errorf("recent = [%s, %s], want [dos, tres]", recent[0].Message, recent[1].Message)
	}

	recent, err = s.Recent("desconocido", 5)
	if err != nil || len(recent) != 0 {
		t.Errorf("unknown user recent = %v (err %v), want empty", recent, err)
	}
}

func TestUserIDSanitized(t *testing.T) {
	dir := t.TempDir()
	s := NewProfileStore(dir)

	if err := s.Save("../escape", profile.New()); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "users")); err != nil {
		t.Fatal("users dir missing after save")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape")); err == nil {
		t.Error("user ID escaped the data directory")
	}
}
