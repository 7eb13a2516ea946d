// Package profile implements the per-user profile merge engine: deciding when a
// turn carries profile-worthy information, extracting structured facts from it,
// and folding those facts into the persisted profile without duplication or
// unbounded growth.
package profile

import (
	"encoding/json"
	"time"
)

// maxTopics bounds important_topics to a recency ring of the last N entries.
const maxTopics = 10

// Value is a profile field value. It persists as a plain JSON string while it
// holds a single entry and as a sorted JSON array once variants accumulate,
// matching the summary files the original bot wrote.
type Value []string

func (v Value) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Value{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = Value(list)
		return nil
	}
	// Tolerate odd shapes (numbers, nested lists) from older files.
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Value(stringify(flatten(raw)))
	return nil
}

// Profile is the persisted, incrementally merged summary of facts learned about
// a user. Mutated only through Merge; no field value is ever an empty string,
// and ImportantTopics holds at most maxTopics unique entries, most recent last.
type Profile struct {
	PersonalInfo    map[string]Value `json:"personal_info"`
	Preferences     map[string]Value `json:"preferences"`
	ImportantTopics []string         `json:"important_topics"`
	LastUpdated     time.Time        `json:"last_updated"`
}

// New returns an empty profile with initialized maps.
func New() *Profile {
	return &Profile{
		PersonalInfo:    make(map[string]Value),
		Preferences:     make(map[string]Value),
		ImportantTopics: []string{},
		LastUpdated:     time.Now(),
	}
}

// ExtractedFacts is the transient result of analyzing one turn. Field types are
// loose (any) because model output is fuzzy: values arrive as strings,
// comma-joined strings, lists, or nested lists, and the merge normalizes them.
type ExtractedFacts struct {
	PersonalInfo    map[string]any `json:"personal_info"`
	Preferences     map[string]any `json:"preferences"`
	ImportantTopics []any          `json:"important_topics"`
	ChangesMade     []string       `json:"changes_made,omitempty"`
}

// Empty reports whether the facts carry nothing to merge.
func (f ExtractedFacts) Empty() bool {
	return len(f.PersonalInfo) == 0 && len(f.Preferences) == 0 && len(f.ImportantTopics) == 0
}
