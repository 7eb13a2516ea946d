// Package store defines the persistence interfaces for user profiles and
// interaction logs, with file-based (default) and sqlite backends.
package store

import (
	"time"

	"github.com/accraft8/blimsey/internal/profile"
)

// ProfileStore persists one Profile per user. Load returns a fresh empty
// profile for unknown users; it never errors on absence.
type ProfileStore interface {
	Load(userID string) (*profile.Profile, error)
	Save(userID string, p *profile.Profile) error
}

// InteractionRecord is one completed turn, appended to the per-user log.
type InteractionRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
}

// InteractionStore is the append-only per-user interaction log.
type InteractionStore interface {
	Append(userID string, rec InteractionRecord) error
	// Recent returns up to n most recent records, oldest first.
	Recent(userID string, n int) ([]InteractionRecord, error)
}

// Stores bundles the backends the turn pipeline needs.
type Stores struct {
	Profiles     ProfileStore
	Interactions InteractionStore
}
