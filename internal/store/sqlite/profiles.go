package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/accraft8/blimsey/internal/profile"
)

// ProfileStore persists profiles as JSON documents in the profiles table.
type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Load(userID string) (*profile.Profile, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM profiles WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	p := profile.New()
	if err := json.Unmarshal([]byte(data), p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if p.PersonalInfo == nil {
		p.PersonalInfo = make(map[string]profile.Value)
	}
	if p.Preferences == nil {
		p.Preferences = make(map[string]profile.Value)
	}
	return p, nil
}

func (s *ProfileStore) Save(userID string, p *profile.Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO profiles (user_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
