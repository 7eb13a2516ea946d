package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/accraft8/blimsey/internal/store"
)

// InteractionStore appends turn records to the interactions table.
type InteractionStore struct {
	db *sql.DB
}

func NewInteractionStore(db *sql.DB) *InteractionStore {
	return &InteractionStore{db: db}
}

func (s *InteractionStore) Append(userID string, rec store.InteractionRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO interactions (user_id, ts, message, response) VALUES (?, ?, ?, ?)`,
		userID, rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.Message, rec.Response)
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

func (s *InteractionStore) Recent(userID string, n int) ([]store.InteractionRecord, error) {
	// n <= 0 means no window, like the file backend. SQLite treats a
	// negative LIMIT as unlimited.
	if n <= 0 {
		n = -1
	}
	rows, err := s.db.Query(`
		SELECT ts, message, response FROM (
			SELECT id, ts, message, response FROM interactions
			WHERE user_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, userID, n)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var records []store.InteractionRecord
	for rows.Next() {
		var ts, message, response string
		if err := rows.Scan(&ts, &message, &response); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			parsed = time.Time{}
		}
		records = append(records, store.InteractionRecord{Timestamp: parsed, Message: message, Response: response})
	}
	return records, rows.Err()
}
