package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/accraft8/blimsey/internal/store"
)

// InteractionStore appends turn records to <dataDir>/users/<userID>/user.json,
// an append-only JSON array kept human-readable. A per-store mutex serializes
// the read-modify-write; per-user turns are already serialized upstream, the
// mutex only guards against two different users landing on a shared file
// system path after sanitization.
type InteractionStore struct {
	dataDir string
	mu      sync.Mutex
}

func NewInteractionStore(dataDir string) *InteractionStore {
	return &InteractionStore{dataDir: dataDir}
}

func (s *InteractionStore) Append(userID string, rec store.InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll(userID)
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal interactions: %w", err)
	}
	return writeAtomic(s.path(userID), data)
}

func (s *InteractionStore) Recent(userID string, n int) ([]store.InteractionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll(userID)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

func (s *InteractionStore) readAll(userID string) ([]store.InteractionRecord, error) {
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read interactions: %w", err)
	}

	var records []store.InteractionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse interactions: %w", err)
	}
	return records, nil
}

func (s *InteractionStore) path(userID string) string {
	return filepath.Join(userDir(s.dataDir, userID), "user.json")
}
