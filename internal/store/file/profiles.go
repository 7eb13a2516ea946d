// Package file implements the store interfaces on per-user JSON files under a
// data directory, mirroring the original bot's logs/<user>/summary.json and
// logs/<user>/user.json layout. Writes are atomic (temp file + rename) and
// human-readable (2-space indent, UTF-8).
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/accraft8/blimsey/internal/profile"
)

// ProfileStore persists profiles as <dataDir>/users/<userID>/summary.json.
type ProfileStore struct {
	dataDir string
}

func NewProfileStore(dataDir string) *ProfileStore {
	return &ProfileStore{dataDir: dataDir}
}

func (s *ProfileStore) Load(userID string) (*profile.Profile, error) {
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return profile.New(), nil
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}

	p := profile.New()
	if err := json.Unmarshal(data, p); err != nil {
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
	return writeAtomic(s.path(userID), data)
}

func (s *ProfileStore) path(userID string) string {
	return filepath.Join(userDir(s.dataDir, userID), "summary.json")
}

func userDir(dataDir, userID string) string {
	return filepath.Join(dataDir, "users", sanitize(userID))
}

// sanitize makes a user ID safe as a directory name.
func sanitize(userID string) string {
	s := strings.NewReplacer(":", "_", "/", "_", "\\", "_", "..", "_").Replace(userID)
	if s == "" {
		s = "_"
	}
	return s
}

// writeAtomic writes data to path via a temp file + rename, creating parent
// directories as needed.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".write-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	cleanup = false
	return nil
}
