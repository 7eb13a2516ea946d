package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// backupDoc is one entry in the per-user JSON backup file.
type backupDoc struct {
	Seq  int    `json:"seq"`
	Text string `json:"text"`
}

// BackupStore wraps a Store and mirrors every user's documents to a JSON file
// after each Add, so memory survives even if the vector database is wiped.
// Backup failures are logged, never propagated.
type BackupStore struct {
	Store
	dir string
}

func WithBackup(inner Store, dir string) *BackupStore {
	return &BackupStore{Store: inner, dir: dir}
}

func (b *BackupStore) Add(ctx context.Context, userID, text string) error {
	if err := b.Store.Add(ctx, userID, text); err != nil {
		return err
	}
	if err := b.writeBackup(ctx, userID); err != nil {
		slog.Warn("memory backup write failed", "user", userID, "error", err)
	}
	return nil
}

func (b *BackupStore) writeBackup(ctx context.Context, userID string) error {
	docs, err := b.Store.GetAll(ctx, userID)
	if err != nil {
		return err
	}

	backup := make([]backupDoc, len(docs))
	for i, doc := range docs {
		backup[i] = backupDoc{Seq: i + 1, Text: doc}
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(b.dir, "user_"+userID+".json")
	return os.WriteFile(path, data, 0o644)
}
