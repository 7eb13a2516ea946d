package memory

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"os"
	"path/filepath"
	"testing"
)

// testEmbedding is a deterministic embedding so tests never call Ollama.
func testEmbedding(_ context.Context, text string) ([]float32, error) {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vec := make([]float32, 8)
	for i := range vec {
		seed = seed*1664525 + 1013904223
		vec[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return vec, nil
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	s, err := New(Config{EmbedModel: "test", OllamaURL: "http://unused"})
	if err != nil {
		t.Fatal(err)
	}
	return s.WithEmbedding(testEmbedding)
}

func TestAddAndGetAllPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []string{
		"User: hola\nAssistant: ¡Hola!",
		"User: me llamo Ana\nAssistant: Encantado, Ana.",
		"User: me gusta el café\nAssistant: Anotado.",
	}
	for _, doc := range docs {
		if err := s.Add(ctx, "u1", doc); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetAll(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(docs) {
		t.Fatalf("GetAll returned %d docs, want %d", len(got), len(docs))
	}
	for i := range docs {
		if got[i] != docs[i] {
			t.Errorf("doc[%d] = %q, want %q (insertion order)", i, got[i], docs[i])
		}
	}
}

func TestQueryClampsKToCollectionSize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if docs, err := s.Query(ctx, "u1", "hola", 5); err != nil || len(docs) != 0 {
		t.Fatalf("query on empty collection = %v (err %v), want empty", docs, err)
	}

	if err := s.Add(ctx, "u1", "único documento"); err != nil {
		t.Fatal(err)
	}
	docs, err := s.Query(ctx, "u1", "documento", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0] != "único documento" {
		t.Errorf("query = %v, want the single stored doc", docs)
	}
}

func TestUsersIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, "ana", "dato de ana"); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetAll(ctx, "ben")
	if err != nil || len(got) != 0 {
		t.Errorf("ben sees %v (err %v), want nothing", got, err)
	}
}

func TestGetAllSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := New(Config{Path: dir, EmbedModel: "test", OllamaURL: "http://unused"})
	if err != nil {
		t.Fatal(err)
	}
	first = first.WithEmbedding(testEmbedding)

	docs := []string{
		"User: hola\nAssistant: ¡Hola!",
		"User: me llamo Ana\nAssistant: Encantado, Ana.",
	}
	for _, doc := range docs {
		if err := first.Add(ctx, "u1", doc); err != nil {
			t.Fatal(err)
		}
	}

	// A new store over the same directory simulates a restart.
	second, err := New(Config{Path: dir, EmbedModel: "test", OllamaURL: "http://unused"})
	if err != nil {
		t.Fatal(err)
	}
	second = second.WithEmbedding(testEmbedding)

	got, err := second.GetAll(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(docs) {
		t.Fatalf("GetAll after restart = %d docs, want %d", len(got), len(docs))
	}
	for i := range docs {
		if got[i] != docs[i] {
			t.Errorf("doc[%d] after restart = %q, want %q", i, got[i], docs[i])
		}
	}

	// The first post-restart Add continues the sequence instead of starting
	// over, so backups keep the full history.
	if err := second.Add(ctx, "u1", "User: adiós\nAssistant: ¡Hasta pronto!"); err != nil {
		t.Fatal(err)
	}
	got, _ = second.GetAll(ctx, "u1")
	if len(got) != 3 || got[2] != "User: adiós\nAssistant: ¡Hasta pronto!" {
		t.Errorf("after post-restart add GetAll = %v, want 3 docs ending with the new one", got)
	}
}

func TestBackupKeepsHistoryAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	ctx := context.Background()

	first, err := New(Config{Path: filepath.Join(dir, "db"), EmbedModel: "test", OllamaURL: "http://unused"})
	if err != nil {
		t.Fatal(err)
	}
	backed := WithBackup(first.WithEmbedding(testEmbedding), backupDir)
	if err := backed.Add(ctx, "u1", "documento antiguo"); err != nil {
		t.Fatal(err)
	}

	second, err := New(Config{Path: filepath.Join(dir, "db"), EmbedModel: "test", OllamaURL: "http://unused"})
	if err != nil {
		t.Fatal(err)
	}
	backed = WithBackup(second.WithEmbedding(testEmbedding), backupDir)
	if err := backed.Add(ctx, "u1", "documento nuevo"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(backupDir, "user_u1.json"))
	if err != nil {
		t.Fatal(err)
	}
	var backup []backupDoc
	if err := json.Unmarshal(data, &backup); err != nil {
		t.Fatal(err)
	}
	if len(backup) != 2 {
		t.Fatalf("backup after restart holds %d docs, want 2 (history preserved)", len(backup))
	}
	if backup[0].Text != "documento antiguo" || backup[1].Text != "documento nuevo" {
		t.Errorf("backup = %+v", backup)
	}
}

func TestBackupMirrorsDocuments(t *testing.T) {
	dir := t.TempDir()
	s := WithBackup(newTestStore(t), dir)
	ctx := context.Background()

	if err := s.Add(ctx, "u1", "primer documento"); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, "u1", "segundo documento"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "user_u1.json"))
	if err != nil {
		t.Fatal(err)
	}

	var backup []backupDoc
	if err := json.Unmarshal(data, &backup); err != nil {
		t.Fatal(err)
	}
	if len(backup) != 2 {
		t.Fatalf("backup holds %d docs, want 2", len(backup))
	}
	if backup[0].Seq != 1 || backup[0].Text != "primer documento" {
		t.Errorf("backup[0] = %+v", backup[0])
	}
	if backup[1].Seq != 2 || backup[1].Text != "segundo documento" {
		t.Errorf("backup[1] = %+v", backup[1])
	}
}
