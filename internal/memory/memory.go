// Package memory provides best-effort semantic memory for per-user
// conversation recall, backed by chromem-go (an embedded vector database) with
// Ollama embeddings. Every failure degrades to empty context; memory never
// aborts a turn.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"
)

// Store is the semantic memory interface the turn pipeline uses.
type Store interface {
	// Add stores a document for later retrieval.
	Add(ctx context.Context, userID, text string) error
	// Query returns up to k documents ranked by similarity to query.
	Query(ctx context.Context, userID, query string, k int) ([]string, error)
	// GetAll returns every stored document for the user, oldest first.
	GetAll(ctx context.Context, userID string) ([]string, error)
}

// ChromemStore implements Store with one chromem collection per user.
// Documents carry sequential per-user IDs so a persisted collection can be
// read back in insertion order after a restart.
type ChromemStore struct {
	db    *chromem.DB
	embed chromem.EmbeddingFunc

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	docs        map[string][]string // insertion-order mirror, serves GetAll and backups
	hydrated    map[string]bool
}

// Config for the chromem store.
type Config struct {
	Path       string // persistence dir; empty = in-memory only
	OllamaURL  string
	EmbedModel string
}

// New creates a chromem store. With a Path the database survives restarts.
func New(cfg Config) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if cfg.Path != "" {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	return &ChromemStore{
		db:          db,
		embed:       chromem.NewEmbeddingFuncOllama(cfg.EmbedModel, cfg.OllamaURL+"/api"),
		collections: make(map[string]*chromem.Collection),
		docs:        make(map[string][]string),
		hydrated:    make(map[string]bool),
	}, nil
}

// WithEmbedding overrides the embedding function (tests use a deterministic one).
func (s *ChromemStore) WithEmbedding(fn chromem.EmbeddingFunc) *ChromemStore {
	s.embed = fn
	return s
}

func collectionName(userID string) string {
	return "user_" + userID
}

func docID(userID string, seq int) string {
	return fmt.Sprintf("%s-%06d", userID, seq)
}

func (s *ChromemStore) collection(userID string) (*chromem.Collection, error) {
	s.mu.RLock()
	col, ok := s.collections[userID]
	s.mu.RUnlock()
	if ok {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[userID]; ok {
		return col, nil
	}

	col, err := s.db.GetOrCreateCollection(collectionName(userID), nil, s.embed)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	s.collections[userID] = col
	return col, nil
}

// hydrate fills the in-process mirror from an already-persisted collection on
// the user's first access after startup, so GetAll and the JSON backups see
// documents stored in earlier runs.
func (s *ChromemStore) hydrate(ctx context.Context, userID string, col *chromem.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated[userID] {
		return
	}
	s.hydrated[userID] = true

	count := col.Count()
	for seq := 1; seq <= count; seq++ {
		doc, err := col.GetByID(ctx, docID(userID, seq))
		if err != nil {
			slog.Warn("persisted memory document unreadable", "user", userID, "seq", seq, "error", err)
			continue
		}
		s.docs[userID] = append(s.docs[userID], doc.Content)
	}
	if count > 0 {
		slog.Debug("memory rehydrated", "user", userID, "docs", len(s.docs[userID]))
	}
}

func (s *ChromemStore) Add(ctx context.Context, userID, text string) error {
	col, err := s.collection(userID)
	if err != nil {
		return err
	}
	s.hydrate(ctx, userID, col)

	// Per-user turns are serialized upstream, so the sequence number is
	// stable between reading it and appending below.
	s.mu.RLock()
	seq := len(s.docs[userID]) + 1
	s.mu.RUnlock()

	doc := chromem.Document{
		ID:      docID(userID, seq),
		Content: text,
		Metadata: map[string]string{
			"user_id":   userID,
			"stored_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}

	s.mu.Lock()
	s.docs[userID] = append(s.docs[userID], text)
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, userID, query string, k int) ([]string, error) {
	col, err := s.collection(userID)
	if err != nil {
		return nil, err
	}

	// chromem requires nResults <= collection size
	if count := col.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	results, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	docs := make([]string, 0, len(results))
	for _, r := range results {
		docs = append(docs, r.Content)
	}
	return docs, nil
}

func (s *ChromemStore) GetAll(ctx context.Context, userID string) ([]string, error) {
	col, err := s.collection(userID)
	if err != nil {
		return nil, err
	}
	s.hydrate(ctx, userID, col)

	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.docs[userID]
	out := make([]string, len(all))
	copy(out, all)
	return out, nil
}
