// Package engine runs one conversational turn: assemble the prompt from the
// persona template, profile summary, recent interactions, and semantic memory;
// call the generation backend; then commit the completed turn to memory, the
// interaction log, and the profile merge engine.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/accraft8/blimsey/internal/memory"
	"github.com/accraft8/blimsey/internal/profile"
	"github.com/accraft8/blimsey/internal/providers"
	"github.com/accraft8/blimsey/internal/store"
)

// memoryQueryK is how many semantic memory documents are injected as context.
const memoryQueryK = 5

// Engine is the per-turn pipeline. It is stateless across turns; all state
// lives in the stores. Safe for concurrent use by turns of distinct users.
type Engine struct {
	provider       providers.Provider
	model          string
	stores         *store.Stores
	memory         memory.Store // nil = memory disabled
	triggers       *profile.Triggers
	extractor      *profile.Extractor
	sentinels      []string
	promptTemplate string
	maxResponse    int
	recentTurns    int
}

// Config wires an Engine.
type Config struct {
	Provider       providers.Provider
	Model          string
	Stores         *store.Stores
	Memory         memory.Store
	Triggers       *profile.Triggers
	Extractor      *profile.Extractor
	Sentinels      []string
	PromptTemplate string
	MaxResponse    int
	RecentTurns    int
}

func New(cfg Config) *Engine {
	return &Engine{
		provider:       cfg.Provider,
		model:          cfg.Model,
		stores:         cfg.Stores,
		memory:         cfg.Memory,
		triggers:       cfg.Triggers,
		extractor:      cfg.Extractor,
		sentinels:      cfg.Sentinels,
		promptTemplate: cfg.PromptTemplate,
		maxResponse:    cfg.MaxResponse,
		recentTurns:    cfg.RecentTurns,
	}
}

// Generate runs the generation half of a turn and returns the cleaned, capped
// response. It does not persist anything: the caller checks the turn is still
// current before Commit, so a stale generation after a watchdog recovery never
// writes.
func (e *Engine) Generate(ctx context.Context, userID, prompt string) (string, error) {
	fullPrompt := e.buildPrompt(ctx, userID, prompt)

	start := time.Now()
	resp, err := e.provider.Generate(ctx, providers.GenerateRequest{Model: e.model, Prompt: fullPrompt})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	slog.Info("generation complete", "user", userID, "duration", time.Since(start).Round(time.Millisecond))

	response := ExtractFinalResponse(resp.Content)
	return Truncate(response, e.maxResponse), nil
}

// Commit persists a completed turn: semantic memory, interaction log, and,
// when the turn looks profile-worthy, fact extraction and profile merge.
// Every failure here is logged and contained; a turn that generated
// successfully is never failed by persistence.
func (e *Engine) Commit(ctx context.Context, userID, prompt, response string) {
	if e.memory != nil {
		doc := fmt.Sprintf("User: %s\nAssistant: %s", prompt, response)
		if err := e.memory.Add(ctx, userID, doc); err != nil {
			slog.Warn("memory store failed, turn proceeds without it", "user", userID, "error", err)
		}
	}

	if err := e.stores.Interactions.Append(userID, store.InteractionRecord{
		Timestamp: time.Now(),
		Message:   prompt,
		Response:  response,
	}); err != nil {
		slog.Warn("interaction log write failed", "user", userID, "error", err)
	}

	e.updateProfile(ctx, userID, prompt, response)
}

// updateProfile runs the merge engine when the trigger pre-filter fires.
func (e *Engine) updateProfile(ctx context.Context, userID, prompt, response string) {
	if !e.triggers.ShouldUpdate(prompt, response) {
		slog.Debug("profile update not needed", "user", userID)
		return
	}

	facts := e.extractor.Extract(ctx, prompt, response)
	if facts.Empty() {
		slog.Debug("no facts extracted", "user", userID)
		return
	}

	p, err := e.stores.Profiles.Load(userID)
	if err != nil {
		slog.Warn("profile load failed, skipping merge", "user", userID, "error", err)
		return
	}

	if !profile.Merge(p, facts, e.sentinels, time.Now()) {
		slog.Debug("no new information for profile", "user", userID)
		return
	}

	if err := e.stores.Profiles.Save(userID, p); err != nil {
		slog.Warn("profile save failed, in-memory merge lost", "user", userID, "error", err)
		return
	}
	slog.Info("profile updated", "user", userID, "changes", strings.Join(facts.ChangesMade, "; "))
}

// buildPrompt assembles the full prompt: persona template, then the profile
// summary, recent interactions, and semantic memory context as labeled blocks,
// then the user instruction. Missing context blocks are simply omitted.
func (e *Engine) buildPrompt(ctx context.Context, userID, prompt string) string {
	var b strings.Builder
	b.WriteString(e.promptTemplate)

	if p, err := e.stores.Profiles.Load(userID); err == nil {
		if len(p.PersonalInfo) > 0 || len(p.Preferences) > 0 || len(p.ImportantTopics) > 0 {
			b.WriteString("\n\n{user_summary:\n")
			b.WriteString(p.ContextJSON())
			b.WriteString("\n}")
		}
	} else {
		slog.Warn("profile load failed, prompt built without summary", "user", userID, "error", err)
	}

	if records, err := e.stores.Interactions.Recent(userID, e.recentTurns); err == nil && len(records) > 0 {
		blocks := make([]string, len(records))
		for i, rec := range records {
			blocks[i] = fmt.Sprintf("User: %s\nAssistant: %s", strings.TrimSpace(rec.Message), strings.TrimSpace(rec.Response))
		}
		b.WriteString("\n\n{recent_interactions:\n")
		b.WriteString(strings.Join(blocks, "\n---\n"))
		b.WriteString("\n}")
	} else if err != nil {
		slog.Warn("interaction log read failed, prompt built without history", "user", userID, "error", err)
	}

	if e.memory != nil {
		if docs, err := e.memory.Query(ctx, userID, prompt, memoryQueryK); err == nil && len(docs) > 0 {
			b.WriteString("\n\n{relevant_context:\n")
			b.WriteString(strings.Join(docs, "\n---\n"))
			b.WriteString("\n}")
		} else if err != nil {
			slog.Warn("memory query failed, prompt built without context", "user", userID, "error", err)
		}
	}

	b.WriteString("\n\nUser instruction: ")
	b.WriteString(prompt)
	return b.String()
}

// ProfileSummary renders the stored profile for the /summary command.
func (e *Engine) ProfileSummary(userID string) string {
	p, err := e.stores.Profiles.Load(userID)
	if err != nil {
		return "Error al cargar el resumen: " + err.Error()
	}
	return p.SummaryText()
}

// MemoryStatus reports how many documents are stored for the user, for the
// /reload command. Returns -1 when memory is disabled.
func (e *Engine) MemoryStatus(ctx context.Context, userID string) int {
	if e.memory == nil {
		return -1
	}
	docs, err := e.memory.GetAll(ctx, userID)
	if err != nil {
		slog.Warn("memory status read failed", "user", userID, "error", err)
		return 0
	}
	return len(docs)
}
