package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/accraft8/blimsey/internal/bus"
	"github.com/accraft8/blimsey/internal/channels"
	"github.com/accraft8/blimsey/internal/channels/discord"
	"github.com/accraft8/blimsey/internal/channels/telegram"
	"github.com/accraft8/blimsey/internal/config"
	"github.com/accraft8/blimsey/internal/engine"
	"github.com/accraft8/blimsey/internal/memory"
	"github.com/accraft8/blimsey/internal/profile"
	"github.com/accraft8/blimsey/internal/providers"
	"github.com/accraft8/blimsey/internal/sessions"
	"github.com/accraft8/blimsey/internal/store"
	"github.com/accraft8/blimsey/internal/store/file"
	"github.com/accraft8/blimsey/internal/store/sqlite"
)

func runBot() {
	// Setup structured logging
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		slog.Error("failed to create data directory", "path", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Auxiliary inputs: persona template and trigger keywords (hot-reloaded).
	promptTemplate := config.LoadPromptTemplate(cfg.Model.PromptFile)
	keywords := config.LoadKeywords(cfg.Profile.KeywordsFile)
	if err := keywords.Watch(ctx); err != nil {
		slog.Warn("keyword file watcher unavailable, edits require /reload", "error", err)
	}

	// Persistence backend for profiles and interaction logs.
	var stores *store.Stores
	switch cfg.Store.Backend {
	case "sqlite":
		dbPath := cfg.Store.Path
		if dbPath == "" {
			dbPath = filepath.Join(cfg.DataDir, "blimsey.db")
		}
		stores, err = sqlite.NewSQLiteStores(dbPath)
		if err != nil {
			slog.Error("failed to open sqlite store", "path", dbPath, "error", err)
			os.Exit(1)
		}
		slog.Info("store backend: sqlite", "path", dbPath)
	default:
		stores = &store.Stores{
			Profiles:     file.NewProfileStore(cfg.DataDir),
			Interactions: file.NewInteractionStore(cfg.DataDir),
		}
		slog.Info("store backend: file", "dir", cfg.DataDir)
	}

	// Semantic memory (optional). Failures here disable memory but never stop
	// the bot; the prompt is simply built without the relevant_context block.
	var mem memory.Store
	if cfg.Memory.Enabled {
		memPath := cfg.Memory.Path
		if memPath == "" {
			memPath = filepath.Join(cfg.DataDir, "memory")
		}
		chromemStore, memErr := memory.New(memory.Config{
			Path:       memPath,
			OllamaURL:  cfg.Model.OllamaURL,
			EmbedModel: cfg.Memory.EmbedModel,
		})
		if memErr != nil {
			slog.Warn("semantic memory unavailable", "error", memErr)
		} else {
			mem = memory.WithBackup(chromemStore, filepath.Join(cfg.DataDir, "backups"))
			slog.Info("semantic memory enabled", "path", memPath, "embed_model", cfg.Memory.EmbedModel)
		}
	}

	provider := providers.NewOllamaProvider(cfg.Model.OllamaURL, cfg.Model.Name)

	eng := engine.New(engine.Config{
		Provider:       provider,
		Model:          cfg.Model.Name,
		Stores:         stores,
		Memory:         mem,
		Triggers:       profile.NewTriggers(keywords),
		Extractor:      profile.NewExtractor(provider, cfg.Model.Name),
		Sentinels:      cfg.Profile.Sentinels,
		PromptTemplate: promptTemplate,
		MaxResponse:    cfg.Turns.MaxResponseChars,
		RecentTurns:    cfg.Turns.RecentInteractions,
	})

	// Turn scheduling: registry + debouncer + serializer, one state per user.
	msgBus := bus.NewMessageBus()
	registry := sessions.NewRegistry()
	serializer := sessions.NewSerializer(registry, time.Duration(cfg.Turns.LockTimeoutSeconds)*time.Second)
	rt := newTurnRuntime(ctx, cfg, msgBus, eng, registry, serializer, keywords)
	debouncer := sessions.NewDebouncer(registry, time.Duration(cfg.Turns.DebounceSeconds)*time.Second, rt.flush)
	rt.debouncer = debouncer

	// Channels
	channelMgr := channels.NewManager()
	if cfg.Channels.Telegram.Enabled {
		tg, tgErr := telegram.New(cfg.Channels.Telegram, msgBus, cfg.Turns.RateLimitPerMinute)
		if tgErr != nil {
			slog.Error("telegram channel init failed", "error", tgErr)
		} else {
			channelMgr.Register(tg)
		}
	}
	if cfg.Channels.Discord.Enabled {
		dc, dcErr := discord.New(cfg.Channels.Discord, msgBus, cfg.Turns.RateLimitPerMinute)
		if dcErr != nil {
			slog.Error("discord channel init failed", "error", dcErr)
		} else {
			channelMgr.Register(dc)
		}
	}
	if channelMgr.Count() == 0 {
		slog.Error("no channels configured; set a telegram or discord token")
		os.Exit(1)
	}

	channelMgr.StartAll(ctx)
	go channelMgr.RunOutbound(ctx, msgBus)
	go rt.run(ctx)

	slog.Info("blimsey started",
		"model", cfg.Model.Name,
		"channels", channelMgr.Count(),
		"debounce", time.Duration(cfg.Turns.DebounceSeconds)*time.Second,
		"lock_timeout", time.Duration(cfg.Turns.LockTimeoutSeconds)*time.Second,
	)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	channelMgr.StopAll(shutdownCtx)
	slog.Info("shutdown complete")
}
