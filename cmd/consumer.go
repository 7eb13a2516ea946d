package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/accraft8/blimsey/internal/bus"
	"github.com/accraft8/blimsey/internal/config"
	"github.com/accraft8/blimsey/internal/engine"
	"github.com/accraft8/blimsey/internal/sessions"
)

// User-facing replies. The bot speaks Spanish; keep these in one place.
const (
	waitReply        = "Por favor espera, todavía estoy procesando tu mensaje anterior. Tu mensaje quedó en cola."
	thinkingReply    = "Pensando..."
	errorReply       = "Lo siento, ocurrió un error al procesar tu mensaje. Inténtalo de nuevo."
	welcomeReply     = "¡Hola! Soy Blimsey, tu asistente personal. Escríbeme lo que necesites."
	memoryOffNotice  = "Contexto recargado. La memoria semántica está desactivada."
	reloadNoticeTmpl = "Contexto recargado: %d documentos en memoria, %d frases clave."
)

// turnRuntime glues the bus to the turn scheduler: inbound messages feed the
// debouncer, debounce flushes become serialized turns, and replies go back out
// through the bus to the originating channel.
type turnRuntime struct {
	ctx        context.Context
	cfg        *config.Config
	router     bus.MessageRouter
	engine     *engine.Engine
	registry   *sessions.Registry
	serializer *sessions.Serializer
	debouncer  *sessions.Debouncer
	keywords   *config.KeywordList

	// Last known reply route per user. A debounce flush only carries the
	// userID, so the runtime remembers where that user last wrote from.
	routeMu sync.RWMutex
	routes  map[string]replyRoute
}

type replyRoute struct {
	channel string
	chatID  string
}

func newTurnRuntime(ctx context.Context, cfg *config.Config, router bus.MessageRouter, eng *engine.Engine, registry *sessions.Registry, serializer *sessions.Serializer, keywords *config.KeywordList) *turnRuntime {
	return &turnRuntime{
		ctx:        ctx,
		cfg:        cfg,
		router:     router,
		engine:     eng,
		registry:   registry,
		serializer: serializer,
		keywords:   keywords,
		routes:     make(map[string]replyRoute),
	}
}

// run consumes inbound messages until ctx is done.
func (rt *turnRuntime) run(ctx context.Context) {
	slog.Info("inbound message consumer started")
	for {
		msg, ok := rt.router.ConsumeInbound(ctx)
		if !ok {
			return
		}
		rt.handleInbound(msg)
	}
}

func (rt *turnRuntime) handleInbound(msg bus.InboundMessage) {
	rt.routeMu.Lock()
	rt.routes[msg.UserID] = replyRoute{channel: msg.Channel, chatID: msg.ChatID}
	rt.routeMu.Unlock()

	if cmd := msg.Metadata["command"]; cmd != "" {
		if rt.handleCommand(msg.UserID, cmd) {
			return
		}
		// Unknown commands flow through as ordinary text.
	}

	// A user mid-turn gets a courtesy note; the message itself stays buffered
	// and joins the next turn once the current one finishes.
	session := rt.registry.GetOrCreate(msg.UserID)
	if session.Locked() {
		rt.reply(msg.UserID, waitReply)
	}

	rt.debouncer.OnMessage(msg.UserID, msg.Content)
}

// handleCommand answers bot commands directly, without a generation turn.
// Returns false for commands it does not know.
func (rt *turnRuntime) handleCommand(userID, cmd string) bool {
	switch cmd {
	case "start":
		rt.reply(userID, welcomeReply)
	case "summary":
		rt.reply(userID, rt.engine.ProfileSummary(userID))
	case "reload":
		rt.keywords.Reload()
		docs := rt.engine.MemoryStatus(rt.ctx, userID)
		if docs < 0 {
			rt.reply(userID, memoryOffNotice)
		} else {
			rt.reply(userID, fmt.Sprintf(reloadNoticeTmpl, docs, len(rt.keywords.Phrases())))
		}
	default:
		return false
	}
	return true
}

// flush is the debouncer callback: the user's quiet period elapsed and their
// buffered messages were combined into one prompt. Runs the turn on its own
// goroutine so the timer goroutine is never held.
func (rt *turnRuntime) flush(userID, prompt string) {
	go rt.runTurn(userID, prompt)
}

// runTurn executes one serialized turn: acquire the user's turn slot, generate,
// verify the turn was not superseded by a watchdog recovery, then commit and
// reply. Release runs on every exit path.
func (rt *turnRuntime) runTurn(userID, prompt string) {
	epoch, ok := rt.serializer.TryAcquire(userID)
	if !ok {
		// Lost the race with another flush; requeue for the next cycle.
		rt.debouncer.OnMessage(userID, prompt)
		return
	}
	defer rt.serializer.Release(userID, epoch)

	turnID := uuid.NewString()[:8]
	slog.Debug("turn started", "turn", turnID, "user", userID)

	rt.reply(userID, thinkingReply)

	response, err := rt.engine.Generate(rt.ctx, userID, prompt)
	if err != nil {
		slog.Error("turn failed", "turn", turnID, "user", userID, "error", err)
		rt.reply(userID, errorReply)
		return
	}

	if !rt.serializer.StillCurrent(userID, epoch) {
		slog.Warn("turn superseded during generation, dropping result", "turn", turnID, "user", userID)
		return
	}

	rt.engine.Commit(rt.ctx, userID, prompt, response)
	rt.reply(userID, response)
}

// reply publishes an outbound message to the user's last known channel/chat.
func (rt *turnRuntime) reply(userID, content string) {
	if content == "" {
		return
	}

	rt.routeMu.RLock()
	route, ok := rt.routes[userID]
	rt.routeMu.RUnlock()
	if !ok {
		slog.Warn("no reply route for user, dropping response", "user", userID)
		return
	}

	rt.router.PublishOutbound(bus.OutboundMessage{
		Channel: route.channel,
		ChatID:  route.chatID,
		Content: content,
	})
}
