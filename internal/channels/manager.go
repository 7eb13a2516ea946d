package channels

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/accraft8/blimsey/internal/bus"
)

// Manager starts and stops channels and dispatches outbound messages to the
// right one by name.
type Manager struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

func NewManager() *Manager {
	return &Manager{channels: make(map[string]Channel)}
}

// Register adds a channel. Must be called before StartAll.
func (m *Manager) Register(c Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[c.Name()] = c
}

// StartAll starts every registered channel. A channel that fails to start is
// logged and skipped; the others keep running.
func (m *Manager) StartAll(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, c := range m.channels {
		if err := c.Start(ctx); err != nil {
			slog.Error("channel failed to start", "channel", name, "error", err)
		}
	}
}

// StopAll stops every running channel.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, c := range m.channels {
		if !c.IsRunning() {
			continue
		}
		if err := c.Stop(ctx); err != nil {
			slog.Warn("channel stop failed", "channel", name, "error", err)
		}
	}
}

// Count returns the number of registered channels.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.channels)
}

// Send routes an outbound message to its channel.
func (m *Manager) Send(ctx context.Context, msg bus.OutboundMessage) error {
	m.mu.RLock()
	c, ok := m.channels[msg.Channel]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown channel %q", msg.Channel)
	}
	return c.Send(ctx, msg)
}

// RunOutbound consumes outbound messages from the router and delivers them
// until ctx is done. Runs on its own goroutine so a slow platform API never
// blocks inbound processing.
func (m *Manager) RunOutbound(ctx context.Context, router bus.MessageRouter) {
	for {
		msg, ok := router.ConsumeOutbound(ctx)
		if !ok {
			return
		}
		if err := m.Send(ctx, msg); err != nil {
			slog.Warn("outbound delivery failed", "channel", msg.Channel, "chat_id", msg.ChatID, "error", err)
		}
	}
}
