// Package channels provides the channel abstraction connecting external
// messaging platforms (Telegram, Discord) to the turn runtime via the message
// bus. Channels receive text, publish it inbound, and deliver replies in
// platform-sized chunks; all turn logic lives behind the bus.
package channels

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/accraft8/blimsey/internal/bus"
)

// Channel is the interface all channel implementations satisfy.
type Channel interface {
	// Name returns the channel identifier (e.g. "telegram", "discord").
	Name() string

	// Start begins listening for messages. Non-blocking after setup.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the channel.
	Stop(ctx context.Context) error

	// Send delivers an outbound message to the channel.
	Send(ctx context.Context, msg bus.OutboundMessage) error

	// IsRunning reports whether the channel is actively processing messages.
	IsRunning() bool
}

// BaseChannel provides shared functionality for channel implementations:
// allowlist checks and per-sender inbound rate limiting.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	running   bool
	allowList []string

	limitPerMinute int
	limitMu        sync.Mutex
	limiters       map[string]*rate.Limiter
}

// NewBaseChannel creates a BaseChannel. An empty allowList means all senders
// are allowed; limitPerMinute 0 disables rate limiting.
func NewBaseChannel(name string, msgBus *bus.MessageBus, allowList []string, limitPerMinute int) *BaseChannel {
	return &BaseChannel{
		name:           name,
		bus:            msgBus,
		allowList:      allowList,
		limitPerMinute: limitPerMinute,
		limiters:       make(map[string]*rate.Limiter),
	}
}

func (c *BaseChannel) Name() string { return c.name }

// Bus returns the message bus reference.
func (c *BaseChannel) Bus() *bus.MessageBus { return c.bus }

func (c *BaseChannel) IsRunning() bool { return c.running }

// SetRunning updates the running state.
func (c *BaseChannel) SetRunning(running bool) { c.running = running }

// IsAllowed checks the sender against the allowlist. Empty allowlist = open.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}
	for _, allowed := range c.allowList {
		if senderID == allowed {
			return true
		}
	}
	return false
}

// AllowRate reports whether the sender is within the inbound rate limit.
func (c *BaseChannel) AllowRate(senderID string) bool {
	if c.limitPerMinute <= 0 {
		return true
	}

	c.limitMu.Lock()
	limiter, ok := c.limiters[senderID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(c.limitPerMinute)/60.0), c.limitPerMinute)
		c.limiters[senderID] = limiter
	}
	c.limitMu.Unlock()

	return limiter.Allow()
}

// Truncate shortens s to max runes for log previews.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
