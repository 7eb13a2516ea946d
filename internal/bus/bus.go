package bus

import (
	"context"
	"log/slog"
)

const defaultQueueSize = 256

// MessageBus is the in-process queue between channels and the turn consumer.
// Inbound and outbound lanes are independent so a slow generation for one
// direction never backs up the other.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
}

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, defaultQueueSize),
		outbound: make(chan OutboundMessage, defaultQueueSize),
	}
}

// PublishInbound enqueues a message from a channel. Drops with a warning if the
// queue is full rather than blocking the channel's receive loop.
func (b *MessageBus) PublishInbound(msg InboundMessage) {
	select {
	case b.inbound <- msg:
	default:
		slog.Warn("inbound queue full, dropping message", "channel", msg.Channel, "user", msg.UserID)
	}
}

// ConsumeInbound blocks until a message is available or ctx is done.
// The second return is false when the bus is shutting down.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case msg, ok := <-b.inbound:
		return msg, ok
	case <-ctx.Done():
		return InboundMessage{}, false
	}
}

func (b *MessageBus) PublishOutbound(msg OutboundMessage) {
	select {
	case b.outbound <- msg:
	default:
		slog.Warn("outbound queue full, dropping message", "channel", msg.Channel, "chat_id", msg.ChatID)
	}
}

func (b *MessageBus) ConsumeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case msg, ok := <-b.outbound:
		return msg, ok
	case <-ctx.Done():
		return OutboundMessage{}, false
	}
}
