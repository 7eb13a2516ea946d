package bus

import (
	"context"
	"testing"
	"time"
)

func TestPublishConsumeRoundTrip(t *testing.T) {
	b := NewMessageBus()
	ctx := context.Background()

	b.PublishInbound(InboundMessage{Channel: "telegram", UserID: "u1", Content: "hola"})
	msg, ok := b.ConsumeInbound(ctx)
	if !ok || msg.Content != "hola" || msg.UserID != "u1" {
		t.Errorf("inbound round trip = %+v (ok %v)", msg, ok)
	}

	b.PublishOutbound(OutboundMessage{Channel: "telegram", ChatID: "c1", Content: "respuesta"})
	out, ok := b.ConsumeOutbound(ctx)
	if !ok || out.Content != "respuesta" || out.ChatID != "c1" {
		t.Errorf("outbound round trip = %+v (ok %v)", out, ok)
	}
}

func TestConsumeStopsOnContextCancel(t *testing.T) {
	b := NewMessageBus()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := b.ConsumeInbound(ctx)
		done <- ok
	}()

	cancel()
	select {
	case ok := <-done:
		if ok {
			t.Error("consume reported ok after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("consume did not return after cancel")
	}
}

func TestPublishNeverBlocksWhenFull(t *testing.T) {
	b := NewMessageBus()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < defaultQueueSize+10; i++ {
			b.PublishInbound(InboundMessage{Content: "x"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full queue")
	}
}
