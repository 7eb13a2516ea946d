package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/accraft8/blimsey/internal/bus"
	"github.com/accraft8/blimsey/internal/channels"
)

const unauthorizedReply = "No tienes autorización para usar este asistente."

// handleMessage processes an incoming Telegram update: access control, rate
// limiting, then publish to the bus. Commands travel as metadata so the
// consumer can answer them with engine state.
func (c *Channel) handleMessage(ctx context.Context, update telego.Update) {
	message := update.Message
	user := message.From
	if user == nil || message.Text == "" {
		return
	}

	userID := fmt.Sprintf("%d", user.ID)
	text := strings.TrimSpace(message.Text)

	slog.Debug("telegram message received",
		"user_id", user.ID,
		"username", user.Username,
		"text_preview", channels.Truncate(text, 60),
	)

	if !c.IsAllowed(userID) {
		_, _ = c.bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), unauthorizedReply))
		return
	}

	if !c.AllowRate(userID) {
		slog.Debug("telegram message rate limited", "user_id", userID)
		return
	}

	msg := bus.InboundMessage{
		Channel:  c.Name(),
		SenderID: userID,
		ChatID:   fmt.Sprintf("%d", message.Chat.ID),
		Content:  text,
		UserID:   userID,
	}

	if cmd, ok := parseCommand(text); ok {
		msg.Metadata = map[string]string{"command": cmd}
	}

	c.Bus().PublishInbound(msg)
}

// parseCommand extracts the command name from "/cmd" or "/cmd@BotName".
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.Fields(text)[0]
	cmd = strings.TrimPrefix(cmd, "/")
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), cmd != ""
}
