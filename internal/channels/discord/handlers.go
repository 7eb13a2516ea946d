package discord

import (
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/accraft8/blimsey/internal/bus"
	"github.com/accraft8/blimsey/internal/channels"
)

const unauthorizedReply = "No tienes autorización para usar este asistente."

// onMessageCreate handles an incoming Discord message: drop our own and other
// bots' messages, enforce the allowlist and rate limit, then publish inbound.
func (c *Channel) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == c.botID || m.Author.Bot {
		return
	}

	text := strings.TrimSpace(m.Content)
	if text == "" {
		return
	}

	userID := m.Author.ID

	slog.Debug("discord message received",
		"user_id", userID,
		"username", m.Author.Username,
		"text_preview", channels.Truncate(text, 60),
	)

	if !c.IsAllowed(userID) {
		_, _ = s.ChannelMessageSend(m.ChannelID, unauthorizedReply)
		return
	}

	if !c.AllowRate(userID) {
		slog.Debug("discord message rate limited", "user_id", userID)
		return
	}

	msg := bus.InboundMessage{
		Channel:  c.Name(),
		SenderID: userID,
		ChatID:   m.ChannelID,
		Content:  text,
		UserID:   userID,
	}

	if cmd, ok := parseCommand(text); ok {
		msg.Metadata = map[string]string{"command": cmd}
	}

	c.Bus().PublishInbound(msg)
}

// parseCommand extracts the command name from a "/cmd" prefix.
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	cmd := strings.TrimPrefix(strings.Fields(text)[0], "/")
	return strings.ToLower(cmd), cmd != ""
}
