// Package discord connects the bot to Discord using the gateway websocket.
package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/accraft8/blimsey/internal/bus"
	"github.com/accraft8/blimsey/internal/channels"
	"github.com/accraft8/blimsey/internal/config"
)

// maxMessageLength is Discord's cap on message content.
const maxMessageLength = 2000

// Channel connects to Discord via the gateway.
type Channel struct {
	*channels.BaseChannel
	session *discordgo.Session
	config  config.DiscordConfig
	botID   string
}

// New creates a Discord channel from config.
func New(cfg config.DiscordConfig, msgBus *bus.MessageBus, ratePerMinute int) (*Channel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Channel{
		BaseChannel: channels.NewBaseChannel("discord", msgBus, cfg.AllowFrom, ratePerMinute),
		session:     session,
		config:      cfg,
	}, nil
}

// Start opens the gateway connection and registers the message handler.
func (c *Channel) Start(ctx context.Context) error {
	slog.Info("starting discord bot")

	c.session.AddHandler(c.onMessageCreate)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}

	me, err := c.session.User("@me")
	if err != nil {
		_ = c.session.Close()
		return fmt.Errorf("fetch bot identity: %w", err)
	}
	c.botID = me.ID

	c.SetRunning(true)
	slog.Info("discord bot connected", "username", me.Username)
	return nil
}

// Stop closes the gateway connection.
func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping discord bot")
	c.SetRunning(false)
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	return nil
}

// Send delivers an outbound message, chunked to Discord's size cap.
func (c *Channel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("discord bot not running")
	}

	for _, chunk := range channels.SplitMessage(msg.Content, maxMessageLength) {
		if chunk == "" {
			continue
		}
		if _, err := c.session.ChannelMessageSend(msg.ChatID, chunk, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("discord send: %w", err)
		}
	}
	return nil
}
