// Package discord implements the notify Adapter for Discord.
package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/switchboard/internal/notify"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSend(channelID, content, options...)
}
func (r *realSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendEmbed(channelID, embed, options...)
}

// Adapter implements notify.Adapter for Discord.
type Adapter struct {
	session   session
	botToken  string
	channelID string

	mu        sync.Mutex
	connected bool
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken  string // Discord bot token
	ChannelID string // default channel to post to
	// For testing: inject a mock session instead of a real gateway session.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	return &Adapter{
		session:   opts.Session,
		botToken:  opts.BotToken,
		channelID: opts.ChannelID,
	}, nil
}

// Connect opens the gateway session.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connected {
		return nil
	}
	if a.session == nil {
		s, err := discordgo.New("Bot " + a.botToken)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		a.session = &realSession{s: s}
	}
	if err := a.session.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	a.connected = true
	return nil
}

// Send delivers a message to Discord, translating events to embeds.
func (a *Adapter) Send(ctx context.Context, msg notify.Message) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("discord: not connected")
	}
	a.mu.Unlock()

	channelID := msg.ChannelID
	if channelID == "" {
		channelID = a.channelID
	}
	if channelID == "" {
		return fmt.Errorf("discord: no channel specified")
	}

	if len(msg.Events) == 0 {
		if _, err := a.session.ChannelMessageSend(channelID, msg.Text); err != nil {
			return fmt.Errorf("discord: send message: %w", err)
		}
		return nil
	}

	for _, evt := range msg.Events {
		embed := eventToEmbed(evt)
		if _, err := a.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
			return fmt.Errorf("discord: send embed %q: %w", evt.Title, err)
		}
	}
	return nil
}

// Close shuts down the gateway session.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil
	}
	a.connected = false
	return a.session.Close()
}

// eventToEmbed converts a FormattedEvent to a Discord embed.
func eventToEmbed(evt notify.FormattedEvent) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
		Color:       hexColor(evt.Color),
	}
	for _, f := range evt.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}
	return embed
}

// hexColor parses a "#rrggbb" color hint into Discord's integer form.
// Returns 0 (no color bar) when the hint is missing or malformed.
func hexColor(hint string) int {
	s := strings.TrimPrefix(hint, "#")
	if len(s) != 6 {
		return 0
	}
	n, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return 0
	}
	return int(n)
}
