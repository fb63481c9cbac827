// Package discord delivers reports to Discord and answers report requests
// sent by direct message or mention.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/briefing/internal/logging"
	"github.com/chris/briefing/internal/reports"
	"github.com/rs/zerolog"
)

// MaxMessageLen is Discord's per-message character limit.
const MaxMessageLen = 2000

type Generator interface {
	Generate(ctx context.Context) (*reports.Report, error)
}

type Bot struct {
	session   *discordgo.Session
	generator Generator
	store     *reports.Store
	channelID string
	log       zerolog.Logger
}

// NewBot connects to Discord. channelID is where scheduled reports go.
func NewBot(token, channelID string, generator Generator, store *reports.Store) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}

	bot := &Bot{session: s, generator: generator, store: store, channelID: channelID, log: logging.For("discord")}
	s.AddHandler(bot.onMessage)
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening Discord connection: %w", err)
	}

	bot.log.Info().Str("user", s.State.User.Username).Msg("discord bot connected")
	return bot, nil
}

// Deliver sends content to the configured report channel.
func (b *Bot) Deliver(content string) error {
	if b.channelID == "" {
		return fmt.Errorf("no discord channel configured")
	}
	return b.Send(b.channelID, content)
}

// Send posts content to a channel, split to fit Discord's limit.
func (b *Bot) Send(channelID, content string) error {
	for _, chunk := range SplitMessage(content, MaxMessageLen) {
		if _, err := b.session.ChannelMessageSend(channelID, chunk); err != nil {
			return fmt.Errorf("sending to channel %s: %w", channelID, err)
		}
	}
	return nil
}

func (b *Bot) Close() {
	b.session.Close()
}
