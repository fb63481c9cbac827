package discord

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/briefing/internal/reports"
)

const generateTimeout = 10 * time.Minute

type command int

const (
	cmdGenerate command = iota
	cmdLatest
	cmdHelp
)

func parseCommand(content string) command {
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "latest", "last", "show":
		return cmdLatest
	case "help", "?":
		return cmdHelp
	default:
		return cmdGenerate
	}
}

const helpText = "Send `report` for a fresh daily report, `latest` for the most recent one."

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own messages
	if m.Author.ID == s.State.User.ID {
		return
	}

	// Only respond to DMs or when mentioned
	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	if content == "" {
		return
	}

	var reply string
	switch parseCommand(content) {
	case cmdHelp:
		reply = helpText
	case cmdLatest:
		r, err := b.store.Latest()
		switch {
		case errors.Is(err, reports.ErrNoReports):
			reply = "No reports yet. Send `report` to generate one."
		case err != nil:
			b.log.Error().Err(err).Msg("reading latest report")
			reply = "Could not read the latest report."
		default:
			reply = r.Content()
		}
	default:
		s.ChannelTyping(m.ChannelID)
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		r, err := b.generator.Generate(ctx)
		cancel()
		if err != nil {
			b.log.Error().Err(err).Str("channel", m.ChannelID).Msg("generating report")
			reply = "Something went wrong. Try again?"
		} else {
			reply = r.Content()
		}
	}

	if err := b.Send(m.ChannelID, reply); err != nil {
		b.log.Error().Err(err).Msg("replying")
	}
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

// SplitMessage cuts s into chunks of at most maxLen bytes, breaking after
// the last newline that fits when there is one, otherwise at a rune start.
func SplitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end > len(s) {
			end = len(s)
		}
		if end < len(s) {
			if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
				end = idx + 1
			} else {
				for end > 0 && !utf8.RuneStart(s[end]) {
					end--
				}
				if end == 0 {
					end = maxLen
				}
			}
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
