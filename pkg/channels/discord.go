package channels

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/0xbyt4/hermes-agent/pkg/channels/directory"
	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/domain"
)

func newDiscordSession(pc *config.PlatformConfig) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + pc.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: %w", err)
	}
	return s, nil
}

func sendDiscord(ctx context.Context, pc *config.PlatformConfig, chatID, content string) (map[string]interface{}, error) {
	s, err := newDiscordSession(pc)
	if err != nil {
		return nil, err
	}
	msg, err := s.ChannelMessageSend(chatID, content, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: send: %w", err)
	}
	return sentResult(domain.PlatformDiscord, chatID, msg.ID), nil
}

func listDiscord(ctx context.Context, pc *config.PlatformConfig) ([]directory.Entry, error) {
	s, err := newDiscordSession(pc)
	if err != nil {
		return nil, err
	}
	guilds, err := s.UserGuilds(200, "", "", false, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: list guilds: %w", err)
	}

	var entries []directory.Entry
	for _, g := range guilds {
		channels, err := s.GuildChannels(g.ID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("discord: list channels of %s: %w", g.Name, err)
		}
		for _, ch := range channels {
			if ch.Type != discordgo.ChannelTypeGuildText && ch.Type != discordgo.ChannelTypeGuildNews {
				continue
			}
			entries = append(entries, directory.Entry{
				Platform: domain.PlatformDiscord,
				ID:       ch.ID,
				Name:     ch.Name,
				Guild:    g.Name,
				Kind:     directory.KindChannel,
			})
		}
	}
	return entries, nil
}
