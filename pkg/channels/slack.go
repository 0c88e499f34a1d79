package channels

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/0xbyt4/hermes-agent/pkg/channels/directory"
	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/domain"
)

func sendSlack(ctx context.Context, pc *config.PlatformConfig, chatID, content string) (map[string]interface{}, error) {
	api := slack.New(pc.Token)
	channel, ts, err := api.PostMessageContext(ctx, chatID, slack.MsgOptionText(content, false))
	if err != nil {
		return nil, fmt.Errorf("slack: send: %w", err)
	}
	return sentResult(domain.PlatformSlack, channel, ts), nil
}

func listSlack(ctx context.Context, pc *config.PlatformConfig) ([]directory.Entry, error) {
	api := slack.New(pc.Token)
	params := &slack.GetConversationsParameters{
		Types:           []string{"public_channel", "private_channel"},
		Limit:           200,
		ExcludeArchived: true,
	}

	var entries []directory.Entry
	for {
		channels, cursor, err := api.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("slack: list conversations: %w", err)
		}
		for _, ch := range channels {
			entries = append(entries, directory.Entry{
				Platform: domain.PlatformSlack,
				ID:       ch.ID,
				Name:     ch.Name,
				Kind:     directory.KindChannel,
			})
		}
		if cursor == "" {
			return entries, nil
		}
		params.Cursor = cursor
	}
}
