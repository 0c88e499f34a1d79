package channels

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/0xbyt4/hermes-agent/pkg/channels/directory"
	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/domain"
)

func newTelegramBot(pc *config.PlatformConfig) (*telego.Bot, error) {
	bot, err := telego.NewBot(pc.Token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return bot, nil
}

// telegramChatID accepts numeric ids (including negative group ids) and
// @usernames of public channels.
func telegramChatID(chatID string) telego.ChatID {
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return tu.ID(id)
	}
	return tu.Username(chatID)
}

func sendTelegram(ctx context.Context, pc *config.PlatformConfig, chatID, content string) (map[string]interface{}, error) {
	bot, err := newTelegramBot(pc)
	if err != nil {
		return nil, err
	}
	msg, err := bot.SendMessage(ctx, tu.Message(telegramChatID(chatID), content))
	if err != nil {
		return nil, fmt.Errorf("telegram: send: %w", err)
	}
	return sentResult(domain.PlatformTelegram, chatID, strconv.Itoa(msg.MessageID)), nil
}

// listTelegram can only describe the home chat: the Bot API has no call
// that enumerates the chats a bot belongs to.
func listTelegram(ctx context.Context, pc *config.PlatformConfig) ([]directory.Entry, error) {
	if pc.HomeChannel == nil || pc.HomeChannel.ChatID == "" {
		return nil, nil
	}
	bot, err := newTelegramBot(pc)
	if err != nil {
		return nil, err
	}
	chat, err := bot.GetChat(ctx, &telego.GetChatParams{ChatID: telegramChatID(pc.HomeChannel.ChatID)})
	if err != nil {
		return nil, fmt.Errorf("telegram: get chat: %w", err)
	}

	name := chat.Title
	if name == "" {
		name = chat.Username
	}
	if name == "" {
		name = chat.FirstName
	}
	kind := directory.KindGroup
	if chat.Type == telego.ChatTypePrivate {
		kind = directory.KindDM
	}
	return []directory.Entry{{
		Platform: domain.PlatformTelegram,
		ID:       pc.HomeChannel.ChatID,
		Name:     name,
		Kind:     kind,
		Home:     true,
	}}, nil
}
