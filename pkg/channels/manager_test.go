package channels

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/domain"
)

func TestEveryPlatformHasATransport(t *testing.T) {
	m := NewManager()
	listers := m.Listers()
	for _, p := range domain.AllPlatforms() {
		assert.True(t, m.Supports(p), "no sender for %s", p)
		assert.Contains(t, listers, p, "no lister for %s", p)
	}
}

func TestSendRoutesToRegisteredPlatform(t *testing.T) {
	m := NewManager()

	var gotChat, gotContent string
	m.Register(domain.PlatformTelegram, func(ctx context.Context, pc *config.PlatformConfig, chatID, content string) (map[string]interface{}, error) {
		gotChat, gotContent = chatID, content
		return sentResult(domain.PlatformTelegram, chatID, "42"), nil
	}, nil)

	result, err := m.Send(context.Background(), domain.PlatformTelegram, &config.PlatformConfig{Enabled: true, Token: "tok"}, "-100123", "hi")
	require.NoError(t, err)
	assert.Equal(t, "-100123", gotChat)
	assert.Equal(t, "hi", gotContent)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "42", result["message_id"])
	assert.NotContains(t, m.Listers(), domain.PlatformTelegram)
}

func TestSendErrors(t *testing.T) {
	m := NewManager()
	m.Register(domain.PlatformSlack, func(ctx context.Context, pc *config.PlatformConfig, chatID, content string) (map[string]interface{}, error) {
		return nil, errors.New("channel_not_found")
	}, nil)

	_, err := m.Send(context.Background(), domain.Platform("matrix"), &config.PlatformConfig{Token: "tok"}, "1", "hi")
	assert.ErrorContains(t, err, "no transport")

	_, err = m.Send(context.Background(), domain.PlatformDiscord, &config.PlatformConfig{}, "1", "hi")
	assert.ErrorContains(t, err, "missing credentials")

	_, err = m.Send(context.Background(), domain.PlatformSlack, &config.PlatformConfig{Token: "tok"}, "C1", "hi")
	assert.ErrorContains(t, err, "channel_not_found")
}

func TestTelegramChatID(t *testing.T) {
	assert.Equal(t, int64(-100123456), telegramChatID("-100123456").ID)
	assert.Equal(t, "@hermes_news", telegramChatID("@hermes_news").Username)
}

func TestFeishuRequiresAppID(t *testing.T) {
	_, err := sendFeishu(context.Background(), &config.PlatformConfig{Token: "secret"}, "oc_1", "hi")
	assert.ErrorContains(t, err, "app_id")
}
