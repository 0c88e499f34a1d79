package tools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/domain"
)

type recordingResolver struct {
	ids   map[string]string
	calls [][2]string
}

func (r *recordingResolver) ResolveChannelName(platform domain.Platform, name string) (string, bool) {
	r.calls = append(r.calls, [2]string{string(platform), name})
	id, ok := r.ids[name]
	return id, ok
}

func testConfig() *config.GatewayConfig {
	cfg := config.NewGatewayConfig()
	cfg.Platforms[domain.PlatformTelegram] = &config.PlatformConfig{
		Enabled: true,
		Token:   "tok",
		HomeChannel: &config.HomeChannel{
			Platform: domain.PlatformTelegram, ChatID: "123", Name: "Home",
		},
	}
	cfg.Platforms[domain.PlatformDiscord] = &config.PlatformConfig{Enabled: true, Token: "tok"}
	cfg.Platforms[domain.PlatformSlack] = &config.PlatformConfig{Enabled: false, Token: "tok"}
	return cfg
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantChat string
		wantHome bool
		wantErr  ErrorKind
		wantMsg  []string
	}{
		{name: "platform only uses home", raw: "telegram", wantChat: "123", wantHome: true},
		{name: "empty identifier uses home", raw: "telegram:", wantChat: "123", wantHome: true},
		{name: "numeric id", raw: "telegram:123456", wantChat: "123456"},
		{name: "negative group id", raw: "telegram:-100123456", wantChat: "-100123456"},
		{name: "padded", raw: " telegram : 42 ", wantChat: "42"},
		{name: "named channel", raw: "discord:#bot-home", wantChat: "C999"},
		{name: "unknown platform", raw: "matrix", wantErr: ErrUnknownPlatform, wantMsg: []string{"Unknown platform", "matrix"}},
		{name: "case sensitive tag", raw: "Telegram", wantErr: ErrUnknownPlatform},
		{name: "disabled platform", raw: "slack:C1", wantErr: ErrPlatformNotConfigured, wantMsg: []string{"not configured"}},
		{name: "absent platform", raw: "feishu", wantErr: ErrPlatformNotConfigured, wantMsg: []string{"not configured"}},
		{name: "no home channel", raw: "discord", wantErr: ErrNoHomeChannel, wantMsg: []string{"home channel"}},
		{name: "unknown name", raw: "discord:#nonexistent", wantErr: ErrUnresolvableChannelName, wantMsg: []string{"resolve", "#nonexistent"}},
		{name: "lone dash is a name", raw: "discord:-", wantErr: ErrUnresolvableChannelName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := &recordingResolver{ids: map[string]string{"#bot-home": "C999"}}
			target, err := ResolveTarget(tt.raw, testConfig(), names)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				for _, s := range tt.wantMsg {
					assert.Contains(t, err.Error(), s)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChat, target.ChatID)
			assert.Equal(t, tt.wantHome, target.UsedHomeChannel())
			if tt.wantHome {
				assert.Contains(t, target.Note(), "home channel")
			} else {
				assert.Empty(t, target.Note())
			}
		})
	}
}

func TestNumericIdentifiersSkipNameResolution(t *testing.T) {
	for _, id := range []string{"0", "123456", "-100123456", "-1"} {
		names := &recordingResolver{}
		_, err := ResolveTarget("telegram:"+id, testConfig(), names)
		require.NoError(t, err)
		assert.Empty(t, names.calls, id)
	}
}

func TestSymbolicIdentifiersResolvedExactlyOnce(t *testing.T) {
	for _, id := range []string{"#bot-home", "general", "12a", "--5", "+5"} {
		names := &recordingResolver{ids: map[string]string{}}
		_, err := ResolveTarget("discord:"+id, testConfig(), names)
		assert.True(t, errors.Is(err, ErrUnresolvableChannelName), id)
		assert.Equal(t, [][2]string{{"discord", id}}, names.calls)
	}
}

func TestPlatformCheckedBeforeNameResolution(t *testing.T) {
	names := &recordingResolver{ids: map[string]string{"#ops": "C1"}}
	_, err := ResolveTarget("slack:#ops", testConfig(), names)
	assert.True(t, errors.Is(err, ErrPlatformNotConfigured))
	assert.Empty(t, names.calls)
}

func TestResolverReturningEmptyIDIsUnresolved(t *testing.T) {
	names := ResolverFunc(func(domain.Platform, string) (string, bool) { return "", true })
	_, err := ResolveTarget("discord:#x", testConfig(), names)
	assert.True(t, errors.Is(err, ErrUnresolvableChannelName))
}
