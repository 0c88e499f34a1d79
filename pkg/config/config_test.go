package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xbyt4/hermes-agent/pkg/domain"
)

// unsetEnv clears keys for the duration of the test and restores them after,
// including keys that godotenv sets while the test runs.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func clearPlatformEnv(t *testing.T) {
	t.Helper()
	for _, p := range domain.AllPlatforms() {
		prefix := p.EnvPrefix() + "_"
		unsetEnv(t,
			prefix+"BOT_TOKEN", prefix+"APP_ID", prefix+"APP_SECRET",
			prefix+"HOME_CHANNEL", prefix+"HOME_CHANNEL_NAME")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadMissingFilesGivesDefaults(t *testing.T) {
	clearPlatformEnv(t)
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "config.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Empty(t, cfg.EnabledPlatforms())
	assert.Equal(t, DefaultGatewayHost, cfg.Gateway.Host)
	assert.Equal(t, DefaultGatewayPort, cfg.Gateway.Port)
	assert.Equal(t, DefaultRefreshSchedule, cfg.Directory.RefreshSchedule)
}

func TestLoadYAML(t *testing.T) {
	clearPlatformEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
platforms:
  telegram:
    enabled: true
    token: tg-token
    home_channel:
      chat_id: "-100123"
      name: Family
  discord:
    enabled: false
    token: dc-token
gateway:
  port: 19000
  api_key: secret
directory:
  refresh_schedule: "0 * * * *"
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, []domain.Platform{domain.PlatformTelegram}, cfg.EnabledPlatforms())
	home := cfg.HomeChannel(domain.PlatformTelegram)
	require.NotNil(t, home)
	assert.Equal(t, domain.PlatformTelegram, home.Platform)
	assert.Equal(t, "-100123", home.ChatID)
	assert.Equal(t, "Family", home.Name)
	assert.Nil(t, cfg.HomeChannel(domain.PlatformDiscord))

	assert.Equal(t, 19000, cfg.Gateway.Port)
	assert.Equal(t, "secret", cfg.Gateway.APIKey)
	assert.Equal(t, "0 * * * *", cfg.Directory.RefreshSchedule)
}

func TestEnvironmentEnablesPlatforms(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("DISCORD_BOT_TOKEN", "env-token")
	t.Setenv("DISCORD_HOME_CHANNEL", "C42")
	t.Setenv("SLACK_HOME_CHANNEL", "C7")
	t.Setenv("FEISHU_APP_ID", "cli_1")
	t.Setenv("FEISHU_APP_SECRET", "shh")

	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "config.yaml"), "")
	require.NoError(t, err)

	dc, ok := cfg.Platform(domain.PlatformDiscord)
	require.True(t, ok)
	assert.True(t, dc.Enabled)
	assert.Equal(t, "env-token", dc.Token)
	home := cfg.HomeChannel(domain.PlatformDiscord)
	require.NotNil(t, home)
	assert.Equal(t, "C42", home.ChatID)
	assert.Equal(t, "Home", home.Name)

	// a home channel alone does not enable a platform
	sl, ok := cfg.Platform(domain.PlatformSlack)
	require.True(t, ok)
	assert.False(t, sl.Enabled)

	fs, ok := cfg.Platform(domain.PlatformFeishu)
	require.True(t, ok)
	assert.True(t, fs.Enabled)
	assert.Equal(t, "shh", fs.Token)
	assert.Equal(t, "cli_1", fs.Extra.Get("app_id"))
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	writeFile(t, envPath, "TELEGRAM_BOT_TOKEN=from-file\nSLACK_BOT_TOKEN=xoxb-file\n")

	cfg, err := Load(filepath.Join(dir, "config.yaml"), envPath)
	require.NoError(t, err)

	tg, _ := cfg.Platform(domain.PlatformTelegram)
	assert.Equal(t, "from-env", tg.Token)
	sl, ok := cfg.Platform(domain.PlatformSlack)
	require.True(t, ok)
	assert.Equal(t, "xoxb-file", sl.Token)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	clearPlatformEnv(t)
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown platform", "platforms:\n  matrix:\n    enabled: true\n"},
		{"bad schedule", "directory:\n  refresh_schedule: \"every tuesday\"\n"},
		{"bad port", "gateway:\n  port: 70000\n"},
		{"bad yaml", "platforms: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.yaml)
			_, err := Load(path, "")
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTripKeepsPlatforms(t *testing.T) {
	clearPlatformEnv(t)
	home := t.TempDir()

	cfg := NewGatewayConfig()
	cfg.Platforms[domain.PlatformSlack] = &PlatformConfig{
		Enabled:     true,
		Token:       "xoxb",
		HomeChannel: &HomeChannel{ChatID: "C1", Name: "ops"},
	}
	require.NoError(t, Save(filepath.Join(home, "config.yaml"), cfg))

	loaded, err := NewFileLoader(home).LoadGatewayConfig()
	require.NoError(t, err)
	assert.Equal(t, []domain.Platform{domain.PlatformSlack}, loaded.EnabledPlatforms())
	assert.Equal(t, "C1", loaded.HomeChannel(domain.PlatformSlack).ChatID)
}

func TestHermesHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HERMES_HOME", dir)
	assert.Equal(t, dir, HermesHome())
	assert.Equal(t, filepath.Join(dir, "gateway.pid"), PIDPath())
	assert.Equal(t, filepath.Join(dir, "channel_directory.db"), NewGatewayConfig().DirectoryPath())

	unsetEnv(t, "HERMES_HOME")
	assert.Equal(t, ".hermes", filepath.Base(HermesHome()))
}

func TestSessionEnv(t *testing.T) {
	t.Setenv("HERMES_SESSION_PLATFORM", "telegram")
	s, err := LoadSessionEnv()
	require.NoError(t, err)
	assert.Equal(t, "telegram", s.Platform)
}
