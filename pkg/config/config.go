// Package config loads the hermes gateway configuration.
//
// Sources, lowest precedence first:
//
//  1. <hermes home>/config.yaml
//  2. <hermes home>/.env (never overrides variables already in the environment)
//  3. process environment (TELEGRAM_BOT_TOKEN, SLACK_HOME_CHANNEL, ...)
//
// The returned GatewayConfig is a snapshot; callers reload it per request.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/0xbyt4/hermes-agent/pkg/domain"
)

const (
	DefaultGatewayHost     = "127.0.0.1"
	DefaultGatewayPort     = 18791
	DefaultRefreshSchedule = "*/30 * * * *"

	configFileName    = "config.yaml"
	envFileName       = ".env"
	pidFileName       = "gateway.pid"
	directoryFileName = "channel_directory.db"
)

// HomeChannel is the default destination for a platform.
type HomeChannel struct {
	Platform domain.Platform `yaml:"platform,omitempty" json:"platform"`
	ChatID   string          `yaml:"chat_id" json:"chat_id"`
	Name     string          `yaml:"name,omitempty" json:"name"`
}

// PlatformConfig holds per-platform settings. Token is opaque to hermes.
type PlatformConfig struct {
	Enabled     bool            `yaml:"enabled" json:"enabled"`
	Token       string          `yaml:"token,omitempty" json:"-"`
	HomeChannel *HomeChannel    `yaml:"home_channel,omitempty" json:"home_channel,omitempty"`
	Extra       domain.Metadata `yaml:"extra,omitempty" json:"-"`
}

// DaemonConfig configures the gateway daemon's HTTP surface.
type DaemonConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key,omitempty"`
}

// DirectoryConfig configures the channel directory.
type DirectoryConfig struct {
	Path            string `yaml:"path,omitempty"`
	RefreshSchedule string `yaml:"refresh_schedule,omitempty"`
}

// GatewayConfig maps platforms to their settings plus daemon options.
type GatewayConfig struct {
	Platforms map[domain.Platform]*PlatformConfig `yaml:"platforms"`
	Gateway   DaemonConfig                        `yaml:"gateway"`
	Directory DirectoryConfig                     `yaml:"directory"`
}

// NewGatewayConfig returns an empty config with defaults applied.
func NewGatewayConfig() *GatewayConfig {
	cfg := &GatewayConfig{Platforms: make(map[domain.Platform]*PlatformConfig)}
	cfg.applyDefaults()
	return cfg
}

// Platform returns the settings for p, if present.
func (c *GatewayConfig) Platform(p domain.Platform) (*PlatformConfig, bool) {
	if c == nil || c.Platforms == nil {
		return nil, false
	}
	pc, ok := c.Platforms[p]
	return pc, ok && pc != nil
}

// HomeChannel returns the home channel configured for p, or nil.
func (c *GatewayConfig) HomeChannel(p domain.Platform) *HomeChannel {
	pc, ok := c.Platform(p)
	if !ok || pc.HomeChannel == nil || pc.HomeChannel.ChatID == "" {
		return nil
	}
	home := *pc.HomeChannel
	home.Platform = p
	return &home
}

// EnabledPlatforms returns the enabled platforms in display order.
func (c *GatewayConfig) EnabledPlatforms() []domain.Platform {
	var out []domain.Platform
	for _, p := range domain.AllPlatforms() {
		if pc, ok := c.Platform(p); ok && pc.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks fields that would otherwise fail late.
func (c *GatewayConfig) Validate() error {
	for p := range c.Platforms {
		if !p.Valid() {
			return fmt.Errorf("config: unknown platform %q (available: %s)", p, domain.PlatformNames())
		}
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("config: gateway port %d out of range", c.Gateway.Port)
	}
	if !gronx.New().IsValid(c.Directory.RefreshSchedule) {
		return fmt.Errorf("config: invalid directory refresh schedule %q", c.Directory.RefreshSchedule)
	}
	return nil
}

func (c *GatewayConfig) applyDefaults() {
	if c.Platforms == nil {
		c.Platforms = make(map[domain.Platform]*PlatformConfig)
	}
	if c.Gateway.Host == "" {
		c.Gateway.Host = DefaultGatewayHost
	}
	if c.Gateway.Port == 0 {
		c.Gateway.Port = DefaultGatewayPort
	}
	if c.Directory.RefreshSchedule == "" {
		c.Directory.RefreshSchedule = DefaultRefreshSchedule
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// ConfigLoader fetches a fresh GatewayConfig snapshot.
type ConfigLoader interface {
	LoadGatewayConfig() (*GatewayConfig, error)
}

// LoaderFunc adapts a function to ConfigLoader.
type LoaderFunc func() (*GatewayConfig, error)

func (f LoaderFunc) LoadGatewayConfig() (*GatewayConfig, error) { return f() }

// Static returns a loader that always yields cfg.
func Static(cfg *GatewayConfig) ConfigLoader {
	return LoaderFunc(func() (*GatewayConfig, error) { return cfg, nil })
}

// FileLoader reads config.yaml and the environment on every call.
type FileLoader struct {
	Home string
}

// NewFileLoader returns a loader rooted at home ("" means HermesHome()).
func NewFileLoader(home string) *FileLoader {
	if home == "" {
		home = HermesHome()
	}
	return &FileLoader{Home: home}
}

// LoadGatewayConfig implements ConfigLoader.
func (l *FileLoader) LoadGatewayConfig() (*GatewayConfig, error) {
	return Load(filepath.Join(l.Home, configFileName), filepath.Join(l.Home, envFileName))
}

// Load builds a GatewayConfig from a YAML file, an optional .env file and the
// process environment. Missing files are not errors.
func Load(configPath, envPath string) (*GatewayConfig, error) {
	cfg := &GatewayConfig{}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config parse failed (%s): %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config load failed (%s): %w", configPath, err)
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config env load failed (%s): %w", envPath, err)
		}
	}

	cfg.applyDefaults()
	if err := applyPlatformEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the parent directory.
func Save(path string, cfg *GatewayConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// HermesHome returns $HERMES_HOME, falling back to ~/.hermes.
func HermesHome() string {
	if s, err := LoadSessionEnv(); err == nil && s.Home != "" {
		return s.Home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hermes"
	}
	return filepath.Join(home, ".hermes")
}

// PIDPath is the gateway liveness record location.
func PIDPath() string { return filepath.Join(HermesHome(), pidFileName) }

// DirectoryPath returns the channel directory database location.
func (c *GatewayConfig) DirectoryPath() string {
	if c != nil && c.Directory.Path != "" {
		return c.Directory.Path
	}
	return filepath.Join(HermesHome(), directoryFileName)
}

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// SessionEnv describes the session hermes is running in.
type SessionEnv struct {
	// Platform is the messaging platform hosting this session, or "local".
	Platform string `env:"HERMES_SESSION_PLATFORM"`
	Home     string `env:"HERMES_HOME"`
}

// LoadSessionEnv reads the session environment.
func LoadSessionEnv() (SessionEnv, error) {
	var s SessionEnv
	if err := env.Parse(&s); err != nil {
		return SessionEnv{}, fmt.Errorf("config: session env: %w", err)
	}
	return s, nil
}

type platformEnv struct {
	Token    string `env:"BOT_TOKEN"`
	AppID    string `env:"APP_ID"`
	Secret   string `env:"APP_SECRET"`
	Home     string `env:"HOME_CHANNEL"`
	HomeName string `env:"HOME_CHANNEL_NAME" envDefault:"Home"`
}

func applyPlatformEnv(cfg *GatewayConfig) error {
	for _, p := range domain.AllPlatforms() {
		var pe platformEnv
		if err := env.ParseWithOptions(&pe, env.Options{Prefix: p.EnvPrefix() + "_"}); err != nil {
			return fmt.Errorf("config: %s env: %w", p, err)
		}

		credential := pe.Token
		if p == domain.PlatformFeishu && pe.AppID != "" && pe.Secret != "" {
			credential = pe.Secret
		}
		if credential == "" && pe.Home == "" {
			continue
		}

		pc, ok := cfg.Platform(p)
		if !ok {
			pc = &PlatformConfig{}
			cfg.Platforms[p] = pc
		}
		if credential != "" {
			pc.Enabled = true
			pc.Token = credential
		}
		if p == domain.PlatformFeishu && pe.AppID != "" {
			pc.Extra.Set("app_id", pe.AppID)
		}
		if pe.Home != "" {
			pc.HomeChannel = &HomeChannel{Platform: p, ChatID: pe.Home, Name: pe.HomeName}
		}
	}
	return nil
}
