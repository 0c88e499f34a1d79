package tools

import (
	"fmt"
	"strings"

	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/domain"
)

// ChannelNameResolver maps a symbolic channel name ("#bot-home") to a
// platform-native id. ok is false when the name is unknown.
type ChannelNameResolver interface {
	ResolveChannelName(platform domain.Platform, name string) (id string, ok bool)
}

// ResolverFunc adapts a function to ChannelNameResolver.
type ResolverFunc func(platform domain.Platform, name string) (string, bool)

func (f ResolverFunc) ResolveChannelName(platform domain.Platform, name string) (string, bool) {
	return f(platform, name)
}

// Target is a resolved destination, ready for the transport.
type Target struct {
	Platform domain.Platform
	ChatID   string
	// Home is set when the platform's home channel was used.
	Home *config.HomeChannel
}

// UsedHomeChannel reports whether the target fell back to the home channel.
func (t Target) UsedHomeChannel() bool { return t.Home != nil }

// Note is the user-facing remark attached to home-channel sends.
func (t Target) Note() string {
	if t.Home == nil {
		return ""
	}
	return fmt.Sprintf("Sent to %s home channel (chat_id: %s)", t.Platform, t.ChatID)
}

// ResolveTarget parses "platform[:identifier]" against cfg. Numeric
// identifiers (negative group ids included) are used as-is; anything else
// goes through names exactly once.
func ResolveTarget(raw string, cfg *config.GatewayConfig, names ChannelNameResolver) (Target, error) {
	tag, ident, _ := strings.Cut(raw, ":")
	tag = strings.TrimSpace(tag)
	ident = strings.TrimSpace(ident)

	platform, ok := domain.ParsePlatform(tag)
	if !ok {
		return Target{}, newError(ErrUnknownPlatform, fmt.Sprintf(
			"Unknown platform: %s. Available: %s", tag, domain.PlatformNames()))
	}

	pc, ok := cfg.Platform(platform)
	if !ok || !pc.Enabled {
		return Target{}, newError(ErrPlatformNotConfigured, fmt.Sprintf(
			"Platform '%s' is not configured. Set up credentials in ~/.hermes/config.yaml or %s_BOT_TOKEN.",
			platform, platform.EnvPrefix()))
	}

	if ident == "" {
		home := cfg.HomeChannel(platform)
		if home == nil {
			return Target{}, newError(ErrNoHomeChannel, fmt.Sprintf(
				"No home channel set for %s to determine where to send the message. "+
					"Either specify a channel directly with '%s:CHANNEL_NAME', or set %s_HOME_CHANNEL.",
				platform, platform, platform.EnvPrefix()))
		}
		return Target{Platform: platform, ChatID: home.ChatID, Home: home}, nil
	}

	if isNumericID(ident) {
		return Target{Platform: platform, ChatID: ident}, nil
	}

	if names != nil {
		if id, ok := names.ResolveChannelName(platform, ident); ok && id != "" {
			return Target{Platform: platform, ChatID: id}, nil
		}
	}
	return Target{}, newError(ErrUnresolvableChannelName, fmt.Sprintf(
		"Could not resolve '%s' on %s. Use send_message(action='list') to see available targets.",
		ident, platform))
}

// isNumericID matches -?[0-9]+.
func isNumericID(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
