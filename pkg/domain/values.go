// Package domain holds the value types shared by every hermes package.
package domain

import "strings"

// ---------------------------------------------------------------------------
// Platform: the closed set of messaging backends
// ---------------------------------------------------------------------------

// Platform identifies a supported messaging backend.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
	PlatformSlack    Platform = "slack"
	PlatformFeishu   Platform = "feishu"
)

// AllPlatforms returns every known platform in display order.
func AllPlatforms() []Platform {
	return []Platform{PlatformTelegram, PlatformDiscord, PlatformSlack, PlatformFeishu}
}

// ParsePlatform maps a tag to a Platform. Matching is case-sensitive.
func ParsePlatform(tag string) (Platform, bool) {
	switch Platform(tag) {
	case PlatformTelegram, PlatformDiscord, PlatformSlack, PlatformFeishu:
		return Platform(tag), true
	default:
		return "", false
	}
}

// String implements fmt.Stringer.
func (p Platform) String() string { return string(p) }

// Valid returns true if the platform is recognized.
func (p Platform) Valid() bool {
	_, ok := ParsePlatform(string(p))
	return ok
}

// EnvPrefix is the upper-cased tag used for environment variables
// (TELEGRAM_BOT_TOKEN, SLACK_HOME_CHANNEL, ...).
func (p Platform) EnvPrefix() string { return strings.ToUpper(string(p)) }

// PlatformNames joins the known tags for error messages.
func PlatformNames() string {
	names := make([]string, 0, len(AllPlatforms()))
	for _, p := range AllPlatforms() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// ---------------------------------------------------------------------------

// Metadata is a generic key-value map for extensible properties.
type Metadata map[string]string

// Get returns a metadata value, or empty string if not present.
func (m Metadata) Get(key string) string {
	if m == nil {
		return ""
	}
	return m[key]
}

// Set writes a metadata key-value pair. Initializes the map if nil.
func (m *Metadata) Set(key, value string) {
	if *m == nil {
		*m = make(Metadata)
	}
	(*m)[key] = value
}
