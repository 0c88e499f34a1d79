package tools

import (
	"strings"

	"github.com/0xbyt4/hermes-agent/pkg/config"
)

// SessionLocal is the session platform of a terminal session that relies on
// the gateway daemon to reach messaging platforms.
const SessionLocal = "local"

// GatewayMonitor reports whether the gateway daemon is alive.
type GatewayMonitor interface {
	IsGatewayRunning() bool
}

// AvailabilityGate decides whether send_message can run in this session.
type AvailabilityGate struct {
	sessionPlatform func() string
	monitor         GatewayMonitor
}

// NewAvailabilityGate builds a gate. sessionPlatform is consulted on every
// check; nil means SessionPlatformFromEnv.
func NewAvailabilityGate(sessionPlatform func() string, monitor GatewayMonitor) *AvailabilityGate {
	if sessionPlatform == nil {
		sessionPlatform = SessionPlatformFromEnv
	}
	return &AvailabilityGate{sessionPlatform: sessionPlatform, monitor: monitor}
}

// SessionPlatformFromEnv reads HERMES_SESSION_PLATFORM.
func SessionPlatformFromEnv() string {
	s, err := config.LoadSessionEnv()
	if err != nil {
		return ""
	}
	return s.Platform
}

// IsSendAvailable is true for sessions hosted by a messaging platform, and
// otherwise mirrors the daemon liveness check.
func (g *AvailabilityGate) IsSendAvailable() bool {
	platform := strings.TrimSpace(g.sessionPlatform())
	if platform != "" && platform != SessionLocal {
		return true
	}
	if g.monitor == nil {
		return false
	}
	return g.monitor.IsGatewayRunning()
}
