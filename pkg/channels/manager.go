// Package channels delivers messages to messaging platforms and lists the
// destinations each platform account can reach.
//
// Clients are built per call from the PlatformConfig of the current request,
// so a token rotated in config.yaml takes effect on the next send.
package channels

import (
	"context"
	"fmt"

	"github.com/0xbyt4/hermes-agent/pkg/channels/directory"
	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/domain"
	"github.com/0xbyt4/hermes-agent/pkg/logger"
)

// SendFunc delivers content to chatID using the platform settings pc.
type SendFunc func(ctx context.Context, pc *config.PlatformConfig, chatID, content string) (map[string]interface{}, error)

// Manager routes sends and listings to the platform implementations.
type Manager struct {
	senders map[domain.Platform]SendFunc
	listers map[domain.Platform]directory.Lister
}

// NewManager returns a manager with every known platform registered.
func NewManager() *Manager {
	m := &Manager{
		senders: make(map[domain.Platform]SendFunc),
		listers: make(map[domain.Platform]directory.Lister),
	}
	for _, p := range domain.AllPlatforms() {
		send, lister := platformImpl(p)
		if send != nil {
			m.Register(p, send, lister)
		}
	}
	return m
}

// platformImpl is the single routing table from Platform to implementation.
func platformImpl(p domain.Platform) (SendFunc, directory.Lister) {
	switch p {
	case domain.PlatformTelegram:
		return sendTelegram, directory.ListerFunc(listTelegram)
	case domain.PlatformDiscord:
		return sendDiscord, directory.ListerFunc(listDiscord)
	case domain.PlatformSlack:
		return sendSlack, directory.ListerFunc(listSlack)
	case domain.PlatformFeishu:
		return sendFeishu, directory.ListerFunc(listFeishu)
	default:
		return nil, nil
	}
}

// Register installs (or replaces) a platform implementation.
func (m *Manager) Register(p domain.Platform, send SendFunc, lister directory.Lister) {
	m.senders[p] = send
	if lister != nil {
		m.listers[p] = lister
	} else {
		delete(m.listers, p)
	}
}

// Supports reports whether p has a sender.
func (m *Manager) Supports(p domain.Platform) bool {
	_, ok := m.senders[p]
	return ok
}

// Listers returns the directory listers keyed by platform.
func (m *Manager) Listers() map[domain.Platform]directory.Lister {
	out := make(map[domain.Platform]directory.Lister, len(m.listers))
	for p, l := range m.listers {
		out[p] = l
	}
	return out
}

// Send delivers content to chatID on platform p.
func (m *Manager) Send(ctx context.Context, p domain.Platform, pc *config.PlatformConfig, chatID, content string) (map[string]interface{}, error) {
	send, ok := m.senders[p]
	if !ok {
		return nil, fmt.Errorf("no transport for platform %s", p)
	}
	if pc == nil || pc.Token == "" {
		return nil, fmt.Errorf("%s: missing credentials", p)
	}

	result, err := send(ctx, pc, chatID, content)
	if err != nil {
		logger.WarnCF("channels", "Platform send failed", map[string]interface{}{
			"platform": string(p),
			"chat_id":  chatID,
			"error":    err.Error(),
		})
		return nil, err
	}
	logger.DebugCF("channels", "Platform send ok", map[string]interface{}{
		"platform": string(p),
		"chat_id":  chatID,
	})
	return result, nil
}

func sentResult(p domain.Platform, chatID, messageID string) map[string]interface{} {
	return map[string]interface{}{
		"success":    true,
		"platform":   string(p),
		"chat_id":    chatID,
		"message_id": messageID,
	}
}
