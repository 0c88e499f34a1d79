package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeMonitor struct {
	running bool
	calls   int
}

func (p *fakeMonitor) IsGatewayRunning() bool {
	p.calls++
	return p.running
}

func TestMessagingSessionAlwaysAvailable(t *testing.T) {
	for _, platform := range []string{"telegram", "discord"} {
		t.Run(platform, func(t *testing.T) {
			t.Setenv("HERMES_SESSION_PLATFORM", platform)
			monitor := &fakeMonitor{running: false}
			gate := NewAvailabilityGate(nil, monitor)

			assert.True(t, gate.IsSendAvailable())
			assert.Zero(t, monitor.calls, "embedded sessions never check the daemon")
		})
	}
}

func TestLocalSessionMirrorsGateway(t *testing.T) {
	for _, running := range []bool{true, false} {
		t.Setenv("HERMES_SESSION_PLATFORM", "local")
		monitor := &fakeMonitor{running: running}
		gate := NewAvailabilityGate(nil, monitor)

		assert.Equal(t, running, gate.IsSendAvailable())
		assert.Equal(t, 1, monitor.calls)
	}
}

func TestUnsetSessionChecksGateway(t *testing.T) {
	gate := NewAvailabilityGate(func() string { return "" }, &fakeMonitor{running: false})
	assert.False(t, gate.IsSendAvailable())

	gate = NewAvailabilityGate(func() string { return "  " }, &fakeMonitor{running: true})
	assert.True(t, gate.IsSendAvailable())
}

func TestNilMonitorIsUnavailable(t *testing.T) {
	gate := NewAvailabilityGate(func() string { return SessionLocal }, nil)
	assert.False(t, gate.IsSendAvailable())
}
