package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishOutboundFansOut(t *testing.T) {
	mb := NewMessageBus()
	a := mb.SubscribeOutboundTap("a")
	b := mb.SubscribeOutboundTap("b")

	msg := OutboundMessage{Channel: "telegram", ChatID: "123", Content: "hi"}
	mb.PublishOutbound(msg)

	for _, tap := range []<-chan interface{}{a, b} {
		got := <-tap
		assert.Equal(t, msg, got)
	}
}

func TestPublishSystemDropsWhenFull(t *testing.T) {
	mb := NewMessageBus()
	tap := mb.SubscribeSystem("slow")

	for i := 0; i < 100; i++ {
		mb.PublishSystem(SystemEvent{Type: EventMessageFailed})
	}
	assert.Len(t, tap, 64)
}

func TestCloseClosesTaps(t *testing.T) {
	mb := NewMessageBus()
	tap := mb.SubscribeSystem("x")
	mb.Close()
	mb.Close()

	_, ok := <-tap
	assert.False(t, ok)

	// publishing after close is a no-op
	mb.PublishOutbound(OutboundMessage{Channel: "slack"})

	late := mb.SubscribeOutboundTap("late")
	_, ok = <-late
	require.False(t, ok)
}
