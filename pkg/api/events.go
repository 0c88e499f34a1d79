// Event bridge: wires the message bus into the WebSocket hub. Every
// delivered message and system event fans out to all connected clients via
// bus tap subscriptions.
package api

import (
	"context"
	"fmt"

	"github.com/0xbyt4/hermes-agent/pkg/bus"
	"github.com/0xbyt4/hermes-agent/pkg/logger"
)

const previewLen = 200

// MessageSentEvent is streamed for every delivered message.
type MessageSentEvent struct {
	RequestID string `json:"request_id,omitempty"`
	Platform  string `json:"platform"`
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id,omitempty"`
	Preview   string `json:"preview"`
}

// MessageFailedEvent is streamed when a transport rejected a message.
type MessageFailedEvent struct {
	RequestID string `json:"request_id,omitempty"`
	Platform  string `json:"platform"`
	ChatID    string `json:"chat_id"`
	Error     string `json:"error"`
}

func sentEvent(msg bus.OutboundMessage) MessageSentEvent {
	return MessageSentEvent{
		RequestID: msg.RequestID,
		Platform:  msg.Channel,
		ChatID:    msg.ChatID,
		MessageID: msg.MessageID,
		Preview:   truncate(msg.Content, previewLen),
	}
}

// failedEvent decodes the payload published by send_message; fields it
// does not carry stay empty.
func failedEvent(data interface{}) MessageFailedEvent {
	fields, _ := data.(map[string]interface{})
	str := func(key string) string {
		if v, ok := fields[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}
	return MessageFailedEvent{
		RequestID: str("request_id"),
		Platform:  str("platform"),
		ChatID:    str("chat_id"),
		Error:     str("error"),
	}
}

// EventBridge connects the message bus to the WebSocket hub for live updates.
type EventBridge struct {
	bus *bus.MessageBus
	hub *WSHub
}

// NewEventBridge creates a bridge that forwards bus events to WebSocket clients.
func NewEventBridge(mb *bus.MessageBus, hub *WSHub) *EventBridge {
	return &EventBridge{bus: mb, hub: hub}
}

// Run subscribes to the bus and starts the forwarding goroutine, which
// stops when ctx is cancelled or the bus closes.
func (eb *EventBridge) Run(ctx context.Context) {
	outbound := eb.bus.SubscribeOutboundTap("event-bridge")
	system := eb.bus.SubscribeSystem("event-bridge")
	logger.InfoC("events", "Event bridge started")

	go eb.forward(ctx, outbound, system)
}

func (eb *EventBridge) forward(ctx context.Context, outbound, system <-chan interface{}) {
	for outbound != nil || system != nil {
		select {
		case <-ctx.Done():
			logger.DebugC("events", "Event bridge stopped")
			return
		case raw, ok := <-outbound:
			if !ok {
				outbound = nil
				continue
			}
			if msg, ok := raw.(bus.OutboundMessage); ok {
				eb.hub.Broadcast("message.sent", sentEvent(msg))
			}
		case raw, ok := <-system:
			if !ok {
				system = nil
				continue
			}
			if evt, ok := raw.(bus.SystemEvent); ok {
				eb.publishSystem(evt)
			}
		}
	}
}

func (eb *EventBridge) publishSystem(evt bus.SystemEvent) {
	switch evt.Type {
	case bus.EventMessageFailed:
		eb.hub.Broadcast(evt.Type, failedEvent(evt.Data))
	default:
		eb.hub.Broadcast(evt.Type, evt.Data)
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "…"
}
