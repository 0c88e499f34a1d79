package bus

// OutboundMessage is a message the gateway delivered to a platform.
type OutboundMessage struct {
	RequestID string `json:"request_id,omitempty"`
	Channel   string `json:"channel"`
	ChatID    string `json:"chat_id"`
	Content   string `json:"content"`
	MessageID string `json:"message_id,omitempty"`
}

// SystemEvent is a typed event flowing through the bus for observability.
// Used for dispatch failures, directory refreshes and gateway lifecycle.
type SystemEvent struct {
	Type   string      `json:"type"`   // e.g. "message.failed", "directory.refreshed"
	Source string      `json:"source"` // e.g. "send_message", "directory"
	Data   interface{} `json:"data"`
}

const (
	EventMessageFailed      = "message.failed"
	EventDirectoryRefreshed = "directory.refreshed"
	EventGatewayStarted     = "gateway.started"
	EventGatewayStopping    = "gateway.stopping"
)
