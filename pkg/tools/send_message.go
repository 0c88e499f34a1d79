package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/0xbyt4/hermes-agent/pkg/bus"
	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/domain"
	"github.com/0xbyt4/hermes-agent/pkg/logger"
)

// Sender hands a resolved message to a platform transport.
type Sender interface {
	Send(ctx context.Context, platform domain.Platform, pc *config.PlatformConfig, chatID, message string) (map[string]interface{}, error)
}

// DirectoryFormatter renders the known targets for the list action.
type DirectoryFormatter interface {
	FormatForDisplay(ctx context.Context) ([]string, error)
}

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// Request is either a SendRequest or a ListRequest.
type Request interface {
	action() string
}

// SendRequest delivers Message to Target.
type SendRequest struct {
	Target  string
	Message string
}

// ListRequest asks for the known targets.
type ListRequest struct{}

func (SendRequest) action() string { return "send" }
func (ListRequest) action() string { return "list" }

// ParseRequest converts raw tool arguments into a Request. A missing or
// unrecognised action is a send.
func ParseRequest(args map[string]interface{}) Request {
	if action, _ := args["action"].(string); strings.TrimSpace(action) == "list" {
		return ListRequest{}
	}
	target, _ := args["target"].(string)
	message, _ := args["message"].(string)
	return SendRequest{Target: target, Message: message}
}

// Result is the JSON-serializable tool response.
type Result map[string]interface{}

func errorResult(err error) Result {
	return Result{"error": err.Error()}
}

// ---------------------------------------------------------------------------
// Tool
// ---------------------------------------------------------------------------

// SendMessageTool delivers messages to messaging platforms on behalf of the
// agent and lists the destinations it knows about.
type SendMessageTool struct {
	gate      *AvailabilityGate
	loader    config.ConfigLoader
	names     ChannelNameResolver
	sender    Sender
	directory DirectoryFormatter
	bus       *bus.MessageBus
}

// NewSendMessageTool wires the tool. msgBus may be nil.
func NewSendMessageTool(
	gate *AvailabilityGate,
	loader config.ConfigLoader,
	names ChannelNameResolver,
	sender Sender,
	directory DirectoryFormatter,
	msgBus *bus.MessageBus,
) *SendMessageTool {
	return &SendMessageTool{
		gate:      gate,
		loader:    loader,
		names:     names,
		sender:    sender,
		directory: directory,
		bus:       msgBus,
	}
}

func (t *SendMessageTool) Name() string { return "send_message" }

func (t *SendMessageTool) Description() string {
	return "Send a message to a messaging platform (Telegram, Discord, Slack, Feishu). " +
		"Target is 'platform' for the home channel, 'platform:chat_id' or 'platform:#channel-name'. " +
		"Use action='list' to see available targets."
}

func (t *SendMessageTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"send", "list"},
				"description": "send (default) delivers a message; list shows available targets",
			},
			"target": map[string]interface{}{
				"type":        "string",
				"description": "Destination, e.g. 'telegram', 'telegram:-100123456', 'discord:#bot-home'",
			},
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Message text to send",
			},
		},
	}
}

// Available is the tool's availability check.
func (t *SendMessageTool) Available() bool {
	return t.gate != nil && t.gate.IsSendAvailable()
}

// Execute implements Tool. The returned error is always nil.
func (t *SendMessageTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	result := t.Dispatch(ctx, ParseRequest(args))
	data, err := json.Marshal(result)
	if err != nil {
		data, _ = json.Marshal(Result{"error": fmt.Sprintf("encode result: %v", err)})
	}
	return string(data), nil
}

// Dispatch runs one request to completion.
func (t *SendMessageTool) Dispatch(ctx context.Context, req Request) Result {
	if ctx.Err() != nil {
		return errorResult(newError(ErrInterrupted, "Interrupted"))
	}

	switch r := req.(type) {
	case ListRequest:
		return t.list(ctx)
	case SendRequest:
		return t.send(ctx, r)
	default:
		return errorResult(newError(ErrValidation, fmt.Sprintf("unsupported request %T", req)))
	}
}

func (t *SendMessageTool) list(ctx context.Context) Result {
	if t.directory == nil {
		return errorResult(newError(ErrDirectory, "Channel directory is not available"))
	}
	targets, err := t.directory.FormatForDisplay(ctx)
	if err != nil {
		return errorResult(newError(ErrDirectory, fmt.Sprintf("Failed to load channel directory: %v", err)))
	}
	if targets == nil {
		targets = []string{}
	}
	return Result{"targets": targets}
}

func (t *SendMessageTool) send(ctx context.Context, r SendRequest) Result {
	if err := validateSend(r); err != nil {
		return errorResult(err)
	}

	if !t.Available() {
		return errorResult(newError(ErrGatewayUnavailable,
			"send_message is unavailable: the messaging gateway is not running. Start it with 'hermes-gateway'."))
	}

	cfg, err := t.loader.LoadGatewayConfig()
	if err != nil {
		return errorResult(newError(ErrConfig, fmt.Sprintf("Failed to load gateway config: %v", err)))
	}

	target, err := ResolveTarget(r.Target, cfg, t.names)
	if err != nil {
		return errorResult(err)
	}
	pc, _ := cfg.Platform(target.Platform)
	if t.sender == nil {
		return errorResult(newError(ErrTransport, "Send failed: no transport configured"))
	}

	requestID := uuid.NewString()
	logger.InfoCF("send_message", "Dispatching message", map[string]interface{}{
		"request_id": requestID,
		"platform":   string(target.Platform),
		"chat_id":    target.ChatID,
		"home":       target.UsedHomeChannel(),
	})

	sent, err := t.sender.Send(ctx, target.Platform, pc, target.ChatID, r.Message)
	if err != nil {
		t.publishFailure(requestID, target, err.Error())
		return errorResult(newError(ErrTransport, fmt.Sprintf("Send failed: %v", err)))
	}

	result := Result{}
	for k, v := range sent {
		result[k] = v
	}
	if msg, failed := result["error"]; failed {
		t.publishFailure(requestID, target, fmt.Sprint(msg))
		return result
	}
	if note := target.Note(); note != "" && result["success"] == true {
		result["note"] = note
	}
	t.publishSent(requestID, target, r.Message, result)
	return result
}

func validateSend(r SendRequest) error {
	var missing []string
	if strings.TrimSpace(r.Target) == "" {
		missing = append(missing, "'target'")
	}
	if strings.TrimSpace(r.Message) == "" {
		missing = append(missing, "'message'")
	}
	if len(missing) == 0 {
		return nil
	}
	return newError(ErrValidation, fmt.Sprintf("%s required when action='send'", strings.Join(missing, " and ")))
}

func (t *SendMessageTool) publishSent(requestID string, target Target, content string, result Result) {
	if t.bus == nil {
		return
	}
	messageID, _ := result["message_id"].(string)
	t.bus.PublishOutbound(bus.OutboundMessage{
		RequestID: requestID,
		Channel:   string(target.Platform),
		ChatID:    target.ChatID,
		Content:   content,
		MessageID: messageID,
	})
}

func (t *SendMessageTool) publishFailure(requestID string, target Target, reason string) {
	if t.bus == nil {
		return
	}
	t.bus.PublishSystem(bus.SystemEvent{
		Type:   bus.EventMessageFailed,
		Source: "send_message",
		Data: map[string]interface{}{
			"request_id": requestID,
			"platform":   string(target.Platform),
			"chat_id":    target.ChatID,
			"error":      reason,
		},
	})
}

var _ Tool = (*SendMessageTool)(nil)
