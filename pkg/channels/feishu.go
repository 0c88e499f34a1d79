package channels

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"

	"github.com/0xbyt4/hermes-agent/pkg/channels/directory"
	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/domain"
)

// newFeishuClient expects the app id in extra.app_id and the app secret as
// the platform token.
func newFeishuClient(pc *config.PlatformConfig) (*lark.Client, error) {
	appID := pc.Extra.Get("app_id")
	if appID == "" {
		return nil, fmt.Errorf("feishu: missing app_id")
	}
	return lark.NewClient(appID, pc.Token), nil
}

func sendFeishu(ctx context.Context, pc *config.PlatformConfig, chatID, content string) (map[string]interface{}, error) {
	client, err := newFeishuClient(pc)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{"text": content})
	if err != nil {
		return nil, fmt.Errorf("feishu: encode: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(body)).
			Build()).
		Build()

	resp, err := client.Im.V1.Message.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("feishu: send: %w", err)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("feishu: send: code=%d msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil {
		messageID = larkcore.StringValue(resp.Data.MessageId)
	}
	return sentResult(domain.PlatformFeishu, chatID, messageID), nil
}

func listFeishu(ctx context.Context, pc *config.PlatformConfig) ([]directory.Entry, error) {
	client, err := newFeishuClient(pc)
	if err != nil {
		return nil, err
	}

	var entries []directory.Entry
	pageToken := ""
	for {
		builder := larkim.NewListChatReqBuilder().PageSize(100)
		if pageToken != "" {
			builder = builder.PageToken(pageToken)
		}
		resp, err := client.Im.V1.Chat.List(ctx, builder.Build())
		if err != nil {
			return nil, fmt.Errorf("feishu: list chats: %w", err)
		}
		if !resp.Success() {
			return nil, fmt.Errorf("feishu: list chats: code=%d msg=%s", resp.Code, resp.Msg)
		}
		if resp.Data == nil {
			return entries, nil
		}
		for _, item := range resp.Data.Items {
			entries = append(entries, directory.Entry{
				Platform: domain.PlatformFeishu,
				ID:       larkcore.StringValue(item.ChatId),
				Name:     larkcore.StringValue(item.Name),
				Kind:     directory.KindGroup,
			})
		}
		if !larkcore.BoolValue(resp.Data.HasMore) {
			return entries, nil
		}
		pageToken = larkcore.StringValue(resp.Data.PageToken)
		if pageToken == "" {
			return entries, nil
		}
	}
}
