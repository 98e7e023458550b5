package feishu

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// Client is the Feishu API client used to deliver operator alerts
type Client struct {
	larkCli *lark.Client
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string) *Client {
	return &Client{
		larkCli: lark.NewClient(appID, appSecret),
	}
}

// SendText sends a text message to a chat
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)
	return c.send(ctx, chatID, larkim.MsgTypeText, string(contentJSON))
}

// SendRichText sends a post message with a title and one paragraph per line
func (c *Client) SendRichText(ctx context.Context, chatID, title string, lines []string) error {
	content := make([][]map[string]interface{}, 0, len(lines))
	for _, line := range lines {
		content = append(content, []map[string]interface{}{
			{"tag": "text", "text": line},
		})
	}
	post := map[string]interface{}{
		"zh_cn": map[string]interface{}{
			"title":   title,
			"content": content,
		},
	}
	contentJSON, _ := json.Marshal(post)
	return c.send(ctx, chatID, larkim.MsgTypePost, string(contentJSON))
}

func (c *Client) send(ctx context.Context, chatID, msgType, content string) error {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message error: %s", resp.Msg)
	}

	fmt.Printf("[Feishu] Message sent to %s\n", chatID)
	return nil
}
