package data

import (
	"context"
	"fmt"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
	"github.com/ahlec/Phil-sub000/internal/infra/feishu"
)

// feishuSender is the part of the Feishu client used for alerts
type feishuSender interface {
	SendRichText(ctx context.Context, chatID, title string, lines []string) error
	SendText(ctx context.Context, chatID, text string) error
}

// alertRepo fans operator alerts out to the log, a Discord channel and a
// Feishu chat. Unset sinks are skipped.
type alertRepo struct {
	messageRepo     repo.MessageRepo
	operatorChannel string
	feishuSink      feishuSender
	feishuChatID    string
}

// NewAlertRepo creates a new alert repository
func NewAlertRepo(messageRepo repo.MessageRepo, operatorChannel string, feishuClient *feishu.Client, feishuChatID string) repo.AlertRepo {
	r := &alertRepo{
		messageRepo:     messageRepo,
		operatorChannel: operatorChannel,
		feishuChatID:    feishuChatID,
	}
	if feishuClient != nil {
		r.feishuSink = feishuClient
	}
	return r
}

// Report delivers an alert. Delivery failures are only logged.
func (r *alertRepo) Report(ctx context.Context, alert domain.OperatorAlert) {
	text := alert.Text()
	fmt.Printf("[Alert] %s\n", text)

	if r.messageRepo != nil && r.operatorChannel != "" {
		if _, err := r.messageRepo.SendEmbed(ctx, r.operatorChannel, domain.ErrorEmbed(text)); err != nil {
			fmt.Printf("[Alert] Failed to send alert to operator channel: %v\n", err)
		}
	}

	if r.feishuSink != nil && r.feishuChatID != "" {
		lines := []string{
			fmt.Sprintf("Source: %s", alert.Source),
			fmt.Sprintf("Community: %s", alert.CommunityID),
			fmt.Sprintf("Error: %v", alert.Err),
		}
		err := r.feishuSink.SendRichText(ctx, r.feishuChatID, "Prompt bot failure", lines)
		if err != nil {
			fmt.Printf("[Alert] Failed to send rich alert to Feishu, falling back to text: %v\n", err)
			err = r.feishuSink.SendText(ctx, r.feishuChatID, text)
		}
		if err != nil {
			fmt.Printf("[Alert] Failed to send alert to Feishu: %v\n", err)
		}
	}
}
