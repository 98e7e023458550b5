package repo

import (
	"context"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// MessageRepo is the outbound messaging interface
type MessageRepo interface {
	// SendText sends a text message and returns its ID
	SendText(ctx context.Context, channelID, text string) (string, error)

	// SendEmbed sends an embed and returns its ID
	SendEmbed(ctx context.Context, channelID string, embed domain.Embed) (string, error)


	AddReaction(ctx context.Context, channelID, messageID, emoji string) error

	// RemoveReaction removes a user's reaction
	RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error

	DeleteMessage(ctx context.Context, channelID, messageID string) error

	PinMessage(ctx context.Context, channelID, messageID string) error

	// OpenDirectChannel returns the direct message channel of a user
	OpenDirectChannel(ctx context.Context, userID string) (string, error)
}
