package repo

import (
	"context"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// ConfirmationRepo stores the per-channel confirmation numbering
type ConfirmationRepo interface {
	// Replace drops the channel's mapping and inserts entries in one transaction
	Replace(ctx context.Context, channelID string, entries []domain.ConfirmationEntry) error

	// Get returns nil when the number is not mapped
	Get(ctx context.Context, channelID string, confirmNumber int) (*domain.ConfirmationEntry, error)

	// Delete removes one mapping
	Delete(ctx context.Context, channelID string, confirmNumber int) error
}
