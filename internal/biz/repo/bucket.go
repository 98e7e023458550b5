package repo

import (
	"context"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// BucketRepo is the bucket repository interface
type BucketRepo interface {
	// Create inserts a bucket and sets its ID
	Create(ctx context.Context, bucket *domain.Bucket) error

	// GetByID returns nil when the bucket does not exist
	GetByID(ctx context.Context, id int64) (*domain.Bucket, error)

	// GetByHandle looks a bucket up by its community-unique handle
	GetByHandle(ctx context.Context, communityID, handle string) (*domain.Bucket, error)

	// ListByCommunity lists every bucket of a community ordered by handle
	ListByCommunity(ctx context.Context, communityID string) ([]*domain.Bucket, error)

	// Update saves all mutable bucket fields
	Update(ctx context.Context, bucket *domain.Bucket) error
	// SetAlertedEmptying saves only the low-queue alert flag
	SetAlertedEmptying(ctx context.Context, bucketID int64, alerted bool) error
}
