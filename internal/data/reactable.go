package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

var reactableBucket = []byte("reactable_posts")

// reactableRepo stores reactable posts in a bbolt file keyed by message ID
type reactableRepo struct {
	db *bolt.DB
}

// NewReactableRepo opens the reactable store at path
func NewReactableRepo(path string) (repo.ReactableRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create reactable directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open reactable store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(reactableBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create reactable bucket: %w", err)
	}
	return &reactableRepo{db: db}, nil
}

// Get gets a post by message ID
func (r *reactableRepo) Get(ctx context.Context, messageID string) (*domain.ReactablePost, error) {
	var post *domain.ReactablePost
	err := r.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(reactableBucket).Get([]byte(messageID))
		if raw == nil {
			return nil
		}
		var p domain.ReactablePost
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("failed to decode reactable %s: %w", messageID, err)
		}
		post = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Save saves a post
func (r *reactableRepo) Save(ctx context.Context, post *domain.ReactablePost) error {
	if post.MessageID == "" {
		return fmt.Errorf("reactable post has no message ID")
	}
	raw, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to encode reactable: %w", err)
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(reactableBucket).Put([]byte(post.MessageID), raw)
	})
}

// Delete deletes a post
func (r *reactableRepo) Delete(ctx context.Context, messageID string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(reactableBucket).Delete([]byte(messageID))
	})
}

// FindByUserAndType lists a user's posts of one type
func (r *reactableRepo) FindByUserAndType(ctx context.Context, userID string, t domain.ReactableType) ([]*domain.ReactablePost, error) {
	var posts []*domain.ReactablePost
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(reactableBucket).ForEach(func(k, v []byte) error {
			var p domain.ReactablePost
			if err := json.Unmarshal(v, &p); err != nil {
				// Records with an unknown tag are skipped
				fmt.Printf("[Reactable] Skipping undecodable post %s: %v\n", k, err)
				return nil
			}
			if p.UserID == userID && p.Type() == t {
				posts = append(posts, &p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// DeleteExpired removes every post past its time limit
func (r *reactableRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(reactableBucket)

		// Keys are collected first; deleting during ForEach is not allowed
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var p domain.ReactablePost
			if err := json.Unmarshal(v, &p); err != nil {
				return nil
			}
			if !p.IsLive(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reactables: %w", err)
	}
	return removed, nil
}

// Close closes the store
func (r *reactableRepo) Close() error {
	return r.db.Close()
}
