package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ReactableType tags the payload stored with a reactable post
type ReactableType string

const (
	ReactablePromptQueue    ReactableType = "prompt-queue"
	ReactableSuggestSession ReactableType = "suggest-session"
)

// Emoji monitored by reactable posts
const (
	EmojiPrevious = "\u2b05\ufe0f"
	EmojiNext     = "\u27a1\ufe0f"
	EmojiStop     = "\U0001f6d1"
)

// NormalizeEmoji strips variation selectors so "⬅" and "⬅️" compare equal
func NormalizeEmoji(emoji string) string {
	return strings.ReplaceAll(emoji, "\ufe0f", "")
}

// ReactionEvent is an inbound reaction-add event
type ReactionEvent struct {
	MessageID string
	ChannelID string
	UserID    string
	Emoji     string
	IsBot     bool
}

// ReactableVisitor handles each payload type. Adding a payload type means
// adding a method here, so every handler must support it before it compiles.
type ReactableVisitor interface {
	VisitPromptQueue(ctx context.Context, post *ReactablePost, data *PromptQueuePayload, ev ReactionEvent) error
	VisitSuggestSession(ctx context.Context, post *ReactablePost, data *SuggestSessionPayload, ev ReactionEvent) error
}

// ReactablePayload is the typed state persisted with a reactable post
type ReactablePayload interface {
	Type() ReactableType
	Accept(ctx context.Context, v ReactableVisitor, post *ReactablePost, ev ReactionEvent) error
}

// PromptQueuePayload is the pagination state of a queue view
type PromptQueuePayload struct {
	BucketID    int64 `json:"bucketId"`
	CurrentPage int   `json:"currentPage"` // 1-based
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
}

func (p *PromptQueuePayload) Type() ReactableType { return ReactablePromptQueue }

func (p *PromptQueuePayload) Accept(ctx context.Context, v ReactableVisitor, post *ReactablePost, ev ReactionEvent) error {
	return v.VisitPromptQueue(ctx, post, p, ev)
}

// PageDelta maps a navigation emoji to a page offset
func (p *PromptQueuePayload) PageDelta(emoji string) int {
	switch NormalizeEmoji(emoji) {
	case NormalizeEmoji(EmojiPrevious):
		return -1
	case NormalizeEmoji(EmojiNext):
		return 1
	}
	return 0
}

// SuggestSessionPayload binds a session intro message to its session
type SuggestSessionPayload struct {
	BucketID    int64 `json:"bucketId"`
	IsAnonymous bool  `json:"isAnonymous"`
}

func (p *SuggestSessionPayload) Type() ReactableType { return ReactableSuggestSession }

func (p *SuggestSessionPayload) Accept(ctx context.Context, v ReactableVisitor, post *ReactablePost, ev ReactionEvent) error {
	return v.VisitSuggestSession(ctx, post, p, ev)
}

// DecodeReactablePayload decodes raw JSON using the decoder for the tag
func DecodeReactablePayload(t ReactableType, raw json.RawMessage) (ReactablePayload, error) {
	var payload ReactablePayload
	switch t {
	case ReactablePromptQueue:
		payload = &PromptQueuePayload{}
	case ReactableSuggestSession:
		payload = &SuggestSessionPayload{}
	default:
		return nil, fmt.Errorf("unknown reactable type %q", t)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, payload); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
	}
	return payload, nil
}

// ReactablePost binds a sent message to persisted interaction state, so
// interactive messages keep working after a restart
type ReactablePost struct {
	MessageID          string
	ChannelID          string
	UserID             string
	CreatedAt          time.Time
	TimeLimit          time.Duration // 0 = no limit
	MonitoredReactions []string
	Payload            ReactablePayload
}

// Type returns the payload tag
func (p *ReactablePost) Type() ReactableType {
	if p.Payload == nil {
		return ""
	}
	return p.Payload.Type()
}

// IsLive checks if the post still accepts reactions
func (p *ReactablePost) IsLive(now time.Time) bool {
	if p.TimeLimit <= 0 {
		return true
	}
	return p.CreatedAt.Add(p.TimeLimit).After(now)
}

// Monitors checks if the emoji is one the post reacts to
func (p *ReactablePost) Monitors(emoji string) bool {
	want := NormalizeEmoji(emoji)
	for _, e := range p.MonitoredReactions {
		if NormalizeEmoji(e) == want {
			return true
		}
	}
	return false
}

type reactablePostRecord struct {
	MessageID          string          `json:"messageId"`
	ChannelID          string          `json:"channelId"`
	UserID             string          `json:"userId"`
	CreatedAt          time.Time       `json:"createdAt"`
	TimeLimitSeconds   int64           `json:"timeLimit"`
	Type               ReactableType   `json:"reactableType"`
	MonitoredReactions []string        `json:"monitoredReactions"`
	Data               json.RawMessage `json:"jsonData"`
}

// MarshalJSON encodes the post with its payload tag
func (p *ReactablePost) MarshalJSON() ([]byte, error) {
	if p.Payload == nil {
		return nil, fmt.Errorf("reactable post %s has no payload", p.MessageID)
	}
	data, err := json.Marshal(p.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(reactablePostRecord{
		MessageID:          p.MessageID,
		ChannelID:          p.ChannelID,
		UserID:             p.UserID,
		CreatedAt:          p.CreatedAt,
		TimeLimitSeconds:   int64(p.TimeLimit / time.Second),
		Type:               p.Payload.Type(),
		MonitoredReactions: p.MonitoredReactions,
		Data:               data,
	})
}

// UnmarshalJSON decodes the post, picking the payload decoder by tag
func (p *ReactablePost) UnmarshalJSON(b []byte) error {
	var rec reactablePostRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	payload, err := DecodeReactablePayload(rec.Type, rec.Data)
	if err != nil {
		return err
	}
	*p = ReactablePost{
		MessageID:          rec.MessageID,
		ChannelID:          rec.ChannelID,
		UserID:             rec.UserID,
		CreatedAt:          rec.CreatedAt,
		TimeLimit:          time.Duration(rec.TimeLimitSeconds) * time.Second,
		MonitoredReactions: rec.MonitoredReactions,
		Payload:            payload,
	}
	return nil
}
