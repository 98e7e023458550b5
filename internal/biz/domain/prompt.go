package domain

import (
	"fmt"
	"time"
)

// PromptState represents where a submission is in its lifecycle
type PromptState string

const (
	PromptSubmitted PromptState = "submitted"
	PromptApproved  PromptState = "approved" // Approved and not yet posted == queued
	PromptRejected  PromptState = "rejected"
	PromptPosted    PromptState = "posted"
)

// Prompt represents a user submission and, once posted, a numbered prompt
type Prompt struct {
	ID               int64
	BucketID         int64
	SubmittingUserID string
	SubmittedAt      time.Time
	Text             string
	IsAnonymous      bool
	IsFlagged        bool // Set by submission screening
	State            PromptState
	PromptNumber     int       // 0 until posted
	PostedAt         time.Time // Zero until posted
	RepostOfID       int64     // Set on recycled posts
	LastReusedAt     time.Time // Last time this prompt was recycled
}

// NewSubmission creates a prompt in the submitted state
func NewSubmission(bucketID int64, userID, text string, anonymous bool, now time.Time) *Prompt {
	return &Prompt{
		BucketID:         bucketID,
		SubmittingUserID: userID,
		SubmittedAt:      now,
		Text:             text,
		IsAnonymous:      anonymous,
		State:            PromptSubmitted,
	}
}

// IsQueued checks if the prompt is approved and waiting to be posted
func (p *Prompt) IsQueued() bool {
	return p.State == PromptApproved
}

// IsPosted checks if the prompt has been posted
func (p *Prompt) IsPosted() bool {
	return p.State == PromptPosted
}

// Approve moves a submission into the queue
func (p *Prompt) Approve() error {
	if p.State != PromptSubmitted {
		return p.transitionError(PromptApproved)
	}
	p.State = PromptApproved
	return nil
}

// Reject marks a submission as rejected; rejected prompts are then deleted
func (p *Prompt) Reject() error {
	if p.State != PromptSubmitted {
		return p.transitionError(PromptRejected)
	}
	p.State = PromptRejected
	return nil
}

// MarkPosted assigns the prompt number and posting time
func (p *Prompt) MarkPosted(number int, at time.Time) error {
	if p.State != PromptApproved {
		return p.transitionError(PromptPosted)
	}
	if number <= 0 {
		return fmt.Errorf("%w: prompt number must be positive, got %d", ErrInvalidTransition, number)
	}
	p.State = PromptPosted
	p.PromptNumber = number
	p.PostedAt = at
	return nil
}

// Recycle builds a fresh queued copy of a posted prompt and stamps the source as reused
func (p *Prompt) Recycle(at time.Time) (*Prompt, error) {
	if p.State != PromptPosted {
		return nil, fmt.Errorf("%w: only posted prompts can be recycled (state %s)", ErrInvalidTransition, p.State)
	}
	sourceID := p.ID
	if p.RepostOfID != 0 {
		sourceID = p.RepostOfID
	}
	p.LastReusedAt = at
	return &Prompt{
		BucketID:         p.BucketID,
		SubmittingUserID: p.SubmittingUserID,
		SubmittedAt:      p.SubmittedAt,
		Text:             p.Text,
		IsAnonymous:      p.IsAnonymous,
		State:            PromptApproved,
		RepostOfID:       sourceID,
	}, nil
}

// Attribution returns the footer text for a posted prompt
func (p *Prompt) Attribution() string {
	if p.IsAnonymous {
		return "This prompt was submitted anonymously."
	}
	return fmt.Sprintf("This prompt was submitted by <@%s>.", p.SubmittingUserID)
}

func (p *Prompt) transitionError(to PromptState) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.State, to)
}

// LeaderboardEntry is one row of the submitter leaderboard
type LeaderboardEntry struct {
	UserID      string
	PostedCount int
}
