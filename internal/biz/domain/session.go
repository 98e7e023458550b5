package domain

import "time"

// DefaultSessionLength is how long a submission session accepts direct messages
const DefaultSessionLength = 10 * time.Minute

// SessionConfig holds session length and the texts sent to submitters
type SessionConfig struct {
	Length        time.Duration
	IntroTemplate string // {bucket}, {minutes}
	EndedTemplate string // {count}
}

// SubmissionSession represents a user's time-boxed intake window for one bucket.
// A user has at most one session at a time.
type SubmissionSession struct {
	UserID          string
	BucketID        int64
	StartedAt       time.Time
	TimeoutAt       time.Time
	IsAnonymous     bool
	SubmissionCount int
}

// NewSubmissionSession creates a session starting at now
func NewSubmissionSession(userID string, bucketID int64, anonymous bool, now time.Time, length time.Duration) *SubmissionSession {
	if length <= 0 {
		length = DefaultSessionLength
	}
	return &SubmissionSession{
		UserID:      userID,
		BucketID:    bucketID,
		StartedAt:   now,
		TimeoutAt:   now.Add(length),
		IsAnonymous: anonymous,
	}
}

// IsLive checks if the session still accepts submissions.
// Expiry is evaluated lazily; nothing fires at TimeoutAt.
func (s *SubmissionSession) IsLive(now time.Time) bool {
	return s.TimeoutAt.After(now)
}

// Remaining returns the time left in the session
func (s *SubmissionSession) Remaining(now time.Time) time.Duration {
	if !s.IsLive(now) {
		return 0
	}
	return s.TimeoutAt.Sub(now)
}
