package service

import (
	"sync"
	"time"
)

// ActivityTracker remembers when each channel last saw a message.
// State is in-memory and starts empty after a restart.
type ActivityTracker struct {
	mu   sync.RWMutex
	last map[string]time.Time
}

// NewActivityTracker creates an empty tracker
func NewActivityTracker() *ActivityTracker {
	return &ActivityTracker{last: make(map[string]time.Time)}
}

// Touch records activity in a channel
func (t *ActivityTracker) Touch(channelID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.last[channelID]; ok && prev.After(at) {
		return
	}
	t.last[channelID] = at
}

// LastActivity returns the last activity time of a channel
func (t *ActivityTracker) LastActivity(channelID string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	at, ok := t.last[channelID]
	return at, ok
}

// QuietFor checks the channel has seen no activity for at least d.
// A channel with no recorded activity is quiet.
func (t *ActivityTracker) QuietFor(channelID string, d time.Duration, now time.Time) bool {
	at, ok := t.LastActivity(channelID)
	if !ok {
		return true
	}
	return now.Sub(at) >= d
}
