package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency represents how often a bucket posts a new prompt
type Frequency string

const (
	FrequencyDaily       Frequency = "daily"
	FrequencyWeekly      Frequency = "weekly"
	FrequencyImmediately Frequency = "immediately"
)

// DefaultPromptTitleFormat is used when a bucket has no title format of its own
const DefaultPromptTitleFormat = "Prompt #{number}"

// ParseFrequency parses user input into a Frequency
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyImmediately:
		return FrequencyImmediately, nil
	}
	return "", NewUserError("`%s` is not a valid frequency. Use `daily`, `weekly` or `immediately`.", s)
}

// IsMet reports whether a bucket that last posted at lastPostedAt may post again at now.
// Immediate buckets post at confirmation time, never from the schedule.
func (f Frequency) IsMet(lastPostedAt, now time.Time) bool {
	last := lastPostedAt.UTC()
	cur := now.UTC()

	switch f {
	case FrequencyDaily:
		return DateOf(last) != DateOf(cur)
	case FrequencyWeekly:
		lastYear, lastWeek := last.ISOWeek()
		curYear, curWeek := cur.ISOWeek()
		return lastYear != curYear || lastWeek != curWeek
	default:
		return false
	}
}

// Bucket represents a named prompt queue bound to one channel of a community
type Bucket struct {
	ID                int64
	CommunityID       string
	ChannelID         string
	Handle            string // Unique within the community
	DisplayName       string
	Frequency         Frequency
	IsPaused          bool
	RequiredRoleID    string // Empty when anyone may submit
	AlertWhenLow      bool
	AlertedEmptying   bool
	PromptTitleFormat string
	PinPrompts        bool
}

// FormatTitle renders the title of a posted prompt
func (b *Bucket) FormatTitle(number int) string {
	format := b.PromptTitleFormat
	if format == "" {
		format = DefaultPromptTitleFormat
	}
	return strings.ReplaceAll(format, "{number}", strconv.Itoa(number))
}

// Name returns the display name, falling back to the handle
func (b *Bucket) Name() string {
	if b.DisplayName != "" {
		return b.DisplayName
	}
	return b.Handle
}

// HasRequiredRole checks if submitting is gated by a role
func (b *Bucket) HasRequiredRole() bool {
	return b.RequiredRoleID != ""
}

// ChannelMention formats the bucket channel for display
func (b *Bucket) ChannelMention() string {
	return fmt.Sprintf("<#%s>", b.ChannelID)
}

// NormalizeHandle lower-cases and validates a bucket handle
func NormalizeHandle(handle string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(handle))
	if h == "" {
		return "", NewUserError("A bucket handle is required.")
	}
	for _, r := range h {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return "", NewUserError("Bucket handles may only contain letters, numbers, `-` and `_`.")
		}
	}
	return h, nil
}
