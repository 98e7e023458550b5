package domain

import (
	"fmt"
	"time"
)

// CalendarDate is a UTC calendar day
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

const calendarDateLayout = "2006-01-02"

// DateOf returns the UTC calendar date of t
func DateOf(t time.Time) CalendarDate {
	u := t.UTC()
	return CalendarDate{Year: u.Year(), Month: u.Month(), Day: u.Day()}
}

// ParseCalendarDate parses a YYYY-MM-DD date
func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse(calendarDateLayout, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("parse calendar date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// String formats the date zero-padded so lexical order matches date order
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before checks if d is an earlier day than other
func (d CalendarDate) Before(other CalendarDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// ChronoDefinition is a registered recurring task
type ChronoDefinition struct {
	ID              int64
	Handle          string
	RequiredFeature string // Empty when the chrono is not gated by a feature
	UTCHour         int    // Earliest UTC hour the chrono may run
}

// ServerChrono is the per-community state of a chrono
type ServerChrono struct {
	CommunityID string
	ChronoID    int64
	IsEnabled   bool
	DateLastRan *CalendarDate
}

// IsDue checks whether a chrono should run at now.
// featureEnabled reports the community's state of the required feature (nil = unset).
// The hour gate is <= so a missed hour still fires later the same day.
func (s ServerChrono) IsDue(def ChronoDefinition, featureEnabled *bool, now time.Time) bool {
	if !s.IsEnabled {
		return false
	}
	if now.UTC().Hour() < def.UTCHour {
		return false
	}
	if def.RequiredFeature != "" && featureEnabled != nil && !*featureEnabled {
		return false
	}
	if s.DateLastRan != nil && !s.DateLastRan.Before(DateOf(now)) {
		return false
	}
	return true
}

// DueChrono is one (community, chrono) pair selected to run
type DueChrono struct {
	CommunityID string
	ChronoID    int64
	Handle      string
}

// OperatorAlert describes a failure reported to the operators
type OperatorAlert struct {
	Source      string // Chrono handle or event handler name
	CommunityID string
	Err         error
	At          time.Time
}

// Text formats the alert for a chat message
func (a OperatorAlert) Text() string {
	return fmt.Sprintf("[%s] %s failed for community %s: %v",
		a.At.UTC().Format(time.RFC3339), a.Source, a.CommunityID, a.Err)
}
