package utils

import (
	"math"
	"time"
)

// DeadlineLayout is how deadlines are rendered in user-facing messages.
const DeadlineLayout = "02/01/2006 15:04"

// CalculateEndDate returns the deadline that falls the given number of days after start.
func CalculateEndDate(start time.Time, days int) time.Time {
	return start.AddDate(0, 0, days)
}

// IsWithinWindow reports whether t lies in the closed interval [from, from+window].
func IsWithinWindow(t, from time.Time, window time.Duration) bool {
	return !t.Before(from) && !t.After(from.Add(window))
}

// DaysUntil returns the number of started days between now and deadline.
// A deadline 1 hour away counts as 1 day; deadlines in the past return 0.
func DaysUntil(now, deadline time.Time) int {
	hours := deadline.Sub(now).Hours()
	if hours <= 0 {
		return 0
	}
	return int(math.Ceil(hours / 24))
}

// RetentionCutoff returns the instant before which records are past retention.
func RetentionCutoff(now time.Time, retention time.Duration) time.Time {
	return now.Add(-retention)
}

// FormatDeadline renders a deadline in the given location for notification copy.
func FormatDeadline(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DeadlineLayout)
}
