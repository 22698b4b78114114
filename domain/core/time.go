package core

import (
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// Before returns true if t is before u
func (t Timestamp) Before(u Timestamp) bool {
	return time.Time(t).Before(time.Time(u))
}

// After returns true if t is after u
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

// DateOf truncates the timestamp to midnight in its own location.
// Target dates are compared by calendar day only; time-of-day never matters.
func (t Timestamp) DateOf() time.Time {
	tt := time.Time(t)
	return time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, tt.Location())
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b Timestamp) bool {
	return a.DateOf().Equal(b.DateOf())
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is before a.
func DaysBetween(a, b Timestamp) int {
	return int(b.DateOf().Sub(a.DateOf()).Hours() / 24)
}

// TimestampPtr returns a pointer to a Timestamp, for nullable date fields.
func TimestampPtr(t time.Time) *Timestamp {
	ts := Timestamp(t)
	return &ts
}

// DateEqual compares two nullable timestamps by calendar day.
// Both nil counts as equal.
func DateEqual(a, b *Timestamp) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return SameDay(*a, *b)
}

// JSON marshaling for Timestamp
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}

// String representation
func (t Timestamp) String() string { return t.Time().Format(time.RFC3339) }
