package timeslot

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ParseDate validates a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// ParseClock converts a 24h HH:MM string to minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Interval is a half-open [Start, End) range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// NewInterval builds an interval from a start clock and a duration in minutes.
func NewInterval(startClock string, durationMin int) (Interval, error) {
	start, err := ParseClock(startClock)
	if err != nil {
		return Interval{}, err
	}
	if durationMin <= 0 {
		return Interval{}, fmt.Errorf("duration must be positive, got %d", durationMin)
	}
	return Interval{Start: start, End: start + durationMin}, nil
}

// Overlaps reports whether two half-open intervals intersect.
// Touching boundaries (a.End == b.Start) do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// Intersect returns the overlapping portion of two intervals.
// The second return value is false when they do not overlap.
func (a Interval) Intersect(b Interval) (Interval, bool) {
	if !a.Overlaps(b) {
		return Interval{}, false
	}
	out := Interval{Start: a.Start, End: a.End}
	if b.Start > out.Start {
		out.Start = b.Start
	}
	if b.End < out.End {
		out.End = b.End
	}
	return out, true
}

// Duration returns the interval length in minutes.
func (a Interval) Duration() int {
	return a.End - a.Start
}

// Grid returns candidate slot start times (minutes since midnight) between
// dayStart and dayEnd on the given step, keeping only slots whose full
// duration fits inside the working day.
func Grid(dayStart, dayEnd, stepMin, durationMin int) []int {
	if stepMin <= 0 || durationMin <= 0 || dayStart >= dayEnd {
		return nil
	}
	var starts []int
	for at := dayStart; at+durationMin <= dayEnd; at += stepMin {
		starts = append(starts, at)
	}
	return starts
}

// Distance returns the absolute distance in minutes between two start times.
func Distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
