// Package timeslot implements half-open minute intervals within a single
// calendar day. Minutes count from midnight; an interval [start, end)
// includes start and excludes end.
package timeslot

import (
	"fmt"
	"sort"
	"time"
)

// MinutesPerDay bounds any interval within one calendar day
const MinutesPerDay = 24 * 60

// Interval is a half-open [Start, End) range of minutes since midnight
type Interval struct {
	Start int `json:"-"`
	End   int `json:"-"`
}

// ParseClock converts "HH:MM" (24-hour) to minutes since midnight
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM"
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// Valid reports whether the interval is well-formed and within one day
func (iv Interval) Valid() bool {
	return iv.Start >= 0 && iv.Start < iv.End && iv.End <= MinutesPerDay
}

// Duration returns the interval length in minutes
func (iv Interval) Duration() int {
	return iv.End - iv.Start
}

// Overlaps reports whether two half-open intervals intersect:
// [a,b) and [c,d) overlap iff a < d and c < b.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Contains reports whether other lies entirely within iv
func (iv Interval) Contains(other Interval) bool {
	return iv.Start <= other.Start && other.End <= iv.End
}

// String renders the interval as "[HH:MM, HH:MM)"
func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", FormatClock(iv.Start), FormatClock(iv.End))
}

// Union merges a set of intervals into a minimal sorted set of disjoint
// intervals. Touching intervals ([a,b) and [b,c)) are coalesced.
func Union(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Subtract removes busy intervals from the free set, returning the maximal
// set of disjoint free intervals in chronological order.
func Subtract(free, busy []Interval) []Interval {
	result := Union(free)
	for _, b := range Union(busy) {
		var next []Interval
		for _, f := range result {
			if !f.Overlaps(b) {
				next = append(next, f)
				continue
			}
			if f.Start < b.Start {
				next = append(next, Interval{Start: f.Start, End: b.Start})
			}
			if b.End < f.End {
				next = append(next, Interval{Start: b.End, End: f.End})
			}
		}
		result = next
	}
	return result
}
