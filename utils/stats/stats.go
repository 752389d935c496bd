// Package stats implements the mood analytics math: summary statistics
// over a set of 1-10 ratings and a consecutive-day streak over a date
// window. It is storage-free so it can be tested exhaustively.
package stats

import (
	"math"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// DateLayout is the canonical day key used across the rating store.
const DateLayout = "2006-01-02"

// Summary holds the aggregate view of a set of ratings.
type Summary struct {
	Count      int
	Mean       float64
	Min        int
	Max        int
	Volatility float64 // population standard deviation
}

// Summarize computes count, mean, min, max and volatility for the given
// rating values. An empty input yields the zero Summary.
func Summarize(values []int) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	s := Summary{
		Count: len(values),
		Min:   values[0],
		Max:   values[0],
	}

	sum := 0
	for _, v := range values {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = float64(sum) / float64(len(values))

	var sq float64
	for _, v := range values {
		d := float64(v) - s.Mean
		sq += d * d
	}
	s.Volatility = math.Sqrt(sq / float64(len(values)))

	return s
}

// DaySet tracks which calendar days inside [start, end] carry at least one
// rating. Days are stored as offsets from start in a bitset, so windows of
// years cost a handful of words.
type DaySet struct {
	start time.Time
	days  uint
	bits  *bitset.BitSet
}

// NewDaySet creates a DaySet covering start through end inclusive.
// Times are truncated to their calendar day in UTC.
func NewDaySet(start, end time.Time) *DaySet {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		start, end = end, start
	}
	days := uint(end.Sub(start).Hours()/24) + 1
	return &DaySet{
		start: start,
		days:  days,
		bits:  bitset.New(days),
	}
}

// Mark records that the given day has a rating. Days outside the window
// are ignored.
func (s *DaySet) Mark(day time.Time) {
	if i, ok := s.index(day); ok {
		s.bits.Set(i)
	}
}

// Has reports whether the given day carries a rating.
func (s *DaySet) Has(day time.Time) bool {
	i, ok := s.index(day)
	return ok && s.bits.Test(i)
}

// CoveredDays returns how many days in the window carry a rating.
func (s *DaySet) CoveredDays() int {
	return int(s.bits.Count())
}

// Streak returns the length of the consecutive-day run ending today or,
// if today has no rating yet, ending yesterday. Any older run does not
// count: a streak is only alive at the reference day.
func (s *DaySet) Streak(today time.Time) int {
	day := truncateDay(today)
	if !s.Has(day) {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for s.Has(day) {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func (s *DaySet) index(day time.Time) (uint, bool) {
	day = truncateDay(day)
	if day.Before(s.start) {
		return 0, false
	}
	offset := uint(day.Sub(s.start).Hours() / 24)
	if offset >= s.days {
		return 0, false
	}
	return offset, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD day key.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Day formats a time as its YYYY-MM-DD day key in UTC.
func Day(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
