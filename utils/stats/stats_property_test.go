package stats

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestProperty_SummaryBounds checks the algebraic invariants of Summarize
// for arbitrary rating sets.
func TestProperty_SummaryBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.IntRange(1, 10), 1, 200).Draw(t, "values")

		s := Summarize(values)

		if s.Count != len(values) {
			t.Fatalf("count %d != len %d", s.Count, len(values))
		}
		if s.Mean < float64(s.Min) || s.Mean > float64(s.Max) {
			t.Fatalf("mean %f outside [%d,%d]", s.Mean, s.Min, s.Max)
		}
		if s.Volatility < 0 {
			t.Fatalf("negative volatility %f", s.Volatility)
		}
		// stddev can never exceed half the value range
		if s.Volatility > float64(s.Max-s.Min)/2+1e-9 {
			t.Fatalf("volatility %f exceeds range bound", s.Volatility)
		}
	})
}

// TestProperty_StreakBounds checks that a streak never exceeds the number
// of marked days and is zero whenever both today and yesterday are empty.
func TestProperty_StreakBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		today := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
		windowDays := rapid.IntRange(1, 120).Draw(t, "windowDays")
		start := today.AddDate(0, 0, -windowDays+1)

		s := NewDaySet(start, today)
		offsets := rapid.SliceOfN(rapid.IntRange(0, windowDays-1), 0, windowDays).Draw(t, "offsets")
		for _, off := range offsets {
			s.Mark(start.AddDate(0, 0, off))
		}

		streak := s.Streak(today)

		if streak < 0 || streak > s.CoveredDays() {
			t.Fatalf("streak %d outside [0,%d]", streak, s.CoveredDays())
		}
		if !s.Has(today) && !s.Has(today.AddDate(0, 0, -1)) && streak != 0 {
			t.Fatalf("dead streak reported as %d", streak)
		}
		// every day inside the reported streak must be marked
		ref := today
		if !s.Has(ref) {
			ref = ref.AddDate(0, 0, -1)
		}
		for i := 0; i < streak; i++ {
			if !s.Has(ref.AddDate(0, 0, -i)) {
				t.Fatalf("day %d of streak not marked", i)
			}
		}
	})
}
