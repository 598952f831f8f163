package training

import (
	"slices"
	"time"
)

// civilDay is a calendar date with no zone attached.
type civilDay struct {
	y int
	m time.Month
	d int
}

func dayOf(t time.Time) civilDay {
	y, m, d := t.Date()
	return civilDay{y, m, d}
}

// ordinal counts days since an arbitrary epoch. Dates are placed in UTC so DST
// never changes the distance between two days.
func (c civilDay) ordinal() int {
	return int(time.Date(c.y, c.m, c.d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// sortedDays dedupes times by calendar day in each time's own location.
func sortedDays(times []time.Time) []int {
	days := make([]int, 0, len(times))
	for _, t := range times {
		days = append(days, dayOf(t).ordinal())
	}
	slices.Sort(days)
	return slices.Compact(days)
}

// runs splits sorted ordinals into runs where neighbours are at most gap apart,
// returning the length of each run and the last ordinal in it.
func runs(ordinals []int, gap int) (lengths, ends []int) {
	for i, o := range ordinals {
		if i == 0 || o-ordinals[i-1] > gap {
			lengths = append(lengths, 1)
			ends = append(ends, o)
			continue
		}
		lengths[len(lengths)-1]++
		ends[len(ends)-1] = o
	}
	return lengths, ends
}

// LongestDayStreak is the most training days in a row where no two consecutive
// days are more than maxGapDays apart. Multiple sessions on one day count once.
func LongestDayStreak(times []time.Time, maxGapDays int) int {
	lengths, _ := runs(sortedDays(times), max(maxGapDays, 1))
	if len(lengths) == 0 {
		return 0
	}
	return slices.Max(lengths)
}

// CurrentDayStreak is the length of the latest streak if it is still alive at now.
func CurrentDayStreak(times []time.Time, maxGapDays int, now time.Time) int {
	gap := max(maxGapDays, 1)
	lengths, ends := runs(sortedDays(times), gap)
	if len(lengths) == 0 {
		return 0
	}
	last := len(lengths) - 1
	if dayOf(now).ordinal()-ends[last] > gap {
		return 0
	}
	return lengths[last]
}

// isoWeekMonday returns the ordinal of the Monday that starts t's ISO week.
// Consecutive ISO weeks are always 7 days apart, including across year boundaries.
func isoWeekMonday(t time.Time) int {
	offset := (int(t.Weekday()) + 6) % 7
	return dayOf(t).ordinal() - offset
}

func sortedWeeks(times []time.Time) []int {
	weeks := make([]int, 0, len(times))
	for _, t := range times {
		weeks = append(weeks, isoWeekMonday(t))
	}
	slices.Sort(weeks)
	return slices.Compact(weeks)
}

// LongestWeekStreak is the longest run of consecutive ISO weeks with at least one session.
func LongestWeekStreak(times []time.Time) int {
	lengths, _ := runs(sortedWeeks(times), 7)
	if len(lengths) == 0 {
		return 0
	}
	return slices.Max(lengths)
}

// CurrentWeekStreak counts consecutive active weeks ending with now's week or the one before.
func CurrentWeekStreak(times []time.Time, now time.Time) int {
	lengths, ends := runs(sortedWeeks(times), 7)
	if len(lengths) == 0 {
		return 0
	}
	last := len(lengths) - 1
	if isoWeekMonday(now)-ends[last] > 7 {
		return 0
	}
	return lengths[last]
}
