package analytics

import (
	"time"

	"github.com/stefanpenner/habitual/pkg/store"
)

// civilDay reduces t to its calendar date in t's own location, returned
// as UTC midnight so that day arithmetic is immune to DST shifts.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDay(s string) (time.Time, bool) {
	t, err := time.Parse(store.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// daysBetween returns b - a in whole days. Both must come from civilDay
// or parseDay.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// DateKey formats the calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(store.DateLayout)
}

// WindowStart returns the first date of the trailing window of n days
// ending at now: the window is [now - n days, now], inclusive of both ends.
func WindowStart(now time.Time, n int) string {
	return DateKey(civilDay(now).AddDate(0, 0, -n))
}

// InWindow reports whether date falls in [now - n days, now].
func InWindow(date string, now time.Time, n int) bool {
	// Dates are zero-padded so lexical order is calendar order.
	return date >= WindowStart(now, n) && date <= DateKey(civilDay(now))
}

type dayKey struct {
	habit string
	date  string
}

// latestPerDay returns a copy of logs holding one entry per (habit, date).
// When the input carries duplicates the entry with the latest Timestamp
// wins; on equal timestamps the later one in input order wins.
func latestPerDay(logs []store.LogEntry) []store.LogEntry {
	out := make([]store.LogEntry, 0, len(logs))
	index := make(map[dayKey]int, len(logs))
	for _, e := range logs {
		k := dayKey{e.HabitID, e.Date}
		if i, ok := index[k]; ok {
			if !e.Timestamp.Before(out[i].Timestamp) {
				out[i] = e
			}
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}
	return out
}

// FilterHabit returns the entries belonging to habitID.
func FilterHabit(logs []store.LogEntry, habitID string) []store.LogEntry {
	var out []store.LogEntry
	for _, e := range logs {
		if e.HabitID == habitID {
			out = append(out, e)
		}
	}
	return out
}
