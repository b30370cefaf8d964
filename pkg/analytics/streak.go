package analytics

import (
	"sort"
	"time"

	"github.com/stefanpenner/habitual/pkg/store"
)

// StreakResult holds both streak measures for one habit.
type StreakResult struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Streaks computes the current and longest streak of one habit's logs.
func Streaks(logs []store.LogEntry, now time.Time) StreakResult {
	return StreakResult{
		Current: CurrentStreak(logs, now),
		Longest: LongestStreak(logs),
	}
}

// CurrentStreak counts consecutive done days walking back from the
// calendar date of now. The walk stops at the first day that is missing,
// not_done or no_data, so a habit not yet done today has a streak of 0.
func CurrentStreak(logs []store.LogEntry, now time.Time) int {
	byDate := make(map[string]store.LogStatus, len(logs))
	for _, e := range latestPerDay(logs) {
		byDate[e.Date] = e.Status
	}

	today := civilDay(now)
	streak := 0
	for daysBack := 0; ; daysBack++ {
		status, ok := byDate[DateKey(today.AddDate(0, 0, -daysBack))]
		if !ok || status != store.StatusDone {
			return streak
		}
		streak++
	}
}

// LongestStreak finds the longest run of calendar-consecutive done days
// anywhere in the history.
//
// A not_done day resets the run and becomes the new anchor. A no_data
// day neither resets nor anchors; the next done is compared against the
// last done/not_done date, so the skipped day still breaks the run just
// like a missing day does.
func LongestStreak(logs []store.LogEntry) int {
	type dated struct {
		day    time.Time
		status store.LogStatus
	}

	entries := make([]dated, 0, len(logs))
	for _, e := range latestPerDay(logs) {
		d, ok := parseDay(e.Date)
		if !ok {
			continue
		}
		entries = append(entries, dated{d, e.Status})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].day.Before(entries[j].day)
	})

	longest, run := 0, 0
	var anchor time.Time
	anchored := false
	for _, e := range entries {
		switch e.status {
		case store.StatusDone:
			if anchored && daysBetween(anchor, e.day) == 1 {
				run++
			} else {
				run = 1
			}
			anchor, anchored = e.day, true
			longest = max(longest, run)
		case store.StatusNotDone:
			run = 0
			anchor, anchored = e.day, true
		}
	}
	return longest
}
