package analytics

import (
	"testing"
	"time"

	"github.com/stefanpenner/habitual/pkg/store"
	"github.com/stretchr/testify/assert"
)

const (
	done    = store.StatusDone
	notDone = store.StatusNotDone
	noData  = store.StatusNoData
)

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name string
		logs []store.LogEntry
		want int
	}{
		{"empty", nil, 0},
		{"today only", []store.LogEntry{day(0, done)}, 1},
		{"no entry today", []store.LogEntry{day(1, done), day(2, done)}, 0},
		{"today not done", []store.LogEntry{day(0, notDone), day(1, done)}, 0},
		{"today no data", []store.LogEntry{day(0, noData), day(1, done)}, 0},
		{"gap ends streak", []store.LogEntry{day(0, done), day(1, done), day(3, done)}, 2},
		{"no_data ends streak", []store.LogEntry{day(0, done), day(1, noData), day(2, done)}, 1},
		{"unordered input", []store.LogEntry{day(2, done), day(0, done), day(1, done)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CurrentStreak(tt.logs, now)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got, len(tt.logs))
		})
	}
}

func TestCurrentStreakUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	// 2026-03-11 02:00 UTC is still 2026-03-10 in UTC-8.
	late := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC).In(loc)

	logs := []store.LogEntry{day(0, done), day(1, done)}
	assert.Equal(t, 2, CurrentStreak(logs, late))
}

func TestLongestStreak(t *testing.T) {
	tests := []struct {
		name string
		logs []store.LogEntry
		want int
	}{
		{"empty", nil, 0},
		{"single done", []store.LogEntry{day(0, done)}, 1},
		{"all not done", []store.LogEntry{day(0, notDone), day(1, notDone)}, 0},
		{"five consecutive", []store.LogEntry{day(4, done), day(3, done), day(2, done), day(1, done), day(0, done)}, 5},
		{
			"not_done separates runs",
			[]store.LogEntry{day(5, done), day(4, done), day(3, notDone), day(2, done), day(1, done), day(0, done)},
			3,
		},
		{
			"not_done between two runs is never summed",
			[]store.LogEntry{day(4, done), day(3, done), day(2, notDone), day(1, done), day(0, done)},
			2,
		},
		{"missing day breaks run", []store.LogEntry{day(6, done), day(5, done), day(3, done)}, 2},
		{"no_data day breaks run", []store.LogEntry{day(3, done), day(2, noData), day(1, done), day(0, done)}, 2},
		{"unparseable dates ignored", []store.LogEntry{{HabitID: "run", Date: "yesterday", Status: done}, day(0, done)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LongestStreak(tt.logs))
		})
	}
}

func TestLongestStreakDoesNotReorderInput(t *testing.T) {
	logs := []store.LogEntry{day(0, done), day(2, done), day(1, done)}
	LongestStreak(logs)
	assert.Equal(t, day(0, done).Date, logs[0].Date)
	assert.Equal(t, day(2, done).Date, logs[1].Date)
}

func TestStreaksScenario(t *testing.T) {
	logs := []store.LogEntry{
		day(0, done), day(1, done), day(2, done), day(3, done),
		day(4, notDone),
		day(5, done), day(6, done),
	}

	assert.Equal(t, StreakResult{Current: 4, Longest: 4}, Streaks(logs, now))
}

func TestDuplicateDaysLastWriteWins(t *testing.T) {
	stale := day(0, notDone)
	fresh := day(0, done)
	fresh.Timestamp = stale.Timestamp.Add(time.Hour)

	assert.Equal(t, 1, CurrentStreak([]store.LogEntry{fresh, stale}, now))
	assert.Equal(t, 1, CurrentStreak([]store.LogEntry{stale, fresh}, now))
	assert.Equal(t, "1/1 days", Completion([]store.LogEntry{stale, fresh}).FractionText)
}

func TestWindow(t *testing.T) {
	assert.Equal(t, "2026-03-03", WindowStart(now, 7))
	assert.True(t, InWindow("2026-03-03", now, 7))
	assert.True(t, InWindow("2026-03-10", now, 7))
	assert.False(t, InWindow("2026-03-02", now, 7))
	assert.False(t, InWindow("2026-03-11", now, 7))
}
