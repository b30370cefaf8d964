package reflection

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stefanpenner/habitual/pkg/store"
)

var now = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

type fakeSource struct {
	logs      []store.LogEntry
	habits    []store.Habit
	logsErr   error
	habitsErr error
}

func (f *fakeSource) ListLogs(ctx context.Context, filter store.LogFilter) ([]store.LogEntry, error) {
	if f.logsErr != nil {
		return nil, f.logsErr
	}
	var out []store.LogEntry
	for _, e := range f.logs {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSource) ListHabits(ctx context.Context, activeOnly bool) ([]store.Habit, error) {
	if f.habitsErr != nil {
		return nil, f.habitsErr
	}
	return f.habits, nil
}

func entry(habit string, daysBack int, status store.LogStatus, notes string) store.LogEntry {
	d := now.AddDate(0, 0, -daysBack).Format(store.DateLayout)
	return store.LogEntry{ID: habit + d, HabitID: habit, Date: d, Status: status, Notes: notes}
}

func newTestBuilder(src Source) (*Builder, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &Builder{
		Source: src,
		Clock:  func() time.Time { return now },
		Logger: zap.New(core),
	}, logs
}

func TestTimeOfDay(t *testing.T) {
	cases := map[int]string{
		0: Evening, 4: Evening, 5: Morning, 11: Morning,
		12: Afternoon, 17: Afternoon, 18: Evening, 23: Evening,
	}
	for hour, want := range cases {
		assert.Equal(t, want, TimeOfDay(hour), "hour %d", hour)
	}
}

func TestTruncateNote(t *testing.T) {
	long := "  " + strings.Repeat("é", 1500) + "  "
	got := TruncateNote(long)
	assert.Equal(t, 1000, len([]rune(got)))

	assert.Equal(t, "short", TruncateNote("  short \n"))
}

func TestBuildSurvivesSourceFailure(t *testing.T) {
	for name, src := range map[string]*fakeSource{
		"logs":   {logsErr: errors.New("connection refused")},
		"habits": {habitsErr: errors.New("connection refused")},
	} {
		t.Run(name, func(t *testing.T) {
			b, logs := newTestBuilder(src)
			pending := map[string]PendingChange{"run": {Name: "Run", Status: store.StatusDone}}

			p := b.Build(context.Background(), pending, strings.Repeat("x", 1500))

			assert.Equal(t, "2026-03-10", p.Date)
			assert.Equal(t, Afternoon, p.TimeOfDay)
			assert.Len(t, p.Note, 1000)
			assert.NotNil(t, p.Habits)
			assert.Empty(t, p.Habits)
			assert.Equal(t, 0, p.RecentSummary.DaysTrackedLast7)
			assert.Equal(t, 0, p.RecentSummary.DaysTrackedLast30)
			assert.Empty(t, p.RecentSummary.NotableObservations)
			assert.Equal(t, 1, logs.FilterMessage("building minimal reflection payload").Len())
		})
	}
}

func TestBuildWithoutSource(t *testing.T) {
	b := &Builder{Clock: func() time.Time { return now }}
	p := b.Build(context.Background(), nil, "hello")
	assert.Equal(t, "hello", p.Note)
	assert.Empty(t, p.Habits)
}

func TestBuildHabitSnapshots(t *testing.T) {
	src := &fakeSource{
		logs: []store.LogEntry{
			entry("run", 0, store.StatusDone, ""),
			entry("run", 1, store.StatusDone, ""),
			entry("run", 2, store.StatusDone, ""),
			entry("run", 3, store.StatusDone, ""),
			entry("run", 4, store.StatusNotDone, ""),
			entry("run", 5, store.StatusDone, ""),
			entry("run", 6, store.StatusDone, ""),
			entry("run", 7, store.StatusDone, ""),
			entry("run", 8, store.StatusDone, ""),
			entry("run", 30, store.StatusDone, ""),
			entry("run", 31, store.StatusDone, ""),
			entry("read", 1, store.StatusNotDone, ""),
			entry("read", 12, store.StatusDone, ""),
			entry("read", 45, store.StatusDone, ""),
		},
		habits: []store.Habit{{ID: "run", Name: "Run"}, {ID: "read", Name: "Read"}},
	}
	b, _ := newTestBuilder(src)

	pending := map[string]PendingChange{
		"run":  {Name: "Run", Category: "health", Status: store.StatusDone, PreviousStatus: store.StatusNotDone},
		"read": {Name: "Read", Status: store.StatusNotDone},
	}
	p := b.Build(context.Background(), pending, "")

	require.Len(t, p.Habits, 2)
	read, run := p.Habits[0], p.Habits[1]

	assert.Equal(t, "Read", read.Name)
	assert.Equal(t, 0, read.StreakDays)
	assert.Equal(t, 0, read.CompletedLast7Days)
	assert.Equal(t, 1, read.CompletedLast30Days)

	assert.Equal(t, HabitSnapshot{
		Name:                "Run",
		Status:              store.StatusDone,
		PreviousStatus:      store.StatusNotDone,
		StreakDays:          4,
		CompletedLast7Days:  7,
		CompletedLast30Days: 9,
		Category:            "health",
	}, run)

	// distinct dates: days 0-8 across both habits, plus 12 and 30
	assert.Equal(t, 8, p.RecentSummary.DaysTrackedLast7)
	assert.Equal(t, 11, p.RecentSummary.DaysTrackedLast30)
}

func TestBuildNotableObservations(t *testing.T) {
	var logs []store.LogEntry
	add := func(habit string, notes ...string) {
		for i, n := range notes {
			logs = append(logs, entry(habit, i, store.StatusDone, n))
		}
	}
	add("journal", "great writing flow", "great writing session", "amazing writing")
	add("gym", "awful, tired", "terrible and sore", "hated it")
	add("sparse", "great", "great")
	add("calm", "walked", "walked", "walked")
	add("yoga", "happy", "happy", "happy")
	add("swim", "fantastic", "fantastic", "fantastic")
	// positive notes, but older than the 30-day window
	for i := 0; i < 5; i++ {
		logs = append(logs, entry("old", 40+i, store.StatusDone, "wonderful"))
	}

	src := &fakeSource{
		logs: logs,
		habits: []store.Habit{
			{ID: "old", Name: "Old"},
			{ID: "sparse", Name: "Sparse"},
			{ID: "journal", Name: "Journal"},
			{ID: "calm", Name: "Calm"},
			{ID: "gym", Name: "Gym"},
			{ID: "yoga", Name: "Yoga"},
			{ID: "swim", Name: "Swim"},
		},
	}
	b, _ := newTestBuilder(src)

	p := b.Build(context.Background(), nil, "")

	assert.Equal(t, []string{
		"Feels positive about Journal, often mentioning writing and great",
		"Mentions challenges with Gym",
		"Feels positive about Yoga, often mentioning happy",
	}, p.RecentSummary.NotableObservations)
}

func TestPositiveObservationWithoutKeywords(t *testing.T) {
	assert.Equal(t, "Feels positive about Run", positiveObservation("Run", nil))
}

func TestSortedChangesUsesMapKeyAsID(t *testing.T) {
	changes := sortedChanges(map[string]PendingChange{
		"b": {Name: "Same"},
		"a": {Name: "Same"},
		"c": {Name: "Alpha"},
	})
	require.Len(t, changes, 3)
	assert.Equal(t, "c", changes[0].HabitID)
	assert.Equal(t, "a", changes[1].HabitID)
	assert.Equal(t, "b", changes[2].HabitID)
}
