package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStoreFs(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)
	s.SetClock(func() time.Time { return fixedNow })
	return s
}

func TestNewStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	_, err = s.CreateHabit("Drink water", "health")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "habits", "drink-water", "habit.md"))
	assert.NoError(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "morning-run", Slugify("Morning Run"))
	assert.Equal(t, "read-20-pages", Slugify("  Read 20 pages!! "))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestCreateHabit(t *testing.T) {
	s := setupTestStore(t)

	h, err := s.CreateHabit("Morning Run", "health")
	require.NoError(t, err)
	assert.Equal(t, "morning-run", h.ID)
	assert.Equal(t, "Morning Run", h.Name)
	assert.Equal(t, "health", h.Category)
	assert.True(t, h.Created.Equal(fixedNow))

	loaded, err := s.LoadHabit("morning-run")
	require.NoError(t, err)
	assert.Equal(t, "Morning Run", loaded.Name)
}

func TestCreateHabitDuplicate(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.CreateHabit("read", "")
	require.NoError(t, err)

	_, err = s.CreateHabit("Read", "")
	assert.ErrorIs(t, err, ErrHabitExists)
}

func TestLoadHabitMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.LoadHabit("nope")
	assert.ErrorIs(t, err, ErrHabitNotFound)
}

func TestListHabitsActiveOnly(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"alpha", "beta", "gamma"} {
		_, err := s.CreateHabit(name, "")
		require.NoError(t, err)
	}
	_, err := s.ArchiveHabit("beta", true)
	require.NoError(t, err)

	all, err := s.ListHabits(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := s.ListHabits(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "alpha", active[0].ID)
	assert.Equal(t, "gamma", active[1].ID)
}

func TestReorderHabit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"alpha", "beta", "gamma"} {
		_, err := s.CreateHabit(name, "")
		require.NoError(t, err)
	}

	require.NoError(t, s.ReorderHabit("beta", -1))
	habits, err := s.ListHabits(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "beta", habits[0].ID)
	assert.Equal(t, "alpha", habits[1].ID)
	assert.Equal(t, "gamma", habits[2].ID)

	// Moving the first habit up is a no-op
	require.NoError(t, s.ReorderHabit("beta", -1))
	habits, err = s.ListHabits(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "beta", habits[0].ID)

	assert.ErrorIs(t, s.ReorderHabit("missing", 1), ErrHabitNotFound)
}

func TestRenameHabitKeepsLogs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateHabit("run", "")
	require.NoError(t, err)
	_, err = s.SetStatus("run", "2026-03-10", StatusDone)
	require.NoError(t, err)

	h, err := s.RenameHabit("run", "Evening run")
	require.NoError(t, err)
	assert.Equal(t, "run", h.ID)

	logs, err := s.ListLogs(ctx, LogFilter{HabitID: "run"})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestDeleteHabit(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.CreateHabit("run", "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteHabit("run"))
	_, err = s.LoadHabit("run")
	assert.ErrorIs(t, err, ErrHabitNotFound)

	assert.ErrorIs(t, s.DeleteHabit("run"), ErrHabitNotFound)
}

func TestSetStatusUpsertsPerDay(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateHabit("run", "")
	require.NoError(t, err)

	first, err := s.SetStatus("run", "2026-03-10", StatusNotDone)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "run", first.HabitID)

	second, err := s.SetStatus("run", "2026-03-10", StatusDone)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	logs, err := s.ListLogs(ctx, LogFilter{HabitID: "run"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, StatusDone, logs[0].Status)
	assert.True(t, logs[0].Timestamp.Equal(fixedNow))
}

func TestSetStatusRejectsBadInput(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.CreateHabit("run", "")
	require.NoError(t, err)

	_, err = s.SetStatus("run", "10/03/2026", StatusDone)
	assert.ErrorIs(t, err, ErrInvalidEntry)

	_, err = s.SetStatus("run", "2026-03-10", LogStatus("maybe"))
	assert.ErrorIs(t, err, ErrInvalidEntry)

	_, err = s.SetStatus("missing", "2026-03-10", StatusDone)
	assert.ErrorIs(t, err, ErrHabitNotFound)
}

func TestToggleStatusCycles(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.CreateHabit("run", "")
	require.NoError(t, err)

	want := []LogStatus{StatusDone, StatusNotDone, StatusNoData, StatusDone}
	for _, w := range want {
		e, err := s.ToggleStatus("run", "2026-03-10")
		require.NoError(t, err)
		assert.Equal(t, w, e.Status)
	}
}

func TestSetNote(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.CreateHabit("run", "")
	require.NoError(t, err)

	e, err := s.SetNote("run", "2026-03-09", "  legs were sore  ")
	require.NoError(t, err)
	assert.Equal(t, StatusNoData, e.Status)
	assert.Equal(t, "legs were sore", e.Notes)

	_, err = s.SetStatus("run", "2026-03-09", StatusDone)
	require.NoError(t, err)
	e, err = s.SetNote("run", "2026-03-09", "legs were fine")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, e.Status)
}

func TestListLogsFilters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateHabit("run", "")
	require.NoError(t, err)
	_, err = s.CreateHabit("read", "")
	require.NoError(t, err)

	for _, d := range []string{"2026-03-08", "2026-03-09", "2026-03-10"} {
		_, err = s.SetStatus("run", d, StatusDone)
		require.NoError(t, err)
	}
	_, err = s.SetStatus("read", "2026-03-09", StatusNotDone)
	require.NoError(t, err)

	all, err := s.ListLogs(ctx, LogFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	day, err := s.ListLogs(ctx, LogFilter{Date: "2026-03-09"})
	require.NoError(t, err)
	assert.Len(t, day, 2)

	window, err := s.ListLogs(ctx, LogFilter{HabitID: "run", From: "2026-03-09", To: "2026-03-10"})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "2026-03-09", window[0].Date)

	_, err = s.ListLogs(ctx, LogFilter{HabitID: "missing"})
	assert.ErrorIs(t, err, ErrHabitNotFound)
}

func TestListLogsHonoursContext(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.CreateHabit("run", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.ListLogs(ctx, LogFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchNotes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateHabit("run", "")
	require.NoError(t, err)
	_, err = s.SetNote("run", "2026-03-08", "Knee felt STIFF")
	require.NoError(t, err)
	_, err = s.SetNote("run", "2026-03-09", "easy pace")
	require.NoError(t, err)

	matches, err := s.SearchNotes(ctx, "stiff")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "2026-03-08", matches[0].Date)
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]LogStatus{
		"done":     StatusDone,
		"skip":     StatusNotDone,
		"not_done": StatusNotDone,
		"gap":      StatusNoData,
		"NO_DATA":  StatusNoData,
	} {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStatus("maybe")
	assert.Error(t, err)
}
