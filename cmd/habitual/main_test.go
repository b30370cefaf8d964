package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/habitual/pkg/analytics"
	"github.com/stefanpenner/habitual/pkg/reflection"
)

var fixedNow = time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)

type cli struct {
	t       *testing.T
	dir     string
	storage string
}

func newCLI(t *testing.T, storage string) *cli {
	return &cli{t: t, dir: t.TempDir(), storage: storage}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := newRootCmdFor(&app{now: func() time.Time { return fixedNow }})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	base := []string{
		"--config", filepath.Join(c.dir, "missing.yaml"),
		"--dir", c.dir,
		"--storage", c.storage,
	}
	root.SetArgs(append(base, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", d)

	d, err = parseDate("yesterday", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", d)

	d, err = parseDate("2026-02-28", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", d)

	_, err = parseDate("28/02/2026", fixedNow)
	assert.Error(t, err)
}

func TestCommandsOnBothBackends(t *testing.T) {
	for _, storage := range []string{"files", "sqlite"} {
		t.Run(storage, func(t *testing.T) {
			c := newCLI(t, storage)

			assert.Contains(t, c.mustRun("add", "Morning", "Run", "--category", "health"), "Created: Morning Run (morning-run)")
			c.mustRun("add", "Read")

			for _, d := range []string{"2026-03-07", "2026-03-08", "2026-03-09"} {
				c.mustRun("done", "morning-run", "--date", d)
			}
			c.mustRun("done", "Morning Run")
			c.mustRun("skip", "read", "--date", "yesterday")

			out := c.mustRun("stats", "morning-run")
			assert.Contains(t, out, "Current streak: 4 days")
			assert.Contains(t, out, "Completion:     4/4 days - 100%")

			var sums []habitSummary
			require.NoError(t, json.Unmarshal([]byte(c.mustRun("list", "--json")), &sums))
			require.Len(t, sums, 2)
			assert.Equal(t, "morning-run", sums[0].ID)
			assert.Equal(t, 4, sums[0].CurrentStreak)
			assert.Equal(t, "0/1 days", sums[1].Completion.FractionText)

			assert.Contains(t, c.mustRun("toggle", "read"), "Read 2026-03-10 → done")

			c.mustRun("note", "read", "great", "chapter", "tonight")
			assert.Contains(t, c.mustRun("search", "CHAPTER"), "2026-03-10 read: great chapter tonight")

			c.mustRun("archive", "read")
			assert.NotContains(t, c.mustRun("list"), "Read")
			assert.Contains(t, c.mustRun("list", "--all"), "[archived]")

			assert.Contains(t, c.mustRun("delete", "read"), "Deleted: read")
			_, err := c.run("stats", "read")
			assert.Error(t, err)
		})
	}
}

func TestNotesCommand(t *testing.T) {
	c := newCLI(t, "files")
	c.mustRun("add", "Yoga")

	out := c.mustRun("notes", "yoga")
	assert.Contains(t, out, "Add at least 7 notes")

	notes := []string{
		"great stretch today", "happy and calm", "great flow",
		"tired but good", "great session", "loved the stretch", "great energy",
	}
	for i, n := range notes {
		day := analytics.DateKey(fixedNow.AddDate(0, 0, -i))
		c.mustRun("done", "yoga", "--date", day)
		c.mustRun("note", "yoga", n, "--date", day)
	}

	var analysis analytics.NotesAnalysis
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("notes", "yoga", "--json")), &analysis))
	assert.True(t, analysis.HasEnoughData)
	assert.Equal(t, 7, analysis.TotalNotes)
	assert.Equal(t, "great", analysis.Keywords[0])
	assert.Contains(t, analysis.CorrelationText, "accomplished")
}

func TestReflectCommand(t *testing.T) {
	c := newCLI(t, "files")
	c.mustRun("add", "Run")
	for i := 0; i < 3; i++ {
		c.mustRun("done", "run", "--date", analytics.DateKey(fixedNow.AddDate(0, 0, -i)))
	}

	out := c.mustRun("reflect")
	assert.Contains(t, out, "Thanks for checking in this evening. Run is on a 3-day streak.")

	var p reflection.Payload
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("reflect", "--payload", "felt", "strong")), &p))
	assert.Equal(t, "2026-03-10", p.Date)
	assert.Equal(t, reflection.Evening, p.TimeOfDay)
	assert.Equal(t, "felt strong", p.Note)
	require.Len(t, p.Habits, 1)
	assert.Equal(t, 3, p.Habits[0].StreakDays)
	assert.Equal(t, 3, p.RecentSummary.DaysTrackedLast7)
}

func TestUnknownHabit(t *testing.T) {
	c := newCLI(t, "files")

	_, err := c.run("done", "ghost")
	assert.ErrorContains(t, err, "habit not found")
}

func TestInvalidStorageFlag(t *testing.T) {
	c := newCLI(t, "postgres")

	_, err := c.run("list")
	assert.ErrorContains(t, err, "invalid config")
}
