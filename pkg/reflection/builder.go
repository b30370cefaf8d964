// Package reflection assembles the cross-habit snapshot handed to a text
// generator and caches what the generator writes back.
package reflection

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/stefanpenner/habitual/pkg/analytics"
	"github.com/stefanpenner/habitual/pkg/store"
)

const (
	// MaxNoteLength caps the free-text note, in characters.
	MaxNoteLength = 1000

	maxObservations    = 3
	observationMinimum = 3
	observationWindow  = 30
)

// Source supplies snapshots of habits and logs.
type Source interface {
	ListLogs(ctx context.Context, filter store.LogFilter) ([]store.LogEntry, error)
	ListHabits(ctx context.Context, activeOnly bool) ([]store.Habit, error)
}

// Builder assembles reflection payloads. The zero Clock means time.Now and
// a nil Logger discards output.
type Builder struct {
	Source Source
	Clock  func() time.Time
	Logger *zap.Logger
}

// NewBuilder returns a Builder on the real clock.
func NewBuilder(src Source, logger *zap.Logger) *Builder {
	return &Builder{Source: src, Clock: time.Now, Logger: logger}
}

func (b *Builder) now() time.Time {
	if b.Clock == nil {
		return time.Now()
	}
	return b.Clock()
}

func (b *Builder) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

// TruncateNote trims note and keeps at most MaxNoteLength characters.
func TruncateNote(note string) string {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) <= MaxNoteLength {
		return note
	}
	return string([]rune(note)[:MaxNoteLength])
}

// Build assembles a payload for the pending changes. It never fails: if
// the source cannot be read the payload carries only the date, time of
// day and note.
func (b *Builder) Build(ctx context.Context, pending map[string]PendingChange, note string) Payload {
	now := b.now()
	payload := Payload{
		Date:      analytics.DateKey(now),
		TimeOfDay: TimeOfDay(now.Hour()),
		Note:      TruncateNote(note),
		Habits:    []HabitSnapshot{},
		RecentSummary: RecentSummary{
			NotableObservations: []string{},
		},
	}

	logs, habits, err := b.fetch(ctx)
	if err != nil {
		b.logger().Warn("building minimal reflection payload", zap.Error(err))
		return payload
	}

	for _, change := range sortedChanges(pending) {
		payload.Habits = append(payload.Habits, b.snapshot(change, logs, now))
	}

	payload.RecentSummary.DaysTrackedLast7 = distinctDates(logs, now, 7)
	payload.RecentSummary.DaysTrackedLast30 = distinctDates(logs, now, 30)
	payload.RecentSummary.NotableObservations = b.observations(habits, logs, now)
	return payload
}

func (b *Builder) fetch(ctx context.Context) ([]store.LogEntry, []store.Habit, error) {
	if b.Source == nil {
		return nil, nil, fmt.Errorf("no log source configured")
	}
	logs, err := b.Source.ListLogs(ctx, store.LogFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("fetching logs: %w", err)
	}
	habits, err := b.Source.ListHabits(ctx, false)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching habits: %w", err)
	}
	return logs, habits, nil
}

// sortedChanges gives map iteration a stable order: by name, then id.
func sortedChanges(pending map[string]PendingChange) []PendingChange {
	changes := make([]PendingChange, 0, len(pending))
	for id, c := range pending {
		if c.HabitID == "" {
			c.HabitID = id
		}
		changes = append(changes, c)
	}
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Name != changes[j].Name {
			return changes[i].Name < changes[j].Name
		}
		return changes[i].HabitID < changes[j].HabitID
	})
	return changes
}

func (b *Builder) snapshot(c PendingChange, logs []store.LogEntry, now time.Time) HabitSnapshot {
	habitLogs := analytics.FilterHabit(logs, c.HabitID)

	return HabitSnapshot{
		Name:                c.Name,
		Status:              c.Status,
		PreviousStatus:      c.PreviousStatus,
		StreakDays:          analytics.CurrentStreak(habitLogs, now),
		CompletedLast7Days:  analytics.DoneInWindow(habitLogs, now, 7),
		CompletedLast30Days: analytics.DoneInWindow(habitLogs, now, 30),
		Category:            c.Category,
	}
}

func distinctDates(logs []store.LogEntry, now time.Time, days int) int {
	seen := make(map[string]bool)
	for _, e := range logs {
		if analytics.InWindow(e.Date, now, days) {
			seen[e.Date] = true
		}
	}
	return len(seen)
}

func (b *Builder) observations(habits []store.Habit, logs []store.LogEntry, now time.Time) []string {
	out := []string{}
	for _, h := range habits {
		if len(out) >= maxObservations {
			break
		}

		var recent []store.LogEntry
		for _, e := range analytics.FilterHabit(logs, h.ID) {
			if e.HasNotes() && analytics.InWindow(e.Date, now, observationWindow) {
				recent = append(recent, e)
			}
		}
		if len(recent) < observationMinimum {
			continue
		}

		analysis, err := b.analyze(recent)
		if err != nil {
			b.logger().Warn("skipping notes analysis", zap.String("habit", h.ID), zap.Error(err))
			continue
		}

		name := h.DisplayName()
		switch avg := analysis.Sentiment.AverageScore; {
		case avg > 1:
			out = append(out, positiveObservation(name, analysis.Keywords))
		case avg < -1:
			out = append(out, fmt.Sprintf("Mentions challenges with %s", name))
		}
	}
	return out
}

// analyze runs the notes analyzer, turning a panic on malformed input into
// an error so one habit cannot abort the observation pass.
func (b *Builder) analyze(logs []store.LogEntry) (result analytics.NotesAnalysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notes analysis panicked: %v", r)
		}
	}()
	return analytics.AnalyzeNotesWithMinimum(logs, observationMinimum), nil
}

func positiveObservation(name string, keywords []string) string {
	if len(keywords) == 0 {
		return fmt.Sprintf("Feels positive about %s", name)
	}
	if len(keywords) > 2 {
		keywords = keywords[:2]
	}
	return fmt.Sprintf("Feels positive about %s, often mentioning %s", name, strings.Join(keywords, " and "))
}
