package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for log dates.
const DateLayout = "2006-01-02"

// LogStatus represents the recorded state of a habit on one day.
type LogStatus string

const (
	StatusDone    LogStatus = "done"
	StatusNotDone LogStatus = "not_done"
	StatusNoData  LogStatus = "no_data"
)

// Valid reports whether s is one of the known statuses.
func (s LogStatus) Valid() bool {
	switch s {
	case StatusDone, StatusNotDone, StatusNoData:
		return true
	}
	return false
}

// ParseStatus accepts the canonical names plus a few CLI-friendly aliases.
func ParseStatus(s string) (LogStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "done", "yes", "y":
		return StatusDone, nil
	case "not_done", "not-done", "skip", "no", "n":
		return StatusNotDone, nil
	case "no_data", "no-data", "gap", "none":
		return StatusNoData, nil
	}
	return "", errors.New("invalid status " + s + " (use done, not_done, or no_data)")
}

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrHabitExists   = errors.New("habit already exists")
	ErrInvalidEntry  = errors.New("invalid log entry")
)

// Habit represents a tracked habit loaded from a habit.md file.
type Habit struct {
	// Frontmatter fields
	Name     string    `yaml:"name" json:"name" validate:"required"`
	Category string    `yaml:"category,omitempty" json:"category,omitempty"`
	Archived bool      `yaml:"archived,omitempty" json:"archived,omitempty"`
	Created  time.Time `yaml:"created" json:"created"`
	Updated  time.Time `yaml:"updated" json:"updated"`

	// Parsed from markdown body
	Description string `yaml:"-" json:"description,omitempty"`

	// Filesystem metadata (not serialized to YAML)
	ID       string `yaml:"-" json:"id"` // directory name
	FilePath string `yaml:"-" json:"path,omitempty"`
}

// IsActive returns true unless the habit has been archived.
func (h *Habit) IsActive() bool {
	return !h.Archived
}

// DisplayName returns the name, falling back to the slug.
func (h *Habit) DisplayName() string {
	if h.Name != "" {
		return h.Name
	}
	return h.ID
}

// LogEntry is a single day's record for one habit.
type LogEntry struct {
	ID        string    `yaml:"id" json:"log_id" validate:"required"`
	HabitID   string    `yaml:"-" json:"habit_id" validate:"required"`
	Date      string    `yaml:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Status    LogStatus `yaml:"status" json:"status" validate:"required,oneof=done not_done no_data"`
	Notes     string    `yaml:"notes,omitempty" json:"notes,omitempty"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
}

// HasNotes reports whether the entry carries non-blank notes.
func (e LogEntry) HasNotes() bool {
	return strings.TrimSpace(e.Notes) != ""
}

// LogFilter narrows ListLogs results. Zero values match everything.
// From and To are inclusive calendar dates in DateLayout.
type LogFilter struct {
	HabitID string
	Date    string
	From    string
	To      string
}

// Match reports whether e passes the filter.
func (f LogFilter) Match(e LogEntry) bool {
	if f.HabitID != "" && e.HabitID != f.HabitID {
		return false
	}
	if f.Date != "" && e.Date != f.Date {
		return false
	}
	// Dates are zero-padded so lexical order is calendar order.
	if f.From != "" && e.Date < f.From {
		return false
	}
	if f.To != "" && e.Date > f.To {
		return false
	}
	return true
}

// Order is the user-defined display order of habits.
type Order struct {
	Updated time.Time `yaml:"updated"`
	Items   []string  // habit ids
}

// Repository is the storage surface shared by the file store and the
// SQLite store.
type Repository interface {
	ListHabits(ctx context.Context, activeOnly bool) ([]Habit, error)
	ListLogs(ctx context.Context, filter LogFilter) ([]LogEntry, error)
	LoadHabit(id string) (*Habit, error)
	CreateHabit(name, category string) (*Habit, error)
	RenameHabit(id, name string) (*Habit, error)
	ArchiveHabit(id string, archived bool) (*Habit, error)
	DeleteHabit(id string) error
	ReorderHabit(id string, delta int) error
	SetStatus(id, date string, status LogStatus) (LogEntry, error)
	ToggleStatus(id, date string) (LogEntry, error)
	SetNote(id, date, text string) (LogEntry, error)
	SearchNotes(ctx context.Context, query string) ([]LogEntry, error)
}

var _ Repository = (*Store)(nil)
