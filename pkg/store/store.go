package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	habitFileName = "habit.md"
	logFileName   = "log.yaml"
)

// Store manages the filesystem-backed habit data.
type Store struct {
	Root string // e.g., ~/.local/share/habitual

	fs  afero.Fs
	now func() time.Time
	mu  sync.Mutex // serializes read-modify-write of log files
}

// NewStore creates a Store rooted at the given directory on the OS filesystem.
// It creates the directory structure if it doesn't exist.
func NewStore(root string) (*Store, error) {
	return NewStoreFs(afero.NewOsFs(), root)
}

// NewStoreFs creates a Store on an arbitrary afero filesystem.
func NewStoreFs(fs afero.Fs, root string) (*Store, error) {
	s := &Store{Root: root, fs: fs, now: time.Now}
	if err := fs.MkdirAll(s.HabitsDir(), 0755); err != nil {
		return nil, fmt.Errorf("creating habits directory: %w", err)
	}
	return s, nil
}

// SetClock overrides the time source used for created/updated stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// HabitsDir returns the path to the habits directory.
func (s *Store) HabitsDir() string {
	return filepath.Join(s.Root, "habits")
}

// OrderPath returns the path to order.md.
func (s *Store) OrderPath() string {
	return filepath.Join(s.Root, "order.md")
}

func (s *Store) habitDir(id string) string {
	return filepath.Join(s.HabitsDir(), id)
}

// LoadOrder reads and parses order.md.
func (s *Store) LoadOrder() (*Order, error) {
	data, err := afero.ReadFile(s.fs, s.OrderPath())
	if errors.Is(err, os.ErrNotExist) {
		return &Order{Updated: s.now()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading order.md: %w", err)
	}
	return ParseOrder(string(data))
}

// SaveOrder writes order.md to disk.
func (s *Store) SaveOrder(o *Order) error {
	o.Updated = s.now()
	return afero.WriteFile(s.fs, s.OrderPath(), []byte(SerializeOrder(o)), 0644)
}

// LoadHabit reads a single habit by id.
func (s *Store) LoadHabit(id string) (*Habit, error) {
	filePath := filepath.Join(s.habitDir(id), habitFileName)
	data, err := afero.ReadFile(s.fs, filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading habit %s: %w", id, err)
	}

	h, err := ParseHabit(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing habit %s: %w", id, err)
	}

	h.ID = id
	h.FilePath = filePath
	return h, nil
}

// ListHabits loads every habit in display order. order.md wins; habits
// missing from it follow in directory order.
func (s *Store) ListHabits(ctx context.Context, activeOnly bool) ([]Habit, error) {
	ids, err := s.habitOrder()
	if err != nil {
		return nil, err
	}

	habits := make([]Habit, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, err := s.LoadHabit(id)
		if err != nil {
			continue // skip broken habits
		}
		if activeOnly && !h.IsActive() {
			continue
		}
		habits = append(habits, *h)
	}
	return habits, nil
}

// habitOrder returns the ordered habit ids, merging order.md with the
// directories actually present.
func (s *Store) habitOrder() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.HabitsDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading habits directory: %w", err)
	}

	var dirNames []string
	dirSet := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			dirNames = append(dirNames, e.Name())
			dirSet[e.Name()] = true
		}
	}

	order, err := s.LoadOrder()
	if err != nil {
		return dirNames, nil
	}

	seen := make(map[string]bool)
	var result []string
	for _, id := range order.Items {
		if dirSet[id] && !seen[id] {
			result = append(result, id)
			seen[id] = true
		}
	}
	for _, id := range dirNames {
		if !seen[id] {
			result = append(result, id)
		}
	}
	return result, nil
}

// SaveHabit writes a habit to disk.
func (s *Store) SaveHabit(h *Habit) error {
	h.Updated = s.now()

	dir := s.habitDir(h.ID)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating habit directory: %w", err)
	}

	content, err := SerializeHabit(h)
	if err != nil {
		return fmt.Errorf("serializing habit: %w", err)
	}

	filePath := filepath.Join(dir, habitFileName)
	h.FilePath = filePath
	return afero.WriteFile(s.fs, filePath, []byte(content), 0644)
}

// Slugify turns a display name into a directory-safe habit id.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// CreateHabit creates a new habit and appends it to the display order.
func (s *Store) CreateHabit(name, category string) (*Habit, error) {
	id := Slugify(name)
	if id == "" {
		return nil, fmt.Errorf("habit name %q has no usable characters", name)
	}

	if _, err := s.fs.Stat(s.habitDir(id)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrHabitExists, id)
	}

	now := s.now()
	h := &Habit{
		Name:     strings.TrimSpace(name),
		Category: strings.TrimSpace(category),
		Created:  now,
		Updated:  now,
		ID:       id,
	}
	if err := validate.Struct(h); err != nil {
		return nil, fmt.Errorf("validating habit: %w", err)
	}

	if err := s.SaveHabit(h); err != nil {
		return nil, err
	}

	order, err := s.habitOrder()
	if err == nil {
		_ = s.SaveOrder(&Order{Items: order})
	}
	return h, nil
}

// RenameHabit changes the display name. The id is left untouched so
// existing logs stay attached.
func (s *Store) RenameHabit(id, name string) (*Habit, error) {
	h, err := s.LoadHabit(id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("habit name is required")
	}
	h.Name = name
	if err := s.SaveHabit(h); err != nil {
		return nil, err
	}
	return h, nil
}

// ArchiveHabit marks a habit archived (or active again).
func (s *Store) ArchiveHabit(id string, archived bool) (*Habit, error) {
	h, err := s.LoadHabit(id)
	if err != nil {
		return nil, err
	}
	h.Archived = archived
	if err := s.SaveHabit(h); err != nil {
		return nil, err
	}
	return h, nil
}

// DeleteHabit removes a habit directory together with its logs.
func (s *Store) DeleteHabit(id string) error {
	dir := s.habitDir(id)
	if _, err := s.fs.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}
	if err := s.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing habit %s: %w", id, err)
	}

	order, err := s.habitOrder()
	if err == nil {
		_ = s.SaveOrder(&Order{Items: order})
	}
	return nil
}

// ReorderHabit swaps a habit with its neighbour (delta: -1 for up, +1 for down).
func (s *Store) ReorderHabit(id string, delta int) error {
	order, err := s.habitOrder()
	if err != nil {
		return err
	}

	idx := -1
	for i, name := range order {
		if name == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: %s", ErrHabitNotFound, id)
	}

	newIdx := idx + delta
	if newIdx < 0 || newIdx >= len(order) {
		return nil // at boundary, nothing to do
	}

	order[idx], order[newIdx] = order[newIdx], order[idx]
	return s.SaveOrder(&Order{Items: order})
}

func (s *Store) loadLogs(id string) ([]LogEntry, error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.habitDir(id), logFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading logs for %s: %w", id, err)
	}
	entries, err := ParseLogs(id, data)
	if err != nil {
		return nil, fmt.Errorf("parsing logs for %s: %w", id, err)
	}
	return entries, nil
}

func (s *Store) saveLogs(id string, entries []LogEntry) error {
	data, err := SerializeLogs(entries)
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, filepath.Join(s.habitDir(id), logFileName), data, 0644)
}

// ListLogs returns every log entry matching the filter, ordered by habit
// display order and then date. The returned slice is freshly allocated.
func (s *Store) ListLogs(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	var ids []string
	if filter.HabitID != "" {
		if _, err := s.fs.Stat(s.habitDir(filter.HabitID)); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrHabitNotFound, filter.HabitID)
		}
		ids = []string{filter.HabitID}
	} else {
		var err error
		if ids, err = s.habitOrder(); err != nil {
			return nil, err
		}
	}

	var out []LogEntry
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := s.loadLogs(id)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
		for _, e := range entries {
			if filter.Match(e) {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// upsert loads the habit's logs, applies fn to the entry for date (a new
// zero entry when absent), validates and persists the result.
func (s *Store) upsert(id, date string, fn func(e *LogEntry)) (LogEntry, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return LogEntry{}, fmt.Errorf("%w: date %q: %v", ErrInvalidEntry, date, err)
	}
	if _, err := s.LoadHabit(id); err != nil {
		return LogEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadLogs(id)
	if err != nil {
		return LogEntry{}, err
	}

	idx := -1
	for i := range entries {
		if entries[i].Date == date {
			idx = i
			break
		}
	}
	if idx == -1 {
		entries = append(entries, LogEntry{
			ID:      uuid.NewString(),
			HabitID: id,
			Date:    date,
		})
		idx = len(entries) - 1
	}

	e := &entries[idx]
	fn(e)
	e.Timestamp = s.now()
	if err := ValidateEntry(*e); err != nil {
		return LogEntry{}, err
	}

	if err := s.saveLogs(id, entries); err != nil {
		return LogEntry{}, fmt.Errorf("saving logs for %s: %w", id, err)
	}
	return *e, nil
}

// SetStatus records status for the habit on date, replacing any previous
// entry for that day.
func (s *Store) SetStatus(id, date string, status LogStatus) (LogEntry, error) {
	return s.upsert(id, date, func(e *LogEntry) {
		e.Status = status
	})
}

// ToggleStatus cycles a day through done → not_done → no_data → done.
// A day without an entry becomes done.
func (s *Store) ToggleStatus(id, date string) (LogEntry, error) {
	return s.upsert(id, date, func(e *LogEntry) {
		e.Status = NextStatus(e.Status)
	})
}

// NextStatus returns the status that follows cur in the toggle cycle.
func NextStatus(cur LogStatus) LogStatus {
	switch cur {
	case StatusDone:
		return StatusNotDone
	case StatusNotDone:
		return StatusNoData
	default:
		return StatusDone
	}
}

// SetNote replaces the notes for the habit on date. A day without an
// entry gets one with status no_data.
func (s *Store) SetNote(id, date, text string) (LogEntry, error) {
	return s.upsert(id, date, func(e *LogEntry) {
		if e.Status == "" {
			e.Status = StatusNoData
		}
		e.Notes = strings.TrimSpace(text)
	})
}

// SearchNotes returns log entries whose notes contain query (case-insensitive).
func (s *Store) SearchNotes(ctx context.Context, query string) ([]LogEntry, error) {
	all, err := s.ListLogs(ctx, LogFilter{})
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var matches []LogEntry
	for _, e := range all {
		if e.HasNotes() && strings.Contains(strings.ToLower(e.Notes), query) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}
