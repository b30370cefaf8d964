// Package sqlstore keeps habits and their daily logs in a SQLite database.
// It offers the same operations as the file store for users who prefer a
// single database file over a directory of YAML.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/stefanpenner/habitual/pkg/store"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "habitual.db"

const timeLayout = time.RFC3339Nano

// Store implements store.Repository on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
	mu  sync.Mutex
}

var _ store.Repository = (*Store)(nil)

// Open opens (or creates) the database in dir. Pass ":memory:" for a
// throwaway in-memory database.
func Open(dir string) (*Store, error) {
	dsn := ":memory:"
	if dir != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		dsn = filepath.Join(dir, DBFileName)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: an in-memory database is per-connection, and SQLite
	// allows a single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock overrides the time source used for stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS habits (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		archived INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS habit_logs (
		id TEXT PRIMARY KEY,
		habit_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL,
		FOREIGN KEY (habit_id) REFERENCES habits(id) ON DELETE CASCADE,
		UNIQUE(habit_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_habit_logs_date ON habit_logs(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

const habitColumns = "id, name, category, description, archived, created_at, updated_at"

func scanHabit(row rowScanner) (*store.Habit, error) {
	var (
		h                store.Habit
		archived         int
		created, updated string
	)
	if err := row.Scan(&h.ID, &h.Name, &h.Category, &h.Description, &archived, &created, &updated); err != nil {
		return nil, err
	}
	h.Archived = archived != 0
	h.Created, _ = time.Parse(timeLayout, created)
	h.Updated, _ = time.Parse(timeLayout, updated)
	return &h, nil
}

// LoadHabit returns a single habit by id.
func (s *Store) LoadHabit(id string) (*store.Habit, error) {
	return s.loadHabit(context.Background(), s.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) loadHabit(ctx context.Context, q querier, id string) (*store.Habit, error) {
	row := q.QueryRowContext(ctx, "SELECT "+habitColumns+" FROM habits WHERE id = ?", id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrHabitNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load habit %s: %w", id, err)
	}
	return h, nil
}

// ListHabits returns habits in display order.
func (s *Store) ListHabits(ctx context.Context, activeOnly bool) ([]store.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits"
	if activeOnly {
		query += " WHERE archived = 0"
	}
	query += " ORDER BY position, id"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []store.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

// CreateHabit inserts a habit at the end of the display order.
func (s *Store) CreateHabit(name, category string) (*store.Habit, error) {
	id := store.Slugify(name)
	if id == "" {
		return nil, fmt.Errorf("habit name %q has no usable characters", name)
	}

	now := s.now()
	h := &store.Habit{
		ID:       id,
		Name:     strings.TrimSpace(name),
		Category: strings.TrimSpace(category),
		Created:  now,
		Updated:  now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM habits WHERE id = ?", id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check habit: %w", err)
	}
	if exists > 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrHabitExists, id)
	}

	_, err := s.db.Exec(`
		INSERT INTO habits (id, name, category, archived, position, created_at, updated_at)
		VALUES (?, ?, ?, 0, (SELECT COALESCE(MAX(position), -1) + 1 FROM habits), ?, ?)`,
		h.ID, h.Name, h.Category, now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	return h, nil
}

func (s *Store) updateHabit(id, set string, args ...any) (*store.Habit, error) {
	args = append(args, s.now().Format(timeLayout), id)
	res, err := s.db.Exec("UPDATE habits SET "+set+", updated_at = ? WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update habit %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrHabitNotFound, id)
	}
	return s.LoadHabit(id)
}

// RenameHabit changes the display name.
func (s *Store) RenameHabit(id, name string) (*store.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("habit name is required")
	}
	return s.updateHabit(id, "name = ?", name)
}

// ArchiveHabit marks a habit archived (or active again).
func (s *Store) ArchiveHabit(id string, archived bool) (*store.Habit, error) {
	flag := 0
	if archived {
		flag = 1
	}
	return s.updateHabit(id, "archived = ?", flag)
}

// DeleteHabit removes a habit and, through the foreign key, its logs.
func (s *Store) DeleteHabit(id string) error {
	res, err := s.db.Exec("DELETE FROM habits WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete habit %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", store.ErrHabitNotFound, id)
	}
	return nil
}

// ReorderHabit swaps a habit with its neighbour (delta: -1 for up, +1 for down).
func (s *Store) ReorderHabit(id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	habits, err := s.ListHabits(context.Background(), false)
	if err != nil {
		return err
	}

	idx := -1
	for i, h := range habits {
		if h.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: %s", store.ErrHabitNotFound, id)
	}
	newIdx := idx + delta
	if newIdx < 0 || newIdx >= len(habits) {
		return nil
	}
	habits[idx], habits[newIdx] = habits[newIdx], habits[idx]

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for pos, h := range habits {
		if _, err := tx.Exec("UPDATE habits SET position = ? WHERE id = ?", pos, h.ID); err != nil {
			return fmt.Errorf("reorder %s: %w", h.ID, err)
		}
	}
	return tx.Commit()
}

const logColumns = "l.id, l.habit_id, l.date, l.status, l.notes, l.timestamp"

func scanLog(row rowScanner) (store.LogEntry, error) {
	var (
		e  store.LogEntry
		ts string
	)
	if err := row.Scan(&e.ID, &e.HabitID, &e.Date, &e.Status, &e.Notes, &ts); err != nil {
		return store.LogEntry{}, err
	}
	e.Timestamp, _ = time.Parse(timeLayout, ts)
	return e, nil
}

// ListLogs returns entries matching filter, ordered by habit display order
// and then date.
func (s *Store) ListLogs(ctx context.Context, filter store.LogFilter) ([]store.LogEntry, error) {
	if filter.HabitID != "" {
		if _, err := s.loadHabit(ctx, s.db, filter.HabitID); err != nil {
			return nil, err
		}
	}

	var (
		where []string
		args  []any
	)
	if filter.HabitID != "" {
		where = append(where, "l.habit_id = ?")
		args = append(args, filter.HabitID)
	}
	if filter.Date != "" {
		where = append(where, "l.date = ?")
		args = append(args, filter.Date)
	}
	if filter.From != "" {
		where = append(where, "l.date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "l.date <= ?")
		args = append(args, filter.To)
	}

	query := "SELECT " + logColumns + " FROM habit_logs l JOIN habits h ON h.id = l.habit_id"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY h.position, h.id, l.date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var out []store.LogEntry
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// upsert applies fn to the entry for (id, date), creating it when absent.
func (s *Store) upsert(id, date string, fn func(e *store.LogEntry)) (store.LogEntry, error) {
	if _, err := time.Parse(store.DateLayout, date); err != nil {
		return store.LogEntry{}, fmt.Errorf("%w: date %q: %v", store.ErrInvalidEntry, date, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.LogEntry{}, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.loadHabit(ctx, tx, id); err != nil {
		return store.LogEntry{}, err
	}

	row := tx.QueryRowContext(ctx,
		"SELECT "+logColumns+" FROM habit_logs l WHERE l.habit_id = ? AND l.date = ?", id, date)
	e, err := scanLog(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		e = store.LogEntry{ID: uuid.NewString(), HabitID: id, Date: date}
	case err != nil:
		return store.LogEntry{}, fmt.Errorf("load log %s/%s: %w", id, date, err)
	}

	fn(&e)
	e.Timestamp = s.now()
	if err := store.ValidateEntry(e); err != nil {
		return store.LogEntry{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO habit_logs (id, habit_id, date, status, notes, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, date) DO UPDATE SET
			status = excluded.status,
			notes = excluded.notes,
			timestamp = excluded.timestamp`,
		e.ID, e.HabitID, e.Date, string(e.Status), e.Notes, e.Timestamp.Format(timeLayout))
	if err != nil {
		return store.LogEntry{}, fmt.Errorf("save log %s/%s: %w", id, date, err)
	}
	if err := tx.Commit(); err != nil {
		return store.LogEntry{}, fmt.Errorf("commit log %s/%s: %w", id, date, err)
	}
	return e, nil
}

// SetStatus records status for the habit on date.
func (s *Store) SetStatus(id, date string, status store.LogStatus) (store.LogEntry, error) {
	return s.upsert(id, date, func(e *store.LogEntry) {
		e.Status = status
	})
}

// ToggleStatus advances the day's status through the toggle cycle.
func (s *Store) ToggleStatus(id, date string) (store.LogEntry, error) {
	return s.upsert(id, date, func(e *store.LogEntry) {
		e.Status = store.NextStatus(e.Status)
	})
}

// SetNote replaces the notes for the habit on date.
func (s *Store) SetNote(id, date, text string) (store.LogEntry, error) {
	return s.upsert(id, date, func(e *store.LogEntry) {
		if e.Status == "" {
			e.Status = store.StatusNoData
		}
		e.Notes = strings.TrimSpace(text)
	})
}

// SearchNotes returns entries whose notes contain query, ignoring case.
func (s *Store) SearchNotes(ctx context.Context, query string) ([]store.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+logColumns+" FROM habit_logs l JOIN habits h ON h.id = l.habit_id"+
			" WHERE l.notes != '' AND instr(lower(l.notes), lower(?)) > 0"+
			" ORDER BY h.position, h.id, l.date", query)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	var out []store.LogEntry
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
