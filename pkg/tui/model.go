package tui

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/stefanpenner/habitual/pkg/analytics"
	"github.com/stefanpenner/habitual/pkg/reflection"
	"github.com/stefanpenner/habitual/pkg/store"
	hsync "github.com/stefanpenner/habitual/pkg/sync"
)

// FileChangedMsg is sent when the file watcher detects changes.
type FileChangedMsg struct{}

// SyncDoneMsg is sent when git sync completes.
type SyncDoneMsg struct {
	Err error
}

// ReflectionDoneMsg carries the result of a check-in.
type ReflectionDoneMsg struct {
	Reflection reflection.Reflection
}

type inputKind int

const (
	inputNone inputKind = iota
	inputAdd
	inputRename
	inputCheckIn
)

// Model is the Bubble Tea model for the habit tracker.
type Model struct {
	repo      store.Repository
	reflector *reflection.Reflector
	syncer    *hsync.Repo
	logger    *zap.Logger
	keys      KeyMap
	now       func() time.Time

	width  int
	height int

	habits      []store.Habit
	logs        []store.LogEntry
	allItems    []HabitItem
	items       []HabitItem
	cursor      int
	day         time.Time // selected calendar day, local midnight
	focusedPane int       // 0 = habits, 1 = details
	notesScroll int

	// Modal state
	showHelpModal     bool
	showDeleteConfirm bool
	deleteTarget      string
	showReflection    bool
	lastReflection    *reflection.Reflection
	isReflecting      bool

	// Single-line input (add, rename, check-in note)
	inputMode    inputKind
	textInput    textinput.Model
	renameTarget string

	// Inline note editing
	isEditing  bool
	noteEditor textarea.Model
	editTarget string
	editDate   string

	// Search state
	isSearching bool
	searchQuery string

	// Status changes made today since the last check-in, by habit id.
	pending map[string]reflection.PendingChange

	// Status message
	statusMsg     string
	statusTimeout time.Time

	// Cached glamour renderer for habit descriptions (expensive to create)
	glamourRenderer *glamour.TermRenderer
	glamourWidth    int
}

// NewModel creates a new TUI model. reflector and syncer may be nil.
func NewModel(repo store.Repository, reflector *reflection.Reflector, syncer *hsync.Repo, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	ti := textinput.New()
	ti.CharLimit = 64

	m := Model{
		repo:      repo,
		reflector: reflector,
		syncer:    syncer,
		logger:    logger,
		keys:      DefaultKeyMap(),
		now:       time.Now,
		textInput: ti,
		pending:   make(map[string]reflection.PendingChange),
	}
	m.day = startOfDay(m.now())
	return m
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.getGlamourRenderer(m.detailWidth() - 2)
		if m.isEditing {
			m.sizeEditor()
		}
		m.reload()
		return m, tea.ClearScreen

	case FileChangedMsg:
		m.reload()
		return m, nil

	case SyncDoneMsg:
		if msg.Err != nil {
			m.setStatus("Sync failed: " + msg.Err.Error())
		} else {
			m.setStatus("Synced successfully")
			m.reload()
		}
		return m, nil

	case ReflectionDoneMsg:
		m.isReflecting = false
		r := msg.Reflection
		m.lastReflection = &r
		m.showReflection = true
		m.pending = make(map[string]reflection.PendingChange)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.inputMode != inputNone {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	if m.isEditing {
		var cmd tea.Cmd
		m.noteEditor, cmd = m.noteEditor.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode != inputNone {
		return m.handleInput(msg)
	}

	if m.isEditing {
		return m.handleEditMode(msg)
	}

	if m.isSearching {
		return m.handleSearchInput(msg)
	}

	if m.showHelpModal {
		switch msg.String() {
		case "esc", "enter", "?", "q":
			m.showHelpModal = false
		}
		return m, nil
	}

	if m.showReflection {
		switch msg.String() {
		case "esc", "enter", "q", "c":
			m.showReflection = false
		}
		return m, nil
	}

	if m.showDeleteConfirm {
		switch msg.String() {
		case "y", "Y":
			if err := m.repo.DeleteHabit(m.deleteTarget); err != nil {
				m.setStatus("Delete failed: " + err.Error())
			} else {
				m.setStatus("Deleted: " + m.deleteTarget)
				delete(m.pending, m.deleteTarget)
				m.reload()
			}
			m.showDeleteConfirm = false
		case "n", "N", "esc":
			m.showDeleteConfirm = false
		}
		return m, nil
	}

	// An applied (not typing) search filter is cleared by Esc.
	if m.searchQuery != "" && msg.Type == tea.KeyEsc {
		m.searchQuery = ""
		m.rebuildVisible()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.focusedPane == 1 {
			if m.notesScroll > 0 {
				m.notesScroll--
			}
		} else {
			m.moveCursor(-1)
		}

	case key.Matches(msg, m.keys.Down):
		if m.focusedPane == 1 {
			m.notesScroll++
		} else {
			m.moveCursor(1)
		}

	case key.Matches(msg, m.keys.PrevDay):
		m.shiftDay(-1)

	case key.Matches(msg, m.keys.NextDay):
		m.shiftDay(1)

	case key.Matches(msg, m.keys.Today):
		m.day = startOfDay(m.now())
		m.reload()

	case key.Matches(msg, m.keys.Space):
		if item, ok := m.selected(); ok {
			m.record(item, func(id, date string) (store.LogEntry, error) {
				return m.repo.ToggleStatus(id, date)
			})
		}

	case key.Matches(msg, m.keys.Done):
		if item, ok := m.selected(); ok {
			m.record(item, func(id, date string) (store.LogEntry, error) {
				return m.repo.SetStatus(id, date, store.StatusDone)
			})
		}

	case key.Matches(msg, m.keys.Skip):
		if item, ok := m.selected(); ok {
			m.record(item, func(id, date string) (store.LogEntry, error) {
				return m.repo.SetStatus(id, date, store.StatusNotDone)
			})
		}

	case key.Matches(msg, m.keys.Tab):
		m.focusedPane = (m.focusedPane + 1) % 2

	case key.Matches(msg, m.keys.InlineEdit):
		if item, ok := m.selected(); ok {
			m.enterEditMode(item)
			return m, textarea.Blink
		}

	case key.Matches(msg, m.keys.Add):
		return m, m.startInput(inputAdd, "", "habit name")

	case key.Matches(msg, m.keys.Rename):
		if item, ok := m.selected(); ok {
			m.renameTarget = item.ID
			return m, m.startInput(inputRename, item.Name, "new name")
		}

	case key.Matches(msg, m.keys.Archive):
		if item, ok := m.selected(); ok {
			if _, err := m.repo.ArchiveHabit(item.ID, true); err != nil {
				m.setStatus("Error: " + err.Error())
			} else {
				m.setStatus("Archived: " + item.Name)
				m.reload()
			}
		}

	case key.Matches(msg, m.keys.Delete):
		if item, ok := m.selected(); ok {
			m.deleteTarget = item.ID
			m.showDeleteConfirm = true
		}

	case key.Matches(msg, m.keys.MoveUp):
		m.reorder(-1)

	case key.Matches(msg, m.keys.MoveDown):
		m.reorder(1)

	case key.Matches(msg, m.keys.Reflect):
		if m.isReflecting {
			break
		}
		if m.reflector == nil {
			m.setStatus("Reflections are not configured")
			break
		}
		return m, m.startInput(inputCheckIn, "", "how did today go? (optional)")

	case key.Matches(msg, m.keys.Reload):
		m.reload()
		m.setStatus("Reloaded")

	case key.Matches(msg, m.keys.Sync):
		return m, m.doSync()

	case key.Matches(msg, m.keys.Search):
		m.isSearching = true
		m.searchQuery = ""
		m.rebuildVisible()

	case key.Matches(msg, m.keys.Help):
		m.showHelpModal = !m.showHelpModal
	}

	return m, nil
}

func (m *Model) startInput(kind inputKind, value, placeholder string) tea.Cmd {
	m.inputMode = kind
	m.textInput.Reset()
	m.textInput.CharLimit = 64
	if kind == inputCheckIn {
		m.textInput.CharLimit = reflection.MaxNoteLength
	}
	m.textInput.SetValue(value)
	m.textInput.Placeholder = placeholder
	m.textInput.Focus()
	return textinput.Blink
}

func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputMode = inputNone
		return m, nil
	case tea.KeyEnter:
		kind := m.inputMode
		m.inputMode = inputNone
		value := strings.TrimSpace(m.textInput.Value())
		switch kind {
		case inputAdd:
			if value == "" {
				return m, nil
			}
			if h, err := m.repo.CreateHabit(value, ""); err != nil {
				m.setStatus("Error: " + err.Error())
			} else {
				m.setStatus("Created: " + h.Name)
				m.reload()
				m.moveCursorTo(h.ID)
			}
		case inputRename:
			if value == "" {
				return m, nil
			}
			if _, err := m.repo.RenameHabit(m.renameTarget, value); err != nil {
				m.setStatus("Error: " + err.Error())
			} else {
				m.setStatus("Renamed to: " + value)
				m.reload()
			}
		case inputCheckIn:
			m.isReflecting = true
			m.setStatus("Reflecting...")
			return m, m.doReflect(value)
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
}

// handleEditMode handles key messages while editing the day's note.
func (m Model) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.saveInlineEdit()
		m.isEditing = false
		m.noteEditor.Blur()
		m.reload()
		return m, nil

	case tea.KeyCtrlS:
		m.saveInlineEdit()
		m.reload()
		return m, nil

	case tea.KeyCtrlC:
		m.isEditing = false
		m.noteEditor.Blur()
		m.setStatus("Edit cancelled")
		return m, nil

	default:
		var cmd tea.Cmd
		m.noteEditor, cmd = m.noteEditor.Update(msg)
		return m, cmd
	}
}

// handleSearchInput handles key messages while typing in the search bar.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isSearching = false
		m.searchQuery = ""
		m.rebuildVisible()
		return m, nil

	case tea.KeyEnter, tea.KeyDown, tea.KeyTab:
		// Keep the filter, leave the search bar.
		m.isSearching = false
		return m, nil

	case tea.KeyBackspace:
		if len(m.searchQuery) > 0 {
			_, size := utf8.DecodeLastRuneInString(m.searchQuery)
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-size]
		}
		m.rebuildVisible()
		return m, nil

	default:
		if msg.Type == tea.KeyRunes {
			m.searchQuery += string(msg.Runes)
			m.rebuildVisible()
		}
		return m, nil
	}
}

// record applies a status change to the selected day and remembers it for
// the next check-in when the day is today.
func (m *Model) record(item HabitItem, apply func(id, date string) (store.LogEntry, error)) {
	date := analytics.DateKey(m.day)
	prev := item.Status()

	e, err := apply(item.ID, date)
	if err != nil {
		m.setStatus("Error: " + err.Error())
		return
	}
	m.logger.Debug("status recorded",
		zap.String("habit", item.ID), zap.String("date", date), zap.String("status", string(e.Status)))

	if date == analytics.DateKey(m.now()) {
		change, seen := m.pending[item.ID]
		if !seen {
			change = reflection.PendingChange{
				HabitID:        item.ID,
				Name:           item.Name,
				PreviousStatus: prev,
			}
			if item.Habit != nil {
				change.Category = item.Habit.Category
			}
		}
		change.Status = e.Status
		m.pending[item.ID] = change
	}
	m.reload()
}

func (m *Model) shiftDay(delta int) {
	next := m.day.AddDate(0, 0, delta)
	if next.After(startOfDay(m.now())) {
		return
	}
	m.day = next
	m.reload()
}

func (m *Model) reorder(delta int) {
	item, ok := m.selected()
	if !ok {
		return
	}
	if err := m.repo.ReorderHabit(item.ID, delta); err != nil {
		m.setStatus("Error: " + err.Error())
		return
	}
	m.reload()
	m.moveCursorTo(item.ID)
}

// enterEditMode sets up the textarea for the selected habit's note on the
// selected day.
func (m *Model) enterEditMode(item HabitItem) {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	if item.Entry != nil {
		ta.SetValue(item.Entry.Notes)
	}
	m.noteEditor = ta
	m.sizeEditor()
	m.noteEditor.Focus()

	m.isEditing = true
	m.editTarget = item.ID
	m.editDate = analytics.DateKey(m.day)
	m.focusedPane = 1
}

// detailWidth is the width of the right-hand panel.
func (m Model) detailWidth() int {
	leftWidth := m.width / 3
	if leftWidth < 24 {
		leftWidth = 24
	}
	rightWidth := m.width - leftWidth - 1
	if rightWidth < 20 {
		rightWidth = 20
	}
	return rightWidth
}

func (m *Model) sizeEditor() {
	rightWidth := m.detailWidth()
	editorHeight := m.height - 5 - 8
	if editorHeight < 3 {
		editorHeight = 3
	}
	m.noteEditor.SetWidth(rightWidth)
	m.noteEditor.SetHeight(editorHeight)
}

// saveInlineEdit writes the textarea content as the day's note.
func (m *Model) saveInlineEdit() {
	if _, err := m.repo.SetNote(m.editTarget, m.editDate, m.noteEditor.Value()); err != nil {
		m.setStatus("Save error: " + err.Error())
		return
	}
	m.setStatus("Saved")
}

func (m *Model) reload() {
	ctx := context.Background()
	habits, err := m.repo.ListHabits(ctx, true)
	if err != nil {
		m.setStatus("Load error: " + err.Error())
		return
	}
	logs, err := m.repo.ListLogs(ctx, store.LogFilter{})
	if err != nil {
		m.setStatus("Load error: " + err.Error())
		return
	}
	m.habits = habits
	m.logs = logs
	m.allItems = BuildHabitItems(habits, logs, analytics.DateKey(m.day), m.now())
	m.rebuildVisible()
}

func (m *Model) rebuildVisible() {
	m.items = FilterItems(m.allItems, m.searchQuery)

	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	// Skip section headers
	if m.cursor < len(m.items) && m.items[m.cursor].IsSectionHeader {
		for i := m.cursor; i < len(m.items); i++ {
			if !m.items[i].IsSectionHeader {
				m.cursor = i
				return
			}
		}
	}
}

func (m *Model) moveCursor(delta int) {
	for i := m.cursor + delta; i >= 0 && i < len(m.items); i += delta {
		if !m.items[i].IsSectionHeader {
			m.cursor = i
			m.notesScroll = 0
			return
		}
	}
}

func (m *Model) moveCursorTo(id string) {
	for i, it := range m.items {
		if it.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) selected() (HabitItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return HabitItem{}, false
	}
	item := m.items[m.cursor]
	if item.IsSectionHeader {
		return HabitItem{}, false
	}
	return item, true
}

// getGlamourRenderer returns a cached glamour renderer, creating one if needed
// or if the width changed.
func (m *Model) getGlamourRenderer(width int) *glamour.TermRenderer {
	if m.glamourRenderer != nil && m.glamourWidth == width {
		return m.glamourRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.logger.Debug("glamour renderer", zap.Error(err))
		return nil
	}
	m.glamourRenderer = r
	m.glamourWidth = width
	return r
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTimeout = time.Now().Add(3 * time.Second)
}

func (m Model) doReflect(note string) tea.Cmd {
	pending := make(map[string]reflection.PendingChange, len(m.pending))
	for k, v := range m.pending {
		pending[k] = v
	}
	reflector := m.reflector
	return func() tea.Msg {
		return ReflectionDoneMsg{Reflection: reflector.Reflect(context.Background(), pending, note)}
	}
}

func (m Model) doSync() tea.Cmd {
	if m.syncer == nil {
		return func() tea.Msg {
			return SyncDoneMsg{Err: hsync.ErrNotRepository}
		}
	}
	syncer := m.syncer
	return func() tea.Msg {
		return SyncDoneMsg{Err: syncer.Sync(context.Background())}
	}
}
