package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/habitual/pkg/analytics"
	"github.com/stefanpenner/habitual/pkg/store"
)

const minWidth = 40
const minHeight = 10

// recentNotes is how many dated notes the detail panel lists.
const recentNotes = 10

// View implements tea.Model.
func (m Model) View() string {
	w := m.width
	h := m.height
	if w < minWidth {
		w = minWidth
	}
	if h < minHeight {
		h = minHeight
	}

	if m.showHelpModal {
		return placeOverlay(m.renderHelpModal(), w, h)
	}
	if m.showDeleteConfirm {
		return placeOverlay(m.renderDeleteModal(), w, h)
	}
	if m.showReflection && m.lastReflection != nil {
		return placeOverlay(m.renderReflectionModal(w), w, h)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader(w))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")

	headerLines := 2
	footerLines := 2

	barActive := m.isSearching || m.searchQuery != "" || m.inputMode != inputNone
	if barActive {
		headerLines++
		b.WriteString(m.renderInputBar(w))
		b.WriteString("\n")
	}

	contentHeight := h - headerLines - footerLines

	rightWidth := m.detailWidth()
	leftWidth := w - rightWidth - 1
	if leftWidth < 24 {
		leftWidth = 24
	}

	leftPanel := m.renderHabitPanel(leftWidth, contentHeight)
	rightPanel := m.renderDetailPanel(rightWidth, contentHeight)

	sepColor := ColorGrayDim
	if m.focusedPane == 1 || m.isEditing {
		sepColor = ColorPurple
	}
	sep := lipgloss.NewStyle().Foreground(sepColor).Render("│")
	for i := 0; i < contentHeight; i++ {
		b.WriteString(getLine(leftPanel, i, leftWidth))
		b.WriteString(sep)
		b.WriteString(getLine(rightPanel, i, rightWidth))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(w))

	return b.String()
}

func (m Model) renderHeader(width int) string {
	title := HeaderStyle.Render("Habits")

	dayStyle := DayStyle
	label := m.day.Format("Mon Jan 2")
	if today := startOfDay(m.now()); m.day.Equal(today) {
		label = "Today · " + label
	} else {
		dayStyle = PastDayStyle
	}
	day := " " + dayStyle.Render(label)

	done, total := countDone(m.allItems)
	stats := HeaderCountStyle.Render(fmt.Sprintf("%d/%d done", done, total))
	if n := len(m.pending); n > 0 {
		stats = HeaderCountStyle.Render(fmt.Sprintf("%d unreflected  ", n)) + stats
	}

	status := ""
	if m.statusMsg != "" && time.Now().Before(m.statusTimeout) {
		status = "  " + lipgloss.NewStyle().Foreground(ColorCyan).Render(m.statusMsg)
	}

	gap := width - lipgloss.Width(title) - lipgloss.Width(day) - lipgloss.Width(stats) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return title + day + strings.Repeat(" ", gap) + status + stats
}

func (m Model) renderInputBar(width int) string {
	var prompt string
	switch m.inputMode {
	case inputAdd:
		prompt = "add: "
	case inputRename:
		prompt = "rename: "
	case inputCheckIn:
		prompt = "check in: "
	default:
		prompt = "/"
		count := SearchCountStyle.Render(fmt.Sprintf("  %d matches", countHabits(m.items)))
		cursor := ""
		if m.isSearching {
			cursor = "█"
		}
		return InputPromptStyle.Render(prompt) + SearchBarStyle.Render(m.searchQuery+cursor) + count
	}
	m.textInput.Width = width - len(prompt) - 2
	return InputPromptStyle.Render(prompt) + m.textInput.View()
}

func (m Model) renderHabitPanel(width, height int) string {
	if len(m.items) == 0 {
		msg := "No habits yet. Press a to add one."
		if m.searchQuery != "" {
			msg = "No habits match."
		}
		return NoDataStyle.Render(msg)
	}

	// Keep the cursor in view.
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}

	var lines []string
	for i := start; i < len(m.items) && len(lines) < height; i++ {
		item := m.items[i]
		if item.IsSectionHeader {
			lines = append(lines, SectionStyle.Render(item.Name))
			continue
		}
		lines = append(lines, m.renderHabitRow(item, i == m.cursor && m.focusedPane == 0, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHabitRow(item HabitItem, isSelected bool, width int) string {
	streak := ""
	if item.Streak.Current > 0 {
		streak = StreakStyle.Render(fmt.Sprintf("%s%d", IconStreak, item.Streak.Current))
	}

	nameWidth := width - 4 - lipgloss.Width(streak)
	name := item.Name
	if lipgloss.Width(name) > nameWidth && nameWidth > 1 {
		name = string([]rune(name)[:nameWidth-1]) + "…"
	}

	style := NormalStyle
	if isSelected {
		style = SelectedStyle
	}
	row := " " + statusIcon(item.Status()) + " " + style.Render(name)
	gap := width - lipgloss.Width(row) - lipgloss.Width(streak)
	if gap < 1 {
		gap = 1
	}
	return row + strings.Repeat(" ", gap) + streak
}

func (m Model) renderDetailPanel(width, height int) string {
	item, ok := m.selected()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(DetailTitleStyle.Render(item.Name))
	if item.Habit != nil && item.Habit.Category != "" {
		b.WriteString(HeaderCountStyle.Render("  " + item.Habit.Category))
	}
	b.WriteString("\n\n")

	if m.isEditing && m.editTarget == item.ID {
		b.WriteString(DetailLabelStyle.Render("Note for " + m.editDate))
		b.WriteString("\n")
		b.WriteString(m.noteEditor.View())
		return b.String()
	}

	if item.Habit != nil && strings.TrimSpace(item.Habit.Description) != "" {
		b.WriteString(m.renderDescription(item.Habit.Description))
		b.WriteString("\n")
	}

	habitLogs := analytics.FilterHabit(m.logs, item.ID)
	now := m.now()

	row := func(label, value string) {
		b.WriteString(DetailLabelStyle.Render(label))
		b.WriteString(DetailValueStyle.Render(value))
		b.WriteString("\n")
	}
	row("Current", fmt.Sprintf("%d days", item.Streak.Current))
	row("Longest", fmt.Sprintf("%d days", item.Streak.Longest))
	if item.Completion.TotalLoggedDays > 0 {
		row("Completion", item.Completion.String())
	} else {
		row("Completion", "no days logged")
	}
	row("Last 7 days", fmt.Sprintf("%d done", analytics.DoneInWindow(habitLogs, now, 7)))
	row("Last 30 days", fmt.Sprintf("%d done", analytics.DoneInWindow(habitLogs, now, 30)))
	b.WriteString("\n")

	analysis := analytics.AnalyzeNotes(habitLogs)
	b.WriteString(ModalTitleStyle.Render("Notes"))
	b.WriteString("\n")
	if !analysis.HasEnoughData {
		b.WriteString(NoDataStyle.Render(fmt.Sprintf(
			"Add at least %d notes to see patterns (%d so far).", analytics.MinNotes, analysis.TotalNotes)))
		b.WriteString("\n")
	} else {
		var kw []string
		for _, k := range analysis.Keywords {
			kw = append(kw, KeywordStyle.Render(k))
		}
		row("Keywords", strings.Join(kw, ", "))
		s := analysis.Sentiment
		row("Sentiment", fmt.Sprintf("%d positive, %d negative, %d neutral (avg %.1f)",
			s.Positive, s.Negative, s.Neutral, s.AverageScore))
		b.WriteString(wrap(analysis.CorrelationText, width-2))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	shown := 0
	for i := len(habitLogs) - 1; i >= 0 && shown < recentNotes; i-- {
		e := habitLogs[i]
		if !e.HasNotes() {
			continue
		}
		b.WriteString(NoteDateStyle.Render(e.Date))
		b.WriteString(" ")
		b.WriteString(statusIcon(e.Status))
		b.WriteString(" ")
		b.WriteString(e.Notes)
		b.WriteString("\n")
		shown++
	}

	lines := strings.Split(b.String(), "\n")
	scroll := m.notesScroll
	if scroll > len(lines)-1 {
		scroll = len(lines) - 1
	}
	if scroll < 0 {
		scroll = 0
	}
	lines = lines[scroll:]
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// renderDescription renders a habit's markdown description, falling back to
// the raw text before the first window size arrives.
func (m Model) renderDescription(desc string) string {
	if m.glamourRenderer == nil {
		return DetailValueStyle.Render(strings.TrimSpace(desc)) + "\n"
	}
	out, err := m.glamourRenderer.Render(desc)
	if err != nil {
		return DetailValueStyle.Render(strings.TrimSpace(desc)) + "\n"
	}
	return strings.Trim(out, "\n") + "\n"
}

func (m Model) renderFooter(width int) string {
	help := m.keys.ShortHelp()
	if m.inputMode != inputNone {
		help = "enter confirm  esc cancel"
	} else if m.isEditing {
		help = "esc save & exit  ctrl+s save  ctrl+c cancel"
	} else if m.isSearching {
		help = "type to search  enter/↓ keep filter  esc clear"
	} else if m.searchQuery != "" {
		help = "esc clear filter  ↑↓ nav"
	} else if m.focusedPane == 1 {
		help = "↑↓ scroll details  tab habits  e note  ? help"
	}
	return FooterStyle.Render(help)
}

func (m Model) renderHelpModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(ColorBlue).Width(16)
	descStyle := lipgloss.NewStyle().Foreground(ColorWhite)

	for _, binding := range m.keys.FullHelp() {
		b.WriteString(keyStyle.Render(binding[0]))
		b.WriteString(descStyle.Render(binding[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc or ? to close"))

	return ModalStyle.Render(b.String())
}

func (m Model) renderDeleteModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Delete Habit"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Delete '%s' and its whole history?\n\n", m.deleteTarget))
	b.WriteString(lipgloss.NewStyle().Foreground(ColorGreen).Render("[y]") + " Yes  ")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorRed).Render("[n]") + " No")

	return ModalStyle.Render(b.String())
}

func (m Model) renderReflectionModal(width int) string {
	r := m.lastReflection
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Reflection"))
	b.WriteString("\n\n")
	b.WriteString(wrap(r.Text, min(60, width-8)))
	b.WriteString("\n")
	if obs := r.Payload.RecentSummary.NotableObservations; len(obs) > 0 {
		b.WriteString("\n")
		for _, o := range obs {
			b.WriteString(KeywordStyle.Render("• " + o))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc to close"))

	return ModalStyle.Render(b.String())
}

func statusIcon(s store.LogStatus) string {
	switch s {
	case store.StatusDone:
		return DoneStyle.Render(IconDone)
	case store.StatusNotDone:
		return NotDoneStyle.Render(IconNotDone)
	case store.StatusNoData:
		return NoDataStyle.Render(IconNoData)
	default:
		return UnloggedStyle.Render(IconUnlogged)
	}
}

// wrap breaks text on spaces so no line exceeds width.
func wrap(text string, width int) string {
	if width < 10 {
		return text
	}
	var (
		b    strings.Builder
		line int
	)
	for i, word := range strings.Fields(text) {
		wl := lipgloss.Width(word)
		if i > 0 {
			if line+1+wl > width {
				b.WriteString("\n")
				line = 0
			} else {
				b.WriteString(" ")
				line++
			}
		}
		b.WriteString(word)
		line += wl
	}
	return b.String()
}

// Helper functions

func getLine(block string, idx int, width int) string {
	lines := strings.Split(block, "\n")
	if idx < len(lines) {
		line := lines[idx]
		lineWidth := lipgloss.Width(line)
		if lineWidth < width {
			return line + strings.Repeat(" ", width-lineWidth)
		}
		return line
	}
	return strings.Repeat(" ", width)
}

func placeOverlay(modal string, width, height int) string {
	modalLines := strings.Split(modal, "\n")

	topPadding := (height - len(modalLines)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	leftPadding := (width - lipgloss.Width(modalLines[0])) / 2
	if leftPadding < 0 {
		leftPadding = 0
	}

	var result strings.Builder
	for i := 0; i < topPadding; i++ {
		result.WriteString("\n")
	}

	for _, line := range modalLines {
		result.WriteString(strings.Repeat(" ", leftPadding))
		result.WriteString(line)
		result.WriteString("\n")
	}

	return result.String()
}

func countHabits(items []HabitItem) int {
	count := 0
	for _, it := range items {
		if !it.IsSectionHeader {
			count++
		}
	}
	return count
}
