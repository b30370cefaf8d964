package tui

import (
	"strings"
	"time"

	"github.com/stefanpenner/habitual/pkg/analytics"
	"github.com/stefanpenner/habitual/pkg/store"
)

// HabitItem is one row of the habit list for the selected day.
type HabitItem struct {
	ID              string
	Name            string
	Habit           *store.Habit
	Entry           *store.LogEntry // nil when the day has no entry
	Streak          analytics.StreakResult
	Completion      analytics.CompletionStats
	IsSectionHeader bool // category header
}

// Status returns the day's status, empty when nothing was logged.
func (it HabitItem) Status() store.LogStatus {
	if it.Entry == nil {
		return ""
	}
	return it.Entry.Status
}

// BuildHabitItems returns one item per habit for day, grouped under
// category headers when more than one category is in use. Streaks are
// measured as of now.
func BuildHabitItems(habits []store.Habit, logs []store.LogEntry, day string, now time.Time) []HabitItem {
	byHabit := make(map[string][]store.LogEntry)
	for _, e := range logs {
		byHabit[e.HabitID] = append(byHabit[e.HabitID], e)
	}

	var (
		order      []string
		categories = make(map[string][]HabitItem)
	)
	for i := range habits {
		h := &habits[i]
		hl := byHabit[h.ID]
		item := HabitItem{
			ID:         h.ID,
			Name:       h.DisplayName(),
			Habit:      h,
			Streak:     analytics.Streaks(hl, now),
			Completion: analytics.Completion(hl),
		}
		for j := range hl {
			if hl[j].Date == day {
				e := hl[j]
				item.Entry = &e
			}
		}
		if _, ok := categories[h.Category]; !ok {
			order = append(order, h.Category)
		}
		categories[h.Category] = append(categories[h.Category], item)
	}

	if len(order) <= 1 {
		var result []HabitItem
		for _, c := range order {
			result = append(result, categories[c]...)
		}
		return result
	}

	var result []HabitItem
	for _, c := range order {
		name := strings.ToUpper(c)
		if c == "" {
			name = "OTHER"
		}
		result = append(result, HabitItem{ID: "_category_" + c, Name: name, IsSectionHeader: true})
		result = append(result, categories[c]...)
	}
	return result
}

// FilterItems keeps habits whose name contains query (case-insensitive),
// plus the headers of categories that still have a match.
func FilterItems(items []HabitItem, query string) []HabitItem {
	if query == "" {
		return items
	}
	query = strings.ToLower(query)

	var (
		result  []HabitItem
		pending *HabitItem
	)
	for i := range items {
		it := items[i]
		if it.IsSectionHeader {
			pending = &items[i]
			continue
		}
		if !strings.Contains(strings.ToLower(it.Name), query) {
			continue
		}
		if pending != nil {
			result = append(result, *pending)
			pending = nil
		}
		result = append(result, it)
	}
	return result
}

// countDone returns how many habits are done on the selected day.
func countDone(items []HabitItem) (done, total int) {
	for _, it := range items {
		if it.IsSectionHeader {
			continue
		}
		total++
		if it.Status() == store.StatusDone {
			done++
		}
	}
	return done, total
}
