package analytics

import (
	"time"

	"github.com/stefanpenner/habitual/pkg/store"
)

var now = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

// day builds an entry daysBack days before now.
func day(daysBack int, status store.LogStatus) store.LogEntry {
	return store.LogEntry{
		ID:        DateKey(now.AddDate(0, 0, -daysBack)),
		HabitID:   "run",
		Date:      DateKey(now.AddDate(0, 0, -daysBack)),
		Status:    status,
		Timestamp: now.AddDate(0, 0, -daysBack),
	}
}

func noted(daysBack int, status store.LogStatus, notes string) store.LogEntry {
	e := day(daysBack, status)
	e.Notes = notes
	return e
}
