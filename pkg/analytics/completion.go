package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/stefanpenner/habitual/pkg/store"
)

// CompletionStats measures adherence over logged days. no_data entries are
// not logged days and count toward neither side of the ratio.
type CompletionStats struct {
	DoneCount       int     `json:"done_count"`
	TotalLoggedDays int     `json:"total_logged_days"`
	Percentage      float64 `json:"percentage"`
	FractionText    string  `json:"fraction_text"`
	PercentageText  string  `json:"percentage_text"`
}

// String renders "17/20 days - 85%".
func (c CompletionStats) String() string {
	return c.FractionText + " - " + c.PercentageText
}

// Completion computes the done/logged ratio for one habit's logs.
func Completion(logs []store.LogEntry) CompletionStats {
	var stats CompletionStats
	for _, e := range latestPerDay(logs) {
		switch e.Status {
		case store.StatusDone:
			stats.DoneCount++
			stats.TotalLoggedDays++
		case store.StatusNotDone:
			stats.TotalLoggedDays++
		}
	}

	if stats.TotalLoggedDays > 0 {
		raw := float64(stats.DoneCount) / float64(stats.TotalLoggedDays) * 100
		stats.Percentage = math.Round(raw*10) / 10
	}
	stats.FractionText = fmt.Sprintf("%d/%d days", stats.DoneCount, stats.TotalLoggedDays)
	stats.PercentageText = FormatPercentage(stats.Percentage)
	return stats
}

// FormatPercentage drops the decimal for whole numbers: "85%", "85.7%".
func FormatPercentage(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("%.0f%%", p)
	}
	return fmt.Sprintf("%.1f%%", p)
}

// DoneInWindow counts done days within the trailing window of n days
// ending at now, inclusive of today.
func DoneInWindow(logs []store.LogEntry, now time.Time, n int) int {
	count := 0
	for _, e := range latestPerDay(logs) {
		if e.Status == store.StatusDone && InWindow(e.Date, now, n) {
			count++
		}
	}
	return count
}
