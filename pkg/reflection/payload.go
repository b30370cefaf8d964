package reflection

import "github.com/stefanpenner/habitual/pkg/store"

// PendingChange is a status change the user just made in this session.
type PendingChange struct {
	HabitID        string
	Name           string
	Category       string
	Status         store.LogStatus
	PreviousStatus store.LogStatus // empty when the day had no entry
}

// HabitSnapshot describes one touched habit inside a Payload.
type HabitSnapshot struct {
	Name                string          `json:"name"`
	Status              store.LogStatus `json:"status"`
	PreviousStatus      store.LogStatus `json:"previous_status,omitempty"`
	StreakDays          int             `json:"streak_days"`
	CompletedLast7Days  int             `json:"completed_last_7_days"`
	CompletedLast30Days int             `json:"completed_last_30_days"`
	Category            string          `json:"category,omitempty"`
}

// RecentSummary is the cross-habit part of a Payload.
type RecentSummary struct {
	DaysTrackedLast7    int      `json:"days_tracked_last_7"`
	DaysTrackedLast30   int      `json:"days_tracked_last_30"`
	NotableObservations []string `json:"notable_observations"`
}

// Payload is handed to a text generator to write a personal reflection.
type Payload struct {
	Date          string          `json:"date"`
	TimeOfDay     string          `json:"time_of_day"`
	Note          string          `json:"note"`
	Habits        []HabitSnapshot `json:"habits"`
	RecentSummary RecentSummary   `json:"recent_summary"`
}

const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
)

// TimeOfDay buckets an hour: [5,12) morning, [12,18) afternoon, otherwise evening.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 18:
		return Afternoon
	default:
		return Evening
	}
}
