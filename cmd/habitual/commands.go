package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/habitual/pkg/analytics"
	"github.com/stefanpenner/habitual/pkg/reflection"
	"github.com/stefanpenner/habitual/pkg/store"
	hsync "github.com/stefanpenner/habitual/pkg/sync"
)

// habitSummary is the list/stats view of one habit.
type habitSummary struct {
	ID            string                    `json:"id"`
	Name          string                    `json:"name"`
	Category      string                    `json:"category,omitempty"`
	Archived      bool                      `json:"archived,omitempty"`
	Today         store.LogStatus           `json:"today,omitempty"`
	CurrentStreak int                       `json:"current_streak"`
	LongestStreak int                       `json:"longest_streak"`
	Completion    analytics.CompletionStats `json:"completion"`
	Last7Days     int                       `json:"completed_last_7_days"`
	Last30Days    int                       `json:"completed_last_30_days"`
}

func summarize(h store.Habit, logs []store.LogEntry, now time.Time) habitSummary {
	streaks := analytics.Streaks(logs, now)
	sum := habitSummary{
		ID:            h.ID,
		Name:          h.DisplayName(),
		Category:      h.Category,
		Archived:      h.Archived,
		CurrentStreak: streaks.Current,
		LongestStreak: streaks.Longest,
		Completion:    analytics.Completion(logs),
		Last7Days:     analytics.DoneInWindow(logs, now, 7),
		Last30Days:    analytics.DoneInWindow(logs, now, 30),
	}
	today := analytics.DateKey(now)
	for _, e := range logs {
		if e.Date == today {
			sum.Today = e.Status
		}
	}
	return sum
}

func statusIcon(s store.LogStatus) string {
	switch s {
	case store.StatusDone:
		return "✓"
	case store.StatusNotDone:
		return "✗"
	case store.StatusNoData:
		return "·"
	default:
		return "○"
	}
}

// resolveHabit accepts either a habit id or its display name.
func (a *app) resolveHabit(arg string) (*store.Habit, error) {
	return a.repo.LoadHabit(store.Slugify(arg))
}

// parseDate accepts today, yesterday or YYYY-MM-DD.
func parseDate(s string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return analytics.DateKey(now), nil
	case "yesterday":
		return analytics.DateKey(now.AddDate(0, 0, -1)), nil
	}
	if _, err := time.Parse(store.DateLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q (use today, yesterday or YYYY-MM-DD)", s)
	}
	return s, nil
}

func (a *app) listCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List habits with today's status and streaks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.ctx(cmd)
			habits, err := a.repo.ListHabits(ctx, !all)
			if err != nil {
				return err
			}
			logs, err := a.repo.ListLogs(ctx, store.LogFilter{})
			if err != nil {
				return err
			}

			now := a.now()
			sums := make([]habitSummary, 0, len(habits))
			for _, h := range habits {
				sums = append(sums, summarize(h, analytics.FilterHabit(logs, h.ID), now))
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return outputJSON(out, sums)
			}
			if len(sums) == 0 {
				fmt.Fprintln(out, "No habits yet. Add one with: habitual add <name>")
				return nil
			}
			for _, s := range sums {
				line := fmt.Sprintf("%s %s", statusIcon(s.Today), s.Name)
				if s.CurrentStreak > 0 {
					line += fmt.Sprintf("  (%d-day streak)", s.CurrentStreak)
				}
				if s.Archived {
					line += "  [archived]"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include archived habits")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a habit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.repo.CreateHabit(strings.Join(args, " "), category)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return outputJSON(out, h)
			}
			fmt.Fprintf(out, "Created: %s (%s)\n", h.Name, h.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "optional grouping label")
	return cmd
}

func (a *app) printEntry(out io.Writer, h *store.Habit, e store.LogEntry) error {
	if a.jsonOutput {
		return outputJSON(out, e)
	}
	fmt.Fprintf(out, "%s %s → %s\n", h.DisplayName(), e.Date, e.Status)
	return nil
}

func (a *app) statusCmd(name string, status store.LogStatus, short string) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   name + " <habit>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.resolveHabit(args[0])
			if err != nil {
				return err
			}
			day, err := parseDate(date, a.now())
			if err != nil {
				return err
			}
			e, err := a.repo.SetStatus(h.ID, day, status)
			if err != nil {
				return err
			}
			return a.printEntry(cmd.OutOrStdout(), h, e)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to record (today, yesterday or YYYY-MM-DD)")
	return cmd
}

func (a *app) toggleCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "toggle <habit>",
		Short: "Cycle a day through done, not done and no data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.resolveHabit(args[0])
			if err != nil {
				return err
			}
			day, err := parseDate(date, a.now())
			if err != nil {
				return err
			}
			e, err := a.repo.ToggleStatus(h.ID, day)
			if err != nil {
				return err
			}
			return a.printEntry(cmd.OutOrStdout(), h, e)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to toggle (today, yesterday or YYYY-MM-DD)")
	return cmd
}

func (a *app) noteCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "note <habit> <text>",
		Short: "Write the note for a day",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.resolveHabit(args[0])
			if err != nil {
				return err
			}
			day, err := parseDate(date, a.now())
			if err != nil {
				return err
			}
			e, err := a.repo.SetNote(h.ID, day, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return outputJSON(out, e)
			}
			fmt.Fprintf(out, "Note saved for %s on %s\n", h.DisplayName(), e.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day of the note (today, yesterday or YYYY-MM-DD)")
	return cmd
}

func (a *app) habitLogs(cmd *cobra.Command, arg string) (*store.Habit, []store.LogEntry, error) {
	h, err := a.resolveHabit(arg)
	if err != nil {
		return nil, nil, err
	}
	logs, err := a.repo.ListLogs(a.ctx(cmd), store.LogFilter{HabitID: h.ID})
	if err != nil {
		return nil, nil, err
	}
	return h, logs, nil
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <habit>",
		Short: "Show streaks and completion for a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, logs, err := a.habitLogs(cmd, args[0])
			if err != nil {
				return err
			}
			sum := summarize(*h, logs, a.now())

			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return outputJSON(out, sum)
			}
			fmt.Fprintln(out, sum.Name)
			fmt.Fprintf(out, "Current streak: %d days\n", sum.CurrentStreak)
			fmt.Fprintf(out, "Longest streak: %d days\n", sum.LongestStreak)
			fmt.Fprintf(out, "Completion:     %s\n", sum.Completion)
			fmt.Fprintf(out, "Last 7 days:    %d done\n", sum.Last7Days)
			fmt.Fprintf(out, "Last 30 days:   %d done\n", sum.Last30Days)
			return nil
		},
	}
}

func (a *app) notesCmd() *cobra.Command {
	var minimum int
	cmd := &cobra.Command{
		Use:   "notes <habit>",
		Short: "Analyze the notes written for a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, logs, err := a.habitLogs(cmd, args[0])
			if err != nil {
				return err
			}
			analysis := analytics.AnalyzeNotesWithMinimum(logs, minimum)

			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return outputJSON(out, analysis)
			}
			fmt.Fprintf(out, "%s: %d notes\n", h.DisplayName(), analysis.TotalNotes)
			if !analysis.HasEnoughData {
				fmt.Fprintf(out, "Add at least %d notes to see patterns.\n", minimum)
				return nil
			}
			s := analysis.Sentiment
			fmt.Fprintf(out, "Keywords:  %s\n", strings.Join(analysis.Keywords, ", "))
			fmt.Fprintf(out, "Sentiment: %d positive, %d negative, %d neutral (average %.1f)\n",
				s.Positive, s.Negative, s.Neutral, s.AverageScore)
			fmt.Fprintln(out)
			fmt.Fprintln(out, analysis.CorrelationText)
			return nil
		},
	}
	cmd.Flags().IntVar(&minimum, "min", analytics.MinNotes, "notes required before patterns are reported")
	return cmd
}

func (a *app) reflectCmd() *cobra.Command {
	var payloadOnly bool
	cmd := &cobra.Command{
		Use:   "reflect [note]",
		Short: "Reflect on today's check-ins",
		Long: `Builds a reflection from every habit logged today, plus an optional
free-text note. --payload prints the structured input instead, for piping
into an external text generator.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.ctx(cmd)
			pending, err := a.todaysChanges(cmd)
			if err != nil {
				return err
			}
			note := strings.Join(args, " ")

			out := cmd.OutOrStdout()
			if payloadOnly {
				builder := reflection.NewBuilder(a.repo, a.logger)
				builder.Clock = a.now
				return outputJSON(out, builder.Build(ctx, pending, note))
			}

			r := a.reflector().Reflect(ctx, pending, note)
			if a.jsonOutput {
				return outputJSON(out, r)
			}
			fmt.Fprintln(out, r.Text)
			for _, o := range r.Payload.RecentSummary.NotableObservations {
				fmt.Fprintf(out, "  • %s\n", o)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&payloadOnly, "payload", false, "print the reflection payload as JSON")
	return cmd
}

// todaysChanges treats every entry logged today as a change to reflect on.
func (a *app) todaysChanges(cmd *cobra.Command) (map[string]reflection.PendingChange, error) {
	ctx := a.ctx(cmd)
	habits, err := a.repo.ListHabits(ctx, true)
	if err != nil {
		return nil, err
	}
	logs, err := a.repo.ListLogs(ctx, store.LogFilter{Date: analytics.DateKey(a.now())})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]store.Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
	}
	pending := make(map[string]reflection.PendingChange)
	for _, e := range logs {
		h, ok := byID[e.HabitID]
		if !ok {
			continue
		}
		pending[h.ID] = reflection.PendingChange{
			HabitID:  h.ID,
			Name:     h.DisplayName(),
			Category: h.Category,
			Status:   e.Status,
		}
	}
	return pending, nil
}

func (a *app) archiveCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "archive <habit>",
		Short: "Hide a habit without losing its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.resolveHabit(args[0])
			if err != nil {
				return err
			}
			h, err = a.repo.ArchiveHabit(h.ID, !undo)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return outputJSON(out, h)
			}
			if undo {
				fmt.Fprintf(out, "Restored: %s\n", h.DisplayName())
			} else {
				fmt.Fprintf(out, "Archived: %s\n", h.DisplayName())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "restore an archived habit")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <habit>",
		Short: "Delete a habit and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := store.Slugify(args[0])
			if err := a.repo.DeleteHabit(id); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return outputJSON(out, map[string]string{"deleted": id})
			}
			fmt.Fprintf(out, "Deleted: %s\n", id)
			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find notes containing text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := a.repo.SearchNotes(a.ctx(cmd), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOutput {
				if matches == nil {
					matches = []store.LogEntry{}
				}
				return outputJSON(out, matches)
			}
			if len(matches) == 0 {
				fmt.Fprintln(out, "No matches found.")
				return nil
			}
			for _, e := range matches {
				fmt.Fprintf(out, "%s %s: %s\n", e.Date, e.HabitID, e.Notes)
			}
			return nil
		},
	}
}

func (a *app) initCmd() *cobra.Command {
	var remote string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Put the data directory under git",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return hsync.NewRepo(a.cfg.DataDir, cmd.OutOrStdout(), a.logger).Init(remote)
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "git remote URL for origin")
	return cmd
}

func (a *app) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Commit, pull and push the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return hsync.NewRepo(a.cfg.DataDir, cmd.OutOrStdout(), a.logger).Sync(a.ctx(cmd))
		},
	}
}

// JSON helpers

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
