package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lune/internal/aggregate"
	"lune/internal/app"
)

const (
	minMood = 1
	maxMood = 5
)

func moodCmd() *cobra.Command {
	mood := &cobra.Command{
		Use:   "mood",
		Short: "Daily mood commands",
		Long:  "Moods are 1 (Red) to 5 (Yellow); each day holds at most one.",
	}
	mood.AddCommand(moodSetCmd())
	mood.AddCommand(moodGetCmd())
	mood.AddCommand(moodListCmd())
	return mood
}

func dateOrToday(a *app.App, date string) (string, error) {
	if date == "" {
		return a.Repo.Today(), nil
	}
	return date, validateDate(date)
}

func moodSetCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "set <1-5>",
		Short: "Record the mood for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := strconv.Atoi(args[0])
			if err != nil || m < minMood || m > maxMood {
				return fmt.Errorf("mood must be an integer between %d and %d", minMood, maxMood)
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				day, err := dateOrToday(a, date)
				if err != nil {
					return err
				}
				got, ok, err := a.Repo.SetMoodForDate(ctx, day, m)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("mood for %s could not be verified; run 'lune mood get --date %s'", day, day)
				}
				return printJSONOrTable(map[string]any{"date": day, "mood": got, "name": aggregate.MoodName(a.Config.Mood.Names, got)})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	return cmd
}

func moodGetCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the mood for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				day, err := dateOrToday(a, date)
				if err != nil {
					return err
				}
				m, ok := a.Repo.GetMoodForDate(ctx, day)
				if !ok {
					return printJSONOrTable(map[string]any{"date": day, "mood": nil})
				}
				return printJSONOrTable(map[string]any{"date": day, "mood": m, "name": aggregate.MoodName(a.Config.Mood.Names, m)})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	return cmd
}

func moodListCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded moods",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateDate(from); err != nil {
				return err
			}
			if err := validateDate(to); err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				moods := a.Repo.MoodsInRange(ctx, from, to)
				rows := make([]table.Row, 0, len(moods))
				for _, m := range moods {
					color, _ := aggregate.MoodColor(m.Mood)
					rows = append(rows, table.Row{m.Date, m.Mood, aggregate.MoodName(a.Config.Mood.Names, m.Mood), color})
				}
				return renderTable(moods, table.Row{"Date", "Mood", "Name", "Color"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "last date (inclusive)")
	return cmd
}

func journalCmd() *cobra.Command {
	j := &cobra.Command{
		Use:   "journal",
		Short: "Daily journal commands",
	}
	j.AddCommand(journalWriteCmd())
	j.AddCommand(journalShowCmd())
	j.AddCommand(journalListCmd())
	return j
}

func journalWriteCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "write <text>",
		Short: "Write (or replace) the entry for a day",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				day, err := dateOrToday(a, date)
				if err != nil {
					return err
				}
				if err := a.Repo.SaveJournalEntry(ctx, day, text); err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"date": day, "text": text})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	return cmd
}

func journalShowCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the entry for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				day, err := dateOrToday(a, date)
				if err != nil {
					return err
				}
				text, ok := a.Repo.GetJournalEntryForDate(ctx, day)
				if !ok {
					return printJSONOrTable(map[string]any{"date": day, "text": nil})
				}
				return printJSONOrTable(map[string]any{"date": day, "text": text})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	return cmd
}

func journalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				entries := a.Repo.AllJournalEntries(ctx)
				rows := make([]table.Row, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, table.Row{e.Date, e.Text})
				}
				return renderTable(entries, table.Row{"Date", "Text"}, rows)
			})
		},
	}
}
